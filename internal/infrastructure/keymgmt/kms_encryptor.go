package keymgmt

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"go.uber.org/zap"

	"github.com/salesdesk/backend/internal/domain/shared"
	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

// kmsAPI is the slice of the KMS client the encryptor uses.
type kmsAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

var _ Encryptor = (*KMSEncryptor)(nil)

// KMSEncryptor encrypts payloads directly with an AWS KMS key. Payloads are
// small (tax identifiers), so direct Encrypt/Decrypt is sufficient and no
// envelope scheme is needed.
type KMSEncryptor struct {
	client kmsAPI
	keyID  string
	logger *zap.Logger
}

// KMSEncryptorOption is a functional option for configuring KMSEncryptor
type KMSEncryptorOption func(*KMSEncryptor)

// WithLogger sets a custom logger for KMSEncryptor
func WithLogger(logger *zap.Logger) KMSEncryptorOption {
	return func(e *KMSEncryptor) {
		e.logger = logger
	}
}

// NewKMSEncryptor creates a KMSEncryptor from configuration
func NewKMSEncryptor(awsCfg infraconfig.AWSConfig, cfg infraconfig.KeyMgmtConfig, opts ...KMSEncryptorOption) (*KMSEncryptor, error) {
	if cfg.KMSKeyID == "" {
		return nil, errors.New("keymgmt KMS key id is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if awsCfg.AccessKeyID != "" && awsCfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := kms.NewFromConfig(sdkCfg, func(o *kms.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
		}
	})

	return NewKMSEncryptorWithClient(client, cfg.KMSKeyID, opts...), nil
}

// NewKMSEncryptorWithClient creates a KMSEncryptor around an existing client
func NewKMSEncryptorWithClient(client kmsAPI, keyID string, opts ...KMSEncryptorOption) *KMSEncryptor {
	e := &KMSEncryptor{
		client: client,
		keyID:  keyID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encrypt encrypts the payload under the configured key
func (e *KMSEncryptor) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	out, err := e.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(e.keyID),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, shared.Wrap(shared.KindApplication, "failed to encrypt payload", err)
	}
	return out.CiphertextBlob, nil
}

// Decrypt decrypts a payload previously produced by Encrypt. The ciphertext
// blob carries the key reference, so no key id is passed.
func (e *KMSEncryptor) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	out, err := e.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		return nil, shared.Wrap(shared.KindApplication, "failed to decrypt payload", err)
	}
	return out.Plaintext, nil
}
