// Package keymgmt provides field-level encryption for sensitive customer
// data. The KMS provider delegates key handling to AWS; the local provider
// derives a key from a passphrase and is meant for development only.
package keymgmt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

// Encryptor encrypts and decrypts opaque byte payloads.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// New selects the encryptor named by the configuration.
func New(cfg infraconfig.KeyMgmtConfig, awsCfg infraconfig.AWSConfig, logger *zap.Logger) (Encryptor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider {
	case "kms":
		return NewKMSEncryptor(awsCfg, cfg, WithLogger(logger))
	case "local":
		logger.Warn("Using local passphrase-derived encryption; not for production")
		return NewLocalEncryptor(cfg.LocalPassphrase)
	default:
		return nil, fmt.Errorf("unknown keymgmt provider %q", cfg.Provider)
	}
}
