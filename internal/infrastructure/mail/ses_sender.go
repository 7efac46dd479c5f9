package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/salesdesk/backend/internal/domain/shared"
	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the slice of the SESv2 client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

var _ Sender = (*SESSender)(nil)

// SESSender delivers mail through Amazon SESv2.
type SESSender struct {
	client sesAPI
	sender string
	logger *zap.Logger
}

// SESSenderOption is a functional option for configuring SESSender
type SESSenderOption func(*SESSender)

// WithLogger sets a custom logger for SESSender
func WithLogger(logger *zap.Logger) SESSenderOption {
	return func(s *SESSender) {
		s.logger = logger
	}
}

// NewSESSender creates an SESSender from configuration
func NewSESSender(awsCfg infraconfig.AWSConfig, cfg infraconfig.MailConfig, opts ...SESSenderOption) (*SESSender, error) {
	if cfg.Sender == "" {
		return nil, errors.New("mail sender address is required")
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

	client := sesv2.NewFromConfig(sdkCfg, func(o *sesv2.Options) {
		if awsCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
		}
	})

	return NewSESSenderWithClient(client, cfg.Sender, opts...), nil
}

// NewSESSenderWithClient creates an SESSender around an existing client
func NewSESSenderWithClient(client sesAPI, sender string, opts ...SESSenderOption) *SESSender {
	s := &SESSender{
		client: client,
		sender: sender,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one HTML message to the given recipients
func (s *SESSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return shared.NewValidation("at least one recipient is required")
	}
	if subject == "" {
		return shared.NewValidation("mail subject is required")
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String(charsetUTF8),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String(charsetUTF8),
					},
				},
			},
		},
	})
	if err != nil {
		return shared.Wrap(shared.KindApplication, "failed to send mail", err).
			WithMeta("recipients", len(to))
	}

	s.logger.Debug("Mail sent",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
