package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/backend/internal/domain/shared"
)

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		code string
		want shared.Kind
	}{
		{"NotAuthorizedException", shared.KindAuth},
		{"UserNotConfirmedException", shared.KindAuth},
		{"PasswordResetRequiredException", shared.KindAuth},
		{"CodeMismatchException", shared.KindAuth},
		{"ExpiredCodeException", shared.KindAuth},
		{"UserNotFoundException", shared.KindNotFound},
		{"UsernameExistsException", shared.KindDuplicate},
		{"InvalidParameterException", shared.KindValidation},
		{"InvalidPasswordException", shared.KindValidation},
		{"TooManyRequestsException", shared.KindApplication},
		{"LimitExceededException", shared.KindApplication},
		{"InternalErrorException", shared.KindApplication},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := classifyProviderError(&smithy.GenericAPIError{Code: tt.code, Message: "provider says no"})
			require.Error(t, err)
			assert.True(t, shared.IsKind(err, tt.want), "expected kind %s, got %v", tt.want, err)
		})
	}
}

func TestClassifyProviderError_Details(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, classifyProviderError(nil))
	})

	t.Run("wrapped API errors are still classified", func(t *testing.T) {
		cause := &smithy.GenericAPIError{Code: "UserNotFoundException", Message: "no such user"}
		err := classifyProviderError(fmt.Errorf("operation SignUp: %w", cause))
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
	})

	t.Run("non-API failures land in application kind", func(t *testing.T) {
		err := classifyProviderError(errors.New("dial tcp: connection refused"))
		assert.True(t, shared.IsKind(err, shared.KindApplication))
	})

	t.Run("throttling is flagged in metadata", func(t *testing.T) {
		err := classifyProviderError(&smithy.GenericAPIError{Code: "TooManyRequestsException"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, true, domainErr.Metadata["throttled"])
	})

	t.Run("unknown codes keep the provider code as metadata", func(t *testing.T) {
		err := classifyProviderError(&smithy.GenericAPIError{Code: "SomethingNewException"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SomethingNewException", domainErr.Metadata["providerCode"])
	})

	t.Run("validation keeps the provider message", func(t *testing.T) {
		err := classifyProviderError(&smithy.GenericAPIError{
			Code:    "InvalidPasswordException",
			Message: "Password did not conform with policy",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "Password did not conform with policy", domainErr.Message)
	})
}
