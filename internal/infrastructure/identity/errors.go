package identity

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// classifyProviderError folds provider failures into the domain error
// taxonomy. The mapping is by provider error code so it covers every call
// site uniformly; anything unrecognized lands in the Application kind with
// the code preserved as metadata.
func classifyProviderError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return shared.Wrap(shared.KindApplication, "identity provider request failed", err)
	}

	switch apiErr.ErrorCode() {
	case "NotAuthorizedException":
		return shared.Wrap(shared.KindAuth, "invalid credentials", err)
	case "UserNotConfirmedException":
		return shared.Wrap(shared.KindAuth, "account is not confirmed", err)
	case "PasswordResetRequiredException":
		return shared.Wrap(shared.KindAuth, "password reset required", err)
	case "CodeMismatchException":
		return shared.Wrap(shared.KindAuth, "invalid confirmation code", err)
	case "ExpiredCodeException":
		return shared.Wrap(shared.KindAuth, "confirmation code has expired", err)
	case "UserNotFoundException":
		return shared.Wrap(shared.KindNotFound, "account not found", err)
	case "UsernameExistsException":
		return shared.Wrap(shared.KindDuplicate, "an account with this email already exists", err)
	case "InvalidParameterException", "InvalidPasswordException":
		return shared.Wrap(shared.KindValidation, apiErr.ErrorMessage(), err)
	case "TooManyRequestsException", "LimitExceededException":
		return shared.Wrap(shared.KindApplication, "identity provider throttled the request", err).
			WithMeta("throttled", true)
	default:
		return shared.Wrap(shared.KindApplication, "identity provider request failed", err).
			WithMeta("providerCode", apiErr.ErrorCode())
	}
}
