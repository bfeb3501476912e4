package bridge

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/idpbridge/internal/idp"
)

// MapError traduce cualquier error a un *Error de la taxonomía estable.
// Un *Error ya traducido pasa sin cambios; cualquier otro se interpreta como
// error del proveedor.
func MapError(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}

	pe := idp.AsError(err)
	switch pe.Kind {
	case idp.KindMissingCredentials:
		return ErrMissingCredentials.WithCause(err)
	case idp.KindUserNotConfirmed:
		return providerError(http.StatusForbidden, "UserNotConfirmedException", pe.Message, err)
	case idp.KindNotAuthorized:
		return providerError(http.StatusUnauthorized, "NotAuthorizedException", pe.Message, err)
	case idp.KindUsernameExists:
		return providerError(http.StatusConflict, "UsernameExistsException", pe.Message, err)
	case idp.KindCodeMismatch:
		return providerError(http.StatusBadRequest, "CodeMismatchException", pe.Message, err)
	case idp.KindExpiredCode:
		return providerError(http.StatusBadRequest, "ExpiredCodeException", pe.Message, err)
	case idp.KindInvalidPassword:
		return providerError(http.StatusBadRequest, "InvalidPasswordException", pe.Message, err)
	case idp.KindInvalidParameter:
		return providerError(http.StatusBadRequest, "InvalidParameterException", pe.Message, err)
	case idp.KindUnclassified:
		return unclassified(pe, err)
	}
	return unclassified(pe, err)
}

func providerError(status int, code, msg string, cause error) *Error {
	return &Error{Kind: KindProvider, Code: code, Message: msg, Status: status, Err: cause}
}

// unclassified conserva el código nativo del proveedor si lo hay.
func unclassified(pe *idp.Error, cause error) *Error {
	e := ErrProviderFailure.WithCause(cause)
	if pe.Code != "" {
		e.Code = pe.Code
	}
	if pe.Message != "" {
		e.Message = pe.Message
	}
	return e
}
