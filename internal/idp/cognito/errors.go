package cognito

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/dropDatabas3/idpbridge/internal/idp"
)

// kinds mapea el código de error de la API de Cognito a la variante cerrada.
var kinds = map[string]idp.ErrorKind{
	"UserNotConfirmedException": idp.KindUserNotConfirmed,
	"NotAuthorizedException":    idp.KindNotAuthorized,
	"UsernameExistsException":   idp.KindUsernameExists,
	"CodeMismatchException":     idp.KindCodeMismatch,
	"ExpiredCodeException":      idp.KindExpiredCode,
	"InvalidPasswordException":  idp.KindInvalidPassword,
	"InvalidParameterException": idp.KindInvalidParameter,
}

// Fragmentos estables de los mensajes del SDK cuando la cadena de credenciales
// no resuelve nada.
var credentialFailures = []string{
	"failed to retrieve credentials",
	"failed to refresh cached credentials",
	"no EC2 IMDS role found",
	"static credentials are empty",
}

// classify convierte un error del SDK en *idp.Error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &idp.Error{
			Kind:    kinds[apiErr.ErrorCode()], // ausente => KindUnclassified
			Code:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}
	}

	msg := err.Error()
	for _, frag := range credentialFailures {
		if strings.Contains(msg, frag) {
			return &idp.Error{Kind: idp.KindMissingCredentials, Message: msg, Err: err}
		}
	}
	return &idp.Error{Kind: idp.KindUnclassified, Message: msg, Err: err}
}
