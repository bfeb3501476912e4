package idp

import (
	"errors"
	"fmt"
)

// ErrorKind es la variante cerrada de un error del proveedor.
type ErrorKind int

const (
	// KindUnclassified cubre cualquier error sin variante propia.
	KindUnclassified ErrorKind = iota
	KindMissingCredentials
	KindUserNotConfirmed
	KindNotAuthorized
	KindUsernameExists
	KindCodeMismatch
	KindExpiredCode
	KindInvalidPassword
	KindInvalidParameter
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredentials:
		return "missing_credentials"
	case KindUserNotConfirmed:
		return "user_not_confirmed"
	case KindNotAuthorized:
		return "not_authorized"
	case KindUsernameExists:
		return "username_exists"
	case KindCodeMismatch:
		return "code_mismatch"
	case KindExpiredCode:
		return "expired_code"
	case KindInvalidPassword:
		return "invalid_password"
	case KindInvalidParameter:
		return "invalid_parameter"
	default:
		return "unclassified"
	}
}

// Error es el error que devuelven las implementaciones de Client.
// Code es el código nativo del proveedor (ej: "TooManyRequestsException") y
// puede estar vacío; Message es el texto del proveedor para diagnóstico.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("idp %s: %s", e.Code, e.Message)
	case e.Code != "":
		return "idp " + e.Code
	case e.Message != "":
		return "idp: " + e.Message
	case e.Err != nil:
		return "idp: " + e.Err.Error()
	default:
		return "idp: " + e.Kind.String()
	}
}

// Unwrap expone la causa original.
func (e *Error) Unwrap() error { return e.Err }

// AsError extrae un *Error de la cadena. Si err no contiene uno, lo envuelve
// como KindUnclassified sin código.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnclassified, Message: err.Error(), Err: err}
}
