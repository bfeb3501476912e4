package bridge

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/idpbridge/internal/config"
)

// Kind clasifica una falla del sobre de respuesta.
type Kind int

const (
	KindInput Kind = iota + 1
	KindValidation
	KindConfiguration
	KindProvider
	KindUnknownOperation
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindProvider:
		return "provider"
	case KindUnknownOperation:
		return "unknown_operation"
	default:
		return "unclassified"
	}
}

// Error es una falla ya traducida al vocabulario estable del bridge.
// Code y Status terminan en el sobre (error_code, status); Err queda para logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError crea un Error ad-hoc.
func NewError(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: status}
}

// WithMessage devuelve una COPIA con otro mensaje.
func (e *Error) WithMessage(msg string) *Error {
	n := *e
	n.Message = msg
	return &n
}

// WithCause devuelve una COPIA con la causa original.
func (e *Error) WithCause(err error) *Error {
	n := *e
	n.Err = err
	return &n
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// Entrada
var (
	ErrBadJSON = NewError(KindInput, http.StatusBadRequest, "bad_json", "Invalid JSON input")
)

// Validación (nunca llegan a la red)
var (
	ErrInvalidPayload     = NewError(KindValidation, http.StatusBadRequest, "invalid_payload", "Invalid payload")
	ErrInvalidEmail       = NewError(KindValidation, http.StatusBadRequest, "invalid_email", "Invalid email")
	ErrInvalidUsername    = NewError(KindValidation, http.StatusBadRequest, "invalid_username", "Missing username")
	ErrMissingPassword    = NewError(KindValidation, http.StatusBadRequest, "invalid_password", "Missing password")
	ErrMissingNewPassword = NewError(KindValidation, http.StatusBadRequest, "invalid_password", "Missing new password")
	ErrInvalidCode        = NewError(KindValidation, http.StatusBadRequest, "invalid_code", "Invalid confirmation code")
)

var (
	ErrUnknownOp = NewError(KindUnknownOperation, http.StatusBadRequest, "unknown_op", "Unknown op")
)

// Configuración
var (
	ErrMissingRegion       = NewError(KindConfiguration, http.StatusInternalServerError, "missing_region", "Missing AWS_COGNITO_REGION (or AWS_REGION)")
	ErrMissingClientID     = NewError(KindConfiguration, http.StatusInternalServerError, "missing_client_id", "Missing AWS_COGNITO_APP_CLIENT_ID")
	ErrInvalidConfig       = NewError(KindConfiguration, http.StatusInternalServerError, "invalid_config", "Invalid configuration")
	ErrProviderUnavailable = NewError(KindConfiguration, http.StatusInternalServerError, "provider_unavailable", "Identity provider client could not be initialized")
	ErrMissingCredentials  = NewError(KindConfiguration, http.StatusInternalServerError, "MissingAWSCredentials",
		"AWS credentials not found. Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY (and AWS_SESSION_TOKEN for temporary credentials) or configure an AWS profile/role.")
)

// Proveedor y otros
var (
	ErrProviderFailure = NewError(KindUnclassified, http.StatusInternalServerError, "provider_error", "Identity provider error")
	ErrInternal        = NewError(KindUnclassified, http.StatusInternalServerError, "internal_error", "Internal error")
	ErrRateLimited     = NewError(KindInput, http.StatusTooManyRequests, "rate_limited", "Too many requests")
)

// ConfigError traduce un error de config.Validate al Error del sobre.
func ConfigError(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, config.ErrMissingRegion):
		return ErrMissingRegion.WithCause(err)
	case errors.Is(err, config.ErrMissingClientID):
		return ErrMissingClientID.WithCause(err)
	default:
		return ErrInvalidConfig.WithCause(err)
	}
}

// unknownOp arma el Error con el nombre recibido en el mensaje.
func unknownOp(op OperationName) *Error {
	return ErrUnknownOp.WithMessage("Unknown op: " + string(op))
}
