package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dropDatabas3/idpbridge/internal/claims"
	"github.com/dropDatabas3/idpbridge/internal/idp"
)

// OperationName es el nombre de operación del sobre de entrada.
type OperationName string

const (
	OpSignUp                 OperationName = "sign_up"
	OpConfirmSignUp          OperationName = "confirm_sign_up"
	OpResendConfirmationCode OperationName = "resend_confirmation_code"
	OpInitiateAuth           OperationName = "initiate_auth"
	OpForgotPassword         OperationName = "forgot_password"
	OpConfirmForgotPassword  OperationName = "confirm_forgot_password"
)

// Operations lista las operaciones soportadas.
var Operations = []OperationName{
	OpSignUp,
	OpConfirmSignUp,
	OpResendConfirmationCode,
	OpInitiateAuth,
	OpForgotPassword,
	OpConfirmForgotPassword,
}

// Known reporta si el nombre pertenece al conjunto cerrado.
func (o OperationName) Known() bool {
	for _, k := range Operations {
		if o == k {
			return true
		}
	}
	return false
}

// Request es el sobre de entrada: {op, payload}.
type Request struct {
	Op      OperationName
	Payload map[string]any
}

// ParseRequest decodifica el sobre. Entrada vacía o "null" equivale a {}.
// Un payload ausente o que no es objeto se trata como objeto vacío.
func ParseRequest(raw []byte) (Request, *Error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Request{Payload: map[string]any{}}, nil
	}
	var env struct {
		Op      any `json:"op"`
		Payload any `json:"payload"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Request{}, ErrBadJSON.WithCause(err)
	}
	return NewRequest(opName(env.Op), env.Payload), nil
}

// NewRequest arma un Request desde valores ya decodificados (modo HTTP).
func NewRequest(op OperationName, payload any) Request {
	p, ok := payload.(map[string]any)
	if !ok || p == nil {
		p = map[string]any{}
	}
	return Request{Op: OperationName(strings.TrimSpace(string(op))), Payload: p}
}

// opName stringifica op. Valores falsy (null, "", false, 0) quedan vacíos.
func opName(v any) OperationName {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return OperationName(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return OperationName(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return OperationName(fmt.Sprint(t))
	}
}

// =================================================================================
// RESPUESTAS
// =================================================================================

// Response es el sobre de salida: Success {ok:true, ...campos} o
// Failure {ok:false, error_code, error, status}.
type Response struct {
	result  any
	failure *Error
}

// Success envuelve el resultado tipado de una operación.
func Success(result any) Response {
	return Response{result: result}
}

// Failure envuelve un Error. Un nil se trata como falla interna.
func Failure(err *Error) Response {
	if err == nil {
		err = ErrInternal
	}
	return Response{failure: err}
}

func (r Response) OK() bool { return r.failure == nil }

// Err devuelve el Error de una Failure; nil si es Success.
func (r Response) Err() *Error { return r.failure }

// Result devuelve el resultado tipado de un Success.
func (r Response) Result() any { return r.result }

// Status es el hint HTTP: 200 para Success, el status del Error si no.
func (r Response) Status() int {
	if r.failure != nil {
		return r.failure.Status
	}
	return 200
}

type failureBody struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(failureBody{
			OK:        false,
			ErrorCode: r.failure.Code,
			Error:     r.failure.Message,
			Status:    r.failure.Status,
		})
	}
	fields := map[string]json.RawMessage{}
	if r.result != nil {
		b, err := json.Marshal(r.result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("result is not an object: %w", err)
		}
	}
	fields["ok"] = json.RawMessage("true")
	return json.Marshal(fields)
}

// =================================================================================
// RESULTADOS POR OPERACIÓN
// =================================================================================

type SignUpResult struct {
	UserSub       *string           `json:"user_sub"`
	UserConfirmed bool              `json:"user_confirmed"`
	CodeDelivery  *idp.CodeDelivery `json:"code_delivery"`
}

type ConfirmSignUpResult struct {
	Confirmed bool `json:"confirmed"`
}

// CodeDeliveryResult sirve a resend_confirmation_code y forgot_password.
type CodeDeliveryResult struct {
	CodeDelivery *idp.CodeDelivery `json:"code_delivery"`
}

type AuthTokens struct {
	AccessToken  *string `json:"access_token"`
	IDToken      *string `json:"id_token"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresIn    *int32  `json:"expires_in"`
	TokenType    *string `json:"token_type"`
}

type ChallengeInfo struct {
	Name       string            `json:"name"`
	Session    string            `json:"session,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// InitiateAuthResult: claims NO está verificado, es solo informativo.
type InitiateAuthResult struct {
	Auth      AuthTokens      `json:"auth"`
	Claims    claims.Identity `json:"claims"`
	Challenge *ChallengeInfo  `json:"challenge,omitempty"`
}

type ConfirmForgotPasswordResult struct {
	Reset bool `json:"reset"`
}
