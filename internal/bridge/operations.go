package bridge

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/dropDatabas3/idpbridge/internal/validation"
)

// Operation es una operación ya validada y normalizada. Cada variante lleva
// solo los campos que su acción remota necesita.
type Operation interface {
	Name() OperationName
	// Subject es el usuario sobre el que actúa (para logs, se enmascara).
	Subject() string
}

type SignUp struct {
	Email      string
	Password   string
	GivenName  string
	FamilyName string
	Phone      string
}

type ConfirmSignUp struct {
	Email string
	Code  string
}

type ResendConfirmationCode struct {
	Email string
}

// InitiateAuth acepta un username sin "@" (alias de Cognito).
type InitiateAuth struct {
	Username string
	Password string
}

type ForgotPassword struct {
	Email string
}

type ConfirmForgotPassword struct {
	Email       string
	Code        string
	NewPassword string
}

func (SignUp) Name() OperationName                 { return OpSignUp }
func (ConfirmSignUp) Name() OperationName          { return OpConfirmSignUp }
func (ResendConfirmationCode) Name() OperationName { return OpResendConfirmationCode }
func (InitiateAuth) Name() OperationName           { return OpInitiateAuth }
func (ForgotPassword) Name() OperationName         { return OpForgotPassword }
func (ConfirmForgotPassword) Name() OperationName  { return OpConfirmForgotPassword }

func (o SignUp) Subject() string                 { return o.Email }
func (o ConfirmSignUp) Subject() string          { return o.Email }
func (o ResendConfirmationCode) Subject() string { return o.Email }
func (o InitiateAuth) Subject() string           { return o.Username }
func (o ForgotPassword) Subject() string         { return o.Email }
func (o ConfirmForgotPassword) Subject() string  { return o.Email }

// Cada operación decodifica solo las claves que lee: una clave ajena con un
// valor no coercionable no la afecta. Los escalares se coercionan a string
// (un code numérico 123456 llega como "123456").

type identityKeys struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
}

func (k identityKeys) username() string {
	return validation.NormalizeUsername(first(k.Username, k.Email))
}

type codeKeys struct {
	Code             string `mapstructure:"code"`
	ConfirmationCode string `mapstructure:"confirmation_code"`
}

func (k codeKeys) code() string {
	return validation.NormalizeConfirmationCode(first(k.Code, k.ConfirmationCode))
}

type signUpPayload struct {
	identityKeys `mapstructure:",squash"`
	Password     string `mapstructure:"password"`
	FirstName    string `mapstructure:"first_name"`
	GivenName    string `mapstructure:"given_name"`
	LastName     string `mapstructure:"last_name"`
	FamilyName   string `mapstructure:"family_name"`
	Phone        string `mapstructure:"phone"`
	PhoneNumber  string `mapstructure:"phone_number"`
}

type confirmPayload struct {
	identityKeys `mapstructure:",squash"`
	codeKeys     `mapstructure:",squash"`
}

type identityPayload struct {
	identityKeys `mapstructure:",squash"`
}

type loginPayload struct {
	identityKeys `mapstructure:",squash"`
	Password     string `mapstructure:"password"`
}

type resetPayload struct {
	identityKeys `mapstructure:",squash"`
	codeKeys     `mapstructure:",squash"`
	NewPassword  string `mapstructure:"new_password"`
	Password     string `mapstructure:"password"`
}

// decodePayload llena target con las claves que declara. Los nombres se
// comparan exactos ("EMAIL" no es "email").
func decodePayload(payload map[string]any, target any) *Error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       falsyScalars,
		WeaklyTypedInput: true,
		MatchName:        func(mapKey, fieldName string) bool { return mapKey == fieldName },
		Result:           target,
	})
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if err := dec.Decode(payload); err != nil {
		return ErrInvalidPayload.WithCause(err)
	}
	return nil
}

// falsyScalars aplica a los destinos string la regla "valor falso = ausente":
// false y 0 quedan vacíos y true se lee como "True".
func falsyScalars(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		if v {
			return "True", nil
		}
		return "", nil
	case float64:
		if v == 0 {
			return "", nil
		}
	case int:
		if v == 0 {
			return "", nil
		}
	case int64:
		if v == 0 {
			return "", nil
		}
	}
	return data, nil
}

// ParseOperation valida el payload contra la operación pedida y devuelve la
// variante tipada. El orden de chequeo es email -> code -> password.
func ParseOperation(op OperationName, payload map[string]any) (Operation, *Error) {
	switch op {
	case OpSignUp:
		var p signUpPayload
		if e := decodePayload(payload, &p); e != nil {
			return nil, e
		}
		email := p.username()
		if !validation.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if p.Password == "" {
			return nil, ErrMissingPassword
		}
		return SignUp{
			Email:      email,
			Password:   p.Password,
			GivenName:  strings.TrimSpace(first(p.FirstName, p.GivenName)),
			FamilyName: strings.TrimSpace(first(p.LastName, p.FamilyName)),
			Phone:      strings.TrimSpace(first(p.Phone, p.PhoneNumber)),
		}, nil

	case OpConfirmSignUp:
		var p confirmPayload
		if e := decodePayload(payload, &p); e != nil {
			return nil, e
		}
		email := p.username()
		if !validation.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		code := p.code()
		if !validation.ValidConfirmationCode(code) {
			return nil, ErrInvalidCode
		}
		return ConfirmSignUp{Email: email, Code: code}, nil

	case OpResendConfirmationCode, OpForgotPassword:
		var p identityPayload
		if e := decodePayload(payload, &p); e != nil {
			return nil, e
		}
		email := p.username()
		if !validation.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if op == OpForgotPassword {
			return ForgotPassword{Email: email}, nil
		}
		return ResendConfirmationCode{Email: email}, nil

	case OpInitiateAuth:
		var p loginPayload
		if e := decodePayload(payload, &p); e != nil {
			return nil, e
		}
		username := p.username()
		if username == "" {
			return nil, ErrInvalidUsername
		}
		if p.Password == "" {
			return nil, ErrMissingPassword
		}
		return InitiateAuth{Username: username, Password: p.Password}, nil

	case OpConfirmForgotPassword:
		var p resetPayload
		if e := decodePayload(payload, &p); e != nil {
			return nil, e
		}
		email := p.username()
		if !validation.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		code := p.code()
		if !validation.ValidConfirmationCode(code) {
			return nil, ErrInvalidCode
		}
		pw := first(p.NewPassword, p.Password)
		if pw == "" {
			return nil, ErrMissingNewPassword
		}
		return ConfirmForgotPassword{Email: email, Code: code, NewPassword: pw}, nil
	}
	return nil, unknownOp(op)
}

// first devuelve el primer valor no vacío (sin recortar).
func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
