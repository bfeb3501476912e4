// Package idp define el contrato que el bridge necesita de un proveedor de
// identidad administrado: seis acciones, tipos de entrada/salida neutrales y un
// error con variantes cerradas. Las implementaciones (ej: cognito) no deciden
// nada de validación ni de formato de respuesta.
package idp

import "context"

// Client ejecuta las acciones remotas. Cada método hace a lo sumo una llamada
// de red y no reintenta.
type Client interface {
	SignUp(ctx context.Context, in SignUpInput) (*SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in ConfirmSignUpInput) error
	ResendConfirmationCode(ctx context.Context, username string) (*CodeDelivery, error)
	InitiateAuth(ctx context.Context, username, password string) (*AuthOutput, error)
	ForgotPassword(ctx context.Context, username string) (*CodeDelivery, error)
	ConfirmForgotPassword(ctx context.Context, in ConfirmForgotPasswordInput) error
}

// Attribute es un atributo de usuario (email, given_name, ...).
type Attribute struct {
	Name  string
	Value string
}

// SignUpInput registra una cuenta nueva.
type SignUpInput struct {
	Username   string
	Password   string
	Attributes []Attribute
}

// SignUpOutput es el resultado del registro.
type SignUpOutput struct {
	UserSub       *string
	UserConfirmed bool
	CodeDelivery  *CodeDelivery
}

// ConfirmSignUpInput confirma una cuenta pendiente.
type ConfirmSignUpInput struct {
	Username string
	Code     string
}

// ConfirmForgotPasswordInput completa un reset de password.
type ConfirmForgotPasswordInput struct {
	Username    string
	Code        string
	NewPassword string
}

// CodeDelivery describe cómo se envió un código. Se pasa tal cual al caller,
// con los nombres de campo del proveedor.
type CodeDelivery struct {
	AttributeName  string `json:"AttributeName,omitempty"`
	DeliveryMedium string `json:"DeliveryMedium,omitempty"`
	Destination    string `json:"Destination,omitempty"`
}

// Tokens es el resultado de una autenticación exitosa.
type Tokens struct {
	AccessToken  *string
	IDToken      *string
	RefreshToken *string
	ExpiresIn    *int32
	TokenType    *string
}

// Challenge aparece cuando el proveedor exige un paso extra (NEW_PASSWORD_REQUIRED,
// SMS_MFA, ...) en lugar de emitir tokens.
type Challenge struct {
	Name       string
	Session    string
	Parameters map[string]string
}

// AuthOutput es el resultado de InitiateAuth: tokens, challenge, o ninguno.
type AuthOutput struct {
	Tokens    *Tokens
	Challenge *Challenge
}
