// Package cognito implementa idp.Client sobre AWS Cognito User Pools
// (aws-sdk-go-v2, service/cognitoidentityprovider).
package cognito

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/dropDatabas3/idpbridge/internal/idp"
)

// ErrSDKConfig indica que no se pudo armar la configuración del SDK. Es un
// problema de entorno, no una respuesta del proveedor.
var ErrSDKConfig = errors.New("cognito: aws sdk configuration failed")

// Config son los parámetros del app client.
type Config struct {
	Region       string
	ClientID     string
	ClientSecret string // opcional; si está, se envía SECRET_HASH
	Endpoint     string // opcional; emuladores locales (cognito-local, localstack)
}

// api es el subconjunto de *cip.Client que usamos. Permite fakes en tests.
type api interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

// Client implementa idp.Client.
type Client struct {
	api          api
	clientID     string
	clientSecret string
	// credErr se detecta al construir y se devuelve en cada llamada, antes de
	// tocar la red.
	credErr error
}

var _ idp.Client = (*Client)(nil)

// New arma el cliente con la cadena de credenciales por defecto del SDK.
// El retryer del SDK se reemplaza por NopRetryer: el bridge no reintenta.
func New(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSDKConfig, err)
	}

	svc := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	c := newWithAPI(svc, cfg)
	c.credErr = partialEnvCredentials(os.Getenv)
	return c, nil
}

func newWithAPI(a api, cfg Config) *Client {
	return &Client{
		api:          a,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// partialEnvCredentials detecta credenciales estáticas a medias en el entorno:
// una de las dos claves sin la otra.
func partialEnvCredentials(getenv func(string) string) error {
	ak := strings.TrimSpace(getenv("AWS_ACCESS_KEY_ID"))
	sk := strings.TrimSpace(getenv("AWS_SECRET_ACCESS_KEY"))
	if (ak == "") == (sk == "") {
		return nil
	}
	missing := "AWS_SECRET_ACCESS_KEY"
	if ak == "" {
		missing = "AWS_ACCESS_KEY_ID"
	}
	return &idp.Error{
		Kind:    idp.KindMissingCredentials,
		Message: "partial credentials: " + missing + " is not set",
	}
}

func (c *Client) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(c.clientSecret, username, c.clientID))
}

func (c *Client) SignUp(ctx context.Context, in idp.SignUpInput) (*idp.SignUpOutput, error) {
	if c.credErr != nil {
		return nil, c.credErr
	}
	attrs := make([]types.AttributeType, 0, len(in.Attributes))
	for _, a := range in.Attributes {
		attrs = append(attrs, types.AttributeType{Name: aws.String(a.Name), Value: aws.String(a.Value)})
	}
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(c.clientID),
		Username:       aws.String(in.Username),
		Password:       aws.String(in.Password),
		SecretHash:     c.secretHash(in.Username),
		UserAttributes: attrs,
	})
	if err != nil {
		return nil, classify(err)
	}
	return &idp.SignUpOutput{
		UserSub:       out.UserSub,
		UserConfirmed: out.UserConfirmed,
		CodeDelivery:  codeDelivery(out.CodeDeliveryDetails),
	}, nil
}

func (c *Client) ConfirmSignUp(ctx context.Context, in idp.ConfirmSignUpInput) error {
	if c.credErr != nil {
		return c.credErr
	}
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(in.Username),
		ConfirmationCode: aws.String(in.Code),
		SecretHash:       c.secretHash(in.Username),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *Client) ResendConfirmationCode(ctx context.Context, username string) (*idp.CodeDelivery, error) {
	if c.credErr != nil {
		return nil, c.credErr
	}
	out, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		SecretHash: c.secretHash(username),
	})
	if err != nil {
		return nil, classify(err)
	}
	return codeDelivery(out.CodeDeliveryDetails), nil
}

func (c *Client) InitiateAuth(ctx context.Context, username, password string) (*idp.AuthOutput, error) {
	if c.credErr != nil {
		return nil, c.credErr
	}
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       aws.String(c.clientID),
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: params,
	})
	if err != nil {
		return nil, classify(err)
	}

	res := &idp.AuthOutput{}
	if r := out.AuthenticationResult; r != nil {
		exp := r.ExpiresIn
		res.Tokens = &idp.Tokens{
			AccessToken:  r.AccessToken,
			IDToken:      r.IdToken,
			RefreshToken: r.RefreshToken,
			ExpiresIn:    &exp,
			TokenType:    r.TokenType,
		}
	}
	if name := string(out.ChallengeName); name != "" {
		res.Challenge = &idp.Challenge{
			Name:       name,
			Session:    aws.ToString(out.Session),
			Parameters: out.ChallengeParameters,
		}
	}
	return res, nil
}

func (c *Client) ForgotPassword(ctx context.Context, username string) (*idp.CodeDelivery, error) {
	if c.credErr != nil {
		return nil, c.credErr
	}
	out, err := c.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		SecretHash: c.secretHash(username),
	})
	if err != nil {
		return nil, classify(err)
	}
	return codeDelivery(out.CodeDeliveryDetails), nil
}

func (c *Client) ConfirmForgotPassword(ctx context.Context, in idp.ConfirmForgotPasswordInput) error {
	if c.credErr != nil {
		return c.credErr
	}
	_, err := c.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(in.Username),
		ConfirmationCode: aws.String(in.Code),
		Password:         aws.String(in.NewPassword),
		SecretHash:       c.secretHash(in.Username),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func codeDelivery(d *types.CodeDeliveryDetailsType) *idp.CodeDelivery {
	if d == nil {
		return nil
	}
	return &idp.CodeDelivery{
		AttributeName:  aws.ToString(d.AttributeName),
		DeliveryMedium: string(d.DeliveryMedium),
		Destination:    aws.ToString(d.Destination),
	}
}
