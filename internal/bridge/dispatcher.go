// Package bridge implementa el contrato {op, payload} -> sobre de respuesta
// sobre un idp.Client: validación por operación, una llamada remota como
// máximo y traducción de errores a una taxonomía estable.
package bridge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idpbridge/internal/claims"
	"github.com/dropDatabas3/idpbridge/internal/idp"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
)

// Observer recibe el resultado de cada operación (métricas).
type Observer func(op OperationName, resp Response, elapsed time.Duration)

// Dispatcher es inmutable después de New y seguro para uso concurrente.
type Dispatcher struct {
	client   idp.Client
	observer Observer
}

type Option func(*Dispatcher)

// WithObserver registra un Observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

func New(client idp.Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{client: client}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Handle ejecuta el Request y siempre devuelve un Response. Un panic se
// recupera como falla interna.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	ctx, log := logger.With(ctx, logger.Layer("dispatcher"), logger.Op(string(req.Op)))
	subject := ""

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic handling operation", zap.Any("panic", r), zap.Stack("stack"))
			resp = Failure(ErrInternal.WithCause(fmt.Errorf("panic: %v", r)))
		}
		elapsed := time.Since(start)
		logOutcome(log, subject, resp, elapsed)
		if d.observer != nil {
			d.observer(req.Op, resp, elapsed)
		}
	}()

	op, verr := ParseOperation(req.Op, req.Payload)
	if verr != nil {
		return Failure(verr)
	}
	subject = op.Subject()

	result, err := d.execute(ctx, op)
	if err != nil {
		return Failure(MapError(err))
	}
	return Success(result)
}

func (d *Dispatcher) execute(ctx context.Context, op Operation) (any, error) {
	switch o := op.(type) {
	case SignUp:
		attrs := []idp.Attribute{{Name: claims.Email, Value: o.Email}}
		if o.GivenName != "" {
			attrs = append(attrs, idp.Attribute{Name: claims.GivenName, Value: o.GivenName})
		}
		if o.FamilyName != "" {
			attrs = append(attrs, idp.Attribute{Name: claims.FamilyName, Value: o.FamilyName})
		}
		if o.Phone != "" {
			attrs = append(attrs, idp.Attribute{Name: claims.PhoneNumber, Value: o.Phone})
		}
		out, err := d.client.SignUp(ctx, idp.SignUpInput{
			Username:   o.Email,
			Password:   o.Password,
			Attributes: attrs,
		})
		if err != nil {
			return nil, err
		}
		res := SignUpResult{}
		if out != nil {
			res.UserSub = out.UserSub
			res.UserConfirmed = out.UserConfirmed
			res.CodeDelivery = out.CodeDelivery
		}
		return res, nil

	case ConfirmSignUp:
		if err := d.client.ConfirmSignUp(ctx, idp.ConfirmSignUpInput{Username: o.Email, Code: o.Code}); err != nil {
			return nil, err
		}
		return ConfirmSignUpResult{Confirmed: true}, nil

	case ResendConfirmationCode:
		cd, err := d.client.ResendConfirmationCode(ctx, o.Email)
		if err != nil {
			return nil, err
		}
		return CodeDeliveryResult{CodeDelivery: cd}, nil

	case InitiateAuth:
		out, err := d.client.InitiateAuth(ctx, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		return authResult(o.Username, out), nil

	case ForgotPassword:
		cd, err := d.client.ForgotPassword(ctx, o.Email)
		if err != nil {
			return nil, err
		}
		return CodeDeliveryResult{CodeDelivery: cd}, nil

	case ConfirmForgotPassword:
		if err := d.client.ConfirmForgotPassword(ctx, idp.ConfirmForgotPasswordInput{
			Username:    o.Email,
			Code:        o.Code,
			NewPassword: o.NewPassword,
		}); err != nil {
			return nil, err
		}
		return ConfirmForgotPasswordResult{Reset: true}, nil
	}
	return nil, unknownOp(op.Name())
}

// authResult arma la respuesta de initiate_auth. Los claims salen del id token
// sin verificar; si no traen email se usa el username enviado.
func authResult(username string, out *idp.AuthOutput) InitiateAuthResult {
	res := InitiateAuthResult{}
	idToken := ""
	if out != nil && out.Tokens != nil {
		t := out.Tokens
		res.Auth = AuthTokens{
			AccessToken:  t.AccessToken,
			IDToken:      t.IDToken,
			RefreshToken: t.RefreshToken,
			ExpiresIn:    t.ExpiresIn,
			TokenType:    t.TokenType,
		}
		if t.IDToken != nil {
			idToken = *t.IDToken
		}
	}
	if out != nil && out.Challenge != nil {
		res.Challenge = &ChallengeInfo{
			Name:       out.Challenge.Name,
			Session:    out.Challenge.Session,
			Parameters: out.Challenge.Parameters,
		}
	}

	c := claims.Claims{}
	if idToken != "" {
		c = claims.Extract(idToken)
	}
	res.Claims = c.Identity()
	if res.Claims.Email == nil || *res.Claims.Email == "" {
		u := username
		res.Claims.Email = &u
	}
	return res
}

func logOutcome(log *zap.Logger, subject string, resp Response, elapsed time.Duration) {
	fields := []zap.Field{logger.DurationMs(elapsed)}
	if subject != "" {
		fields = append(fields, logger.Email(subject))
	}
	if resp.OK() {
		log.Info("operation completed", append(fields, logger.Outcome("ok"))...)
		return
	}
	e := resp.Err()
	fields = append(fields,
		logger.Outcome("failure"),
		logger.ErrorCode(e.Code),
		logger.Status(e.Status),
	)
	if e.Err != nil {
		fields = append(fields, logger.Err(e.Err))
	}
	if e.Status >= 500 {
		log.Error("operation failed", fields...)
		return
	}
	log.Warn("operation failed", fields...)
}
