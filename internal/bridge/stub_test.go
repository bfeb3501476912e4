package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idpbridge/internal/idp"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
)

// stubClient registra cada llamada y devuelve respuestas programadas.
type stubClient struct {
	calls []string
	err   error

	signUpIn  idp.SignUpInput
	signUpOut *idp.SignUpOutput

	confirmIn idp.ConfirmSignUpInput
	resetIn   idp.ConfirmForgotPasswordInput

	username string
	password string
	auth     *idp.AuthOutput
	delivery *idp.CodeDelivery

	panicOn string
}

var _ idp.Client = (*stubClient)(nil)

func (s *stubClient) record(name string) {
	s.calls = append(s.calls, name)
	if s.panicOn == name {
		panic("boom")
	}
}

func (s *stubClient) SignUp(_ context.Context, in idp.SignUpInput) (*idp.SignUpOutput, error) {
	s.record("SignUp")
	s.signUpIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.signUpOut, nil
}

func (s *stubClient) ConfirmSignUp(_ context.Context, in idp.ConfirmSignUpInput) error {
	s.record("ConfirmSignUp")
	s.confirmIn = in
	return s.err
}

func (s *stubClient) ResendConfirmationCode(_ context.Context, username string) (*idp.CodeDelivery, error) {
	s.record("ResendConfirmationCode")
	s.username = username
	if s.err != nil {
		return nil, s.err
	}
	return s.delivery, nil
}

func (s *stubClient) InitiateAuth(_ context.Context, username, password string) (*idp.AuthOutput, error) {
	s.record("InitiateAuth")
	s.username, s.password = username, password
	if s.err != nil {
		return nil, s.err
	}
	return s.auth, nil
}

func (s *stubClient) ForgotPassword(_ context.Context, username string) (*idp.CodeDelivery, error) {
	s.record("ForgotPassword")
	s.username = username
	if s.err != nil {
		return nil, s.err
	}
	return s.delivery, nil
}

func (s *stubClient) ConfirmForgotPassword(_ context.Context, in idp.ConfirmForgotPasswordInput) error {
	s.record("ConfirmForgotPassword")
	s.resetIn = in
	return s.err
}

func quietLogs(t *testing.T) {
	t.Helper()
	t.Cleanup(logger.Replace(zap.NewNop()))
}

// decode serializa el Response y lo vuelve a leer como mapa genérico.
func decode(t *testing.T, resp Response) map[string]any {
	t.Helper()
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func handle(t *testing.T, c idp.Client, op OperationName, payload map[string]any) map[string]any {
	t.Helper()
	resp := New(c).Handle(context.Background(), NewRequest(op, payload))
	return decode(t, resp)
}
