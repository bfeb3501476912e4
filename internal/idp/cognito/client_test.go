package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idpbridge/internal/idp"
)

// fakeAPI registra los inputs y devuelve lo configurado.
type fakeAPI struct {
	calls int
	err   error

	signUpIn   *cip.SignUpInput
	signUpOut  *cip.SignUpOutput
	confirmIn  *cip.ConfirmSignUpInput
	resendIn   *cip.ResendConfirmationCodeInput
	resendOut  *cip.ResendConfirmationCodeOutput
	authIn     *cip.InitiateAuthInput
	authOut    *cip.InitiateAuthOutput
	forgotIn   *cip.ForgotPasswordInput
	forgotOut  *cip.ForgotPasswordOutput
	confirmFIn *cip.ConfirmForgotPasswordInput
}

func (f *fakeAPI) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.calls++
	f.signUpIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.signUpOut, nil
}

func (f *fakeAPI) ConfirmSignUp(_ context.Context, in *cip.ConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	f.calls++
	f.confirmIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &cip.ConfirmSignUpOutput{}, nil
}

func (f *fakeAPI) ResendConfirmationCode(_ context.Context, in *cip.ResendConfirmationCodeInput, _ ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error) {
	f.calls++
	f.resendIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.resendOut, nil
}

func (f *fakeAPI) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.calls++
	f.authIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.authOut, nil
}

func (f *fakeAPI) ForgotPassword(_ context.Context, in *cip.ForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
	f.calls++
	f.forgotIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.forgotOut, nil
}

func (f *fakeAPI) ConfirmForgotPassword(_ context.Context, in *cip.ConfirmForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	f.calls++
	f.confirmFIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &cip.ConfirmForgotPasswordOutput{}, nil
}

func TestSecretHash_KnownVector(t *testing.T) {
	assert.Equal(t, "tT131Q5K49orRZcnN382Oilujt97wzYOZRWYk3iJclc=", SecretHash("shh", "a@b.com", "client123"))
}

func TestSignUp_MapsAttributesAndOutput(t *testing.T) {
	f := &fakeAPI{signUpOut: &cip.SignUpOutput{
		UserSub:       aws.String("sub-1"),
		UserConfirmed: false,
		CodeDeliveryDetails: &types.CodeDeliveryDetailsType{
			AttributeName:  aws.String("email"),
			DeliveryMedium: types.DeliveryMediumTypeEmail,
			Destination:    aws.String("a***@b.com"),
		},
	}}
	c := newWithAPI(f, Config{ClientID: "client123"})

	out, err := c.SignUp(context.Background(), idp.SignUpInput{
		Username: "a@b.com",
		Password: "Secret1!",
		Attributes: []idp.Attribute{
			{Name: "email", Value: "a@b.com"},
			{Name: "given_name", Value: "Ana"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)

	assert.Equal(t, "client123", aws.ToString(f.signUpIn.ClientId))
	assert.Equal(t, "a@b.com", aws.ToString(f.signUpIn.Username))
	assert.Equal(t, "Secret1!", aws.ToString(f.signUpIn.Password))
	assert.Nil(t, f.signUpIn.SecretHash)
	require.Len(t, f.signUpIn.UserAttributes, 2)
	assert.Equal(t, "given_name", aws.ToString(f.signUpIn.UserAttributes[1].Name))

	assert.Equal(t, "sub-1", aws.ToString(out.UserSub))
	assert.False(t, out.UserConfirmed)
	require.NotNil(t, out.CodeDelivery)
	assert.Equal(t, idp.CodeDelivery{AttributeName: "email", DeliveryMedium: "EMAIL", Destination: "a***@b.com"}, *out.CodeDelivery)
}

func TestSecretHash_SentWhenClientHasSecret(t *testing.T) {
	f := &fakeAPI{
		authOut:   &cip.InitiateAuthOutput{},
		forgotOut: &cip.ForgotPasswordOutput{},
	}
	c := newWithAPI(f, Config{ClientID: "client123", ClientSecret: "shh"})

	_, err := c.InitiateAuth(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, f.authIn.AuthFlow)
	assert.Equal(t, "a@b.com", f.authIn.AuthParameters["USERNAME"])
	assert.Equal(t, "pw", f.authIn.AuthParameters["PASSWORD"])
	assert.Equal(t, "tT131Q5K49orRZcnN382Oilujt97wzYOZRWYk3iJclc=", f.authIn.AuthParameters["SECRET_HASH"])

	_, err = c.ForgotPassword(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "tT131Q5K49orRZcnN382Oilujt97wzYOZRWYk3iJclc=", aws.ToString(f.forgotIn.SecretHash))
}

func TestInitiateAuth_TokensAndChallenge(t *testing.T) {
	f := &fakeAPI{authOut: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("at"),
			IdToken:      aws.String("it"),
			RefreshToken: aws.String("rt"),
			ExpiresIn:    3600,
			TokenType:    aws.String("Bearer"),
		},
	}}
	c := newWithAPI(f, Config{ClientID: "c"})

	out, err := c.InitiateAuth(context.Background(), "user", "pw")
	require.NoError(t, err)
	require.NotNil(t, out.Tokens)
	assert.Nil(t, out.Challenge)
	assert.Equal(t, "it", aws.ToString(out.Tokens.IDToken))
	require.NotNil(t, out.Tokens.ExpiresIn)
	assert.Equal(t, int32(3600), *out.Tokens.ExpiresIn)

	f.authOut = &cip.InitiateAuthOutput{
		ChallengeName:       types.ChallengeNameTypeNewPasswordRequired,
		Session:             aws.String("sess"),
		ChallengeParameters: map[string]string{"USER_ID_FOR_SRP": "user"},
	}
	out, err = c.InitiateAuth(context.Background(), "user", "pw")
	require.NoError(t, err)
	assert.Nil(t, out.Tokens)
	require.NotNil(t, out.Challenge)
	assert.Equal(t, "NEW_PASSWORD_REQUIRED", out.Challenge.Name)
	assert.Equal(t, "sess", out.Challenge.Session)
}

func TestConfirmFlows_PassCodes(t *testing.T) {
	f := &fakeAPI{resendOut: &cip.ResendConfirmationCodeOutput{}}
	c := newWithAPI(f, Config{ClientID: "c"})
	ctx := context.Background()

	require.NoError(t, c.ConfirmSignUp(ctx, idp.ConfirmSignUpInput{Username: "a@b.com", Code: "123456"}))
	assert.Equal(t, "123456", aws.ToString(f.confirmIn.ConfirmationCode))

	require.NoError(t, c.ConfirmForgotPassword(ctx, idp.ConfirmForgotPasswordInput{Username: "a@b.com", Code: "654321", NewPassword: "N3w!"}))
	assert.Equal(t, "654321", aws.ToString(f.confirmFIn.ConfirmationCode))
	assert.Equal(t, "N3w!", aws.ToString(f.confirmFIn.Password))

	cd, err := c.ResendConfirmationCode(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, cd)
}

func TestClassify_APIErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind idp.ErrorKind
		code string
	}{
		{&types.UserNotConfirmedException{Message: aws.String("User is not confirmed.")}, idp.KindUserNotConfirmed, "UserNotConfirmedException"},
		{&types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}, idp.KindNotAuthorized, "NotAuthorizedException"},
		{&types.UsernameExistsException{Message: aws.String("exists")}, idp.KindUsernameExists, "UsernameExistsException"},
		{&types.CodeMismatchException{Message: aws.String("bad code")}, idp.KindCodeMismatch, "CodeMismatchException"},
		{&types.ExpiredCodeException{Message: aws.String("expired")}, idp.KindExpiredCode, "ExpiredCodeException"},
		{&types.InvalidPasswordException{Message: aws.String("policy")}, idp.KindInvalidPassword, "InvalidPasswordException"},
		{&types.InvalidParameterException{Message: aws.String("param")}, idp.KindInvalidParameter, "InvalidParameterException"},
		{&types.TooManyRequestsException{Message: aws.String("slow down")}, idp.KindUnclassified, "TooManyRequestsException"},
		{&smithy.GenericAPIError{Code: "LimitExceededException", Message: "limit"}, idp.KindUnclassified, "LimitExceededException"},
	}
	for _, tc := range cases {
		// el SDK envuelve el error de la API en un OperationError
		wrapped := &smithy.OperationError{ServiceID: "Cognito Identity Provider", OperationName: "InitiateAuth", Err: tc.err}

		f := &fakeAPI{err: wrapped}
		c := newWithAPI(f, Config{ClientID: "c"})
		_, err := c.InitiateAuth(context.Background(), "u", "p")

		var ie *idp.Error
		require.True(t, errors.As(err, &ie), "code %s", tc.code)
		assert.Equal(t, tc.kind, ie.Kind, tc.code)
		assert.Equal(t, tc.code, ie.Code)
		assert.NotEmpty(t, ie.Message)
	}
}

func TestClassify_CredentialFailures(t *testing.T) {
	err := classify(errors.New("operation error Cognito Identity Provider: SignUp, failed to sign request: failed to retrieve credentials: no EC2 IMDS role found"))
	ie := idp.AsError(err)
	assert.Equal(t, idp.KindMissingCredentials, ie.Kind)

	err = classify(errors.New("dial tcp: lookup cognito-idp.us-east-2.amazonaws.com: no such host"))
	ie = idp.AsError(err)
	assert.Equal(t, idp.KindUnclassified, ie.Kind)
	assert.Empty(t, ie.Code)
}

func TestPartialEnvCredentials(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	assert.NoError(t, partialEnvCredentials(env(nil)))
	assert.NoError(t, partialEnvCredentials(env(map[string]string{"AWS_ACCESS_KEY_ID": "AK", "AWS_SECRET_ACCESS_KEY": "SK"})))

	err := partialEnvCredentials(env(map[string]string{"AWS_ACCESS_KEY_ID": "AK"}))
	require.Error(t, err)
	assert.Equal(t, idp.KindMissingCredentials, idp.AsError(err).Kind)
	assert.Contains(t, err.Error(), "AWS_SECRET_ACCESS_KEY")
}

func TestCredentialError_ShortCircuitsCall(t *testing.T) {
	f := &fakeAPI{}
	c := newWithAPI(f, Config{ClientID: "c"})
	c.credErr = &idp.Error{Kind: idp.KindMissingCredentials}

	_, err := c.SignUp(context.Background(), idp.SignUpInput{Username: "a@b.com", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, 0, f.calls)
}
