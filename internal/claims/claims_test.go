package claims

import (
	"encoding/base64"
	"testing"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestExtract_RoundTripUnpadded(t *testing.T) {
	tok := seg(`{"alg":"none","typ":"JWT"}`) + "." + seg(`{"sub":"abc","email":"a@b.com"}`) + ".sig"

	c := Extract(tok)
	require.Equal(t, Claims{"sub": "abc", "email": "a@b.com"}, c)

	id := c.Identity()
	require.NotNil(t, id.Sub)
	require.NotNil(t, id.Email)
	assert.Equal(t, "abc", *id.Sub)
	assert.Equal(t, "a@b.com", *id.Email)
	assert.Nil(t, id.EmailVerified)
	assert.Nil(t, id.GivenName)
	assert.Nil(t, id.FamilyName)
	assert.Nil(t, id.PhoneNumber)
}

func TestExtract_PaddingLengths(t *testing.T) {
	// payloads de distinto largo ejercitan cada resto posible de padding
	for _, p := range []string{`{"a":1}`, `{"ab":1}`, `{"abc":1}`, `{"abcd":1}`} {
		c := Extract("h." + seg(p) + ".s")
		require.Len(t, c, 1, "payload %s", p)
	}
}

func TestExtract_AlreadyPadded(t *testing.T) {
	p := base64.URLEncoding.EncodeToString([]byte(`{"sub":"x"}`))
	c := Extract("h." + p + ".s")
	assert.Equal(t, Claims{"sub": "x"}, c)
}

func TestExtract_TwoSegmentsIsEnough(t *testing.T) {
	c := Extract("h." + seg(`{"sub":"only-two"}`))
	assert.Equal(t, Claims{"sub": "only-two"}, c)
}

func TestExtract_SignedWithJWTLibrary(t *testing.T) {
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":            "u1",
		"email":          "a@b.com",
		"email_verified": true,
		"given_name":     "Ana",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	id := Extract(tok).Identity()
	require.NotNil(t, id.Sub)
	require.NotNil(t, id.EmailVerified)
	require.NotNil(t, id.GivenName)
	assert.Equal(t, "u1", *id.Sub)
	assert.True(t, *id.EmailVerified)
	assert.Equal(t, "Ana", *id.GivenName)
}

func TestExtract_NeverFails(t *testing.T) {
	bad := []string{
		"",
		"not.a.jwt.at.all..",
		"onlyone",
		"h.!!!not-base64!!!.s",
		// payload que no es objeto
		"h." + seg(`[1,2,3]`) + ".s",
		"h." + seg(`"string"`) + ".s",
		// JSON truncado
		"h." + seg(`{"sub":`) + ".s",
		// UTF-8 inválido
		"h." + seg("\xff\xfe{\"a\":1}") + ".s",
		// segmento del medio vacío
		"h.." + seg(`{"sub":"x"}`),
	}
	for _, tok := range bad {
		var c Claims
		require.NotPanics(t, func() { c = Extract(tok) }, "token %q", tok)
		assert.NotNil(t, c, "token %q", tok)
		assert.Empty(t, c, "token %q", tok)
	}
}

func TestBool_AcceptsStringForm(t *testing.T) {
	c := Claims{"email_verified": "TRUE", "other": "nope", "n": 1.0}
	require.NotNil(t, c.Bool("email_verified"))
	assert.True(t, *c.Bool("email_verified"))
	assert.Nil(t, c.Bool("other"))
	assert.Nil(t, c.Bool("n"))
	assert.Nil(t, c.String("n"))
}
