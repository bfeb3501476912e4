package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv deja vacías las variables que lee Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL",
		"AWS_COGNITO_REGION", "AWS_REGION", "AWS_COGNITO_APP_CLIENT_ID",
		"AWS_COGNITO_APP_CLIENT_SECRET", "AWS_COGNITO_USER_POOL_ID", "AWS_COGNITO_ENDPOINT",
		"IDPBRIDGE_ADDR", "IDPBRIDGE_METRICS_ADDR", "IDPBRIDGE_TRUSTED_PROXIES", "IDPBRIDGE_MAX_BODY_BYTES", "IDPBRIDGE_READ_TIMEOUT", "IDPBRIDGE_WRITE_TIMEOUT",
		"RATE_ENABLED", "RATE_LIMIT", "RATE_WINDOW",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_REDIS_PREFIX",
	} {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "idpbridge.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8085", c.Server.Addr)
	assert.Equal(t, int64(64<<10), c.Server.MaxBodyBytes)
	assert.Equal(t, time.Minute, c.Rate.Window)
	assert.False(t, c.Rate.Enabled)
	assert.ErrorIs(t, c.Validate(), ErrMissingRegion)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	p := writeYAML(t, `
app:
  env: prod
provider:
  region: eu-west-1
  app_client_id: from-yaml
rate:
  enabled: true
  limit: 5
  window: 30s
`)
	t.Setenv("AWS_COGNITO_APP_CLIENT_ID", " from-env ")
	t.Setenv("RATE_LIMIT", "9")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, "eu-west-1", c.Provider.Region)
	assert.Equal(t, "from-env", c.Provider.ClientID)
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 9, c.Rate.Limit)
	assert.Equal(t, 30*time.Second, c.Rate.Window)
	assert.NoError(t, c.Validate())
}

func TestLoad_RegionFallsBackToAWSRegion(t *testing.T) {
	clearEnv(t)
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("AWS_COGNITO_APP_CLIENT_ID", "abc")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sa-east-1", c.Provider.Region)

	t.Setenv("AWS_COGNITO_REGION", "us-east-2")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", c.Provider.Region)
}

func TestValidate_Order(t *testing.T) {
	c := Default()
	assert.ErrorIs(t, c.Validate(), ErrMissingRegion)

	c.Provider.Region = "us-east-1"
	assert.ErrorIs(t, c.Validate(), ErrMissingClientID)

	c.Provider.ClientID = "x"
	assert.NoError(t, c.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	cases := map[string]string{
		"RATE_LIMIT":               "many",
		"RATE_WINDOW":              "soon",
		"RATE_ENABLED":             "maybe",
		"REDIS_DB":                 "zero",
		"IDPBRIDGE_MAX_BODY_BYTES": "64KB",
		"IDPBRIDGE_READ_TIMEOUT":   "10",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			c, err := Load("")
			require.Error(t, err, "%s=%s", k, v)
			assert.Nil(t, c)
		})
	}
}

func TestLoad_TrustedProxiesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("IDPBRIDGE_TRUSTED_PROXIES", "10.0.0.0/8; 192.168.1.1")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, c.Server.TrustedProxies)
}
