package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Errores de configuración requerida. Se reportan antes de construir cualquier
// cliente del proveedor.
var (
	ErrMissingRegion   = errors.New("missing identity provider region")
	ErrMissingClientID = errors.New("missing identity provider app client id")
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env" env:"APP_ENV"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Provider Provider `yaml:"provider"`

	// Solo para `idpbridge serve`.
	Server Server `yaml:"server"`
	Rate   Rate   `yaml:"rate"`
}

// Provider son los datos del app client de Cognito.
type Provider struct {
	Region       string `yaml:"region" env:"AWS_COGNITO_REGION"`
	ClientID     string `yaml:"app_client_id" env:"AWS_COGNITO_APP_CLIENT_ID"`
	ClientSecret string `yaml:"app_client_secret" env:"AWS_COGNITO_APP_CLIENT_SECRET"`
	// Informativo (logs); las seis operaciones no lo necesitan.
	UserPoolID string `yaml:"user_pool_id" env:"AWS_COGNITO_USER_POOL_ID"`
	Endpoint   string `yaml:"endpoint" env:"AWS_COGNITO_ENDPOINT"`
}

type Server struct {
	Addr string `yaml:"addr" env:"IDPBRIDGE_ADDR"`
	// Si está, /metrics se sirve en este listener aparte y no en Addr.
	MetricsAddr  string        `yaml:"metrics_addr" env:"IDPBRIDGE_METRICS_ADDR"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"IDPBRIDGE_MAX_BODY_BYTES,strict"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"IDPBRIDGE_READ_TIMEOUT,strict"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"IDPBRIDGE_WRITE_TIMEOUT,strict"`
	// IPs o CIDRs de proxies cuyo X-Forwarded-For se acepta. En env se separan
	// con ";". Vacío: la IP del cliente es siempre RemoteAddr.
	TrustedProxies []string `yaml:"trusted_proxies" env:"IDPBRIDGE_TRUSTED_PROXIES"`
}

type Rate struct {
	Enabled bool          `yaml:"enabled" env:"RATE_ENABLED,strict"`
	Limit   int           `yaml:"limit" env:"RATE_LIMIT,strict"`
	Window  time.Duration `yaml:"window" env:"RATE_WINDOW,strict"`
	Redis   RateRedis     `yaml:"redis"`
}

// RateRedis activa el limiter distribuido cuando Addr no está vacío.
type RateRedis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB,strict"`
	Prefix   string `yaml:"prefix" env:"RATE_REDIS_PREFIX"`
}

// Default devuelve los valores por defecto. Provider queda vacío a propósito:
// región y client id no tienen default.
func Default() Config {
	var c Config
	c.App.Env = "dev"
	c.Log.Level = "info"
	c.Server.Addr = ":8085"
	c.Server.MaxBodyBytes = 64 << 10
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Rate.Limit = 20
	c.Rate.Window = time.Minute
	c.Rate.Redis.Prefix = "idpbridge:rl:"
	return c
}

// Load arma la configuración: defaults -> YAML (si path != "") -> entorno.
// Las variables de entorno pisan al YAML.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&c); err != nil {
		return nil, err
	}
	c.normalize(os.Getenv)
	return &c, nil
}

// applyEnv pisa con el entorno. Los campos tipados son ",strict": un valor
// que no parsea es error, no se ignora.
func applyEnv(c *Config) error {
	err := envdecode.Decode(c)
	if err == nil || errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil
	}
	return fmt.Errorf("decode env: %w", err)
}

func (c *Config) normalize(getenv func(string) string) {
	p := &c.Provider
	p.Region = strings.TrimSpace(p.Region)
	if p.Region == "" {
		p.Region = strings.TrimSpace(getenv("AWS_REGION"))
	}
	p.ClientID = strings.TrimSpace(p.ClientID)
	p.ClientSecret = strings.TrimSpace(p.ClientSecret)
	p.UserPoolID = strings.TrimSpace(p.UserPoolID)
	p.Endpoint = strings.TrimSpace(p.Endpoint)
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
}

// Validate devuelve el primer dato requerido faltante. La región se chequea
// antes que el client id.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.Region) == "" {
		return ErrMissingRegion
	}
	if strings.TrimSpace(c.Provider.ClientID) == "" {
		return ErrMissingClientID
	}
	return nil
}
