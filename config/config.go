package config

import (
	"fmt"
	"time"
)

// BaseConfig is the root configuration container, loaded from config files
// and environment overrides at boot.
type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("config: auth.signing_key is required")
	}

	if a.Auth.TokenExpiration <= 0 {
		return fmt.Errorf("config: auth.token_expiration must be a positive number of hours")
	}

	if a.Persistence.DSN == "" {
		return fmt.Errorf("config: persistence.dsn is required")
	}

	return nil
}

func (a *BaseConfig) GetApp() *App {
	return &a.App
}

func (a *BaseConfig) GetServer() *Server {
	return &a.Server
}

func (a *BaseConfig) GetAuth() *Auth {
	return &a.Auth
}

func (a *BaseConfig) GetPersistence() *Persistence {
	return &a.Persistence
}

type App struct {
	Name  string `json:"name" koanf:"name"`
	Env   string `json:"env" koanf:"env"`
	Debug bool   `json:"debug" koanf:"debug"`
}

func (a App) GetName() string {
	return a.Name
}

func (a App) GetEnv() string {
	return a.Env
}

func (a App) GetDebug() bool {
	return a.Debug
}

type Server struct {
	Addr string `json:"addr" koanf:"addr"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":8978"
	}
	return s.Addr
}

// Auth satisfies the auth package Config interface
type Auth struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

// GetTokenExpiration is the token lifetime in hours
func (a Auth) GetTokenExpiration() int {
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	Server                string `json:"server" koanf:"server"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
	OtelIdentifier        string `json:"otel_identifier" koanf:"otel_identifier"`
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

// GetServer is the database host for drivers that connect over the
// network; sqlite leaves it empty.
func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetOtelIdentifier() string {
	if p.OtelIdentifier == "" {
		return "kcnotes"
	}
	return p.OtelIdentifier
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
