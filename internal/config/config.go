package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// PlaceholderSecret is the value shipped in configs/config.yml. It is
	// refused in production.
	PlaceholderSecret = "change-me-in-production-change-me-in-production"

	minSecretLen = 32

	// DevBaseURL is assumed for links outside production when app.base_url is unset.
	DevBaseURL = "http://localhost:8080"
	envPrefix    = "LOSTFOUND"
)

// Config is the full application configuration.
type Config struct {
	App  AppConfig
	Port string
	Log  LogConfig
	DB   DBConfig
	Auth AuthConfig
	Mail MailConfig
	HTTP HTTPConfig
}

type AppConfig struct {
	Env     string
	BaseURL string
}

// IsProduction reports whether the service runs with production guarantees
// (secure cookies, hidden storage details, strict secret checks).
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, EnvProduction)
}

type LogConfig struct {
	Level string
	File  string
}

type DBConfig struct {
	Driver       string // sqlite | postgres
	Path         string // sqlite file
	DSN          string // postgres connection string
	MaxOpenConns int
}

type AuthConfig struct {
	JWTSecret       string
	BcryptCost      int
	SessionTTL      time.Duration
	HashConcurrency int
}

type MailConfig struct {
	Driver      string // smtp | log
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	TLS         bool
	QueueSize   int
	SendTimeout time.Duration
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("app.base_url", "")
	v.SetDefault("port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("auth.hash_concurrency", 0)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.tls", true)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.send_timeout", 15*time.Second)

	v.SetDefault("http.read_header_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
}

// Load reads configs/config.yml (if present) from the given search paths and
// applies LOSTFOUND_* environment overrides, e.g. LOSTFOUND_AUTH_JWT_SECRET.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if cfg.App.BaseURL == "" && !cfg.App.IsProduction() {
		cfg.App.BaseURL = DevBaseURL
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:     strings.ToLower(strings.TrimSpace(v.GetString("app.env"))),
			BaseURL: strings.TrimRight(v.GetString("app.base_url"), "/"),
		},
		Port: v.GetString("port"),
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		DB: DBConfig{
			Driver:       strings.ToLower(v.GetString("db.driver")),
			Path:         v.GetString("db.path"),
			DSN:          v.GetString("db.dsn"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("auth.jwt_secret"),
			BcryptCost:      v.GetInt("auth.bcrypt_cost"),
			SessionTTL:      v.GetDuration("auth.session_ttl"),
			HashConcurrency: v.GetInt("auth.hash_concurrency"),
		},
		Mail: MailConfig{
			Driver:      strings.ToLower(v.GetString("mail.driver")),
			Host:        v.GetString("mail.host"),
			Port:        v.GetInt("mail.port"),
			Username:    v.GetString("mail.username"),
			Password:    v.GetString("mail.password"),
			From:        v.GetString("mail.from"),
			TLS:         v.GetBool("mail.tls"),
			QueueSize:   v.GetInt("mail.queue_size"),
			SendTimeout: v.GetDuration("mail.send_timeout"),
		},
		HTTP: HTTPConfig{
			ReadHeaderTimeout: v.GetDuration("http.read_header_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
		},
	}
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env != EnvDevelopment && c.App.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("app.env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.App.Env))
	}

	if c.App.IsProduction() {
		switch {
		case c.Auth.JWTSecret == "":
			errs = append(errs, errors.New("auth.jwt_secret is required in production"))
		case c.Auth.JWTSecret == PlaceholderSecret:
			errs = append(errs, errors.New("auth.jwt_secret still holds the placeholder value"))
		case len(c.Auth.JWTSecret) < minSecretLen:
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLen))
		}
		if err := checkPublicBaseURL(c.App.BaseURL); err != nil {
			errs = append(errs, err)
		}
		if c.Mail.Driver != "smtp" {
			errs = append(errs, errors.New("mail.driver must be smtp in production"))
		}
	} else if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}

	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db.path is required for sqlite"))
		}
	case "postgres":
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver))
	}

	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.Host == "" || c.Mail.From == "" {
			errs = append(errs, errors.New("mail.host and mail.from are required for smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.driver must be smtp or log, got %q", c.Mail.Driver))
	}

	return errors.Join(errs...)
}

// checkPublicBaseURL requires an absolute http(s) URL that does not point at
// the local machine, since it ends up in emailed links.
func checkPublicBaseURL(raw string) error {
	if raw == "" {
		return errors.New("app.base_url is required in production")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("app.base_url must be an absolute http(s) URL, got %q", raw)
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("app.base_url must not point at localhost in production, got %q", raw)
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return fmt.Errorf("app.base_url must not point at a loopback address in production, got %q", raw)
	}
	return nil
}
