package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	HTTP         HTTPConfig
	Session      SessionConfig
	Storage      StorageConfig
	BcryptCost   int    `validate:"min=4,max=31" env:"BCRYPT_COST"`
	AuditLogFile string `env:"AUDIT_LOG_FILE"`
	LogLevel     string `validate:"oneof=debug info warn error" env:"LOG_LEVEL"`
}

type HTTPConfig struct {
	Port            string        `validate:"required,numeric" env:"PORT"`
	ReadTimeout     time.Duration `validate:"gt=0" env:"HTTP_READ_TIMEOUT_SEC"`
	WriteTimeout    time.Duration `validate:"gt=0" env:"HTTP_WRITE_TIMEOUT_SEC"`
	ShutdownTimeout time.Duration `validate:"gt=0" env:"HTTP_SHUTDOWN_TIMEOUT_SEC"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS"`
}

// Addr is the listen address derived from Port.
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

type SessionConfig struct {
	Secret        string        `validate:"required" env:"SESSION_SECRET"`
	TTL           time.Duration `validate:"gt=0" env:"SESSION_TTL_SEC"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	PruneInterval time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseDriver string `validate:"oneof=postgres pgx" env:"DATABASE_DRIVER"`
	DataDir        string `validate:"required_without=DatabaseURL" env:"DATA_DIR"`
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Port:            getEnv("PORT", "3000"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,

			TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", "your-secret-key-here"),
			TTL:           time.Duration(getEnvInt("SESSION_TTL_SEC", 86400)) * time.Second,
			CookieSecure:  getEnvBool("SESSION_COOKIE_SECURE", false),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			PruneInterval: time.Minute,
		},
		Storage: StorageConfig{
			DatabaseURL:    getEnv("DATABASE_URL", ""),
			DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
			DataDir:        getEnv("DATA_DIR", "./data/badger"),
		},
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),
		AuditLogFile: os.Getenv("AUDIT_LOG_FILE"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	if _, ok := os.LookupEnv("AUDIT_LOG_FILE"); !ok {
		cfg.AuditLogFile = "./data/audit.log"
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() func(any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return func(cfg any) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s is invalid (%s)", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
