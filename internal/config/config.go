package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderFAL    = "fal"

	EnvPrefix = "PIXIFY"
)

var ErrSecretNotFound = errors.New("secret not found")

type Server struct {
	Address         string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

type Config struct {
	Server Server

	LogLevel  string
	LogFormat string

	AuthDomain   string
	AuthAudience string

	Provider      string
	OpenAIModel   string
	OpenAIBaseURL string
	FALURL        string

	SecretsDir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 16<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("generator.provider", ProviderOpenAI)
	v.SetDefault("openai.model", "dall-e-2")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("fal.url", "https://fal.run/fal-ai/flux/schnell")

	v.SetDefault("secrets.dir", "/run/secrets")
}

// Load reads config.toml from the given directories (the working directory when none are given) and applies
// environment overrides. A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("auth.domain", "AUTH0_DOMAIN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("auth.audience", "AUTH0_AUDIENCE"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		log.Debug().Msg("no config file found, using defaults and environment")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("read config file")
	}

	cfg := &Config{
		Server: Server{
			Address:        v.GetString("server.address"),
			AllowedOrigins: splitList(v.GetStringSlice("server.allowed_origins")),
			MaxBodyBytes:   v.GetInt64("server.max_body_bytes"),
		},
		LogLevel:      v.GetString("log.level"),
		LogFormat:     v.GetString("log.format"),
		AuthDomain:    strings.TrimSpace(v.GetString("auth.domain")),
		AuthAudience:  strings.TrimSpace(v.GetString("auth.audience")),
		Provider:      strings.ToLower(v.GetString("generator.provider")),
		OpenAIModel:   v.GetString("openai.model"),
		OpenAIBaseURL: v.GetString("openai.base_url"),
		FALURL:        v.GetString("fal.url"),
		SecretsDir:    v.GetString("secrets.dir"),
	}

	var err error
	if cfg.Server.ReadTimeout, err = duration(v, "server.read_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = duration(v, "server.write_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = duration(v, "server.shutdown_timeout"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList flattens entries that hold comma separated values, as environment overrides do.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		out = append(out, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return out
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s in config: %w", key, err)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.AuthDomain == "" {
		return errors.New("auth.domain (AUTH0_DOMAIN) is required")
	}
	if c.AuthAudience == "" {
		return errors.New("auth.audience (AUTH0_AUDIENCE) is required")
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderFAL:
	default:
		return fmt.Errorf("unknown generator provider %q", c.Provider)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}

	return nil
}

// Level parses the configured log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ResolveSecret prefers the file <SecretsDir>/<name> and falls back to the environment variable envVar, or the
// upper-cased name when envVar is empty.
func (c *Config) ResolveSecret(name, envVar string) (string, error) {
	if c.SecretsDir != "" {
		content, err := os.ReadFile(filepath.Join(c.SecretsDir, name))
		if err == nil {
			if secret := strings.TrimSpace(string(content)); secret != "" {
				return secret, nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret file")
		}
	}

	if envVar == "" {
		envVar = strings.ToUpper(name)
	}

	if secret := strings.TrimSpace(os.Getenv(envVar)); secret != "" {
		return secret, nil
	}

	return "", fmt.Errorf("%w: %s (file %s or env %s)", ErrSecretNotFound, name,
		filepath.Join(c.SecretsDir, name), envVar)
}
