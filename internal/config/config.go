package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrMissingCredentials = errors.New("amadeus client id and secret are required")

// Credentials are the client-credentials pair used against the Amadeus
// token endpoint. They are read once and never mutated.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":        "addr",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"amadeus-url": "amadeus_url",
}

type Config struct {
	Addr               string
	TLSCertFile        string
	TLSKeyFile         string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
	AmadeusURL         string
	Credentials        Credentials
	HTTPTimeout        time.Duration
	LogoBaseURL        string
}

func (c *Config) Validate() error {
	if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Load builds the process configuration from defaults, an optional .env
// file, an optional config file and the environment. Flags bound through
// fs take precedence over everything else.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("addr", ":3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("http_timeout", "0s")
	v.SetDefault("amadeus_url", "https://test.api.amadeus.com")
	v.SetDefault("logo_base_url", "https://placehold.co/40x40/333/fff")

	if configFile == "" {
		configFile = os.Getenv("FLIGHTS_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/flights")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("no config file found, using defaults + env vars")
	}

	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	timeout, err := time.ParseDuration(v.GetString("http_timeout"))
	if err != nil {
		return nil, fmt.Errorf("bad http_timeout: %w", err)
	}

	return &Config{
		Addr:               v.GetString("addr"),
		TLSCertFile:        v.GetString("tls_cert_file"),
		TLSKeyFile:         v.GetString("tls_key_file"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		AmadeusURL:         strings.TrimRight(v.GetString("amadeus_url"), "/"),
		Credentials: Credentials{
			ClientID:     v.GetString("amadeus_client_id"),
			ClientSecret: v.GetString("amadeus_client_secret"),
		},
		HTTPTimeout: timeout,
		LogoBaseURL: v.GetString("logo_base_url"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
