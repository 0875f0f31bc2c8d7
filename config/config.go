package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultConfigFile      = "config.yaml"
	defaultPort            = 8000
	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultLogLevel        = "info"
)

type Config struct {
	Mongo Mongo `koanf:"mongo"`
	HTTP  HTTP  `koanf:"http"`
	Log   Log   `koanf:"log"`
	Auth  Auth  `koanf:"auth"`
}

type Mongo struct {
	URI            string        `koanf:"uri" validate:"required"`
	Database       string        `koanf:"database" validate:"required"`
	Collection     string        `koanf:"collection" validate:"required"`
	ConnectTimeout time.Duration `koanf:"connectTimeout"`
}

type HTTP struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `koanf:"requestTimeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdownTimeout" validate:"gt=0"`
	CORS            CORS          `koanf:"cors"`
}

// CORS allows every origin unless AllowedOrigins is set.
type CORS struct {
	AllowedOrigins   []string `koanf:"allowedOrigins"`
	AllowCredentials bool     `koanf:"allowCredentials"`
}

type Log struct {
	Pretty bool   `koanf:"pretty"`
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
}

type Auth struct {
	BcryptCost int `koanf:"bcryptCost"`
}

// envKeys maps supported environment variables onto config keys.
var envKeys = map[string]string{
	"MONGODB_URI":             "mongo.uri",
	"DATABASE_NAME":           "mongo.database",
	"COLLECTION_NAME":         "mongo.collection",
	"MONGODB_CONNECT_TIMEOUT": "mongo.connectTimeout",
	"HTTP_PORT":               "http.port",
	"HTTP_REQUEST_TIMEOUT":    "http.requestTimeout",
	"HTTP_SHUTDOWN_TIMEOUT":   "http.shutdownTimeout",
	"CORS_ALLOWED_ORIGINS":    "http.cors.allowedOrigins",
	"CORS_ALLOW_CREDENTIALS":  "http.cors.allowCredentials",
	"LOG_LEVEL":               "log.level",
	"LOG_PRETTY":              "log.pretty",
	"BCRYPT_COST":             "auth.bcryptCost",
}

// New loads the config file named by ACCOUNTS_CONFIG (or ./config.yaml
// when present) and overlays the environment.
func New() (*Config, error) {
	path := os.Getenv("ACCOUNTS_CONFIG")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	return Load(path)
}

// Load reads path (skipped when empty), overlays the environment, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return envKeys[key], value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	cfg := defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.HTTP.RequestTimeout = defaultRequestTimeout
	cfg.HTTP.ShutdownTimeout = defaultShutdownTimeout
	cfg.Log.Level = defaultLogLevel
	cfg.Auth.BcryptCost = bcrypt.DefaultCost
	return cfg
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return errors.Wrap(err, "invalid config")
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("invalid config: auth.bcryptCost %d out of range [%d, %d]", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
