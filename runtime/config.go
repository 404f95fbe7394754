package runtime

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config carries engine settings. Values come from struct tag defaults,
// overridden by environment variables, and are validated before use.
type Config struct {
	// AuthURL is the base URL of the identity/delegation service.
	AuthURL string `env:"PAYFLOW_AUTH_URL" default:"http://localhost:8091" validate:"url_format"`
	// PaymentsURL is the base URL of the payments service.
	PaymentsURL string `env:"PAYFLOW_PAYMENTS_URL" default:"http://localhost:8090" validate:"url_format"`
	// Timeout applies to every individual network call.
	Timeout time.Duration `env:"PAYFLOW_TIMEOUT" default:"30s" validate:"gte=1s"`
	// Delay is an optional fixed pause between operations.
	Delay time.Duration `env:"PAYFLOW_DELAY" default:"0s" validate:"gte=0"`
	// TokenCache, when set, is a file path credentials are cached to between runs.
	TokenCache string `env:"PAYFLOW_TOKEN_CACHE"`
	// Debug lowers the log level to debug.
	Debug bool `env:"PAYFLOW_DEBUG" default:"false"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	// url_format validates URL structure
	configValidate.RegisterValidation("url_format", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		return err == nil && u.Scheme != "" && u.Host != ""
	})
}

// LoadConfig builds a Config: defaults from struct tags, then environment
// overrides, then validation.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply default values: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := configValidate.Struct(cfg); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation (rule: %s)", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
