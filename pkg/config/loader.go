package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validatable is implemented by config structs that check cross-field rules
// after parsing.
type Validatable interface {
	Validate() error
}

// Load parses environment variables into the provided struct using its `env`
// tags. When cfg implements Validatable, Validate runs after parsing.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	return nil
}
