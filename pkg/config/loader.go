package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by config structs that check their own
// invariants after parsing.
type Validator interface {
	Validate() error
}

// Load parses environment variables into cfg using `env` / `envDefault`
// tags, then calls cfg.Validate when cfg implements Validator.
//
//	type Config struct {
//	    Port     int           `env:"HTTP_PORT" envDefault:"5001"`
//	    Session  time.Duration `env:"JWT_SESSION_EXPIRY" envDefault:"168h"`
//	    Brokers  []string      `env:"KAFKA_BROKERS" envSeparator:","`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}
