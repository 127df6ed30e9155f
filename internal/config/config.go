package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, parsed from the environment.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"rentpay.db"`

	// Fee rates in basis points of the gross amount.
	PlatformFeeBps int64 `env:"PLATFORM_FEE_BPS" envDefault:"500"`
	ProviderFeeBps int64 `env:"PROVIDER_FEE_BPS" envDefault:"150"`

	// Per-attempt timeout for one outbound provider call.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	SMSSenderID string `env:"SMS_SENDER_ID" envDefault:"SIKAFE"`

	LeTextoBaseURL string `env:"LETEXTO_BASE_URL" envDefault:"https://api.letexto.com/v1"`
	LeTextoToken   string `env:"LETEXTO_TOKEN"`
	LeTextoRetries int    `env:"LETEXTO_RETRIES" envDefault:"0"`

	TermiiBaseURL string `env:"TERMII_BASE_URL" envDefault:"https://api.ng.termii.com/api"`
	TermiiAPIKey  string `env:"TERMII_API_KEY"`
	TermiiRetries int    `env:"TERMII_RETRIES" envDefault:"0"`

	InfobipBaseURL string `env:"INFOBIP_BASE_URL" envDefault:"https://api.infobip.com"`
	InfobipAPIKey  string `env:"INFOBIP_API_KEY"`
	InfobipRetries int    `env:"INFOBIP_RETRIES" envDefault:"0"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
