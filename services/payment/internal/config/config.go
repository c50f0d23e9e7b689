package config

import (
	"time"

	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
)

type Config struct {
	sharedConfig.Config `yaml:",inline"`
	Payment             Payment `yaml:"payment"`
	Stripe              Stripe  `yaml:"stripe"`
}

type Payment struct {
	// PublicURL prefixes the confirmation links handed out for pending simulated payments.
	PublicURL      string        `yaml:"public_url" env:"PAYMENT_PUBLIC_URL" env-default:"http://localhost:8083"`
	OutboxInterval time.Duration `yaml:"outbox_interval" env:"OUTBOX_INTERVAL" env-default:"500ms"`
}

type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
}

func (s Stripe) Enabled() bool {
	return s.SecretKey != ""
}

func MustLoad() *Config {
	var cfg Config
	sharedConfig.MustLoad(&cfg)

	return &cfg
}
