package config

import (
	"time"

	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
)

type Config struct {
	sharedConfig.Config `yaml:",inline"`
	Workers             Workers `yaml:"workers"`
}

type Workers struct {
	OutboxInterval       time.Duration `yaml:"outbox_interval" env:"OUTBOX_INTERVAL" env-default:"500ms"`
	SweepInterval        time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL" env-default:"60s"`
	SagaRecoveryInterval time.Duration `yaml:"saga_recovery_interval" env:"SAGA_RECOVERY_INTERVAL" env-default:"30s"`
	SagaStaleAfter       time.Duration `yaml:"saga_stale_after" env:"SAGA_STALE_AFTER" env-default:"5m"`
}

func MustLoad() *Config {
	var cfg Config
	sharedConfig.MustLoad(&cfg)

	return &cfg
}
