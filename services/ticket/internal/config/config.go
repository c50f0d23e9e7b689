package config

import (
	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
)

type Config struct {
	sharedConfig.Config `yaml:",inline"`
}

func MustLoad() *Config {
	var cfg Config
	sharedConfig.MustLoad(&cfg)

	return &cfg
}
