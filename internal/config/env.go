package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "LOGSHIP_"

// FromEnv overlays LOGSHIP_* environment variables onto cfg. Unset variables
// leave the field untouched. Maps use "k1:v1,k2:v2".
//
//	LOGSHIP_QUEUE_NAME=events
//	LOGSHIP_STORAGE_BACKEND=redis
//	LOGSHIP_ENDPOINT_HEADERS=Authorization:Bearer abc
func FromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	return nil
}
