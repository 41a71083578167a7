// Package config provides loading and environment overlay for logship
// configuration. It exposes a Default() baseline, JSON/YAML file loading and
// a LOGSHIP_* environment overlay.
//
// Example:
//
//	cfg, err := config.Load("/etc/logship.yaml")
//	if err != nil { /* handle */ }
//	if err := config.FromEnv(&cfg); err != nil { /* handle */ }
//	if cfg.Storage.DataDir == "" {
//	    cfg.Storage.DataDir = config.DefaultDataDir()
//	}
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	defer rt.Close()
package config
