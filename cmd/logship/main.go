package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/logship/internal/cmd/client"
	serverrun "github.com/rzbill/logship/internal/cmd/server"
	cfgpkg "github.com/rzbill/logship/internal/config"
	logpkg "github.com/rzbill/logship/pkg/log"
)

func main() {
	// Respect LOGSHIP_LOG_LEVEL for CLI output.
	level := os.Getenv("LOGSHIP_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "logship",
		Short: "logship event shipper",
		Long:  "logship queues events durably and ships them to an HTTP collector. This CLI runs the server and talks to it.",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if err := cfgpkg.Save(path, cfgpkg.Default(), force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().String("config", "logship.yaml", "Config file to create (.yaml or .json)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the shipper with HTTP, gRPC health and metrics servers",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return err
			}
			if err := cfgpkg.FromEnv(&cfg); err != nil {
				return err
			}
			applyFlags(cmd, &cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("LOGSHIP_CONFIG"), "Config file (.yaml or .json); LOGSHIP_* env vars override it")
	f.String("endpoint", "", "Collector URI events are POSTed to")
	f.String("queue", "", "Queue name")
	f.String("backend", "", "Storage backend: pebble|redis|sqlite|memory")
	f.String("data-dir", "", "Pebble data directory (if not specified, uses OS-specific application data directory)")
	f.String("fsync", "", "Pebble fsync mode: always|interval|never")
	f.String("redis", "", "Redis address for the redis backend")
	f.String("sqlite", "", "Database file for the sqlite backend")
	f.String("http", "", "HTTP listen address (empty string in config disables)")
	f.String("grpc", "", "gRPC health listen address")
	f.String("metrics", "", "Prometheus metrics listen address")
	f.Duration("drain-interval", 0, "Periodic drain interval")
	f.Bool("breaker", false, "Wrap delivery in a circuit breaker")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.Register(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyFlags overrides cfg with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("endpoint", &cfg.Endpoint.URI)
	str("queue", &cfg.Queue.Name)
	str("backend", &cfg.Storage.Backend)
	str("data-dir", &cfg.Storage.DataDir)
	str("fsync", &cfg.Storage.Fsync)
	str("redis", &cfg.Storage.RedisAddr)
	str("sqlite", &cfg.Storage.SQLitePath)
	str("http", &cfg.Server.HTTPAddr)
	str("grpc", &cfg.Server.GRPCAddr)
	str("metrics", &cfg.Server.MetricsAddr)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if f.Changed("drain-interval") {
		d, _ := f.GetDuration("drain-interval")
		cfg.Drain.IntervalMs = int(d / time.Millisecond)
	}
	if f.Changed("breaker") {
		cfg.Endpoint.Breaker.Enabled, _ = f.GetBool("breaker")
	}
}

func apiURL() string {
	if v := os.Getenv("LOGSHIP_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
