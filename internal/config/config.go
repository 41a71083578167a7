package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzbill/logship/pkg/id"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// Storage backends.
const (
	BackendPebble = "pebble"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Queue    QueueConfig    `json:"queue" yaml:"queue" envPrefix:"QUEUE_"`
	Storage  StorageConfig  `json:"storage" yaml:"storage" envPrefix:"STORAGE_"`
	Endpoint EndpointConfig `json:"endpoint" yaml:"endpoint" envPrefix:"ENDPOINT_"`
	Drain    DrainConfig    `json:"drain" yaml:"drain" envPrefix:"DRAIN_"`
	Capture  CaptureConfig  `json:"capture" yaml:"capture" envPrefix:"CAPTURE_"`
	Server   ServerConfig   `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Log      logpkg.Config  `json:"log" yaml:"log" envPrefix:"LOG_"`
}

// QueueConfig names the queue and tunes its lock.
type QueueConfig struct {
	Name       string `json:"name" yaml:"name" env:"NAME"`
	LockWaitMs int    `json:"lockWaitMs" yaml:"lockWaitMs" env:"LOCK_WAIT_MS"`
	Delimiter  string `json:"delimiter" yaml:"delimiter" env:"DELIMITER"`
	// IDs selects the item id generator: "random" or "uuid".
	IDs string `json:"ids" yaml:"ids" env:"IDS"`
}

// StorageConfig selects and configures the kv backend.
type StorageConfig struct {
	Backend         string `json:"backend" yaml:"backend" env:"BACKEND"`
	DataDir         string `json:"dataDir" yaml:"dataDir" env:"DATA_DIR"`
	Fsync           string `json:"fsync" yaml:"fsync" env:"FSYNC"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs" env:"FSYNC_INTERVAL_MS"`
	KeyPrefix       string `json:"keyPrefix" yaml:"keyPrefix" env:"KEY_PREFIX"`
	RedisAddr       string `json:"redisAddr" yaml:"redisAddr" env:"REDIS_ADDR"`
	RedisPassword   string `json:"redisPassword" yaml:"redisPassword" env:"REDIS_PASSWORD"`
	RedisDB         int    `json:"redisDB" yaml:"redisDB" env:"REDIS_DB"`
	SQLitePath      string `json:"sqlitePath" yaml:"sqlitePath" env:"SQLITE_PATH"`
}

// EndpointConfig describes the delivery target.
type EndpointConfig struct {
	URI       string            `json:"uri" yaml:"uri" env:"URI"`
	Headers   map[string]string `json:"headers" yaml:"headers" env:"HEADERS"`
	TimeoutMs int               `json:"timeoutMs" yaml:"timeoutMs" env:"TIMEOUT_MS"`
	Breaker   BreakerConfig     `json:"breaker" yaml:"breaker" envPrefix:"BREAKER_"`
}

// BreakerConfig tunes the delivery circuit breaker.
type BreakerConfig struct {
	Enabled             bool `json:"enabled" yaml:"enabled" env:"ENABLED"`
	ConsecutiveFailures int  `json:"consecutiveFailures" yaml:"consecutiveFailures" env:"CONSECUTIVE_FAILURES"`
	OpenTimeoutMs       int  `json:"openTimeoutMs" yaml:"openTimeoutMs" env:"OPEN_TIMEOUT_MS"`
}

// DrainConfig tunes background draining.
type DrainConfig struct {
	IntervalMs    int `json:"intervalMs" yaml:"intervalMs" env:"INTERVAL_MS"`
	MaxConcurrent int `json:"maxConcurrent" yaml:"maxConcurrent" env:"MAX_CONCURRENT"`
}

// CaptureConfig configures ingest-side event shaping.
type CaptureConfig struct {
	// Validator is a CEL expression over event and state.
	Validator string `json:"validator" yaml:"validator" env:"VALIDATOR"`
	// Inject adds static fields to every event.
	Inject map[string]string `json:"inject" yaml:"inject" env:"INJECT"`
}

// ServerConfig holds listen addresses. An empty address disables that server.
type ServerConfig struct {
	HTTPAddr    string `json:"httpAddr" yaml:"httpAddr" env:"HTTP_ADDR"`
	GRPCAddr    string `json:"grpcAddr" yaml:"grpcAddr" env:"GRPC_ADDR"`
	MetricsAddr string `json:"metricsAddr" yaml:"metricsAddr" env:"METRICS_ADDR"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Queue: QueueConfig{
			Name:       "events",
			LockWaitMs: 20,
			Delimiter:  "|",
			IDs:        "random",
		},
		Storage: StorageConfig{
			Backend:         BackendPebble,
			Fsync:           "interval",
			FsyncIntervalMs: 5,
			RedisAddr:       "localhost:6379",
		},
		Endpoint: EndpointConfig{
			TimeoutMs: 10000,
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenTimeoutMs:       30000,
			},
		},
		Drain: DrainConfig{
			IntervalMs:    30000,
			MaxConcurrent: 1,
		},
		Server: ServerConfig{
			HTTPAddr:    ":8080",
			GRPCAddr:    ":9090",
			MetricsAddr: ":9100",
		},
		Log: logpkg.Config{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Save writes cfg to path as YAML or JSON (by extension). An existing file
// is left alone unless overwrite is set.
func Save(path string, cfg Config, overwrite bool) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(cfg)
	default:
		b, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Queue.Name) == "" {
		errs = append(errs, errors.New("queue.name is required"))
	}
	if len([]rune(c.Queue.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("queue.delimiter must be one character, got %q", c.Queue.Delimiter))
	} else if strings.Contains(c.Queue.Name, c.Queue.Delimiter) {
		errs = append(errs, fmt.Errorf("queue.name must not contain the delimiter %q", c.Queue.Delimiter))
	}
	if _, err := id.Parse(c.Queue.IDs); err != nil {
		errs = append(errs, fmt.Errorf("queue.ids must be random or uuid, got %q", c.Queue.IDs))
	} else if c.Queue.IDs == "uuid" && c.Queue.Delimiter == "-" {
		errs = append(errs, errors.New(`queue.ids "uuid" cannot be used with delimiter "-"`))
	}
	switch c.Storage.Backend {
	case BackendPebble:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.dataDir is required for the pebble backend"))
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlitePath is required for the sqlite backend"))
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redisAddr is required for the redis backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of pebble, redis, sqlite, memory", c.Storage.Backend))
	}
	if c.Drain.MaxConcurrent < 0 {
		errs = append(errs, errors.New("drain.maxConcurrent must not be negative"))
	}
	return errors.Join(errs...)
}

// LockWait returns the queue lock wait as a duration.
func (c QueueConfig) LockWait() time.Duration { return time.Duration(c.LockWaitMs) * time.Millisecond }

// Timeout returns the per-request delivery timeout.
func (c EndpointConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

// Interval returns the periodic drain interval.
func (c DrainConfig) Interval() time.Duration { return time.Duration(c.IntervalMs) * time.Millisecond }
