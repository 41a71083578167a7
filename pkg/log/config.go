package log

import (
	"fmt"
	"strings"
)

// Config declares how to build a logger.
type Config struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"` // text|json
	Output string `json:"output" yaml:"output" env:"OUTPUT"` // console|file|null
	File   string `json:"file" yaml:"file" env:"FILE"`       // used when Output=file
	Caller bool   `json:"caller" yaml:"caller" env:"CALLER"`
}

// ApplyConfig builds a Logger from cfg. Unknown formats or outputs are errors;
// an empty Config yields an info-level JSON console logger.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		formatter = &JSONFormatter{ShowCaller: cfg.Caller}
	case "text":
		formatter = &TextFormatter{ShowCaller: cfg.Caller}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "", "console":
		output = NewConsoleOutput()
	case "null":
		output = NewNullOutput()
	case "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("log output file requires a path")
		}
		fo, err := NewFileOutput(cfg.File)
		if err != nil {
			return nil, err
		}
		output = fo
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	return NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(output)), nil
}
