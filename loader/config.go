package loader

import (
	stderrors "errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/errors"
)

// Config is the file form of a run's settings.
type Config struct {
	Path             string `yaml:"path"`
	EntryPoint       string `yaml:"entry_point"`
	Mode             Mode   `yaml:"mode"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
	WASI             bool   `yaml:"wasi"`
}

// DefaultConfig loads output.wasm in safe mode and invokes main.
func DefaultConfig() Config {
	return Config{
		Path:       DefaultPath,
		EntryPoint: DefaultEntryPoint,
		Mode:       ModeSafe,
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their defaults; unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.New(errors.PhaseConfig, errors.KindFileAccess).
			Path(path).
			Detail("open config").
			Cause(err).
			Build()
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return DefaultConfig(), errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(path).
			Detail("parse config").
			Cause(err).
			Build()
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.EntryPoint == "" {
		cfg.EntryPoint = DefaultEntryPoint
	}
	return cfg, nil
}

// EngineConfig returns the engine settings of cfg.
func (c Config) EngineConfig() *engine.Config {
	return &engine.Config{
		MemoryLimitPages: c.MemoryLimitPages,
		EnableWASI:       c.WASI,
	}
}

// Options returns the loader options of cfg.
func (c Config) Options() []Option {
	return []Option{
		WithPath(c.Path),
		WithEntryPoint(c.EntryPoint),
	}
}
