package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if XNAKE_CONFIG is set
//  3. env (prefix XNAKE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("XNAKE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: XNAKE_ADDR, XNAKE_DATA_DIR, ...
	// Map env keys like XNAKE_PAUSE_GAP_MS -> pause_gap_ms (flat keys).
	envProvider := env.Provider("XNAKE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "xnake_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Grid < 4:
		return fmt.Errorf("%w: grid must be at least 4", ErrInvalidConfig)
	case c.MinSpeedMS <= 0 || c.InitialSpeedMS < c.MinSpeedMS:
		return fmt.Errorf("%w: speed bounds are inconsistent", ErrInvalidConfig)
	case c.MLThresholdLow < 0 || c.MLThresholdHigh > 1 || c.MLThresholdLow >= c.MLThresholdHigh:
		return fmt.Errorf("%w: ml thresholds must satisfy 0 <= low < high <= 1", ErrInvalidConfig)
	case c.MaxTotalFrames <= 0:
		return fmt.Errorf("%w: max_total_frames must be positive", ErrInvalidConfig)
	}
	return nil
}
