// Package config holds decoder settings. Values come from defaults, then an optional
// YAML file, then TREEBEAM_* environment variables; command line flags are applied on
// top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/treebeam/search"
)

var log = commonlog.GetLogger("treebeam.config")

var validate = validator.New()

// Config controls decoding.
type Config struct {
	BeamSize      int     `yaml:"beam_size" validate:"min=1"`
	KBestSize     int     `yaml:"kbest_size" validate:"min=1"`
	MaxLength     int     `yaml:"max_length" validate:"min=1"`
	LengthBonus   float64 `yaml:"length_bonus" validate:"lte=0"`
	KeepTruncated bool    `yaml:"keep_truncated"`
	Samples       int     `yaml:"samples" validate:"min=1"`
	Seed          int64   `yaml:"seed"`
	// Parser restricts output to parser actions forming a valid tree.
	Parser bool `yaml:"parser"`
}

func Default() Config {
	return Config{
		BeamSize:      search.DefaultBeamSize,
		KBestSize:     search.DefaultKBestSize,
		MaxLength:     search.DefaultMaxLength,
		LengthBonus:   0,
		KeepTruncated: true,
		Samples:       1,
		Seed:          1,
	}
}

// Load builds a configuration from defaults, the file at path (skipped when empty or
// missing) and the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warningf("config file %s not found, using defaults", path)
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("TREEBEAM_BEAM_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.BeamSize = i
		}
	}
	if v := os.Getenv("TREEBEAM_KBEST_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.KBestSize = i
		}
	}
	if v := os.Getenv("TREEBEAM_MAX_LENGTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxLength = i
		}
	}
	if v := os.Getenv("TREEBEAM_LENGTH_BONUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LengthBonus = f
		}
	}
	if v := os.Getenv("TREEBEAM_KEEP_TRUNCATED"); v != "" {
		cfg.KeepTruncated = v == "true" || v == "1"
	}
	if v := os.Getenv("TREEBEAM_SAMPLES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Samples = i
		}
	}
	if v := os.Getenv("TREEBEAM_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = i
		}
	}
}

// Validate checks the field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// SearchOptions translates the configuration into decoder options.
func (c Config) SearchOptions() []search.Option {
	truncation := search.KeepTruncated
	if !c.KeepTruncated {
		truncation = search.DropTruncated
	}
	return []search.Option{
		search.WithBeamSize(c.BeamSize),
		search.WithKBestSize(c.KBestSize),
		search.WithMaxLength(c.MaxLength),
		search.WithLengthBonus(c.LengthBonus),
		search.WithTruncation(truncation),
	}
}
