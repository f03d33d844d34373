// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"fmt"
	"os"
	"strings"

	"github.com/woozymasta/refrontier/archive"
	"github.com/woozymasta/refrontier/ecd"
	"github.com/woozymasta/refrontier/jpk"
	"gopkg.in/yaml.v3"
)

// Config is the run configuration, passed by value to every worker.
type Config struct {
	// Compress selects the algorithm for the compress handler ("lz", "hfi", ...); empty disables it.
	Compress string `json:"compress,omitempty" yaml:"compress,omitempty"`
	// Include keeps only matching files found in directories.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	// Exclude drops matching files found in directories.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// Parallelism is worker count; zero means runtime.GOMAXPROCS(0).
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`
	// MaxDepth bounds stage container nesting and output chaining.
	MaxDepth int `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	// KeyIndex is the encryption key slot used when no meta sidecar is found.
	KeyIndex uint16 `json:"key_index" yaml:"key_index"`
	// Recursive descends into subdirectories.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	// Verbose enables debug logs.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	// NoDecryption skips encrypted files.
	NoDecryption bool `json:"no_decryption,omitempty" yaml:"no_decryption,omitempty"`
	// StageContainer unpacks archives recursively.
	StageContainer bool `json:"stage_container,omitempty" yaml:"stage_container,omitempty"`
	// Encrypt encrypts plain files instead of decoding them.
	Encrypt bool `json:"encrypt,omitempty" yaml:"encrypt,omitempty"`
	// SaveMeta writes a meta sidecar next to decrypted output.
	SaveMeta bool `json:"save_meta,omitempty" yaml:"save_meta,omitempty"`
	// CleanUp removes chained intermediate outputs after their successor processed them.
	CleanUp bool `json:"clean_up,omitempty" yaml:"clean_up,omitempty"`
	// Repack rebuilds archives from unpack manifests.
	Repack bool `json:"repack,omitempty" yaml:"repack,omitempty"`
	// Chain routes outputs again until nothing more applies.
	Chain bool `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// DefaultConfig returns a config with default key slot and depth.
func DefaultConfig() Config {
	return Config{
		KeyIndex: ecd.DefaultKeyIndex,
		MaxDepth: archive.DefaultMaxDepth,
	}
}

// LoadConfig reads a YAML config file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}

	return cfg, cfg.Validate()
}

// applyDefaults fills zero-valued config fields with defaults.
func (cfg *Config) applyDefaults() {
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = archive.DefaultMaxDepth
	}

	cfg.Compress = strings.TrimSpace(cfg.Compress)
}

// Validate reports the first invalid setting.
func (cfg Config) Validate() error {
	if cfg.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism %d", ErrInvalidConfig, cfg.Parallelism)
	}

	if cfg.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d", ErrInvalidConfig, cfg.MaxDepth)
	}

	if int(cfg.KeyIndex) >= ecd.KeyCount {
		return fmt.Errorf("%w: key index %d (max %d)", ErrInvalidConfig, cfg.KeyIndex, ecd.KeyCount-1)
	}

	if cfg.Compress != "" {
		if _, err := jpk.ParseAlgorithm(cfg.Compress); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if cfg.Chain && (cfg.Encrypt || cfg.Compress != "" || cfg.Repack) {
		return fmt.Errorf("%w: chain cannot be combined with encrypt, compress or repack", ErrInvalidConfig)
	}

	if _, err := newPathFilter(cfg.Include, cfg.Exclude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
