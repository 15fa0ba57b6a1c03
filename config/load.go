// Copyright (c) 2024 BVK Chaitanya

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvMonitoringMode, when set to a true value, forces monitoring mode on all
// loaded pair configurations.
const EnvMonitoringMode = "LADDERBOT_MONITORING_MODE"

// File is the YAML configuration file format.
type File struct {
	Pairs []*Config `yaml:"pairs"`
}

// Decode parses a YAML configuration and validates every pair. Unknown fields
// are rejected.
func Decode(r io.Reader) ([]*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: could not decode yaml: %w", ErrConfigInvalid, err)
	}

	seen := make(map[string]bool)
	for _, c := range f.Pairs {
		if c == nil {
			return nil, fmt.Errorf("%w: empty pair entry", ErrConfigInvalid)
		}
		c.SetDefaults()
		if err := ApplyEnv(c); err != nil {
			return nil, err
		}
		if err := c.Check(); err != nil {
			return nil, err
		}
		if seen[c.Pair] {
			return nil, fmt.Errorf("%w: pair %q is configured more than once", ErrConfigInvalid, c.Pair)
		}
		seen[c.Pair] = true
	}
	return f.Pairs, nil
}

// LoadFile reads pair configurations from a YAML file.
func LoadFile(fpath string) ([]*Config, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes the configurations in the YAML file format.
func Encode(w io.Writer, cs []*Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&File{Pairs: cs}); err != nil {
		return err
	}
	return enc.Close()
}

// LoadEnv loads environment variables from the .env files that exist. Values
// already present in the environment are not overridden.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("could not load env files %v: %w", existing, err)
	}
	slog.Info("loaded environment files", "files", existing)
	return nil
}

// ApplyEnv applies environment overrides to the config.
func ApplyEnv(c *Config) error {
	if v := os.Getenv(EnvMonitoringMode); len(v) != 0 {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: could not parse %s value %q: %w", ErrConfigInvalid, EnvMonitoringMode, v, err)
		}
		if on {
			c.MonitoringMode = true
		}
	}
	return nil
}
