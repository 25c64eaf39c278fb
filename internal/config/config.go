// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config defines configuration used by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// FormatJSON renders output as JSON.
	FormatJSON = "json"
	// FormatYAML renders output as YAML.
	FormatYAML = "yaml"

	// defaultsFile is the per-user defaults file, located under the
	// user's configuration directory.
	defaultsFile = "opwait/config.toml"

	defaultInitialWait   = 1 * time.Second
	defaultMaxWait       = 60 * time.Second
	defaultBackoffFactor = 1.5
)

// are variables so they can be replaced during testing.
var (
	lookupEnv     = os.LookupEnv
	userConfigDir = os.UserConfigDir
	readFile      = os.ReadFile
)

// Config holds all configuration values parsed from flags, environment
// variables and the per-user defaults file. When adding members to this
// struct, please keep them in alphabetical order.
type Config struct {
	// BackoffFactor multiplies the polling delay after each attempt.
	// Must be greater than 1.
	//
	// BackoffFactor is specified with the -backoff-factor flag, or the
	// backoff_factor key of the defaults file.
	BackoffFactor float64

	// CommandName is the name of the command being executed.
	//
	// CommandName is populated automatically. No user setup is expected.
	CommandName string

	// Endpoint is the service endpoint that owns the operations, for
	// example "spanner.googleapis.com:443". When unset, the generic
	// long-running operations endpoint is used.
	//
	// Endpoint is specified with the -endpoint flag, the
	// OPWAIT_ENDPOINT environment variable, or the endpoint key of the
	// defaults file.
	Endpoint string

	// Filter is a service-specific filter expression used by the list
	// command and by batched waits to constrain which operations a
	// single ListOperations request reports.
	//
	// Filter is specified with the -filter flag.
	Filter string

	// Format selects how results are rendered: "yaml" or "json".
	// Defaults to "yaml".
	//
	// Format is specified with the -format flag or the format key of
	// the defaults file.
	Format string

	// IgnoreResult indicates that the caller only cares about the
	// operation completing, not about its response payload. Set it when
	// waiting for delete operations, which legitimately complete with no
	// payload.
	//
	// IgnoreResult is specified with the -ignore-result flag.
	IgnoreResult bool

	// InitialWait is the delay between the first and second poll.
	//
	// InitialWait is specified with the -initial-wait flag or the
	// initial_wait key of the defaults file.
	InitialWait time.Duration

	// MaxWait caps the delay between polls as backoff grows.
	//
	// MaxWait is specified with the -max-wait flag or the max_wait key
	// of the defaults file.
	MaxWait time.Duration

	// Message is the human-readable progress message displayed while
	// waiting, for example "Creating instance my-instance".
	//
	// Message is specified with the -message flag.
	Message string

	// Name is the fully-qualified resource name of a single operation,
	// for example "projects/p/locations/l/operations/op-1".
	//
	// Name is specified with the -name flag.
	Name string

	// Names is a comma-separated list of operation names for batched
	// waits.
	//
	// Names is specified with the -names flag.
	Names string

	// NoJitter disables the random perturbation applied to each polling
	// delay. Mostly useful for reproducing exact polling schedules.
	//
	// NoJitter is specified with the -no-jitter flag.
	NoJitter bool

	// Parent is the resource whose operations collection is listed, for
	// example "projects/p/locations/l". Used by the list command and by
	// single-request batched waits.
	//
	// Parent is specified with the -parent flag.
	Parent string

	// Timeout bounds the total time spent waiting. Zero means wait
	// until the operation completes or the command is interrupted;
	// unbounded waiting is the deliberate default for interactive use.
	//
	// Timeout is specified with the -timeout flag or the timeout key of
	// the defaults file.
	Timeout time.Duration
}

// defaults mirrors the subset of Config that may be set from the per-user
// defaults file.
type defaults struct {
	BackoffFactor float64 `toml:"backoff_factor"`
	Endpoint      string  `toml:"endpoint"`
	Format        string  `toml:"format"`
	InitialWait   string  `toml:"initial_wait"`
	MaxWait       string  `toml:"max_wait"`
	Timeout       string  `toml:"timeout"`
}

// New returns a new Config populated with environment variables.
func New(cmdName string) *Config {
	c := &Config{CommandName: cmdName}
	if v, ok := lookupEnv("OPWAIT_ENDPOINT"); ok {
		c.Endpoint = v
	}
	return c
}

// SetDefaults fills in values the user did not set directly, first from the
// per-user defaults file and then from built-in defaults. It is called
// after flag parsing so flags always win.
func (c *Config) SetDefaults() error {
	if err := c.applyDefaultsFile(); err != nil {
		return err
	}
	if c.Format == "" {
		c.Format = FormatYAML
	}
	if c.InitialWait == 0 {
		c.InitialWait = defaultInitialWait
	}
	if c.MaxWait == 0 {
		c.MaxWait = defaultMaxWait
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = defaultBackoffFactor
	}
	return nil
}

func (c *Config) applyDefaultsFile() error {
	path, err := defaultsPath()
	if err != nil || path == "" {
		return err
	}
	data, err := readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading defaults file %q: %w", path, err)
	}
	var d defaults
	if err := toml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parsing defaults file %q: %w", path, err)
	}
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	var derr error
	setDuration := func(dst *time.Duration, value, key string) {
		if *dst != 0 || value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			derr = errors.Join(derr, fmt.Errorf("defaults file %q: invalid %s: %w", path, key, err))
			return
		}
		*dst = parsed
	}
	setDuration(&c.InitialWait, d.InitialWait, "initial_wait")
	setDuration(&c.MaxWait, d.MaxWait, "max_wait")
	setDuration(&c.Timeout, d.Timeout, "timeout")
	return derr
}

// defaultsPath returns the location of the per-user defaults file. The
// OPWAIT_CONFIG environment variable overrides the conventional location.
// An empty path with a nil error means there is no usable location.
func defaultsPath() (string, error) {
	if v, ok := lookupEnv("OPWAIT_CONFIG"); ok {
		return v, nil
	}
	dir, err := userConfigDir()
	if err != nil {
		// No home directory; run with built-in defaults only.
		return "", nil
	}
	return filepath.Join(dir, defaultsFile), nil
}

// IsValid ensures the values contained in a Config are valid.
func (c *Config) IsValid() (bool, error) {
	if c.Format != FormatYAML && c.Format != FormatJSON {
		return false, fmt.Errorf("invalid format %q: must be %q or %q", c.Format, FormatYAML, FormatJSON)
	}
	if c.InitialWait < 0 || c.MaxWait < 0 || c.Timeout < 0 {
		return false, errors.New("wait durations must not be negative")
	}
	if c.BackoffFactor <= 1 {
		return false, errors.New("backoff factor must be greater than 1")
	}
	if c.InitialWait > c.MaxWait {
		return false, errors.New("initial wait exceeds maximum wait")
	}
	return true, nil
}
