// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads catalog settings from an optional YAML file with
// environment variable overrides. Environment always wins over the file,
// the file over built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backend names for the compound store.
const (
	BackendCSV    = "csv"
	BackendBadger = "badger"
)

// Config holds all catalog settings.
type Config struct {
	// TablePath is the CSV table file for the csv backend.
	TablePath string `yaml:"table_path"`

	// Backend selects the compound store implementation: csv or badger.
	Backend string `yaml:"backend"`

	// BadgerPath is the database directory for the badger backend.
	BadgerPath string `yaml:"badger_path"`

	// ListenAddr is the HTTP server bind address.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Watch reloads the csv table when it changes on disk.
	Watch bool `yaml:"watch"`

	// PoolSize caps the batch-resolution worker pool. Zero means the
	// runner's own default.
	PoolSize int `yaml:"pool_size"`
}

func defaults() *Config {
	return &Config{
		TablePath:  "compounds.csv",
		Backend:    BackendCSV,
		BadgerPath: "stilbar.db",
		ListenAddr: ":8080",
		LogLevel:   "info",
		Watch:      true,
	}
}

// Load builds the configuration. The file at path is optional; when path is
// empty, STILBAR_CONFIG or ./stilbar.yml is tried. A missing file is not an
// error, a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("STILBAR_CONFIG")
	}
	if path == "" {
		path = "stilbar.yml"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STILBAR_TABLE"); v != "" {
		cfg.TablePath = v
	}
	if v := os.Getenv("STILBAR_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("STILBAR_BADGER_PATH"); v != "" {
		cfg.BadgerPath = v
	}
	if v := os.Getenv("STILBAR_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("STILBAR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STILBAR_WATCH"); v != "" {
		cfg.Watch = v != "false" && v != "0"
	}
	if v, err := strconv.Atoi(os.Getenv("STILBAR_POOL_SIZE")); err == nil && v > 0 {
		cfg.PoolSize = v
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendCSV, BackendBadger:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	return nil
}
