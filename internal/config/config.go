/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package config turns viper settings into a federation configuration and
// the dependencies CLI commands run passes with.
package config

import (
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"bennypowers.dev/nativefed/federation"
	"bennypowers.dev/nativefed/logging"
	"bennypowers.dev/nativefed/metrics"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/storage"
)

// EnvPrefix prefixes environment variables, e.g. NATIVEFED_STORAGE or
// NATIVEFED_STRICT_STRICTREMOTEENTRY.
const EnvPrefix = "NATIVEFED"

// Init reads the optional config file and wires environment variables.
func Init(configFile string) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// every key needs a default for AutomaticEnv to reach Unmarshal
	defaults := federation.DefaultConfig()
	for key, value := range map[string]any{
		"storage":                                   defaults.Storage,
		"hostRemoteEntry":                           defaults.HostRemoteEntry,
		"logLevel":                                  defaults.LogLevel,
		"concurrency":                               defaults.Concurrency,
		"strict.strictRemoteEntry":                  defaults.Strict.StrictRemoteEntry,
		"strict.strictExternalCompatibility":        defaults.Strict.StrictExternalCompatibility,
		"strict.strictExternalVersion":              defaults.Strict.StrictExternalVersion,
		"strict.strictImportMap":                    defaults.Strict.StrictImportMap,
		"profile.latestSharedExternal":              defaults.Profile.LatestSharedExternal,
		"profile.overrideCachedRemotes":             string(defaults.Profile.OverrideCachedRemotes),
		"profile.overrideCachedRemotesIfURLMatches": defaults.Profile.OverrideCachedRemotesIfURLMatches,
	} {
		viper.SetDefault(key, value)
	}

	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return model.WithAttrs(
			model.Errorf(model.ErrInvalidConfig, "failed to read config file: %v", err),
			"path", configFile)
	}
	return nil
}

// Load decodes the federation configuration from viper.
func Load() (federation.Config, error) {
	cfg := federation.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, model.Errorf(model.ErrInvalidConfig, "failed to decode configuration: %v", err)
	}
	if viper.GetBool("strictAll") {
		cfg.Strict.StrictRemoteEntry = true
		cfg.Strict.StrictExternalCompatibility = true
		cfg.Strict.StrictExternalVersion = true
		cfg.Strict.StrictImportMap = true
	}
	return cfg, cfg.Validate()
}

// Logger builds the stderr logger for cfg.
func Logger(cfg federation.Config) *logging.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	return logging.New(os.Stderr, logging.Options{
		Level: level,
		JSON:  viper.GetBool("logJSON"),
	})
}

// Storage opens the cache configured by cfg.
func Storage(cfg federation.Config) storage.Storage {
	if cfg.Storage == "" {
		return storage.NewMemory()
	}
	return storage.OpenFile(cfg.Storage)
}

// Session bundles what a command needs to run passes.
type Session struct {
	Config   federation.Config
	Logger   *logging.Logger
	Storage  storage.Storage
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// NewSession loads the configuration and opens its dependencies.
func NewSession() (*Session, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &Session{
		Config:   cfg,
		Logger:   Logger(cfg),
		Storage:  Storage(cfg),
		Registry: reg,
		Metrics:  metrics.New(reg),
	}, nil
}

// Initializer creates a federation initializer over the session's
// dependencies.
func (s *Session) Initializer() (*federation.Initializer, error) {
	return federation.New(s.Config, federation.Dependencies{
		Storage: s.Storage,
		Logger:  s.Logger,
		Metrics: s.Metrics,
	})
}

// WriteMetrics writes the session's metrics to the --metrics-file path, if
// one is configured.
func (s *Session) WriteMetrics() error {
	path := viper.GetString("metricsFile")
	if path == "" {
		return nil
	}
	return metrics.WriteToTextfile(path, s.Registry)
}
