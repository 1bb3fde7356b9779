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

package federation

import (
	"bennypowers.dev/nativefed/logging"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/resolve"
)

// DefaultConcurrency bounds concurrent remote entry fetches when Config
// leaves it unset.
const DefaultConcurrency = 8

// Config is the federation configuration. It decodes from viper through the
// mapstructure tags.
type Config struct {
	Strict  resolve.Strict  `mapstructure:"strict" json:"strict" yaml:"strict"`
	Profile resolve.Profile `mapstructure:"profile" json:"profile" yaml:"profile"`

	// HostRemoteEntry is the URL of the host application's own remote
	// entry. Its shared dependencies win version ties.
	HostRemoteEntry string `mapstructure:"hostRemoteEntry" json:"hostRemoteEntry,omitempty" yaml:"hostRemoteEntry,omitempty"`

	// LogLevel is the minimum level of the default logger: debug, warn or
	// error.
	LogLevel string `mapstructure:"logLevel" json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// Storage is the path of the cache document. Empty keeps the cache in
	// memory.
	Storage string `mapstructure:"storage" json:"storage,omitempty" yaml:"storage,omitempty"`

	// Concurrency bounds concurrent remote entry fetches.
	Concurrency int `mapstructure:"concurrency" json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "warn",
		Concurrency: DefaultConcurrency,
	}
}

// Validate rejects unknown options.
func (c Config) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return model.WithAttrs(
			model.Errorf(model.ErrInvalidConfig, "concurrency must not be negative, got %d", c.Concurrency),
			"option", "concurrency")
	}
	return nil
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}
