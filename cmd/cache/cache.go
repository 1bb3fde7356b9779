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

// Package cache provides commands to inspect and prune the federation cache.
package cache

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/internal/config"
	"bennypowers.dev/nativefed/internal/output"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/resolve"
	"bennypowers.dev/nativefed/storage"
	"bennypowers.dev/nativefed/store"
	"bennypowers.dev/nativefed/versions"
)

// Cmd is the cache command.
var Cmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the federation cache",
	Long: `Inspect or clear the federation cache written by previous passes.

The cache file is selected with --cache or the storage config key.`,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cached shared externals, scopes and remotes",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove remotes from the cache",
	Long: `Remove remotes from the cache.

Without --remote the whole cache is cleared. Each --remote is a glob matched
against remote names; matching remotes are forgotten and their shared
versions and scopes are released.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	showCmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")
	clearCmd.Flags().StringSlice("remote", nil, "Glob of remote names to forget (repeatable)")
	Cmd.AddCommand(showCmd, clearCmd)
}

// Snapshot is the persisted cache as printed by cache show.
type Snapshot struct {
	Shared  model.SharedExternals        `json:"sharedExternals" yaml:"sharedExternals"`
	Scoped  model.ScopedExternalsByScope `json:"scopedExternals" yaml:"scopedExternals"`
	Remotes model.RemoteInfos            `json:"remotes" yaml:"remotes"`
}

// Load reads the cache snapshot from st.
func Load(st storage.Storage) (Snapshot, error) {
	stores, err := store.Open(st)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Shared:  stores.Shared.GetAll(),
		Scoped:  stores.Scoped.GetAll(),
		Remotes: stores.Remotes.GetAll(),
	}, nil
}

// Format renders the snapshot as table, json or yaml.
func (s Snapshot) Format(format string) (string, error) {
	if format == "table" || format == "" {
		return s.Table(), nil
	}
	out, err := output.Marshal(s, format)
	if err != nil {
		return "", fmt.Errorf("error marshaling cache: %w", err)
	}
	return out, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}
	session, err := config.NewSession()
	if err != nil {
		return err
	}
	snap, err := Load(session.Storage)
	if err != nil {
		session.Logger.LogError(cmd.Context(), err)
		return err
	}
	text, err := snap.Format(format)
	if err != nil {
		return err
	}
	return output.Text(fs.NewOSFileSystem(), text)
}

func runClear(cmd *cobra.Command, args []string) error {
	patterns, err := cmd.Flags().GetStringSlice("remote")
	if err != nil {
		return fmt.Errorf("error reading remote flag: %w", err)
	}
	session, err := config.NewSession()
	if err != nil {
		return err
	}
	if session.Config.Storage == "" {
		return model.Errorf(model.ErrInvalidConfig, "no cache file configured (use --cache)")
	}

	var forgotten []string
	if len(patterns) == 0 {
		err = ClearAll(session.Storage)
	} else {
		forgotten, err = Forget(session.Storage, patterns)
	}
	if err != nil {
		session.Logger.LogError(cmd.Context(), err)
		return err
	}

	if len(patterns) == 0 {
		fmt.Fprintf(os.Stderr, "Cleared %s\n", session.Config.Storage)
		return nil
	}
	if len(forgotten) == 0 {
		fmt.Fprintln(os.Stderr, "No cached remotes matched")
		return nil
	}
	for _, name := range forgotten {
		fmt.Fprintf(os.Stderr, "Forgot %s\n", name)
	}
	return nil
}

// ClearAll removes every cache key from st.
func ClearAll(st storage.Storage) error {
	for _, key := range []string{
		storage.KeySharedExternals,
		storage.KeyScopedExternals,
		storage.KeyRemotes,
	} {
		if err := st.Clear(key); err != nil {
			return err
		}
	}
	return nil
}

// Forget removes the cached remotes matching any of patterns and commits the
// result. It returns the forgotten remote names in sorted order.
func Forget(st storage.Storage, patterns []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, model.Errorf(model.ErrInvalidConfig, "invalid remote pattern %q", p)
		}
	}
	stores, err := store.Open(st)
	if err != nil {
		return nil, err
	}
	resolver := resolve.New(stores.Shared, stores.Scoped, stores.Remotes, versions.NewSemver())

	var forgotten []string
	for _, name := range stores.Remotes.Names() {
		if !slices.ContainsFunc(patterns, func(p string) bool {
			ok, _ := doublestar.Match(p, name)
			return ok
		}) {
			continue
		}
		if resolver.Forget(name) {
			forgotten = append(forgotten, name)
		}
	}
	if err := stores.Commit(); err != nil {
		return nil, err
	}
	slices.Sort(forgotten)
	return forgotten, nil
}
