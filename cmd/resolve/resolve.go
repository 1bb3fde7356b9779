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

// Package resolve provides the resolve command for nativefed.
package resolve

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"bennypowers.dev/nativefed/federation"
	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/internal/config"
	"bennypowers.dev/nativefed/internal/output"
)

// Cmd is the resolve command.
var Cmd = &cobra.Command{
	Use:   "resolve <manifest>",
	Short: "Resolve a federation manifest into an import map",
	Long: `Fetch the manifest and every remote entry it lists, classify their shared
dependencies and print the import map.

The manifest may be an http(s) URL or a local file. Remotes that cannot be
fetched are logged and left out unless --strict-remote-entry is set.`,
	Example: `  # Print the import map as JSON
  nativefed resolve http://localhost:4200/assets/federation.manifest.json

  # Let the host's own remoteEntry.json win version ties
  nativefed resolve manifest.json --host http://localhost:4200/remoteEntry.json

  # Keep resolutions between runs and only refetch moved remotes
  nativefed resolve manifest.json --cache .nativefed.json --override only-if-url-matches

  # Print a script tag
  nativefed resolve manifest.json --format html`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "json", "Output format (json, html)")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "html" {
		return fmt.Errorf("unknown format %q", format)
	}

	fed, session, err := Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := session.WriteMetrics(); err != nil {
		return err
	}
	return output.ImportMap(fs.NewOSFileSystem(), fed.ImportMap(), format)
}

// Run performs one pass over manifest with the configured session. Commands
// that need an import map share it.
func Run(ctx context.Context, manifest string) (*federation.Federation, *config.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := config.NewSession()
	if err != nil {
		return nil, nil, err
	}
	initializer, err := session.Initializer()
	if err != nil {
		return nil, nil, err
	}

	fed, err := initializer.Init(ctx, manifest)
	if err != nil {
		session.Logger.LogError(ctx, err)
		_ = session.WriteMetrics()
		return nil, nil, err
	}

	for _, name := range slices.Sorted(maps.Keys(fed.Excluded())) {
		session.Logger.Warn(fmt.Sprintf("remote %q is missing from the import map", name), nil)
	}
	if fp, err := fed.ImportMap().Fingerprint(); err == nil {
		session.Logger.Debug(fmt.Sprintf("import map fingerprint %s", fp), nil)
	}
	for _, name := range fed.Skipped() {
		session.Logger.Debug(fmt.Sprintf("remote %q kept from cache", name), nil)
	}
	return fed, session, nil
}
