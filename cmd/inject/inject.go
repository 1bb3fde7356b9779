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

// Package inject provides the inject command for nativefed.
package inject

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"bennypowers.dev/nativefed/cmd/resolve"
	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/inject"
)

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject <manifest>",
	Short: "Resolve a manifest and inject the import map into HTML files",
	Long: `Resolve the federation manifest and update the import map script tags of
HTML files in-place.

An existing import map is merged with the resolved one, resolved entries
taking precedence, unless --replace is given. Files without an import map
get one inserted at the top of <head>.`,
	Example: `  # Inject into all HTML files
  nativefed inject manifest.json --glob "dist/**/*.html"

  # Parallel processing with custom worker count
  nativefed inject manifest.json --glob "dist/**/*.html" --parallel 8

  # Dry run to see what would change
  nativefed inject manifest.json --glob "dist/**/*.html" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files (required)")
	Cmd.Flags().Int("parallel", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
	Cmd.Flags().Bool("replace", false, "Replace existing import maps instead of merging")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern == "" {
		return fmt.Errorf("--glob is required")
	}

	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no files matched the glob pattern")
		return nil
	}

	// Deduplicate by absolute path
	seen := make(map[string]struct{})
	var files []string
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", match, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
	}

	fed, session, err := resolve.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := session.WriteMetrics(); err != nil {
		return err
	}

	parallel, _ := cmd.Flags().GetInt("parallel")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	replace, _ := cmd.Flags().GetBool("replace")
	format, _ := cmd.Flags().GetString("format")

	opts := inject.Options{
		Parallel: parallel,
		DryRun:   dryRun,
		Replace:  replace,
	}

	results := inject.InjectBatch(fs.NewOSFileSystem(), files, fed.ImportMap(), opts)

	var stats inject.Stats
	encoder := json.NewEncoder(os.Stdout)
	for result := range results {
		stats.Add(result)
		switch {
		case format == "json" && (result.Error != "" || result.Modified):
			_ = encoder.Encode(result)
		case result.Error != "":
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", result.File, result.Error)
		case result.Modified && dryRun:
			action := "would update"
			if result.Inserted {
				action = "would insert into"
			}
			fmt.Printf("%s %s\n", action, result.File)
		}
	}

	if format == "text" {
		if dryRun {
			fmt.Printf("\nDry run: %d files would be modified (%d updated, %d new), %d unchanged, %d errors\n",
				stats.Updated+stats.Inserted, stats.Updated, stats.Inserted, stats.Skipped, stats.Errors)
		} else {
			fmt.Printf("Injected: %d files modified (%d updated, %d new), %d unchanged, %d errors\n",
				stats.Updated+stats.Inserted, stats.Updated, stats.Inserted, stats.Skipped, stats.Errors)
		}
	} else {
		statsJSON, _ := json.Marshal(stats)
		fmt.Println(string(statsJSON))
	}

	if stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}
	return nil
}
