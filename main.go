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

// Command nativefed resolves native federation shared dependencies into
// import maps.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nativefed/cmd/cache"
	"bennypowers.dev/nativefed/cmd/inject"
	"bennypowers.dev/nativefed/cmd/resolve"
	"bennypowers.dev/nativefed/cmd/version"
	"bennypowers.dev/nativefed/internal/config"
)

var (
	cpuprofile     string
	configFile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "nativefed",
		Short: "Resolve native federation shared dependencies into import maps",
		Long: `nativefed fetches a federation manifest and the remote entries it lists,
decides which shared dependencies are loaded once for the whole application
and which are scoped to a remote, and prints the resulting import map.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(configFile); err != nil {
				return err
			}
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (YAML or JSON)")
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.String("cache", "", "Cache file persisting resolutions between runs (default: in memory)")
	flags.String("host", "", "URL of the host application's remoteEntry.json")
	flags.String("log-level", "warn", "Minimum log level (debug, warn, error)")
	flags.Bool("log-json", false, "Log as JSON")
	flags.IntP("jobs", "j", 0, "Number of concurrent remote entry fetches")
	flags.Bool("strict", false, "Enable every strict option")
	flags.Bool("strict-remote-entry", false, "Fail when a remote entry cannot be fetched or validated")
	flags.Bool("strict-external-compatibility", false, "Fail instead of scoping incompatible externals")
	flags.Bool("strict-external-version", false, "Reject remote entries declaring invalid versions")
	flags.Bool("strict-import-map", false, "Fail when an import map entry cannot be resolved")
	flags.Bool("latest", false, "Let newer compatible versions replace the shared one")
	flags.String("override", "", "Re-resolve cached remotes: always, never, only-if-url-matches")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	for key, flag := range map[string]string{
		"output":                             "output",
		"storage":                            "cache",
		"hostRemoteEntry":                    "host",
		"logLevel":                           "log-level",
		"logJSON":                            "log-json",
		"concurrency":                        "jobs",
		"strictAll":                          "strict",
		"strict.strictRemoteEntry":           "strict-remote-entry",
		"strict.strictExternalCompatibility": "strict-external-compatibility",
		"strict.strictExternalVersion":       "strict-external-version",
		"strict.strictImportMap":             "strict-import-map",
		"profile.latestSharedExternal":       "latest",
		"profile.overrideCachedRemotes":      "override",
		"metricsFile":                        "metrics-file",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(inject.Cmd)
	rootCmd.AddCommand(cache.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
