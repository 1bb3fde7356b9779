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

// Package output provides shared output utilities for nativefed CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/importmap"
)

// ImportMap formats and outputs an import map to stdout or a file.
// If viper's "output" flag is set, writes to that file; otherwise prints to stdout.
func ImportMap(osfs fs.FileSystem, im *importmap.ImportMap, format string) error {
	return Text(osfs, im.Format(format))
}

// Text writes text to the "output" file or to stdout.
func Text(osfs fs.FileSystem, text string) error {
	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, []byte(text+"\n"), 0644)
	}
	fmt.Println(text)
	return nil
}

// Marshal encodes v as indented JSON or as YAML.
func Marshal(v any, format string) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(out), "\n"), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
