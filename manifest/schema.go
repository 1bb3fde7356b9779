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

package manifest

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	manifestSchema    = "https://bennypowers.dev/nativefed/manifest.schema.json"
	remoteEntrySchema = "https://bennypowers.dev/nativefed/remote-entry.schema.json"
)

var schemaFiles = map[string]string{
	manifestSchema:    "schemas/manifest.schema.json",
	remoteEntrySchema: "schemas/remote-entry.schema.json",
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*jsonschema.Schema)
		for id, file := range schemaFiles {
			s, err := compileSchema(id, file)
			if err != nil {
				compileErr = err
				return
			}
			compiled[id] = s
		}
	})
	return compiled, compileErr
}

func compileSchema(id, file string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", file, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", id, err)
	}
	return compiler.Compile(id)
}

// validate checks data against the named embedded schema.
func validate(name string, data []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return all[name].Validate(inst)
}
