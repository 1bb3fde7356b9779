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

// Package importmap provides types and operations for ES module import maps,
// and the Builder that derives a federation's import map from its cache.
// See https://developer.mozilla.org/en-US/docs/Web/HTML/Element/script/type/importmap
package importmap

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/cespare/xxhash/v2"
	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// ImportMap represents an ES module import map.
type ImportMap struct {
	// Imports maps module specifiers to URLs.
	Imports map[string]string `json:"imports,omitempty"`

	// Scopes maps URL prefixes to import maps that apply when the referrer
	// URL starts with the scope prefix.
	Scopes map[string]map[string]string `json:"scopes,omitempty"`
}

// Parse parses JSON data into an ImportMap.
func Parse(data []byte) (*ImportMap, error) {
	var im ImportMap
	if err := json.Unmarshal(data, &im); err != nil {
		return nil, err
	}
	return &im, nil
}

// Empty reports whether the map has neither imports nor scopes.
func (im *ImportMap) Empty() bool {
	return im == nil || (len(im.Imports) == 0 && len(im.Scopes) == 0)
}

// Merge combines this import map with another, with the other taking precedence.
// The result is a new ImportMap; neither input is modified.
func (im *ImportMap) Merge(other *ImportMap) *ImportMap {
	if im == nil {
		if other == nil {
			return &ImportMap{}
		}
		return other.Clone()
	}
	if other == nil {
		return im.Clone()
	}

	result := &ImportMap{
		Imports: make(map[string]string),
		Scopes:  make(map[string]map[string]string),
	}
	maps.Copy(result.Imports, im.Imports)
	maps.Copy(result.Imports, other.Imports)

	for _, src := range []*ImportMap{im, other} {
		for scope, imports := range src.Scopes {
			if result.Scopes[scope] == nil {
				result.Scopes[scope] = make(map[string]string, len(imports))
			}
			maps.Copy(result.Scopes[scope], imports)
		}
	}

	if len(result.Imports) == 0 {
		result.Imports = nil
	}
	if len(result.Scopes) == 0 {
		result.Scopes = nil
	}
	return result
}

// Clone creates a deep copy of the import map.
func (im *ImportMap) Clone() *ImportMap {
	if im == nil {
		return nil
	}

	result := &ImportMap{}
	if im.Imports != nil {
		result.Imports = maps.Clone(im.Imports)
	}
	if im.Scopes != nil {
		result.Scopes = make(map[string]map[string]string, len(im.Scopes))
		for scope, imports := range im.Scopes {
			result.Scopes[scope] = maps.Clone(imports)
		}
	}
	return result
}

// ToJSON converts the import map to an indented JSON string.
// Returns an empty string if the import map is nil or entirely empty.
func (im *ImportMap) ToJSON() string {
	if im.Empty() {
		return ""
	}

	bytes, err := json.MarshalIndent(im, "", "  ")
	if err != nil {
		return ""
	}
	return string(bytes)
}

// Format renders the map as "json" or as an "html" script tag. An empty map
// renders as an empty JSON object.
func (im *ImportMap) Format(format string) string {
	body := im.ToJSON()
	if body == "" {
		body = "{}"
	}
	if format == "html" {
		return fmt.Sprintf("<script type=\"importmap\">\n%s\n</script>", body)
	}
	return body
}

// Fingerprint is a stable hash of the map's content. Equal maps have equal
// fingerprints regardless of how they were built.
func (im *ImportMap) Fingerprint() (string, error) {
	if im == nil {
		im = &ImportMap{}
	}
	data, err := json.Marshal(im)
	if err != nil {
		return "", fmt.Errorf("failed to marshal import map: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize import map: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical)), nil
}

// MarshalJSON implements json.Marshaler.
func (im *ImportMap) MarshalJSON() ([]byte, error) {
	type alias ImportMap
	return json.Marshal((*alias)(im))
}
