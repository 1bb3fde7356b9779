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

// Package manifest decodes the federation manifest and remote entry wire
// formats into model values.
package manifest

import (
	"encoding/json"
	"net/url"

	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/model"
)

// Options controls decoding.
type Options struct {
	// Strict validates documents against the embedded JSON schemas before
	// decoding.
	Strict bool
}

// ParseManifest decodes a manifest document. Relative entry URLs are
// resolved against base when base is non-empty.
func ParseManifest(data []byte, base string, opts *Options) (model.Manifest, error) {
	if opts != nil && opts.Strict {
		if err := validate(manifestSchema, data); err != nil {
			return model.Manifest{}, model.WithAttrs(
				model.Errorf(model.ErrInvalidManifest, "schema validation failed: %v", err),
				"url", base)
		}
	}

	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, model.WithAttrs(
			model.Errorf(model.ErrInvalidManifest, "%v", err),
			"url", base)
	}

	var out model.Manifest
	for _, e := range m.Entries() {
		if e.Name == "" || e.URL == "" {
			return model.Manifest{}, model.WithAttrs(
				model.Errorf(model.ErrInvalidManifest, "entry %q has no remote entry url", e.Name),
				"url", base)
		}
		out.Set(e.Name, resolveURL(base, e.URL))
	}
	return out, nil
}

// ParseManifestFile reads and decodes a manifest from the filesystem.
func ParseManifestFile(fsys fs.FileSystem, path string, opts *Options) (model.Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return model.Manifest{}, model.WithAttrs(
			model.Errorf(model.ErrFetch, "failed to read manifest: %v", err),
			"url", path)
	}
	return ParseManifest(data, "", opts)
}

func resolveURL(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
