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

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ManifestEntry is one remote listed in a federation manifest.
type ManifestEntry struct {
	Name string
	URL  string
}

// Manifest lists remotes and their remote entry URLs in declaration order.
// Declaration order is the order in which remotes are resolved.
type Manifest struct {
	entries []ManifestEntry
}

// NewManifest builds a manifest from entries. Later duplicates replace the
// URL of an earlier entry but keep its position.
func NewManifest(entries ...ManifestEntry) Manifest {
	var m Manifest
	for _, e := range entries {
		m.Set(e.Name, e.URL)
	}
	return m
}

// Set adds or replaces a remote.
func (m *Manifest) Set(name, url string) {
	for i := range m.entries {
		if m.entries[i].Name == name {
			m.entries[i].URL = url
			return
		}
	}
	m.entries = append(m.entries, ManifestEntry{Name: name, URL: url})
}

// Entries returns the remotes in declaration order.
func (m Manifest) Entries() []ManifestEntry {
	out := make([]ManifestEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of remotes.
func (m Manifest) Len() int {
	return len(m.entries)
}

// Lookup returns the remote entry URL for name.
func (m Manifest) Lookup(name string) (string, bool) {
	for _, e := range m.entries {
		if e.Name == name {
			return e.URL, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object of name → URL, keeping key order.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest must be a JSON object")
	}
	m.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("manifest entry %q: %w", name, err)
		}
		m.Set(name, url)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the manifest as a JSON object in declaration order.
func (m Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.URL)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AsMap returns the manifest without ordering.
func (m Manifest) AsMap() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.Name] = e.URL
	}
	return out
}
