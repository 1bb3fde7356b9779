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
	"encoding/json"

	"bennypowers.dev/nativefed/model"
)

type sharedDoc struct {
	PackageName     string `json:"packageName"`
	OutFileName     string `json:"outFileName"`
	RequiredVersion string `json:"requiredVersion"`
	StrictVersion   bool   `json:"strictVersion"`
	Singleton       *bool  `json:"singleton"`
	Version         string `json:"version"`
}

type entryDoc struct {
	Name    string              `json:"name"`
	URL     string              `json:"url"`
	Exposes []model.ExposesInfo `json:"exposes"`
	Shared  []sharedDoc         `json:"shared"`
}

// ParseEntry decodes a remote entry fetched from entryURL.
//
// The entry is always scoped to entryURL when one is given; otherwise the
// document's own url is kept. Absent exposes and shared lists decode as empty
// lists. Declarations without a singleton flag are singletons.
func ParseEntry(data []byte, entryURL string, opts *Options) (model.RemoteEntry, error) {
	if opts != nil && opts.Strict {
		if err := validate(remoteEntrySchema, data); err != nil {
			return model.RemoteEntry{}, model.WithAttrs(
				model.Errorf(model.ErrInvalidRemoteEntry, "schema validation failed: %v", err),
				"url", entryURL)
		}
	}

	var doc entryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.RemoteEntry{}, model.WithAttrs(
			model.Errorf(model.ErrFetch, "failed to decode remote entry: %v", err),
			"url", entryURL)
	}

	entry := model.RemoteEntry{
		Name:    doc.Name,
		URL:     doc.URL,
		Exposes: doc.Exposes,
	}
	if entryURL != "" {
		entry.URL = entryURL
	}
	if entry.Exposes == nil {
		entry.Exposes = []model.ExposesInfo{}
	}
	entry.Shared = make([]model.SharedInfo, 0, len(doc.Shared))
	for _, s := range doc.Shared {
		singleton := true
		if s.Singleton != nil {
			singleton = *s.Singleton
		}
		entry.Shared = append(entry.Shared, model.SharedInfo{
			PackageName:     s.PackageName,
			OutFileName:     s.OutFileName,
			RequiredVersion: s.RequiredVersion,
			StrictVersion:   s.StrictVersion,
			Singleton:       singleton,
			Version:         s.Version,
		})
	}
	return entry, nil
}
