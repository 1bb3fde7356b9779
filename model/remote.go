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
	"net/url"
	"slices"
	"strings"
)

// ExposesInfo is one module a remote makes available to others.
type ExposesInfo struct {
	Key         string `json:"key" yaml:"key"`
	OutFileName string `json:"outFileName" yaml:"outFileName"`
}

// SharedInfo is a shared dependency as declared in a remote entry.
type SharedInfo struct {
	PackageName     string `json:"packageName" yaml:"packageName"`
	OutFileName     string `json:"outFileName" yaml:"outFileName"`
	RequiredVersion string `json:"requiredVersion" yaml:"requiredVersion"`
	StrictVersion   bool   `json:"strictVersion" yaml:"strictVersion"`
	Singleton       bool   `json:"singleton" yaml:"singleton"`
	Version         string `json:"version,omitempty" yaml:"version,omitempty"`
}

// RemoteEntry is the normalized remoteEntry.json of one remote.
type RemoteEntry struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	Exposes []ExposesInfo `json:"exposes"`
	Shared  []SharedInfo  `json:"shared"`
	// Host marks the entry of the consuming application itself.
	Host bool `json:"-"`
}

// ScopeURL returns the directory the entry was loaded from, with a trailing
// slash. Files declared by the remote are relative to it.
func (e RemoteEntry) ScopeURL() string {
	return ScopeOf(e.URL)
}

// ScopeOf returns the base directory of a remote entry URL.
func ScopeOf(entryURL string) string {
	if entryURL == "" {
		return ""
	}
	u, err := url.Parse(entryURL)
	if err != nil {
		return entryURL[:strings.LastIndex(entryURL, "/")+1]
	}
	switch i := strings.LastIndex(u.Path, "/"); {
	case i >= 0:
		u.Path = u.Path[:i+1]
	case u.Host != "":
		u.Path = "/"
	default:
		u.Path = ""
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// RemoteInfo is what the cache remembers about a resolved remote.
type RemoteInfo struct {
	Name     string        `json:"name" yaml:"name"`
	ScopeURL string        `json:"scopeUrl" yaml:"scopeUrl"`
	EntryURL string        `json:"entryUrl" yaml:"entryUrl"`
	Host     bool          `json:"host,omitempty" yaml:"host,omitempty"`
	Exposes  []ExposesInfo `json:"exposes" yaml:"exposes"`
	Shared   []SharedInfo  `json:"shared" yaml:"shared"`
}

// Info returns the persisted subset of the entry.
func (e RemoteEntry) Info() RemoteInfo {
	return RemoteInfo{
		Name:     e.Name,
		ScopeURL: e.ScopeURL(),
		EntryURL: e.URL,
		Host:     e.Host,
		Exposes:  slices.Clone(e.Exposes),
		Shared:   slices.Clone(e.Shared),
	}
}

// Clone returns a deep copy.
func (i RemoteInfo) Clone() RemoteInfo {
	i.Exposes = slices.Clone(i.Exposes)
	i.Shared = slices.Clone(i.Shared)
	return i
}

// Exposed finds the exposed module matching key. Keys match with or without
// a leading "./".
func (i RemoteInfo) Exposed(key string) (ExposesInfo, bool) {
	want := NormalizeExposedKey(key)
	for _, e := range i.Exposes {
		if NormalizeExposedKey(e.Key) == want {
			return e, true
		}
	}
	return ExposesInfo{}, false
}

// NormalizeExposedKey strips a leading "./" from an exposed module key.
func NormalizeExposedKey(key string) string {
	return strings.TrimPrefix(key, "./")
}

// RemoteInfos maps remote names to their cached info.
type RemoteInfos map[string]RemoteInfo

// Clone returns a deep copy.
func (r RemoteInfos) Clone() RemoteInfos {
	if r == nil {
		return nil
	}
	result := make(RemoteInfos, len(r))
	for name, info := range r {
		result[name] = info.Clone()
	}
	return result
}
