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

// Package model defines the data shared between the native federation
// resolver, its stores and the import map builder.
package model

// Action is the resolution outcome for one declared shared dependency.
type Action string

const (
	// ActionShare loads the version once for the whole application.
	ActionShare Action = "share"
	// ActionScope loads the version privately for the declaring remote.
	ActionScope Action = "scope"
	// ActionSkip reuses the currently shared version.
	ActionSkip Action = "skip"
)

// Version is a concrete version of an external and the file that provides it,
// relative to the remote that declared it.
type Version struct {
	Version         string `json:"version" yaml:"version"`
	File            string `json:"file" yaml:"file"`
	RequiredVersion string `json:"requiredVersion,omitempty" yaml:"requiredVersion,omitempty"`
}

// SharedVersion is a Version declared by a remote together with the sharing
// decision that was made for it.
type SharedVersion struct {
	Version         string `json:"version" yaml:"version"`
	File            string `json:"file" yaml:"file"`
	Remote          string `json:"remote" yaml:"remote"`
	RequiredVersion string `json:"requiredVersion" yaml:"requiredVersion"`
	StrictVersion   bool   `json:"strictVersion" yaml:"strictVersion"`
	Host            bool   `json:"host" yaml:"host"`
	Cached          bool   `json:"cached" yaml:"cached"`
	Action          Action `json:"action" yaml:"action"`
}

// AsVersion strips the sharing metadata.
func (v SharedVersion) AsVersion() Version {
	return Version{
		Version:         v.Version,
		File:            v.File,
		RequiredVersion: v.RequiredVersion,
	}
}

// IsWinner reports whether v is the active shared copy of its external.
func (v SharedVersion) IsWinner() bool {
	return v.Cached && v.Action == ActionShare
}
