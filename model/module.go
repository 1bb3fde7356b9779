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

// Module is an exposed module of a remote as returned by a module loader.
type Module struct {
	// Remote is the name of the remote that exposes the module.
	Remote string `json:"remote"`
	// Key is the normalized exposed key, without a leading "./".
	Key string `json:"key"`
	// URL is the absolute URL the module was loaded from.
	URL string `json:"url"`
	// Source holds the module text when the loader fetched it.
	Source []byte `json:"-"`
	// Exports holds loader-specific bindings, such as a JS module namespace.
	Exports any `json:"-"`
}
