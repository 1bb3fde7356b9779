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

package inject

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Location is the byte range of the content of an existing
// <script type="importmap"> element.
type Location struct {
	Found        bool
	ContentStart int
	ContentEnd   int
	// Line is the 1-based line of the opening tag.
	Line int
}

// InsertPoint is where a new import map element goes: before the first
// child of <head>, with that child's indentation.
type InsertPoint struct {
	Found  bool
	Offset int
	Indent string
}

// FindImportMap locates the first import map script in content.
func FindImportMap(content []byte) Location {
	z := html.NewTokenizer(bytes.NewReader(content))
	offset := 0
	var loc Location
	inMap := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return Location{}
		}
		raw := len(z.Raw())
		switch tt {
		case html.StartTagToken:
			if !inMap && isImportMapScript(z) {
				inMap = true
				loc = Location{
					Found:        true,
					ContentStart: offset + raw,
					Line:         bytes.Count(content[:offset], []byte("\n")) + 1,
				}
			}
		case html.EndTagToken:
			if inMap {
				if name, _ := z.TagName(); string(name) == "script" {
					loc.ContentEnd = offset
					return loc
				}
			}
		}
		offset += raw
	}
}

// FindInsertPoint locates the start of the first child of <head>.
func FindInsertPoint(content []byte) InsertPoint {
	z := html.NewTokenizer(bytes.NewReader(content))
	offset := 0
	inHead := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF && inHead {
				return InsertPoint{Found: true, Offset: offset}
			}
			return InsertPoint{}
		}
		raw := z.Raw()
		switch {
		case !inHead && tt == html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "head" {
				inHead = true
			}
		case inHead && tt == html.TextToken && strings.TrimSpace(string(raw)) == "":
			text := string(raw)
			indent := text[strings.LastIndex(text, "\n")+1:]
			return InsertPoint{Found: true, Offset: offset + len(raw), Indent: indent}
		case inHead:
			return InsertPoint{Found: true, Offset: offset}
		}
		offset += len(raw)
	}
}

func isImportMapScript(z *html.Tokenizer) bool {
	name, hasAttr := z.TagName()
	if string(name) != "script" {
		return false
	}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "type" && strings.EqualFold(strings.TrimSpace(string(val)), "importmap") {
			return true
		}
	}
	return false
}
