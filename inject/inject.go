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

// Package inject writes import maps into HTML files, updating an existing
// <script type="importmap"> element or inserting a new one at the top of
// <head>.
package inject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"bennypowers.dev/nativefed/fs"
	"bennypowers.dev/nativefed/importmap"
)

// Options configures an injection run.
type Options struct {
	// Parallel is the number of parallel workers for batch mode.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
	// Replace discards an existing import map instead of merging into it.
	Replace bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File     string `json:"file"`
	Modified bool   `json:"modified"`
	Inserted bool   `json:"inserted,omitempty"` // true if new import map, false if replaced
	Error    string `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int   `json:"total"`
	Updated  int   `json:"updated"`
	Inserted int   `json:"inserted"`
	Skipped  int   `json:"skipped"`
	Errors   int   `json:"errors"`
	Duration int64 `json:"duration_ms"`
}

// Add folds r into the statistics.
func (s *Stats) Add(r Result) {
	s.Total++
	switch {
	case r.Error != "":
		s.Errors++
	case !r.Modified:
		s.Skipped++
	case r.Inserted:
		s.Inserted++
	default:
		s.Updated++
	}
}

// InjectBatch injects im into multiple HTML files in parallel.
func InjectBatch(fsys fs.FileSystem, files []string, im *importmap.ImportMap, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for file := range jobs {
					results <- InjectFile(fsys, file, im, opts)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// InjectFile injects im into a single HTML file.
func InjectFile(fsys fs.FileSystem, file string, im *importmap.ImportMap, opts Options) Result {
	result := Result{File: file}

	content, err := fsys.ReadFile(file)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	newContent, inserted, err := Inject(content, im, opts.Replace)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if bytes.Equal(newContent, content) {
		return result
	}

	result.Modified = true
	result.Inserted = inserted

	if !opts.DryRun {
		if err := fsys.WriteFile(file, newContent, 0644); err != nil {
			result.Error = err.Error()
		}
	}
	return result
}

// Inject returns content with im written into its import map element. An
// existing map is merged with im, entries of im taking precedence, unless
// replace is set. inserted reports whether a new element was created.
func Inject(content []byte, im *importmap.ImportMap, replace bool) (out []byte, inserted bool, err error) {
	loc := FindImportMap(content)

	merged := im
	var existing *importmap.ImportMap
	if loc.Found {
		existingJSON := content[loc.ContentStart:loc.ContentEnd]
		if len(bytes.TrimSpace(existingJSON)) > 0 {
			existing = &importmap.ImportMap{}
			if err := json.Unmarshal(existingJSON, existing); err != nil {
				if !replace {
					return nil, false, fmt.Errorf("failed to parse existing import map at line %d: %w", loc.Line, err)
				}
				existing = nil
			}
		}
		if existing != nil && !replace {
			merged = existing.Merge(im)
		}
	}

	// an equivalent map is left as written, whatever its formatting
	if existing != nil {
		same, err := sameContent(existing, merged)
		if err != nil {
			return nil, false, err
		}
		if same {
			return content, false, nil
		}
	}

	mapJSON := merged.Format("json")

	if loc.Found {
		// keep the indentation of the closing tag
		old := string(content[loc.ContentStart:loc.ContentEnd])
		indent := old[strings.LastIndex(old, "\n")+1:]
		if strings.TrimSpace(indent) != "" {
			indent = ""
		}

		var buf bytes.Buffer
		buf.Write(content[:loc.ContentStart])
		buf.WriteByte('\n')
		buf.WriteString(mapJSON)
		buf.WriteByte('\n')
		buf.WriteString(indent)
		buf.Write(content[loc.ContentEnd:])
		return buf.Bytes(), false, nil
	}

	point := FindInsertPoint(content)
	if !point.Found {
		return nil, false, fmt.Errorf("could not find insertion point (no <head> tag)")
	}

	var tag strings.Builder
	tag.WriteString("<script type=\"importmap\">\n")
	tag.WriteString(mapJSON)
	tag.WriteString("\n")
	tag.WriteString(point.Indent)
	tag.WriteString("</script>\n")
	tag.WriteString(point.Indent)

	var buf bytes.Buffer
	buf.Write(content[:point.Offset])
	buf.WriteString(tag.String())
	buf.Write(content[point.Offset:])
	return buf.Bytes(), true, nil
}

func sameContent(a, b *importmap.ImportMap) (bool, error) {
	fa, err := a.Fingerprint()
	if err != nil {
		return false, err
	}
	fb, err := b.Fingerprint()
	if err != nil {
		return false, err
	}
	return fa == fb, nil
}
