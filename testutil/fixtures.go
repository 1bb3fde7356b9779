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

// Package testutil loads test fixtures from the repository's testdata
// directory.
package testutil

import (
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/nativefed/internal/mapfs"
)

var updateGolden = flag.Bool("update", false, "update golden files with actual output")

// candidates lists where testdata/<rel> may live relative to the package
// under test.
func candidates(rel string) []string {
	return []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
}

// NewFixtureFS copies testdata/<fixtureDir> into an in-memory filesystem
// rooted at rootPath.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()

	var fixturePath string
	for _, p := range candidates(fixtureDir) {
		if _, err := os.Stat(p); err == nil {
			fixturePath = p
			break
		}
	}
	if fixturePath == "" {
		t.Fatalf("Could not find fixtures at %s", fixtureDir)
	}

	mfs := mapfs.New()
	err := filepath.WalkDir(fixturePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fixturePath, path)
		if err != nil {
			return err
		}
		mfs.AddFile(filepath.ToSlash(filepath.Join(rootPath, rel)), string(content), 0o644)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to load fixtures from %s: %v", fixtureDir, err)
	}
	return mfs
}

// LoadFixtureFile reads testdata/<fixturePath>.
func LoadFixtureFile(t *testing.T, fixturePath string) []byte {
	t.Helper()

	var err error
	for _, p := range candidates(fixturePath) {
		var content []byte
		if content, err = os.ReadFile(p); err == nil {
			return content
		}
	}
	t.Fatalf("Failed to read fixture %s: %v", fixturePath, err)
	return nil
}

// LoadGoldenFile reads an expected output. With -update it returns nil so
// the caller writes the actual output instead.
func LoadGoldenFile(t *testing.T, goldenPath string) []byte {
	t.Helper()
	if *updateGolden {
		return nil
	}
	return LoadFixtureFile(t, goldenPath)
}

// UpdateGoldenFile writes actual to the golden file when -update is set.
func UpdateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	if !*updateGolden {
		return
	}

	paths := candidates(goldenPath)
	target := paths[0]
	for _, p := range paths {
		if _, err := os.Stat(filepath.Dir(p)); err == nil {
			target = p
			break
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("Failed to create directory for golden file %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(target, actual, 0o644); err != nil {
		t.Fatalf("Failed to write golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", target)
}
