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

package inject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/inject"
	"bennypowers.dev/nativefed/internal/mapfs"
)

const shell = `<!DOCTYPE html>
<html>
  <head>
    <title>Shell</title>
  </head>
</html>
`

var rxjsMap = &importmap.ImportMap{
	Imports: map[string]string{"rxjs": "http://localhost:4200/rxjs.js"},
}

func TestInjectInserts(t *testing.T) {
	out, inserted, err := inject.Inject([]byte(shell), rxjsMap, false)
	require.NoError(t, err)
	assert.True(t, inserted)

	want := `<!DOCTYPE html>
<html>
  <head>
    <script type="importmap">
{
  "imports": {
    "rxjs": "http://localhost:4200/rxjs.js"
  }
}
    </script>
    <title>Shell</title>
  </head>
</html>
`
	assert.Equal(t, want, string(out))
}

func TestInjectMergesExisting(t *testing.T) {
	input := `<html>
<head>
<script type="importmap">{"imports":{"tslib":"http://localhost:4200/tslib.js","rxjs":"http://old/rxjs.js"}}</script>
</head>
</html>
`
	out, inserted, err := inject.Inject([]byte(input), rxjsMap, false)
	require.NoError(t, err)
	assert.False(t, inserted)

	want := `<html>
<head>
<script type="importmap">
{
  "imports": {
    "rxjs": "http://localhost:4200/rxjs.js",
    "tslib": "http://localhost:4200/tslib.js"
  }
}
</script>
</head>
</html>
`
	assert.Equal(t, want, string(out))
}

func TestInjectReplace(t *testing.T) {
	input := `<head><script type="importmap">{"imports":{"tslib":"http://localhost:4200/tslib.js"}}</script></head>`

	out, _, err := inject.Inject([]byte(input), rxjsMap, true)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "tslib")
	assert.Contains(t, string(out), `"rxjs": "http://localhost:4200/rxjs.js"`)
}

func TestInjectIsStable(t *testing.T) {
	once, _, err := inject.Inject([]byte(shell), rxjsMap, false)
	require.NoError(t, err)
	twice, inserted, err := inject.Inject(once, rxjsMap, false)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, string(once), string(twice))
}

func TestInjectKeepsEquivalentMap(t *testing.T) {
	input := `<head>
<script type="importmap">{ "scopes": {}, "imports": {"rxjs":"http://localhost:4200/rxjs.js"} }</script>
</head>`

	for _, replace := range []bool{false, true} {
		out, inserted, err := inject.Inject([]byte(input), rxjsMap, replace)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, input, string(out), "replace=%v", replace)
	}
}

func TestInjectReplaceInvalidExisting(t *testing.T) {
	input := `<head><script type="importmap">{not json</script></head>`

	out, _, err := inject.Inject([]byte(input), rxjsMap, true)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "not json")
	assert.Contains(t, string(out), `"rxjs": "http://localhost:4200/rxjs.js"`)
}

func TestInjectErrors(t *testing.T) {
	t.Run("no head", func(t *testing.T) {
		_, _, err := inject.Inject([]byte(`<p>hi</p>`), rxjsMap, false)
		assert.ErrorContains(t, err, "no <head> tag")
	})
	t.Run("invalid existing map", func(t *testing.T) {
		input := "<head>\n<script type=\"importmap\">{not json</script></head>"
		_, _, err := inject.Inject([]byte(input), rxjsMap, false)
		assert.ErrorContains(t, err, "line 2")
	})
}

func TestFindImportMap(t *testing.T) {
	input := `<head><script type="module">import "x"</script><script type="ImportMap">{}</script></head>`
	loc := inject.FindImportMap([]byte(input))
	require.True(t, loc.Found)
	assert.Equal(t, "{}", input[loc.ContentStart:loc.ContentEnd])
	assert.Equal(t, 1, loc.Line)

	assert.False(t, inject.FindImportMap([]byte(shell)).Found)
}

func TestInjectBatch(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/site/index.html", shell, 0o644)
	mfs.AddFile("/site/about.html", shell, 0o644)
	mfs.AddFile("/site/broken.html", "<p>no head</p>", 0o644)

	once := inject.InjectFile(mfs, "/site/about.html", rxjsMap, inject.Options{})
	require.Empty(t, once.Error)

	files := []string{"/site/index.html", "/site/about.html", "/site/broken.html", "/site/missing.html"}
	var stats inject.Stats
	for r := range inject.InjectBatch(mfs, files, rxjsMap, inject.Options{Parallel: 2}) {
		stats.Add(r)
	}

	assert.Equal(t, inject.Stats{Total: 4, Inserted: 1, Skipped: 1, Errors: 2}, stats)

	data, err := mfs.ReadFile("/site/index.html")
	require.NoError(t, err)
	assert.Contains(t, string(data), `<script type="importmap">`)
}

func TestInjectDryRun(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/site/index.html", shell, 0o644)

	r := inject.InjectFile(mfs, "/site/index.html", rxjsMap, inject.Options{DryRun: true})
	assert.True(t, r.Modified)
	assert.True(t, r.Inserted)

	data, err := mfs.ReadFile("/site/index.html")
	require.NoError(t, err)
	assert.Equal(t, shell, string(data))
}
