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
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const manifestFixture = "testdata/cli/manifest.json"

func TestMain(m *testing.M) {
	// Build the binary before running tests
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "nativefed_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "nativefed_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "nativefed_test")
	cmd := exec.Command(binary, args...)
	// keep the developer's environment out of the run
	cmd.Env = slicesWithout(os.Environ(), "NATIVEFED_")

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func slicesWithout(env []string, prefix string) []string {
	var out []string
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return out
}

type importMap struct {
	Imports map[string]string            `json:"imports"`
	Scopes  map[string]map[string]string `json:"scopes"`
}

func parseImportMap(t *testing.T, data string) importMap {
	t.Helper()
	var im importMap
	if err := json.Unmarshal([]byte(data), &im); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\noutput: %s", err, data)
	}
	return im
}

func TestResolveLocal(t *testing.T) {
	stdout, stderr, code := runCLI(t, "resolve", manifestFixture)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	im := parseImportMap(t, stdout)

	if got := im.Imports["rxjs"]; got != "testdata/cli/mfe1/rxjs-NQ5CDHIH.js" {
		t.Errorf("Expected rxjs shared from mfe1, got %q", got)
	}
	if got := im.Imports["tslib"]; got != "testdata/cli/mfe1/tslib-DKQSBX7K.js" {
		t.Errorf("Expected tslib shared from mfe1, got %q", got)
	}

	mfe2 := im.Scopes["testdata/cli/mfe2/"]
	if got := mfe2["rxjs"]; got != "testdata/cli/mfe2/rxjs-2RVE6WWM.js" {
		t.Errorf("Expected rxjs 6 scoped to mfe2, got %q", got)
	}
	if _, ok := mfe2["tslib"]; ok {
		t.Error("Expected compatible tslib of mfe2 to be skipped, found it scoped")
	}

	mfe1 := im.Scopes["testdata/cli/mfe1/"]
	if got := mfe1["mfe1/Component"]; got != "testdata/cli/mfe1/Component-4QZ5BHZL.js" {
		t.Errorf("Expected exposed module mapping, got %q", got)
	}

	if !strings.Contains(stderr, "mfe3") {
		t.Errorf("Expected a warning about unreachable mfe3, got: %s", stderr)
	}
}

func TestResolveHTMLFormat(t *testing.T) {
	stdout, stderr, code := runCLI(t, "resolve", manifestFixture, "--format", "html")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	if !strings.HasPrefix(stdout, "<script type=\"importmap\">") {
		t.Errorf("Expected HTML script tag prefix, got: %s", stdout[:min(50, len(stdout))])
	}

	if !strings.Contains(stdout, "</script>") {
		t.Error("Expected closing script tag")
	}

	// Extract JSON from script tag and verify it's valid
	jsonStart := strings.Index(stdout, "\n") + 1
	jsonEnd := strings.LastIndex(stdout, "\n</script>")
	if jsonStart > 0 && jsonEnd > jsonStart {
		im := parseImportMap(t, stdout[jsonStart:jsonEnd])
		if im.Imports["rxjs"] == "" {
			t.Error("Expected rxjs in embedded import map")
		}
	}
}

func TestResolveUnknownFormat(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve", manifestFixture, "--format", "xml")
	if code == 0 {
		t.Error("Expected non-zero exit code for unknown format")
	}
	if !strings.Contains(stderr, "unknown format") {
		t.Errorf("Expected unknown format error, got: %s", stderr)
	}
}

func TestResolveOutputFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "importmap.json")

	stdout, stderr, code := runCLI(t, "resolve", manifestFixture, "--output", tmpFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	if stdout != "" {
		t.Errorf("Expected no stdout when writing to file, got: %s", stdout)
	}

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	im := parseImportMap(t, string(content))
	if im.Imports["rxjs"] == "" {
		t.Error("Expected rxjs import in output file")
	}
}

func TestResolveHostWins(t *testing.T) {
	stdout, stderr, code := runCLI(t, "resolve", manifestFixture,
		"--host", "testdata/cli/host/remoteEntry.json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	im := parseImportMap(t, stdout)
	if got := im.Imports["rxjs"]; got != "testdata/cli/host/rxjs-HOST1234.js" {
		t.Errorf("Expected host rxjs to be shared, got %q", got)
	}
}

func TestResolveMissingHost(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve", manifestFixture,
		"--host", "testdata/cli/nope/remoteEntry.json")
	if code == 0 {
		t.Error("Expected non-zero exit code when the host entry is missing")
	}
	if !strings.Contains(stderr, "Error") {
		t.Errorf("Expected error message, got: %s", stderr)
	}
}

func TestResolveStrictRemoteEntry(t *testing.T) {
	stdout, stderr, code := runCLI(t, "resolve", manifestFixture, "--strict-remote-entry")
	if code == 0 {
		t.Error("Expected non-zero exit code for unreachable remote in strict mode")
	}
	if stdout != "" {
		t.Errorf("Expected no import map on failure, got: %s", stdout)
	}
	if !strings.Contains(stderr, "fetch failed") {
		t.Errorf("Expected fetch error, got: %s", stderr)
	}
}

func TestResolveMissingManifest(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve", "nonexistent.json")
	if code == 0 {
		t.Error("Expected non-zero exit code for missing manifest")
	}

	if !strings.Contains(stderr, "Error") {
		t.Errorf("Expected error message, got: %s", stderr)
	}
}

func TestResolveMissingArg(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve")
	if code == 0 {
		t.Error("Expected non-zero exit code for missing argument")
	}

	if !strings.Contains(stderr, "accepts 1 arg") {
		t.Errorf("Expected argument error, got: %s", stderr)
	}
}

func TestResolveInvalidOverride(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve", manifestFixture, "--override", "sometimes")
	if code == 0 {
		t.Error("Expected non-zero exit code for unknown override mode")
	}
	if !strings.Contains(stderr, "overrideCachedRemotes") {
		t.Errorf("Expected override mode error, got: %s", stderr)
	}
}

func TestResolveConfigFile(t *testing.T) {
	// the config enables strictRemoteEntry, so unreachable mfe3 is fatal
	stdout, stderr, code := runCLI(t, "resolve", manifestFixture, "--config", "testdata/cli/config.yaml")
	if code == 0 {
		t.Fatalf("Expected non-zero exit code from strict config, got 0\nstdout: %s", stdout)
	}
	if !strings.Contains(stderr, "fetch failed") {
		t.Errorf("Expected fetch error, got: %s", stderr)
	}
}

func TestResolveMissingConfigFile(t *testing.T) {
	_, stderr, code := runCLI(t, "resolve", manifestFixture, "--config", "testdata/cli/nope.yaml")
	if code == 0 {
		t.Error("Expected non-zero exit code for missing config file")
	}
	if !strings.Contains(stderr, "failed to read config file") {
		t.Errorf("Expected config error, got: %s", stderr)
	}
}

func TestResolveMetricsFile(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "nativefed.prom")

	_, stderr, code := runCLI(t, "resolve", manifestFixture, "--metrics-file", metricsFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	content, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	for _, want := range []string{
		"nativefed_decisions_total",
		`nativefed_remote_errors_total{remote="mfe3"} 1`,
		`nativefed_passes_total{outcome="success"} 1`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("Expected %q in metrics file, got:\n%s", want, content)
		}
	}
}

func TestCacheShowAndClear(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "cache.json")

	_, stderr, code := runCLI(t, "resolve", manifestFixture, "--cache", cacheFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	show := func() map[string]json.RawMessage {
		t.Helper()
		stdout, stderr, code := runCLI(t, "cache", "show", "--cache", cacheFile, "--format", "json")
		if code != 0 {
			t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
		}
		var snap struct {
			Remotes map[string]json.RawMessage `json:"remotes"`
		}
		if err := json.Unmarshal([]byte(stdout), &snap); err != nil {
			t.Fatalf("Failed to parse cache JSON: %v\nstdout: %s", err, stdout)
		}
		return snap.Remotes
	}

	remotes := show()
	if len(remotes) != 2 || remotes["mfe1"] == nil || remotes["mfe2"] == nil {
		t.Fatalf("Expected mfe1 and mfe2 cached, got %v", remotes)
	}

	_, stderr, code = runCLI(t, "cache", "clear", "--cache", cacheFile, "--remote", "mfe2")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "Forgot mfe2") {
		t.Errorf("Expected forgotten remote to be reported, got: %s", stderr)
	}
	remotes = show()
	if len(remotes) != 1 || remotes["mfe1"] == nil {
		t.Fatalf("Expected only mfe1 cached, got %v", remotes)
	}

	_, stderr, code = runCLI(t, "cache", "clear", "--cache", cacheFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if remotes = show(); len(remotes) != 0 {
		t.Fatalf("Expected empty cache, got %v", remotes)
	}
}

func TestCacheShowTable(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "cache.json")

	if _, stderr, code := runCLI(t, "resolve", manifestFixture, "--cache", cacheFile); code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	stdout, stderr, code := runCLI(t, "cache", "show", "--cache", cacheFile)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	for _, want := range []string{"Shared externals", "rxjs", "7.8.1 *", "testdata/cli/mfe2/", "mfe1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected %q in cache table, got:\n%s", want, stdout)
		}
	}
}

func TestCacheClearWithoutCache(t *testing.T) {
	_, stderr, code := runCLI(t, "cache", "clear")
	if code == 0 {
		t.Error("Expected non-zero exit code without a cache file")
	}
	if !strings.Contains(stderr, "--cache") {
		t.Errorf("Expected hint about --cache, got: %s", stderr)
	}
}

func TestInject(t *testing.T) {
	dir := t.TempDir()
	source, err := os.ReadFile(filepath.Join("testdata", "cli", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, source, 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCLI(t, "inject", manifestFixture, "--glob", filepath.Join(dir, "*.html"))
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 files modified") {
		t.Errorf("Expected summary, got: %s", stdout)
	}

	content, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `<script type="importmap">`) {
		t.Fatalf("Expected import map script in page, got:\n%s", content)
	}
	if !strings.Contains(string(content), "testdata/cli/mfe1/rxjs-NQ5CDHIH.js") {
		t.Errorf("Expected rxjs mapping in page, got:\n%s", content)
	}

	// injecting again merges into the same script and changes nothing
	_, stderr, code = runCLI(t, "inject", manifestFixture, "--glob", filepath.Join(dir, "*.html"))
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	again, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(content) {
		t.Errorf("Expected second injection to be stable\nfirst:\n%s\nsecond:\n%s", content, again)
	}
}

func TestInjectDryRun(t *testing.T) {
	dir := t.TempDir()
	source, err := os.ReadFile(filepath.Join("testdata", "cli", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, source, 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCLI(t, "inject", manifestFixture, "--glob", filepath.Join(dir, "*.html"), "--dry-run")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "would insert into") {
		t.Errorf("Expected dry run report, got: %s", stdout)
	}
	content, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != string(source) {
		t.Error("Expected dry run to leave the file untouched")
	}
}

func TestInjectMissingGlob(t *testing.T) {
	_, stderr, code := runCLI(t, "inject", manifestFixture)
	if code == 0 {
		t.Error("Expected non-zero exit code without --glob")
	}
	if !strings.Contains(stderr, "--glob is required") {
		t.Errorf("Expected glob error, got: %s", stderr)
	}
}

func TestVersion(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	var info map[string]any
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}
	if info["version"] == nil {
		t.Errorf("Expected version field, got %v", info)
	}
}

func TestHelp(t *testing.T) {
	stdout, _, code := runCLI(t, "--help")
	if code != 0 {
		t.Fatalf("Expected exit code 0 for help, got %d", code)
	}

	expectedStrings := []string{
		"nativefed",
		"resolve",
		"inject",
		"cache",
		"--cache",
		"--strict",
		"--output",
	}

	for _, s := range expectedStrings {
		if !strings.Contains(stdout, s) {
			t.Errorf("Expected %q in help output", s)
		}
	}
}

func TestResolveHelp(t *testing.T) {
	stdout, _, code := runCLI(t, "resolve", "--help")
	if code != 0 {
		t.Fatalf("Expected exit code 0 for help, got %d", code)
	}

	expectedStrings := []string{
		"--format",
		"json, html",
		"--host",
		"--override",
	}

	for _, s := range expectedStrings {
		if !strings.Contains(stdout, s) {
			t.Errorf("Expected %q in resolve help output", s)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := runCLI(t, "unknown")
	if code == 0 {
		t.Error("Expected non-zero exit code for unknown command")
	}

	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("Expected 'unknown command' error, got: %s", stderr)
	}
}
