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

package federation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bennypowers.dev/nativefed/federation"
	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/remote"
	"bennypowers.dev/nativefed/remote/mocks"
	"bennypowers.dev/nativefed/resolve"
	"bennypowers.dev/nativefed/storage"
	storagemocks "bennypowers.dev/nativefed/storage/mocks"
)

const (
	manifestURL = "http://localhost:4200/assets/federation.manifest.json"
	hostURL     = "http://localhost:4200/remoteEntry.json"
)

type recordingLogger struct {
	mu                 sync.Mutex
	debug, warn, error []string
}

func (l *recordingLogger) record(list *[]string, msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		msg += ": " + err.Error()
	}
	*list = append(*list, msg)
}

func (l *recordingLogger) Debug(msg string, err error) { l.record(&l.debug, msg, err) }
func (l *recordingLogger) Warn(msg string, err error)  { l.record(&l.warn, msg, err) }
func (l *recordingLogger) Error(msg string, err error) { l.record(&l.error, msg, err) }

type recordingLoader struct {
	imports map[string]string
	loaded  []string
}

func (l *recordingLoader) SetImportMap(im *importmap.ImportMap) { l.imports = im.Imports }

func (l *recordingLoader) ImportModule(_ context.Context, specifier string) (model.Module, error) {
	l.loaded = append(l.loaded, specifier)
	return model.Module{URL: specifier, Source: []byte("export {}")}, nil
}

type recordingMetrics struct {
	mu        sync.Mutex
	decisions int
	failures  []string
	passes    []error
}

func (m *recordingMetrics) ObserveDecision(model.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions++
}

func (m *recordingMetrics) ObserveRemoteError(remote string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, remote)
}

func (m *recordingMetrics) ObservePass(_ time.Time, err error, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes = append(m.passes, err)
}

func shared(name, version, required string) model.SharedInfo {
	return model.SharedInfo{
		PackageName:     name,
		OutFileName:     fmt.Sprintf("%s-%s.js", name, version),
		RequiredVersion: required,
		Singleton:       true,
		Version:         version,
	}
}

func entryURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/remoteEntry.json", port)
}

func entry(name string, port int, deps ...model.SharedInfo) model.RemoteEntry {
	return model.RemoteEntry{
		Name:    name,
		URL:     entryURL(port),
		Exposes: []model.ExposesInfo{{Key: "./Component", OutFileName: "Component.js"}},
		Shared:  deps,
	}
}

type fixture struct {
	ctrl      *gomock.Controller
	manifests *mocks.MockManifestProvider
	entries   *mocks.MockEntryProvider
	storage   storage.Storage
	logger    *recordingLogger
	loader    *recordingLoader
	metrics   *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &fixture{
		ctrl:      ctrl,
		manifests: mocks.NewMockManifestProvider(ctrl),
		entries:   mocks.NewMockEntryProvider(ctrl),
		storage:   storage.NewMemory(),
		logger:    &recordingLogger{},
		loader:    &recordingLoader{},
		metrics:   &recordingMetrics{},
	}
}

func (f *fixture) initializer(t *testing.T, cfg federation.Config) *federation.Initializer {
	t.Helper()
	i, err := federation.New(cfg, federation.Dependencies{
		Storage:   f.storage,
		Manifests: f.manifests,
		Entries:   f.entries,
		Loader:    f.loader,
		Logger:    f.logger,
		Metrics:   f.metrics,
	})
	require.NoError(t, err)
	return i
}

func (f *fixture) serve(e model.RemoteEntry) {
	f.entries.EXPECT().FetchEntry(gomock.Any(), e.URL).Return(e, nil)
}

func (f *fixture) notFound(url string) {
	f.entries.EXPECT().
		FetchEntry(gomock.Any(), url).
		Return(model.RemoteEntry{}, model.WithAttrs(
			model.Errorf(model.ErrFetch, "failed to fetch remote entry: %v",
				&remote.FetchError{URL: url, StatusCode: 404, Message: "Not Found"}),
			"url", url, "status", 404))
}

func manifestOf(entries ...model.RemoteEntry) model.Manifest {
	var m model.Manifest
	for _, e := range entries {
		m.Set(e.Name, e.URL)
	}
	return m
}

func hostConfig() federation.Config {
	cfg := federation.DefaultConfig()
	cfg.HostRemoteEntry = hostURL
	return cfg
}

func hostEntry() model.RemoteEntry {
	e := entry("host", 4200, shared("rxjs", "7.8.1", "^7.8.0"))
	e.Exposes = []model.ExposesInfo{}
	return e
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.0", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "6.6.7", "^6.0.0"))

	f.manifests.EXPECT().FetchManifest(gomock.Any(), manifestURL).Return(manifestOf(mfe1, mfe2), nil)
	f.serve(hostEntry())
	f.serve(mfe1)
	f.serve(mfe2)

	fed, err := f.initializer(t, hostConfig()).Init(context.Background(), manifestURL)
	require.NoError(t, err)

	want := &importmap.ImportMap{
		Imports: map[string]string{
			"rxjs": "http://localhost:4200/rxjs-7.8.1.js",
		},
		Scopes: map[string]map[string]string{
			"http://localhost:4201/": {
				"mfe1/Component": "http://localhost:4201/Component.js",
			},
			"http://localhost:4202/": {
				"rxjs":           "http://localhost:4202/rxjs-6.6.7.js",
				"mfe2/Component": "http://localhost:4202/Component.js",
			},
		},
	}
	assert.Equal(t, want, fed.ImportMap())
	assert.Equal(t, want.Imports, f.loader.imports)
	assert.Equal(t, []string{"host", "mfe1", "mfe2"}, fed.Remotes())

	results := fed.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "host", results[0].Remote)
	action, _ := results[1].Action("rxjs")
	assert.Equal(t, model.ActionSkip, action)
	action, _ = results[2].Action("rxjs")
	assert.Equal(t, model.ActionScope, action)

	var remotes model.RemoteInfos
	found, err := f.storage.Get(storage.KeyRemotes, &remotes)
	require.NoError(t, err)
	require.True(t, found, "pass was not committed")
	assert.Len(t, remotes, 3)

	assert.Equal(t, 3, f.metrics.decisions)
	assert.Equal(t, []error{nil}, f.metrics.passes)
}

func TestUnreachableRemoteIsIsolated(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe3 := entry("mfe3", 4203, shared("tslib", "2.6.2", "^2.0.0"))

	f.serve(mfe1)
	f.notFound(mfe2.URL)
	f.serve(mfe3)

	fed, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(mfe1, mfe2, mfe3))
	require.NoError(t, err)

	assert.Equal(t, []string{"mfe1", "mfe3"}, fed.Remotes())
	assert.Equal(t, map[string]string{
		"rxjs":  "http://localhost:4201/rxjs-7.8.1.js",
		"tslib": "http://localhost:4203/tslib-2.6.2.js",
	}, fed.ImportMap().Imports)

	excluded := fed.Excluded()
	require.Contains(t, excluded, "mfe2")
	assert.ErrorIs(t, excluded["mfe2"], model.ErrFetch)

	require.Len(t, f.logger.error, 1)
	assert.Contains(t, f.logger.error[0], `"mfe2"`)
	assert.Contains(t, f.logger.error[0], mfe2.URL)
	assert.Equal(t, []string{"mfe2"}, f.metrics.failures)
}

func TestUnreachableCachedRemoteLeavesImportMap(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "7.8.0", "^7.0.0"), shared("tslib", "2.6.2", "^2.0.0"))
	i := f.initializer(t, federation.DefaultConfig())

	f.serve(mfe1)
	f.serve(mfe2)
	first, err := i.InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:4201/rxjs-7.8.1.js", first.ImportMap().Imports["rxjs"])
	require.Contains(t, first.ImportMap().Scopes, "http://localhost:4201/")

	f.notFound(mfe1.URL)
	f.serve(mfe2)
	second, err := i.InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)

	assert.Equal(t, []string{"mfe2"}, second.Remotes())
	assert.Contains(t, second.Excluded(), "mfe1")
	assert.Equal(t, map[string]string{
		"rxjs":  "http://localhost:4202/rxjs-7.8.0.js",
		"tslib": "http://localhost:4202/tslib-2.6.2.js",
	}, second.ImportMap().Imports)
	assert.Equal(t, map[string]map[string]string{
		"http://localhost:4202/": {"mfe2/Component": "http://localhost:4202/Component.js"},
	}, second.ImportMap().Scopes)

	var remotes model.RemoteInfos
	found, err := f.storage.Get(storage.KeyRemotes, &remotes)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, remotes, "mfe1")

	var sharedExternals model.SharedExternals
	_, err = f.storage.Get(storage.KeySharedExternals, &sharedExternals)
	require.NoError(t, err)
	for _, v := range sharedExternals["rxjs"].Versions {
		assert.NotEqual(t, "mfe1", v.Remote)
	}
}

func TestStrictRemoteEntryAbortsPass(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "7.8.1", "^7.0.0"))

	f.entries.EXPECT().FetchEntry(gomock.Any(), mfe1.URL).Return(mfe1, nil).AnyTimes()
	f.notFound(mfe2.URL)

	cfg := federation.DefaultConfig()
	cfg.Strict.StrictRemoteEntry = true

	_, err := f.initializer(t, cfg).InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.ErrorIs(t, err, model.ErrFetch)

	found, err := f.storage.Get(storage.KeyRemotes, &model.RemoteInfos{})
	require.NoError(t, err)
	assert.False(t, found, "failed pass must not commit")
	require.Len(t, f.metrics.passes, 1)
	assert.Error(t, f.metrics.passes[0])
}

func TestInvalidEntryIsExcluded(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, model.SharedInfo{OutFileName: "x.js", Version: "1.0.0"})
	mfe2 := entry("mfe2", 4202, shared("rxjs", "7.8.1", "^7.0.0"))
	f.serve(mfe1)
	f.serve(mfe2)

	fed, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)

	assert.ErrorIs(t, fed.Excluded()["mfe1"], model.ErrInvalidRemoteEntry)
	assert.Equal(t, []string{"mfe2"}, fed.Remotes())
}

func TestStrictCompatibilityAbortsPass(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "6.6.7", "^6.0.0"))
	f.serve(mfe1)
	f.serve(mfe2)

	cfg := federation.DefaultConfig()
	cfg.Strict.StrictExternalCompatibility = true

	_, err := f.initializer(t, cfg).InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.ErrorIs(t, err, model.ErrIncompatible)

	found, err := f.storage.Get(storage.KeySharedExternals, &model.SharedExternals{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestManifestFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.manifests.EXPECT().
		FetchManifest(gomock.Any(), manifestURL).
		Return(model.Manifest{}, model.Errorf(model.ErrFetch, "failed to fetch manifest"))

	_, err := f.initializer(t, federation.DefaultConfig()).Init(context.Background(), manifestURL)
	require.ErrorIs(t, err, model.ErrFetch)
}

func TestHostFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.notFound(hostURL)

	_, err := f.initializer(t, hostConfig()).InitFromManifest(context.Background(), model.Manifest{})
	require.ErrorIs(t, err, model.ErrFetch)
}

func TestOverrideNeverSkipsCachedRemotes(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("tslib", "2.6.2", "^2.0.0"))

	f.serve(mfe1)
	_, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(mfe1))
	require.NoError(t, err)

	cfg := federation.DefaultConfig()
	cfg.Profile.OverrideCachedRemotes = resolve.OverrideNever
	f.serve(mfe2)

	fed, err := f.initializer(t, cfg).InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)

	assert.Equal(t, []string{"mfe1"}, fed.Skipped())
	assert.Equal(t, []string{"mfe1", "mfe2"}, fed.Remotes())
	assert.Equal(t, map[string]string{
		"rxjs":  "http://localhost:4201/rxjs-7.8.1.js",
		"tslib": "http://localhost:4202/tslib-2.6.2.js",
	}, fed.ImportMap().Imports)
}

func TestPassIsIdempotent(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	mfe2 := entry("mfe2", 4202, shared("rxjs", "6.6.7", "^6.0.0"))
	f.entries.EXPECT().FetchEntry(gomock.Any(), mfe1.URL).Return(mfe1, nil).Times(2)
	f.entries.EXPECT().FetchEntry(gomock.Any(), mfe2.URL).Return(mfe2, nil).Times(2)

	i := f.initializer(t, federation.DefaultConfig())
	first, err := i.InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)
	second, err := i.InitFromManifest(context.Background(), manifestOf(mfe1, mfe2))
	require.NoError(t, err)

	assert.Equal(t, first.ImportMap(), second.ImportMap())
	fp1, err := first.ImportMap().Fingerprint()
	require.NoError(t, err)
	fp2, err := second.ImportMap().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestEntryNameFollowsManifest(t *testing.T) {
	f := newFixture(t)
	e := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	served := e
	served.Name = "legacy-name"
	f.entries.EXPECT().FetchEntry(gomock.Any(), e.URL).Return(served, nil)

	fed, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(e))
	require.NoError(t, err)

	assert.Equal(t, []string{"mfe1"}, fed.Remotes())
	require.Len(t, f.logger.warn, 1)
	assert.Contains(t, f.logger.warn[0], "legacy-name")
}

func TestCommitFailureFailsPass(t *testing.T) {
	f := newFixture(t)
	st := storagemocks.NewMockStorage(f.ctrl)
	st.EXPECT().Get(gomock.Any(), gomock.Any()).Return(false, nil).Times(3)
	st.EXPECT().SetAll(gomock.Any()).Return(model.Errorf(model.ErrStorage, "disk full"))
	f.storage = st

	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	f.serve(mfe1)

	_, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(mfe1))
	require.ErrorIs(t, err, model.ErrStorage)
}

func TestLoadRemoteModule(t *testing.T) {
	f := newFixture(t)
	mfe1 := entry("mfe1", 4201, shared("rxjs", "7.8.1", "^7.0.0"))
	f.serve(mfe1)

	fed, err := f.initializer(t, federation.DefaultConfig()).
		InitFromManifest(context.Background(), manifestOf(mfe1))
	require.NoError(t, err)

	for _, key := range []string{"./Component", "Component"} {
		mod, err := fed.LoadRemoteModule(context.Background(), "mfe1", key)
		require.NoError(t, err)
		assert.Equal(t, "mfe1", mod.Remote)
		assert.Equal(t, "Component", mod.Key)
		assert.Equal(t, "http://localhost:4201/Component.js", mod.URL)
	}
	assert.Len(t, f.loader.loaded, 2)

	_, err = fed.LoadRemoteModule(context.Background(), "mfe9", "./Component")
	assert.ErrorIs(t, err, model.ErrRemoteNotFound)

	_, err = fed.LoadRemoteModule(context.Background(), "mfe1", "./Missing")
	assert.ErrorIs(t, err, model.ErrModuleNotExposed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*federation.Config)
	}{
		{"unknown override mode", func(c *federation.Config) { c.Profile.OverrideCachedRemotes = "sometimes" }},
		{"unknown log level", func(c *federation.Config) { c.LogLevel = "chatty" }},
		{"negative concurrency", func(c *federation.Config) { c.Concurrency = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := federation.DefaultConfig()
			tt.mutate(&cfg)
			_, err := federation.New(cfg, federation.Dependencies{})
			require.ErrorIs(t, err, model.ErrInvalidConfig)
		})
	}

	i, err := federation.New(federation.DefaultConfig(), federation.Dependencies{})
	require.NoError(t, err)
	assert.NotNil(t, i)
}
