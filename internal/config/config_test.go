package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlugins = `
operations:
  - subject: catalog.KeyDeriver
    method: DeriveKey
    plugins:
      - name: sku_case
        sortOrder: 10
      - name: key_truncate
        sortOrder: 20
        disabled: true
`

var deriveKeyID = contracts.OperationID{Subject: "catalog.KeyDeriver", Method: "DeriveKey"}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plugins.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	t.Run("decodes declarations", func(t *testing.T) {
		p, err := Parse([]byte(samplePlugins))
		require.NoError(t, err)

		require.Len(t, p.Operations, 1)
		assert.Equal(t, deriveKeyID, p.Operations[0].ID)

		plugins := p.For(deriveKeyID)
		require.Len(t, plugins, 2)
		assert.Equal(t, PluginConfig{Name: "sku_case", SortOrder: intPtr(10)}, plugins[0])
		assert.Nil(t, plugins[0].Disabled)
		require.NotNil(t, plugins[1].Disabled)
		assert.True(t, *plugins[1].Disabled)
		assert.Nil(t, p.For(contracts.OperationID{Subject: "x", Method: "y"}))
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("operations: ["))
		assert.ErrorContains(t, err, "parse yaml")
	})

	t.Run("reports every validation problem", func(t *testing.T) {
		_, err := Parse([]byte(`
operations:
  - subject: a
  - subject: s
    method: m
    plugins:
      - name: p
      - name: p
      - sortOrder: 3
  - subject: s
    method: m
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operations[0]: subject and method are required")
		assert.Contains(t, err.Error(), `plugin "p" declared twice`)
		assert.Contains(t, err.Error(), "plugins[2]: name is required")
		assert.Contains(t, err.Error(), "s::m declared twice")
	})
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), samplePlugins)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.For(deriveKeyID), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read file")
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, samplePlugins)

	w := NewWatcher(path, nil)
	_, err := w.Load()
	require.NoError(t, err)
	require.NotNil(t, w.Current())

	changes := make(chan *Plugins, 4)
	w.OnChange(func(p *Plugins) { changes <- p })

	done := make(chan struct{})
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Watch(done) }()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, `
operations:
  - subject: catalog.KeyDeriver
    method: DeriveKey
    plugins:
      - name: sku_case
        sortOrder: 10
        disabled: true
`)

	// A truncating write can surface as more than one event
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case p := <-changes:
			plugins := p.For(deriveKeyID)
			reloaded = len(plugins) == 1 && plugins[0].Disabled != nil && *plugins[0].Disabled
		case <-deadline:
			t.Fatal("no reload after config change")
		}
	}
	assert.Equal(t, boolPtr(true), w.Current().For(deriveKeyID)[0].Disabled)

	close(done)
	assert.NoError(t, <-watchErr)
}

func TestPluginConfigOverride(t *testing.T) {
	t.Run("absent fields keep current settings", func(t *testing.T) {
		p, err := Parse([]byte(`
operations:
  - subject: catalog.KeyDeriver
    method: DeriveKey
    plugins:
      - name: sku_case
`))
		require.NoError(t, err)
		plugin := p.For(deriveKeyID)[0]
		assert.Nil(t, plugin.SortOrder)
		assert.Nil(t, plugin.Disabled)

		order, enabled := plugin.Override(20, false)
		assert.Equal(t, 20, order)
		assert.False(t, enabled)
	})

	t.Run("declared fields win", func(t *testing.T) {
		plugin := PluginConfig{Name: "x", SortOrder: intPtr(0), Disabled: boolPtr(false)}

		order, enabled := plugin.Override(20, false)
		assert.Equal(t, 0, order)
		assert.True(t, enabled)
	})
}

func TestWatcherOnChangeWhileWatching(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, samplePlugins)
	w := NewWatcher(path, nil)
	_, err := w.Load()
	require.NoError(t, err)

	done := make(chan struct{})
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Watch(done) }()

	// registered after Watch started
	changes := make(chan *Plugins, 8)
	w.OnChange(func(p *Plugins) {
		select {
		case changes <- p:
		default:
		}
	})

	deadline := time.After(5 * time.Second)
	for received := false; !received; {
		writeFile(t, dir, samplePlugins)
		select {
		case <-changes:
			received = true
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("callback registered during Watch never fired")
		}
	}

	close(done)
	assert.NoError(t, <-watchErr)
}
