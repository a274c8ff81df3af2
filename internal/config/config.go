package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/glimte/mmate-intercept/contracts"
)

// Plugins declares which interceptors apply to which operations
type Plugins struct {
	Operations []OperationConfig `yaml:"operations"`
}

// OperationConfig holds the plugin declarations of one target operation
type OperationConfig struct {
	ID      contracts.OperationID `yaml:",inline"`
	Plugins []PluginConfig        `yaml:"plugins"`
}

// PluginConfig holds one plugin declaration. Fields left out of the
// declaration keep the interceptor's current setting.
type PluginConfig struct {
	Name      string `yaml:"name"`
	SortOrder *int   `yaml:"sortOrder,omitempty"`
	Disabled  *bool  `yaml:"disabled,omitempty"`
}

// Override returns sortOrder and enabled with the declared fields applied
func (p PluginConfig) Override(sortOrder int, enabled bool) (int, bool) {
	if p.SortOrder != nil {
		sortOrder = *p.SortOrder
	}
	if p.Disabled != nil {
		enabled = !*p.Disabled
	}
	return sortOrder, enabled
}

// Parse decodes and validates a plugin declaration document
func Parse(data []byte) (*Plugins, error) {
	var p Plugins
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a plugin declaration file
func Load(path string) (*Plugins, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate checks for missing identities and duplicate declarations
func (p *Plugins) Validate() error {
	var errs []error
	ops := make(map[contracts.OperationID]struct{}, len(p.Operations))
	for i, op := range p.Operations {
		if op.ID.Subject == "" || op.ID.Method == "" {
			errs = append(errs, fmt.Errorf("operations[%d]: subject and method are required", i))
			continue
		}
		if _, dup := ops[op.ID]; dup {
			errs = append(errs, fmt.Errorf("operations[%d]: %s declared twice", i, op.ID))
		}
		ops[op.ID] = struct{}{}

		names := make(map[string]struct{}, len(op.Plugins))
		for j, plugin := range op.Plugins {
			if plugin.Name == "" {
				errs = append(errs, fmt.Errorf("%s plugins[%d]: name is required", op.ID, j))
				continue
			}
			if _, dup := names[plugin.Name]; dup {
				errs = append(errs, fmt.Errorf("%s: plugin %q declared twice", op.ID, plugin.Name))
			}
			names[plugin.Name] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// For returns the plugin declarations of an operation
func (p *Plugins) For(id contracts.OperationID) []PluginConfig {
	for _, op := range p.Operations {
		if op.ID == id {
			return op.Plugins
		}
	}
	return nil
}

// Watcher reloads a plugin declaration file when it changes
type Watcher struct {
	mu       sync.RWMutex
	path     string
	current  *Plugins
	logger   *slog.Logger
	onChange func(*Plugins)
}

// NewWatcher creates a watcher for the file at path
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger}
}

// OnChange registers a callback that fires after a successful reload
func (w *Watcher) OnChange(fn func(*Plugins)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Load reads the file and remembers the result
func (w *Watcher) Load() (*Plugins, error) {
	p, err := Load(w.path)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.current = p
	w.mu.Unlock()
	return p, nil
}

// Current returns the last successfully loaded declarations
func (w *Watcher) Current() *Plugins {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Watch watches the file's directory and reloads on change. Blocks until done is closed.
func (w *Watcher) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close() // intentionally ignoring close error during cleanup
	}()

	// Editors replace files on save, so the directory is watched rather than the file
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %s: %w", dir, err)
	}

	w.logger.Info("watching plugin config", "file", w.path)
	target := filepath.Clean(w.path)

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Info("plugin config change detected", "file", event.Name, "op", event.Op)
			p, err := w.Load()
			if err != nil {
				w.logger.Error("failed to reload plugin config", "error", err)
				continue
			}
			w.mu.RLock()
			onChange := w.onChange
			w.mu.RUnlock()
			if onChange != nil {
				onChange(p)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
