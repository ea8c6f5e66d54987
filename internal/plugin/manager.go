package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ManifestFile is the manifest every plugin directory must contain.
const ManifestFile = "plugin.json"

// ErrPluginNotFound is returned when a requested plugin was not discovered.
var ErrPluginNotFound = errors.New("plugin not found")

// errNoManifest marks a directory that is not a plugin at all.
var errNoManifest = errors.New("no " + ManifestFile)

// Manager discovers the plugins installed under one directory.
type Manager struct {
	dir string
	log zerolog.Logger

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a Manager for the plugins under dir.
func NewManager(dir string, log zerolog.Logger) *Manager {
	return &Manager{
		dir:     dir,
		log:     log,
		plugins: make(map[string]*Plugin),
	}
}

// Discover replaces the known plugins with those found in the plugin
// directory. A missing directory yields no plugins. Subdirectories without
// a manifest are ignored; broken plugins are skipped with a warning.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}

	found := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := load(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, errNoManifest) {
			continue
		}
		if err != nil {
			m.log.Warn().Err(err).Str("plugin", entry.Name()).Msg("skipping plugin")
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			m.log.Warn().
				Str("plugin", p.Manifest.Name).
				Str("path", p.Path).
				Str("kept", prev.Path).
				Msg("skipping duplicate plugin")
			continue
		}

		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()

	return nil
}

// load reads the plugin in dir.
func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNoManifest
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	executable := filepath.Join(dir, manifest.Executable)
	info, err := os.Stat(executable)
	if err != nil {
		return nil, fmt.Errorf("executable: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("executable %s is a directory", executable)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: executable,
	}, nil
}

// Get returns a discovered plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	slices.SortFunc(plugins, func(a, b *Plugin) int {
		return strings.Compare(a.Manifest.Name, b.Manifest.Name)
	})
	return plugins
}

// Select returns the named plugins in the order given, or every plugin
// when names is empty. Naming a plugin that was not discovered is an error.
func (m *Manager) Select(names []string) ([]*Plugin, error) {
	if len(names) == 0 {
		return m.List(), nil
	}

	selected := make([]*Plugin, 0, len(names))
	for _, name := range names {
		p, err := m.Get(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(selected, p) {
			selected = append(selected, p)
		}
	}
	return selected, nil
}
