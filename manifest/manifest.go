// Package manifest handles stow.toml packaging configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/luastow/chunk"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "stow.toml"

var ErrNoScript = errors.New("manifest names no script")

// Manifest represents a stow.toml packaging configuration.
type Manifest struct {
	App  App  `toml:"app"`
	Stub Stub `toml:"stub"`

	// Dir is the directory containing the stow.toml file (set at load time).
	Dir string `toml:"-"`
}

// App describes the application to package.
type App struct {
	Name     string `toml:"name"`
	Script   string `toml:"script"`
	Encoding string `toml:"encoding"`
	Output   string `toml:"output"`
}

// Stub selects the launcher executable the application is appended to.
type Stub struct {
	Path string `toml:"path"`
}

// Load parses a stow.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.App.Script == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoScript)
	}

	// Defaults
	if m.App.Encoding == "" {
		m.App.Encoding = chunk.RunningSum.String()
	}
	if m.App.Name == "" {
		base := filepath.Base(m.App.Script)
		m.App.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if m.App.Output == "" {
		m.App.Output = m.App.Name
	}

	if _, err := m.Encoding(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a stow.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Encoding returns the configured payload encoding.
func (m *Manifest) Encoding() (chunk.Encoding, error) {
	return chunk.ParseEncoding(m.App.Encoding)
}

// ScriptPath returns the absolute path of the application script.
func (m *Manifest) ScriptPath() string {
	return m.resolve(m.App.Script)
}

// OutputPath returns the absolute path of the executable to produce.
func (m *Manifest) OutputPath() string {
	return m.resolve(m.App.Output)
}

// StubPath returns the absolute stub path, or "" when none is configured.
func (m *Manifest) StubPath() string {
	if m.Stub.Path == "" {
		return ""
	}
	return m.resolve(m.Stub.Path)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
