// Package prefs keeps the choices made on the remote itself, currently the
// colour theme, so the next session starts where the last one left off.
//
// The file lives next to the configuration in ~/.config/brickview/prefs.toml
// but is owned by the program: it is rewritten whenever a preference
// changes, while config.toml is only ever edited by hand.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/brickview/internal/config"
)

const (
	defaultPrefsPath = "~/.config/brickview/prefs.toml"
	defaultTheme     = "Brick"
)

// Prefs is the saved state of the remote.
type Prefs struct {
	Theme string `toml:"theme"`
}

// DefaultPath returns the preferences file used when none is given.
func DefaultPath() string {
	return defaultPrefsPath
}

// DefaultTheme is the theme of a fresh install.
func DefaultTheme() string {
	return defaultTheme
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load returns the saved preferences. It always returns something usable:
// on error the defaults come back with it so the caller can log and carry
// on. A file that does not exist yet is not an error.
func Load(path string) (Prefs, error) {
	resolved, err := resolve(path)
	if err != nil {
		return defaults(), err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return defaults(), nil
	case err != nil:
		return defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	return p, nil
}

// Save replaces the preferences file. The new contents are written to a
// temporary file in the same directory and renamed over the old one, so a
// crash mid-write leaves the previous file intact.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
