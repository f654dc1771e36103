// Package selfimage resolves the path of the running executable so the launcher
// can read the payload appended to its own image.
package selfimage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrSelfLocate = errors.New("cannot locate own executable")

// Locator resolves the absolute path of the running executable.
type Locator interface {
	Locate() (string, error)
}

// Default returns the locator for the current platform. It never consults
// argv[0].
func Default() Locator {
	return platformLocator{}
}

// Static always reports the same path. The path is made absolute.
type Static string

// Locate implements Locator.
func (s Static) Locate() (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty path", ErrSelfLocate)
	}
	return absolute(string(s))
}

// executableLocator uses os.Executable and resolves symlinks so the result
// names the file that actually holds the payload.
type executableLocator struct{}

func (executableLocator) Locate() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelfLocate, err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelfLocate, err)
	}
	return absolute(resolved)
}

func absolute(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelfLocate, err)
	}
	return abs, nil
}
