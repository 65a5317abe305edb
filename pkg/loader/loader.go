// pkg/loader/loader.go

// Package loader opens the shared libaom at run time to confirm that the
// library the build linked against is actually loadable.
package loader

import (
	"errors"
	"path/filepath"

	"github.com/arc-language/aom-sys/pkg/layout"
)

var (
	// ErrPlatformNotSupported indicates run-time loading is unavailable on this OS
	ErrPlatformNotSupported = errors.New("runtime loading not supported on this platform")

	// ErrNotFound indicates no candidate library could be opened
	ErrNotFound = errors.New("shared library not found")
)

// Info describes a loaded library
type Info struct {
	Path    string // Path that was opened
	Version string // aom_codec_version_str()
	Number  int    // aom_codec_version(): major<<16 | minor<<8 | patch
}

// Major, Minor and Patch decode Number
func (i *Info) Major() int { return (i.Number >> 16) & 0xff }
func (i *Info) Minor() int { return (i.Number >> 8) & 0xff }
func (i *Info) Patch() int { return i.Number & 0xff }

// Candidates lists the paths tried for lib, in order: each directory
// with each shared object name, then the bare names for the system
// loader's own search.
func Candidates(lib string, dirs []string, goos string) []string {
	names := layout.SharedLibraryNames(lib, goos)
	var paths []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return append(paths, names...)
}
