// pkg/probe/pkgconfig.go
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/arc-language/aom-sys/pkg/platform"
	"github.com/arc-language/aom-sys/pkg/runner"
)

// ErrLibraryNotFound indicates the library or its development files are
// not installed
var ErrLibraryNotFound = errors.New("library not found")

// Library is what the host reports about an installed library
type Library struct {
	Name         string
	Version      string
	IncludePaths []string
	LibPaths     []string
	Libs         []string // -l names, including Name itself
}

// PkgConfig probes installed libraries with pkg-config
type PkgConfig struct {
	Runner runner.Runner
	Binary string
	Logger *log.Logger
}

// NewPkgConfig creates a prober; the binary honours $PKG_CONFIG
func NewPkgConfig(r runner.Runner, logger *log.Logger) *PkgConfig {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PkgConfig{
		Runner: r,
		Binary: platform.PkgConfigBinary(),
		Logger: logger,
	}
}

// Probe finds name at minVersion or newer. When the library is missing
// the error wraps ErrLibraryNotFound and carries pkg-config's own message.
func (p *PkgConfig) Probe(ctx context.Context, name, minVersion string) (*Library, error) {
	req := name
	if minVersion != "" {
		req = fmt.Sprintf("%s >= %s", name, minVersion)
	}
	p.Logger.Printf("Probing %q with %s", req, p.Binary)

	if _, err := p.run(ctx, "--exists", "--print-errors", req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryNotFound, req, err)
	}

	lib := &Library{Name: name}

	version, err := p.run(ctx, "--modversion", name)
	if err != nil {
		return nil, err
	}
	lib.Version = strings.TrimSpace(version)

	cflags, err := p.run(ctx, "--cflags-only-I", name)
	if err != nil {
		return nil, err
	}
	lib.IncludePaths = flagValues(cflags, "-I")
	if len(lib.IncludePaths) == 0 {
		// pkg-config hides system include dirs; ask for the variable instead
		dir, err := p.run(ctx, "--variable=includedir", name)
		if err != nil {
			return nil, err
		}
		if dir = strings.TrimSpace(dir); dir != "" {
			lib.IncludePaths = []string{dir}
		}
	}

	ldirs, err := p.run(ctx, "--libs-only-L", name)
	if err != nil {
		return nil, err
	}
	lib.LibPaths = flagValues(ldirs, "-L")
	if len(lib.LibPaths) == 0 {
		dir, err := p.run(ctx, "--variable=libdir", name)
		if err != nil {
			return nil, err
		}
		if dir = strings.TrimSpace(dir); dir != "" {
			lib.LibPaths = []string{dir}
		}
	}

	libs, err := p.run(ctx, "--libs-only-l", name)
	if err != nil {
		return nil, err
	}
	lib.Libs = flagValues(libs, "-l")

	p.Logger.Printf("✓ Found %s %s", name, lib.Version)
	p.Logger.Printf("  Includes: %v", lib.IncludePaths)
	p.Logger.Printf("  Lib dirs: %v", lib.LibPaths)
	p.Logger.Printf("  Libs: %v", lib.Libs)

	return lib, nil
}

// Others returns the -l names other than the library itself
func (l *Library) Others() []string {
	var out []string
	for _, name := range l.Libs {
		if name != l.Name {
			out = append(out, name)
		}
	}
	return out
}

func (p *PkgConfig) run(ctx context.Context, args ...string) (string, error) {
	res, err := p.Runner.Run(ctx, &runner.Command{Name: p.Binary, Args: args})
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

// flagValues extracts the values of one flag from pkg-config output,
// accepting both "-I/dir" and "-I /dir"
func flagValues(out, flag string) []string {
	fields := strings.Fields(out)
	var vals []string
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if !strings.HasPrefix(f, flag) {
			continue
		}
		if v := strings.TrimPrefix(f, flag); v != "" {
			vals = append(vals, v)
		} else if i+1 < len(fields) {
			vals = append(vals, fields[i+1])
			i++
		}
	}
	return vals
}
