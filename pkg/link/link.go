// pkg/link/link.go

// Package link describes how the final Go binary links libaom.
package link

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arc-language/aom-sys/pkg/layout"
)

// Kind is the link kind of the native library
type Kind int

const (
	// Static links the archive into the binary
	Static Kind = iota
	// Dynamic links against a shared library at run time
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dylib"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Set is the linker directive set of one build invocation. The library is
// named exactly once; System lists extra libraries it depends on.
type Set struct {
	SearchPath string
	Library    string
	Kind       Kind
	System     []string
}

// Lines renders the set as build orchestrator directives. The search
// line is left out when the linker's default paths apply.
func (s Set) Lines() []string {
	var lines []string
	if s.SearchPath != "" {
		lines = append(lines, "link-search=native="+s.SearchPath)
	}
	lines = append(lines, fmt.Sprintf("link-lib=%s=%s", s.Kind, s.Library))
	for _, lib := range s.System {
		lines = append(lines, "link-lib="+lib)
	}
	return lines
}

// String joins Lines with newlines
func (s Set) String() string {
	return strings.Join(s.Lines(), "\n")
}

// LDFlags renders the set as linker flags for goos
func (s Set) LDFlags(goos string) []string {
	var flags []string
	if s.SearchPath != "" {
		flags = append(flags, "-L"+s.SearchPath)
	}

	switch s.Kind {
	case Static:
		if goos == "linux" || goos == "freebsd" {
			flags = append(flags, "-Wl,-Bstatic", "-l"+s.Library, "-Wl,-Bdynamic")
		} else {
			flags = append(flags, filepath.Join(s.SearchPath, layout.StaticLibraryName(s.Library, goos)))
		}
	case Dynamic:
		flags = append(flags, "-l"+s.Library)
	}

	for _, lib := range s.System {
		flags = append(flags, "-l"+lib)
	}
	return flags
}

// StaticSystemLibs lists what a static libaom pulls in on goos
func StaticSystemLibs(goos string) []string {
	switch goos {
	case "linux", "freebsd":
		return []string{"m", "pthread"}
	default:
		return nil
	}
}
