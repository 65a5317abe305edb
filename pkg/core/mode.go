// pkg/core/mode.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingPrecompiledDir indicates precompiled mode was selected
	// without a directory
	ErrMissingPrecompiledDir = errors.New("precompiled mode requires a directory (set AOM_PRECOMPILED)")

	// ErrUnknownMode indicates an unrecognised link mode value
	ErrUnknownMode = errors.New("unknown link mode")
)

// Mode is the link strategy for one build invocation. The set of
// implementations is closed: SourceBuild, Dynamic and Precompiled.
type Mode interface {
	fmt.Stringer
	mode()
}

// SourceBuild compiles the vendored source and links it statically
type SourceBuild struct{}

// Dynamic probes the host for an installed libaom and links it dynamically
type Dynamic struct{}

// Precompiled links statically against an already built libaom
type Precompiled struct {
	Dir string
}

func (SourceBuild) mode() {}
func (Dynamic) mode()     {}
func (Precompiled) mode() {}

func (SourceBuild) String() string { return "source" }
func (Dynamic) String() string     { return "dynamic" }

func (p Precompiled) String() string {
	return "precompiled:" + p.Dir
}

// ParseMode maps a mode name and optional precompiled directory onto a Mode
func ParseMode(name, dir string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "source", "source-build", "static":
		return SourceBuild{}, nil
	case "dynamic", "shared-library", "shared", "system":
		return Dynamic{}, nil
	case "precompiled", "prebuilt":
		if strings.TrimSpace(dir) == "" {
			return nil, ErrMissingPrecompiledDir
		}
		return Precompiled{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// ResolveMode decides the link mode for this configuration
func (c Config) ResolveMode() (Mode, error) {
	return ParseMode(c.LinkMode, c.PrecompiledDir)
}
