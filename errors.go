// errors.go
package aomsys

import (
	"errors"
	"fmt"

	"github.com/arc-language/aom-sys/pkg/bindgen"
	"github.com/arc-language/aom-sys/pkg/core"
	"github.com/arc-language/aom-sys/pkg/platform"
	"github.com/arc-language/aom-sys/pkg/precompiled"
	"github.com/arc-language/aom-sys/pkg/probe"
)

// Re-exported so callers only need to import the root package to match
// on failures.
var (
	// ErrMissingPrecompiledDir indicates precompiled mode without a directory
	ErrMissingPrecompiledDir = core.ErrMissingPrecompiledDir

	// ErrUnknownMode indicates an unrecognised link mode value
	ErrUnknownMode = core.ErrUnknownMode

	// ErrLibraryNotFound indicates the system probe could not find libaom
	ErrLibraryNotFound = probe.ErrLibraryNotFound

	// ErrToolNotFound indicates a required external tool is not on PATH
	ErrToolNotFound = platform.ErrToolNotFound

	// ErrInvalidArtifact indicates a precompiled directory without a usable libaom
	ErrInvalidArtifact = precompiled.ErrInvalidArtifact

	// ErrTranslation indicates the headers could not be translated
	ErrTranslation = bindgen.ErrTranslation

	// ErrEmptyDeclarations indicates translation produced nothing usable
	ErrEmptyDeclarations = bindgen.ErrEmptyDeclarations

	// ErrIncludePath indicates a missing or unreadable include directory
	ErrIncludePath = bindgen.ErrIncludePath

	// ErrBuildFailed indicates the native build of the vendored source failed
	ErrBuildFailed = errors.New("native build failed")
)

// Error wraps an error with the step and link mode it happened in
type Error struct {
	Op   string // Step that failed
	Mode string // Link mode if resolved
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Mode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
