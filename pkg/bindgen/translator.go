// pkg/bindgen/translator.go

// Package bindgen turns the libaom headers into Go declarations.
//
// Translation itself is delegated to a Translator (by default cgo -godefs
// driven from a scan of the headers). The Generator validates the include
// path set, runs the translator, cleans up its output and writes the
// declarations file in one step.
package bindgen

import (
	"context"
	"errors"
)

var (
	// ErrTranslation indicates the headers could not be translated
	ErrTranslation = errors.New("header translation failed")

	// ErrEmptyDeclarations indicates the translator produced no declarations
	ErrEmptyDeclarations = errors.New("translation produced no declarations")

	// ErrIncludePath indicates a missing or unreadable include directory
	ErrIncludePath = errors.New("invalid include path")
)

// EnumStyle selects how C enums are rendered
type EnumStyle int

const (
	// EnumConsts renders each enum as a named integer type plus a group of
	// untyped constants. Newer libaom releases may add values, so the set
	// is never treated as closed.
	EnumConsts EnumStyle = iota
)

// Request is one translation job
type Request struct {
	Header         string   // Entry header
	IncludePaths   []string // Header search directories, in order
	Package        string   // Go package name of the output
	HeaderPrefix   string   // <prefix/...> includes belong to the library
	BlockedTypes   []string // C type names left out of the output
	SizeTypeIsUint bool     // Map size_t to Go uint
	EnumStyle      EnumStyle
}

// Translator converts C headers to Go source text
type Translator interface {
	Translate(ctx context.Context, req *Request) ([]byte, error)
}
