// pkg/bindgen/generator.go
package bindgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/arc-language/aom-sys/pkg/layout"
)

// Generator produces the declarations file for one build
type Generator struct {
	Translator   Translator
	Header       string // Entry header
	Package      string // Go package name
	HeaderPrefix string // Library include prefix, e.g. "aom/"
	BlockedTypes []string
	OutDir       string
	FileName     string // Declarations file name, e.g. "aom.go"
	Logger       *log.Logger
}

// Generate translates the entry header against includes and writes the
// result to OutDir/FileName. The file is replaced atomically; on any
// error nothing is written.
func (g *Generator) Generate(ctx context.Context, includes []string) (string, error) {
	logger := g.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if err := CheckIncludePaths(includes); err != nil {
		return "", err
	}
	if _, err := os.Stat(g.Header); err != nil {
		return "", fmt.Errorf("%w: entry header: %v", ErrTranslation, err)
	}

	logger.Printf("Generating declarations from %s", g.Header)
	logger.Printf("  Include paths: %v", includes)

	out, err := g.Translator.Translate(ctx, &Request{
		Header:         g.Header,
		IncludePaths:   includes,
		Package:        g.Package,
		HeaderPrefix:   g.HeaderPrefix,
		BlockedTypes:   g.BlockedTypes,
		SizeTypeIsUint: true,
		EnumStyle:      EnumConsts,
	})
	if err != nil {
		return "", err
	}

	text := Clean(string(out))
	if !HasDeclarations(text) {
		return "", fmt.Errorf("%w from %s with include paths %v", ErrEmptyDeclarations, g.Header, includes)
	}

	path, err := layout.WriteFileAtomic(g.OutDir, g.FileName, []byte(text))
	if err != nil {
		return "", err
	}

	logger.Printf("✓ Wrote %s (%d bytes)", path, len(text))
	return path, nil
}

// CheckIncludePaths requires a non-empty set of readable directories
func CheckIncludePaths(includes []string) error {
	if len(includes) == 0 {
		return fmt.Errorf("%w: no include paths", ErrIncludePath)
	}
	for _, dir := range includes {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIncludePath, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrIncludePath, dir)
		}
		if _, err := os.ReadDir(dir); err != nil {
			return fmt.Errorf("%w: %v", ErrIncludePath, err)
		}
	}
	return nil
}

var (
	docOpeners = strings.NewReplacer("/**/", "/* */", "/**", "/*", "/*!", "/*")
	sizeTypeRe = regexp.MustCompile(`(?m)^type Size_t u?int(?:32|64)?[ \t]*$`)
	buildTagRe = regexp.MustCompile(`(?m)^//(?:go:build| \+build) ignore\n`)
	// cgo echoes its command line, temp directory included
	godefsCmdRe = regexp.MustCompile(`(?m)^// cgo -godefs .*\n`)
	declRe      = regexp.MustCompile(`(?m)^(?:type|const|var)\s`)
	sizeAliasRe = regexp.MustCompile(`(?m)^type Size_t\b.*$`)
)

// NeutralizeDocComments rewrites the Doxygen openers "/**" and "/*!"
// carried over from the C headers into plain "/*". Replacement repeats
// until neither opener is left, so runs like "/***" are handled; an empty
// "/**/" becomes "/* */".
func NeutralizeDocComments(s string) string {
	for strings.Contains(s, "/**") || strings.Contains(s, "/*!") {
		s = docOpeners.Replace(s)
	}
	return s
}

// Clean post-processes translator output
func Clean(s string) string {
	s = buildTagRe.ReplaceAllString(s, "")
	s = godefsCmdRe.ReplaceAllString(s, "")
	s = sizeTypeRe.ReplaceAllString(s, "type Size_t = uint")
	return NeutralizeDocComments(s)
}

// HasDeclarations reports whether s declares anything besides the
// Size_t alias that every translation carries
func HasDeclarations(s string) bool {
	return declRe.MatchString(sizeAliasRe.ReplaceAllString(s, ""))
}
