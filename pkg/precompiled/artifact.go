// pkg/precompiled/artifact.go
package precompiled

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/blakesmith/ar"

	"github.com/arc-language/aom-sys/pkg/layout"
)

// ErrInvalidArtifact indicates the directory does not hold a usable
// static library and headers
var ErrInvalidArtifact = errors.New("invalid precompiled artifact")

// Artifact is a located precompiled library
type Artifact struct {
	Dir          string   // Directory holding the static archive
	Archive      string   // Path of the static archive
	Members      int      // Object files in the archive
	IncludePaths []string // Header search directories
}

// Options configures Open
type Options struct {
	Library  string      // Library name (default "aom")
	StageDir string      // Where bundles are unpacked
	GOOS     string      // Target OS for file naming (default runtime.GOOS)
	Logger   *log.Logger // Debug logger
}

// Open locates and validates a precompiled library. src is either a
// directory or a .tar, .tar.xz/.txz or .tar.zst bundle, which is unpacked
// into opts.StageDir first.
func Open(src string, opts *Options) (*Artifact, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Library == "" {
		opts.Library = "aom"
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	dir := src
	if !info.IsDir() {
		if !IsBundle(src) {
			return nil, fmt.Errorf("%w: %s is neither a directory nor a supported bundle", ErrInvalidArtifact, src)
		}
		if opts.StageDir == "" {
			return nil, fmt.Errorf("StageDir is required to unpack %s", src)
		}
		dir = filepath.Join(opts.StageDir, "precompiled", bundleName(src))
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", dir, err)
		}
		logger.Printf("Unpacking %s -> %s", src, dir)
		if err := Extract(src, dir, logger); err != nil {
			return nil, fmt.Errorf("unpacking %s: %w", src, err)
		}
	}

	prebuilt := layout.Prebuilt()
	name := layout.StaticLibraryName(opts.Library, opts.GOOS)
	archive, ok := layout.FindFile(dir, prebuilt.Libraries, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found in %s", ErrInvalidArtifact, name, dir)
	}

	members, err := countMembers(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, archive, err)
	}

	art := &Artifact{
		Dir:          filepath.Dir(archive),
		Archive:      archive,
		Members:      members,
		IncludePaths: layout.ExistingDirs(dir, prebuilt.Includes),
	}

	logger.Printf("✓ Using %s (%d members)", art.Archive, art.Members)
	logger.Printf("  Includes: %v", art.IncludePaths)
	return art, nil
}

const arMagic = "!<arch>\n"

// countMembers reads the ar index and counts object members
func countMembers(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != arMagic {
		return 0, fmt.Errorf("not an ar archive")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	r := ar.NewReader(f)
	count := 0
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading ar entry: %w", err)
		}
		// GNU symbol and long-name tables
		name := strings.TrimSpace(hdr.Name)
		if name == "/" || name == "//" || strings.HasPrefix(name, "__.SYMDEF") {
			continue
		}
		count++
	}

	if count == 0 {
		return 0, fmt.Errorf("archive has no members")
	}
	return count, nil
}
