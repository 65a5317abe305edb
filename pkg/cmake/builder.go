// pkg/cmake/builder.go
package cmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/arc-language/aom-sys/pkg/layout"
	"github.com/arc-language/aom-sys/pkg/runner"
)

// ErrSourceNotFound indicates the vendored source tree is missing
var ErrSourceNotFound = errors.New("vendored source not found")

// Options configures one source build
type Options struct {
	SourceDir string   // Tree holding CMakeLists.txt
	BuildDir  string   // Scratch directory; build/ and install/ are created under it
	Library   string   // Library name, used to check the installed archive
	Defines   []string // -D arguments, already ordered
	Args      []string // Extra configure arguments
	Jobs      int      // --parallel value
	GOOS      string   // Target OS, names the installed archive; defaults to the host
}

// Output describes a finished install
type Output struct {
	InstallDir string
	LibDir     string
	IncludeDir string
	Archive    string
	Revision   string // HEAD of the vendored checkout, if it is a git tree
}

// Builder drives cmake
type Builder struct {
	Runner runner.Runner
	Binary string
	Logger *log.Logger
}

// NewBuilder creates a cmake builder
func NewBuilder(r runner.Runner, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Builder{
		Runner: r,
		Binary: "cmake",
		Logger: logger,
	}
}

// Build configures, builds and installs the vendored library
func (b *Builder) Build(ctx context.Context, options *Options) (*Output, error) {
	if options == nil || options.SourceDir == "" {
		return nil, fmt.Errorf("SourceDir is required in Options")
	}
	if options.BuildDir == "" {
		return nil, fmt.Errorf("BuildDir is required in Options")
	}

	opts := *options
	if opts.Library == "" {
		opts.Library = "aom"
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}

	src, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source dir: %w", err)
	}
	if _, err := os.Stat(filepath.Join(src, "CMakeLists.txt")); err != nil {
		return nil, fmt.Errorf("%w: %s has no CMakeLists.txt (run `git submodule update --init`)", ErrSourceNotFound, src)
	}

	root, err := filepath.Abs(opts.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("resolving build dir: %w", err)
	}
	buildDir := filepath.Join(root, "build")
	installDir := filepath.Join(root, "install")
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}

	b.Logger.Printf("Building %s from %s", opts.Library, src)
	b.Logger.Printf("  Build dir: %s", buildDir)
	b.Logger.Printf("  Install dir: %s", installDir)

	// 1. Configure
	b.Logger.Printf("Step 1: Configuring...")
	configure := []string{
		"-S", src,
		"-B", buildDir,
		"-DCMAKE_INSTALL_PREFIX=" + installDir,
		"-DCMAKE_INSTALL_LIBDIR=lib",
	}
	configure = append(configure, opts.Defines...)
	configure = append(configure, opts.Args...)
	if err := b.cmake(ctx, configure...); err != nil {
		return nil, fmt.Errorf("configuring: %w", err)
	}

	// 2. Build
	b.Logger.Printf("Step 2: Building...")
	if err := b.cmake(ctx, "--build", buildDir, "--config", "Release", "--parallel", strconv.Itoa(opts.Jobs)); err != nil {
		return nil, fmt.Errorf("building: %w", err)
	}

	// 3. Install
	b.Logger.Printf("Step 3: Installing...")
	if err := b.cmake(ctx, "--install", buildDir, "--config", "Release"); err != nil {
		return nil, fmt.Errorf("installing: %w", err)
	}

	inst := layout.Install()
	name := layout.StaticLibraryName(opts.Library, opts.GOOS)
	archive, ok := layout.FindFile(installDir, inst.Libraries, name)
	if !ok {
		return nil, fmt.Errorf("install finished but %s is missing under %s", name, installDir)
	}

	out := &Output{
		InstallDir: installDir,
		LibDir:     filepath.Dir(archive),
		IncludeDir: filepath.Join(installDir, "include"),
		Archive:    archive,
	}

	if rev, err := Revision(src); err == nil {
		out.Revision = rev
	} else {
		b.Logger.Printf("  Could not read source revision: %v", err)
	}

	b.Logger.Printf("✓ Built %s", archive)
	return out, nil
}

func (b *Builder) cmake(ctx context.Context, args ...string) error {
	_, err := b.Runner.Run(ctx, &runner.Command{Name: b.Binary, Args: args})
	return err
}
