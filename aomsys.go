// aomsys.go
package aomsys

import (
	_ "embed"

	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/arc-language/aom-sys/pkg/bindgen"
	"github.com/arc-language/aom-sys/pkg/cmake"
	"github.com/arc-language/aom-sys/pkg/core"
	"github.com/arc-language/aom-sys/pkg/layout"
	"github.com/arc-language/aom-sys/pkg/link"
	"github.com/arc-language/aom-sys/pkg/manifest"
	"github.com/arc-language/aom-sys/pkg/platform"
	"github.com/arc-language/aom-sys/pkg/precompiled"
	"github.com/arc-language/aom-sys/pkg/probe"
	"github.com/arc-language/aom-sys/pkg/runner"
)

//go:embed aom.toml
var defaultManifest []byte

// Re-export the mode and config types for convenience
type (
	Config      = core.Config
	Mode        = core.Mode
	SourceBuild = core.SourceBuild
	Dynamic     = core.Dynamic
	Precompiled = core.Precompiled
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return core.DefaultConfig()
}

// DefaultManifest returns the bundled libaom description
func DefaultManifest() (*manifest.Manifest, error) {
	return manifest.Parse(defaultManifest)
}

// Options configures a Manager. Zero fields take the defaults: the
// embedded manifest, an os/exec runner, the cgo -godefs translator and
// the detected host platform.
type Options struct {
	Config     Config
	Manifest   *manifest.Manifest
	Runner     runner.Runner
	Translator bindgen.Translator
	Platform   *platform.Platform
	GOOS       string
}

// Acquisition is the outcome of a mode handler: where libaom is and how
// to link it
type Acquisition struct {
	Mode         Mode
	Directives   link.Set
	IncludePaths []string
	Version      string // Library version, when the probe reports one
	Revision     string // Vendored source revision, for source builds
}

// Result is the outcome of one build invocation
type Result struct {
	Acquisition
	Declarations string // Path of the generated declarations file
	Flags        string // Path of the generated cgo flags file
}

// Manager runs build invocations for one configuration
type Manager struct {
	config     Config
	manifest   *manifest.Manifest
	runner     runner.Runner
	translator bindgen.Translator
	platform   *platform.Platform
	goos       string
	mode       Mode
}

// NewManager resolves the link mode and prepares a Manager. Mode errors
// are reported here, before anything is built or generated.
func NewManager(opts *Options) (*Manager, error) {
	if opts == nil {
		opts = &Options{Config: DefaultConfig()}
	}

	cfg := opts.Config
	cfg.Logger = cfg.NewLogger()

	mode, err := cfg.ResolveMode()
	if err != nil {
		return nil, &Error{Op: "resolve mode", Err: err}
	}

	m := &Manager{
		config:     cfg,
		manifest:   opts.Manifest,
		runner:     opts.Runner,
		translator: opts.Translator,
		platform:   opts.Platform,
		goos:       opts.GOOS,
		mode:       mode,
	}

	if m.manifest == nil {
		if m.manifest, err = DefaultManifest(); err != nil {
			return nil, &Error{Op: "load manifest", Err: err}
		}
	}
	if m.runner == nil {
		m.runner = runner.NewExec(cfg.Logger)
	}
	if m.translator == nil {
		m.translator = bindgen.NewGodefs(m.runner, cfg.Logger)
	}
	if m.platform == nil {
		m.platform = platform.Detect()
	}
	if m.goos == "" {
		m.goos = runtime.GOOS
	}

	return m, nil
}

// Build runs one invocation with opts
func Build(ctx context.Context, opts *Options) (*Result, error) {
	m, err := NewManager(opts)
	if err != nil {
		return nil, err
	}
	return m.Build(ctx)
}

// Mode returns the resolved link mode
func (m *Manager) Mode() Mode {
	return m.mode
}

// Manifest returns the library description in use
func (m *Manager) Manifest() *manifest.Manifest {
	return m.manifest
}

// Acquire runs the mode handler: it builds, probes or opens libaom and
// returns the linker directives and include paths without generating
// anything
func (m *Manager) Acquire(ctx context.Context) (*Acquisition, error) {
	logger := m.config.Logger
	logger.Printf("Link mode: %s", m.mode)

	var (
		acq *Acquisition
		err error
	)
	switch mode := m.mode.(type) {
	case core.SourceBuild:
		acq, err = m.sourceBuild(ctx)
	case core.Dynamic:
		acq, err = m.dynamic(ctx)
	case core.Precompiled:
		acq, err = m.precompiled(mode)
	default:
		err = m.wrap("resolve mode", fmt.Errorf("%w: %T", ErrUnknownMode, m.mode))
	}
	if err != nil {
		return nil, err
	}

	acq.Mode = m.mode
	for _, line := range acq.Directives.Lines() {
		logger.Printf("  %s", line)
	}
	return acq, nil
}

// Build acquires libaom, generates the declarations file and writes the
// cgo flags file next to it. Nothing is written unless acquisition
// succeeds.
func (m *Manager) Build(ctx context.Context) (*Result, error) {
	logger := m.config.Logger

	acq, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	outDir := m.config.Resolve(m.config.OutDir)
	header := m.config.Header
	if header == "" {
		header = m.manifest.Header
	}
	header, err = filepath.Abs(m.config.Resolve(header))
	if err != nil {
		return nil, m.wrap("resolve header", err)
	}

	gen := &bindgen.Generator{
		Translator:   m.translator,
		Header:       header,
		Package:      m.manifest.GoPackage,
		HeaderPrefix: m.manifest.HeaderPrefix,
		BlockedTypes: m.manifest.BlockedTypes,
		OutDir:       outDir,
		FileName:     m.manifest.Declarations,
		Logger:       logger,
	}
	decls, err := gen.Generate(ctx, acq.IncludePaths)
	if err != nil {
		return nil, m.wrap("generate declarations", err)
	}

	flags, err := layout.WriteFileAtomic(outDir, link.CgoFile,
		link.Cgo(m.manifest.GoPackage, acq.Directives, header, acq.IncludePaths, m.goos))
	if err != nil {
		return nil, m.wrap("write cgo flags", err)
	}
	logger.Printf("✓ Wrote %s", flags)

	return &Result{
		Acquisition:  *acq,
		Declarations: decls,
		Flags:        flags,
	}, nil
}

func (m *Manager) sourceBuild(ctx context.Context) (*Acquisition, error) {
	if err := m.platform.Require(platform.ToolCMake); err != nil {
		return nil, m.wrap("check toolchain", err)
	}

	src := m.config.SourceDir
	if src == "" {
		src = m.manifest.SourceDir
	}

	builder := cmake.NewBuilder(m.runner, m.config.Logger)
	out, err := builder.Build(ctx, &cmake.Options{
		SourceDir: m.config.Resolve(src),
		BuildDir:  m.config.BuildDir,
		Library:   m.manifest.Name,
		Defines:   m.manifest.CMakeDefines(),
		Args:      m.config.CMakeArgs,
		Jobs:      m.config.Jobs,
		GOOS:      m.goos,
	})
	if err != nil {
		return nil, m.wrap("source build", fmt.Errorf("%w: %w", ErrBuildFailed, err))
	}

	if out.Revision != "" {
		m.config.Logger.Printf("  Source revision: %s", out.Revision)
	}
	m.config.Logger.Printf("  Installed to: %s", out.InstallDir)

	return &Acquisition{
		Directives: link.Set{
			SearchPath: out.LibDir,
			Library:    m.manifest.Name,
			Kind:       link.Static,
			System:     link.StaticSystemLibs(m.goos),
		},
		IncludePaths: []string{out.IncludeDir, out.InstallDir},
		Revision:     out.Revision,
	}, nil
}

func (m *Manager) dynamic(ctx context.Context) (*Acquisition, error) {
	pc := probe.NewPkgConfig(m.runner, m.config.Logger)
	lib, err := pc.Probe(ctx, m.manifest.PkgConfig, m.manifest.MinVersion)
	if err != nil {
		return nil, m.wrap("probe", err)
	}

	var search string
	if len(lib.LibPaths) > 0 {
		search = lib.LibPaths[0]
	}

	return &Acquisition{
		Directives: link.Set{
			SearchPath: search,
			Library:    m.manifest.Name,
			Kind:       link.Dynamic,
			System:     lib.Others(),
		},
		IncludePaths: lib.IncludePaths,
		Version:      lib.Version,
	}, nil
}

func (m *Manager) precompiled(mode core.Precompiled) (*Acquisition, error) {
	art, err := precompiled.Open(m.config.Resolve(mode.Dir), &precompiled.Options{
		Library:  m.manifest.Name,
		StageDir: m.config.BuildDir,
		GOOS:     m.goos,
		Logger:   m.config.Logger,
	})
	if err != nil {
		return nil, m.wrap("open precompiled", err)
	}

	return &Acquisition{
		Directives: link.Set{
			SearchPath: art.Dir,
			Library:    m.manifest.Name,
			Kind:       link.Static,
			System:     link.StaticSystemLibs(m.goos),
		},
		IncludePaths: art.IncludePaths,
	}, nil
}

func (m *Manager) wrap(op string, err error) error {
	return &Error{Op: op, Mode: m.mode.String(), Err: err}
}
