// aomsys_test.go
package aomsys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/aom-sys/pkg/bindgen"
	"github.com/arc-language/aom-sys/pkg/link"
	"github.com/arc-language/aom-sys/pkg/platform"
	"github.com/arc-language/aom-sys/pkg/runner"
	"github.com/arc-language/aom-sys/pkg/runner/runnertest"
)

const declarations = "package aom\n\n/** Codec context */\ntype CodecCtx struct {\n\tName *int8\n}\n\ntype Size_t uint64\n"

type fakeTranslator struct {
	calls int
	reqs  []*bindgen.Request
}

func (f *fakeTranslator) Translate(ctx context.Context, req *bindgen.Request) ([]byte, error) {
	f.calls++
	f.reqs = append(f.reqs, req)
	return []byte(declarations), nil
}

func withCMake() *platform.Platform {
	return &platform.Platform{OS: "linux", Arch: "amd64", Tools: map[string]string{platform.ToolCMake: "/usr/bin/cmake"}}
}

func writeArchive(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := ar.NewWriter(f)
	require.NoError(t, w.WriteGlobalHeader())
	body := []byte("\x7fELF object")
	require.NoError(t, w.WriteHeader(&ar.Header{Name: "aom_codec.o", ModTime: time.Unix(0, 0), Mode: 0644, Size: int64(len(body))}))
	_, err = w.Write(body)
	require.NoError(t, err)
}

// sourceTree lays out a vendored checkout and a fake cmake that installs into the build dir
func sourceTree(t *testing.T) (string, *runnertest.Fake) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "aom")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "CMakeLists.txt"), []byte("project(AOM C CXX)\n"), 0644))

	f := runnertest.New().
		Stdout("cmake -S", "").
		Stdout("cmake --build", "").
		Handle("cmake --install", func(cmd *runner.Command) (*runner.Result, error) {
			install := filepath.Join(filepath.Dir(cmd.Args[1]), "install")
			if err := os.MkdirAll(filepath.Join(install, "include", "aom"), 0755); err != nil {
				return nil, err
			}
			writeArchive(t, filepath.Join(install, "lib", "libaom.a"))
			return &runner.Result{}, nil
		})
	return src, f
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.BuildDir = t.TempDir()
	cfg.OutDir = filepath.Join(t.TempDir(), "aom")
	return cfg
}

func TestBuildSourceDefault(t *testing.T) {
	src, f := sourceTree(t)
	cfg := testConfig(t)
	cfg.SourceDir = src
	tr := &fakeTranslator{}

	res, err := Build(context.Background(), &Options{
		Config:     cfg,
		Runner:     f,
		Translator: tr,
		Platform:   withCMake(),
		GOOS:       "linux",
	})
	require.NoError(t, err)

	assert.Equal(t, SourceBuild{}, res.Mode)
	install := filepath.Join(cfg.BuildDir, "install")
	assert.Equal(t, link.Set{
		SearchPath: filepath.Join(install, "lib"),
		Library:    "aom",
		Kind:       link.Static,
		System:     []string{"m", "pthread"},
	}, res.Directives)
	assert.Equal(t, []string{filepath.Join(install, "include"), install}, res.IncludePaths)

	assert.True(t, f.Ran("cmake -S "+src))
	assert.True(t, f.Ran("cmake --build"))
	assert.False(t, f.Ran("pkg-config"))

	data, err := os.ReadFile(res.Declarations)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.NotContains(t, string(data), "/**")
	assert.Contains(t, string(data), "type Size_t = uint")
	assert.Equal(t, filepath.Join(cfg.OutDir, "aom.go"), res.Declarations)

	flags, err := os.ReadFile(res.Flags)
	require.NoError(t, err)
	assert.Contains(t, string(flags), "#cgo LDFLAGS: -L"+filepath.Join(install, "lib")+" -Wl,-Bstatic -laom -Wl,-Bdynamic -lm -lpthread")

	// the entry header is in the preamble so libaom functions are callable
	dataDir, err := filepath.Abs("data")
	require.NoError(t, err)
	assert.Contains(t, string(flags), "#cgo CFLAGS: -I"+dataDir+" -I"+filepath.Join(install, "include"))
	assert.Contains(t, string(flags), "#include \"aom.h\"\n")
	assert.Contains(t, string(flags), "func CodecVersionStr() string {")

	require.Len(t, tr.reqs, 1)
	assert.Equal(t, filepath.Join(dataDir, "aom.h"), tr.reqs[0].Header)
	assert.Equal(t, []string{"max_align_t"}, tr.reqs[0].BlockedTypes)
	assert.True(t, tr.reqs[0].SizeTypeIsUint)
}

func TestBuildSourceDeterministic(t *testing.T) {
	src, f := sourceTree(t)
	cfg := testConfig(t)
	cfg.SourceDir = src

	opts := &Options{Config: cfg, Runner: f, Translator: &fakeTranslator{}, Platform: withCMake(), GOOS: "linux"}

	first, err := Build(context.Background(), opts)
	require.NoError(t, err)
	firstFlags, err := os.ReadFile(first.Flags)
	require.NoError(t, err)

	second, err := Build(context.Background(), opts)
	require.NoError(t, err)
	secondFlags, err := os.ReadFile(second.Flags)
	require.NoError(t, err)

	assert.Equal(t, first.Directives.String(), second.Directives.String())
	assert.Equal(t, firstFlags, secondFlags)

	var configures []string
	for _, c := range f.Calls() {
		if len(c.Args) > 0 && c.Args[0] == "-S" {
			configures = append(configures, c.String())
		}
	}
	require.Len(t, configures, 2)
	assert.Equal(t, configures[0], configures[1])
}

func TestBuildSourceMissingCMake(t *testing.T) {
	src, f := sourceTree(t)
	cfg := testConfig(t)
	cfg.SourceDir = src
	tr := &fakeTranslator{}

	_, err := Build(context.Background(), &Options{
		Config:     cfg,
		Runner:     f,
		Translator: tr,
		Platform:   &platform.Platform{Tools: map[string]string{}},
	})
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Empty(t, f.Calls())
	assert.Zero(t, tr.calls)
}

func TestBuildSourceFailure(t *testing.T) {
	src, _ := sourceTree(t)
	cfg := testConfig(t)
	cfg.SourceDir = src
	f := runnertest.New().Fail("cmake -S", "CMake Error: CMAKE_C_COMPILER not set")
	tr := &fakeTranslator{}

	_, err := Build(context.Background(), &Options{
		Config:     cfg,
		Runner:     f,
		Translator: tr,
		Platform:   withCMake(),
	})
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "CMake Error: CMAKE_C_COMPILER not set")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "source build", e.Op)
	assert.Equal(t, "source", e.Mode)

	assert.Zero(t, tr.calls)
	_, statErr := os.Stat(filepath.Join(cfg.OutDir, "aom.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildDynamic(t *testing.T) {
	t.Setenv("PKG_CONFIG", "")
	include := t.TempDir()
	f := runnertest.New().
		Stdout("pkg-config --exists", "").
		Stdout("pkg-config --modversion", "3.8.2\n").
		Stdout("pkg-config --cflags-only-I", "-I"+include+"\n").
		Stdout("pkg-config --libs-only-L", "-L/usr/lib/x86_64-linux-gnu\n").
		Stdout("pkg-config --libs-only-l", "-laom -lm\n")

	cfg := testConfig(t)
	cfg.LinkMode = "shared-library"

	res, err := Build(context.Background(), &Options{
		Config:     cfg,
		Runner:     f,
		Translator: &fakeTranslator{},
		Platform:   withCMake(),
		GOOS:       "linux",
	})
	require.NoError(t, err)

	assert.Equal(t, Dynamic{}, res.Mode)
	assert.Equal(t, "3.8.2", res.Version)
	assert.Equal(t, []string{
		"link-search=native=/usr/lib/x86_64-linux-gnu",
		"link-lib=dylib=aom",
		"link-lib=m",
	}, res.Directives.Lines())
	assert.Equal(t, []string{include}, res.IncludePaths)
	assert.True(t, f.Ran("pkg-config --exists --print-errors aom >= 1.0.0"))
	assert.False(t, f.Ran("cmake"))
}

func TestBuildDynamicNotFound(t *testing.T) {
	t.Setenv("PKG_CONFIG", "")
	diag := "Package aom was not found in the pkg-config search path."
	f := runnertest.New().Fail("pkg-config --exists", diag)
	tr := &fakeTranslator{}
	cfg := testConfig(t)
	cfg.LinkMode = "dynamic"

	_, err := Build(context.Background(), &Options{Config: cfg, Runner: f, Translator: tr, Platform: withCMake()})
	require.ErrorIs(t, err, ErrLibraryNotFound)
	assert.Contains(t, err.Error(), diag)
	assert.Zero(t, tr.calls)

	_, statErr := os.Stat(cfg.OutDir)
	assert.True(t, os.IsNotExist(statErr), "no artifact is written")
}

func TestBuildPrecompiled(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "libaom.a"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include", "aom"), 0755))

	f := runnertest.New()
	cfg := testConfig(t)
	cfg.LinkMode = "precompiled"
	cfg.PrecompiledDir = dir

	res, err := Build(context.Background(), &Options{
		Config:     cfg,
		Runner:     f,
		Translator: &fakeTranslator{},
		Platform:   withCMake(),
		GOOS:       "darwin",
	})
	require.NoError(t, err)

	assert.Equal(t, Precompiled{Dir: dir}, res.Mode)
	assert.Equal(t, link.Set{SearchPath: dir, Library: "aom", Kind: link.Static}, res.Directives)
	assert.Equal(t, []string{dir, filepath.Join(dir, "include")}, res.IncludePaths)
	assert.Empty(t, f.Calls(), "no native build is invoked")

	flags, err := os.ReadFile(res.Flags)
	require.NoError(t, err)
	assert.Contains(t, string(flags), filepath.Join(dir, "libaom.a"))
}

func TestBuildPrecompiledWithoutDir(t *testing.T) {
	tr := &fakeTranslator{}
	cfg := testConfig(t)
	cfg.LinkMode = "precompiled"

	_, err := Build(context.Background(), &Options{Config: cfg, Runner: runnertest.New(), Translator: tr})
	require.ErrorIs(t, err, ErrMissingPrecompiledDir)
	assert.Zero(t, tr.calls)
}

func TestBuildPrecompiledInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libaom.a"), []byte("not an archive"), 0644))
	tr := &fakeTranslator{}
	cfg := testConfig(t)
	cfg.LinkMode = "precompiled"
	cfg.PrecompiledDir = dir

	_, err := Build(context.Background(), &Options{Config: cfg, Runner: runnertest.New(), Translator: tr, Platform: withCMake()})
	require.ErrorIs(t, err, ErrInvalidArtifact)
	assert.Zero(t, tr.calls)
}

func TestUnknownMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.LinkMode = "vendored"

	_, err := NewManager(&Options{Config: cfg})
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.True(t, strings.HasPrefix(err.Error(), "resolve mode: "))
}

func TestDefaultManifest(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)
	assert.Equal(t, "aom", m.Name)
	assert.Equal(t, "data/aom.h", m.Header)
	assert.Equal(t, "aom.go", m.Declarations)
	assert.Contains(t, m.CMakeDefines(), "-DENABLE_TESTS=0")

	_, err = os.Stat(m.Header)
	assert.NoError(t, err, "entry header ships with the module")
}

func TestErrorFormat(t *testing.T) {
	err := &Error{Op: "probe", Mode: "dynamic", Err: ErrLibraryNotFound}
	assert.Equal(t, "probe (dynamic): library not found", err.Error())
	assert.ErrorIs(t, err, ErrLibraryNotFound)

	err = &Error{Op: "resolve mode", Err: ErrUnknownMode}
	assert.Equal(t, "resolve mode: unknown link mode", err.Error())
}
