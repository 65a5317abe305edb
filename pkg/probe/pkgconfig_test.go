// pkg/probe/pkgconfig_test.go
package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/aom-sys/pkg/runner/runnertest"
)

func newProber(f *runnertest.Fake) *PkgConfig {
	p := NewPkgConfig(f, nil)
	p.Binary = "pkg-config"
	return p
}

func TestProbeFound(t *testing.T) {
	f := runnertest.New().
		Stdout("pkg-config --exists", "").
		Stdout("pkg-config --modversion", "3.8.2\n").
		Stdout("pkg-config --cflags-only-I", "-I/opt/aom/include \n").
		Stdout("pkg-config --libs-only-L", "-L/opt/aom/lib\n").
		Stdout("pkg-config --libs-only-l", "-laom -lm\n")

	lib, err := newProber(f).Probe(context.Background(), "aom", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "3.8.2", lib.Version)
	assert.Equal(t, []string{"/opt/aom/include"}, lib.IncludePaths)
	assert.Equal(t, []string{"/opt/aom/lib"}, lib.LibPaths)
	assert.Equal(t, []string{"aom", "m"}, lib.Libs)
	assert.Equal(t, []string{"m"}, lib.Others())

	calls := f.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, []string{"--exists", "--print-errors", "aom >= 1.0.0"}, calls[0].Args)
}

func TestProbeSystemDirsFallBackToVariables(t *testing.T) {
	f := runnertest.New().
		Stdout("pkg-config --exists", "").
		Stdout("pkg-config --modversion", "3.8.2\n").
		Stdout("pkg-config --cflags-only-I", "\n").
		Stdout("pkg-config --variable=includedir", "/usr/include\n").
		Stdout("pkg-config --libs-only-L", "\n").
		Stdout("pkg-config --variable=libdir", "/usr/lib/x86_64-linux-gnu\n").
		Stdout("pkg-config --libs-only-l", "-laom\n")

	lib, err := newProber(f).Probe(context.Background(), "aom", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/include"}, lib.IncludePaths)
	assert.Equal(t, []string{"/usr/lib/x86_64-linux-gnu"}, lib.LibPaths)
	assert.Empty(t, lib.Others())
}

func TestProbeNotFound(t *testing.T) {
	diag := "Package aom was not found in the pkg-config search path.\nPerhaps you should add the directory containing `aom.pc'"
	f := runnertest.New().Fail("pkg-config --exists", diag)

	_, err := newProber(f).Probe(context.Background(), "aom", "1.0.0")
	require.ErrorIs(t, err, ErrLibraryNotFound)
	assert.Contains(t, err.Error(), diag)
	assert.Len(t, f.Calls(), 1)
}

func TestFlagValues(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b"}, flagValues("-I/a -I /b -DX", "-I"))
	assert.Nil(t, flagValues("", "-I"))
	assert.Equal(t, []string{"aom", "pthread"}, flagValues("-laom -pthread -lpthread", "-l"))
}
