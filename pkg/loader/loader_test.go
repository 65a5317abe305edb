// pkg/loader/loader_test.go
package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	got := Candidates("aom", []string{"/usr/lib", "", "/opt/aom/lib"}, "linux")
	assert.Equal(t, []string{
		"/usr/lib/libaom.so",
		"/usr/lib/libaom.so.3",
		"/opt/aom/lib/libaom.so",
		"/opt/aom/lib/libaom.so.3",
		"libaom.so",
		"libaom.so.3",
	}, got)

	assert.Equal(t, []string{"/x/libaom.dylib", "libaom.dylib"}, Candidates("aom", []string{"/x"}, "darwin"))
}

func TestInfoNumber(t *testing.T) {
	info := &Info{Number: 3<<16 | 8<<8 | 2}
	assert.Equal(t, 3, info.Major())
	assert.Equal(t, 8, info.Minor())
	assert.Equal(t, 2, info.Patch())
}

func TestVersionRejectsNonLibrary(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"libaom.so", "libaom.so.3", "libaom.dylib"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("not a shared object"), 0644))
	}

	info, err := Version([]string{dir})
	if errors.Is(err, ErrPlatformNotSupported) {
		t.Skip(err)
	}
	if err == nil {
		// a system libaom was found through the bare names
		assert.NotEqual(t, dir, filepath.Dir(info.Path))
		assert.NotEmpty(t, info.Version)
		return
	}
	assert.ErrorIs(t, err, ErrNotFound)
}
