// pkg/precompiled/artifact_test.go
package precompiled

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// arArchive builds a static library image with the given object members
func arArchive(t *testing.T, members ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())
	for _, m := range members {
		body := []byte("\x7fELF object " + m)
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    m,
			ModTime: time.Unix(0, 0),
			Mode:    0644,
			Size:    int64(len(body)),
		}))
		_, err := w.Write(body)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func writeDir(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
	return dir
}

func TestOpenFlatDirectory(t *testing.T) {
	dir := writeDir(t, map[string][]byte{
		"libaom.a":    arArchive(t, "aom_codec.o", "av1_cx_iface.o"),
		"aom/aom.h":   []byte("#define AOM_H_\n"),
		"aom/aomcx.h": []byte(""),
	})

	art, err := Open(dir, &Options{GOOS: "linux"})
	require.NoError(t, err)
	assert.Equal(t, dir, art.Dir)
	assert.Equal(t, filepath.Join(dir, "libaom.a"), art.Archive)
	assert.Equal(t, 2, art.Members)
	assert.Equal(t, []string{dir}, art.IncludePaths)
}

func TestOpenInstallTree(t *testing.T) {
	dir := writeDir(t, map[string][]byte{
		"lib/libaom.a":      arArchive(t, "aom_codec.o"),
		"include/aom/aom.h": []byte(""),
	})

	art, err := Open(dir, &Options{GOOS: "linux"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib"), art.Dir)
	assert.Equal(t, []string{dir, filepath.Join(dir, "include")}, art.IncludePaths)
}

func TestOpenInvalid(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope"), nil)
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})

	t.Run("no archive", func(t *testing.T) {
		dir := writeDir(t, map[string][]byte{"include/aom/aom.h": nil})
		_, err := Open(dir, &Options{GOOS: "linux"})
		assert.ErrorIs(t, err, ErrInvalidArtifact)
		assert.ErrorContains(t, err, "libaom.a not found")
	})

	t.Run("not an ar archive", func(t *testing.T) {
		dir := writeDir(t, map[string][]byte{"libaom.a": []byte("this is not an archive at all")})
		_, err := Open(dir, &Options{GOOS: "linux"})
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})

	t.Run("empty archive", func(t *testing.T) {
		dir := writeDir(t, map[string][]byte{"libaom.a": arArchive(t)})
		_, err := Open(dir, &Options{GOOS: "linux"})
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})

	t.Run("plain file", func(t *testing.T) {
		dir := writeDir(t, map[string][]byte{"aom.zip": []byte("PK")})
		_, err := Open(filepath.Join(dir, "aom.zip"), &Options{GOOS: "linux", StageDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})
}

func tarball(t *testing.T, w io.Writer, files map[string][]byte) {
	t.Helper()
	tw := tar.NewWriter(w)
	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func TestOpenBundles(t *testing.T) {
	files := map[string][]byte{
		"./lib/libaom.a":      arArchive(t, "aom_codec.o"),
		"./include/aom/aom.h": []byte("#define AOM_H_\n"),
	}

	write := map[string]func(t *testing.T, path string){
		"libaom-3.8.2.tar": func(t *testing.T, path string) {
			f, err := os.Create(path)
			require.NoError(t, err)
			defer f.Close()
			tarball(t, f, files)
		},
		"libaom-3.8.2.tar.xz": func(t *testing.T, path string) {
			f, err := os.Create(path)
			require.NoError(t, err)
			defer f.Close()
			xw, err := xz.NewWriter(f)
			require.NoError(t, err)
			tarball(t, xw, files)
			require.NoError(t, xw.Close())
		},
		"libaom-3.8.2.tar.zst": func(t *testing.T, path string) {
			f, err := os.Create(path)
			require.NoError(t, err)
			defer f.Close()
			zw, err := zstd.NewWriter(f)
			require.NoError(t, err)
			tarball(t, zw, files)
			require.NoError(t, zw.Close())
		},
	}

	for name, fn := range write {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			fn(t, path)
			require.True(t, IsBundle(path))

			stage := t.TempDir()
			art, err := Open(path, &Options{GOOS: "linux", StageDir: stage})
			require.NoError(t, err)

			root := filepath.Join(stage, "precompiled", "libaom-3.8.2")
			assert.Equal(t, filepath.Join(root, "lib"), art.Dir)
			assert.Equal(t, 1, art.Members)
			assert.Contains(t, art.IncludePaths, filepath.Join(root, "include"))
		})
	}
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	tarball(t, f, map[string][]byte{"../../etc/passwd": []byte("x")})
	require.NoError(t, f.Close())

	err = Extract(path, t.TempDir(), nil)
	assert.ErrorContains(t, err, "escapes destination")
}

// linkTarball writes a tar holding a symlink followed by a file written
// through it
func linkTarball(t *testing.T, link, target string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: link, Typeflag: tar.TypeSymlink, Linkname: target, Mode: 0777}))
	body := []byte("x")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: link + "/aom.h", Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(body))}))
	_, err = tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return path
}

func TestExtractRejectsEscapingSymlinks(t *testing.T) {
	outside := t.TempDir()

	for name, target := range map[string]string{
		"absolute": outside,
		"relative": "../../" + filepath.Base(outside),
	} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "stage")
			err := Extract(linkTarball(t, "include", target), dest, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "symlink")

			_, err = os.Stat(filepath.Join(outside, "aom.h"))
			assert.True(t, os.IsNotExist(err), "nothing is written outside the destination")
		})
	}
}

func TestExtractKeepsInternalSymlinks(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "usr", "include"), 0755))

	require.NoError(t, Extract(linkTarball(t, "include", "usr/include"), dest, nil))

	target, err := os.Readlink(filepath.Join(dest, "include"))
	require.NoError(t, err)
	assert.Equal(t, "usr/include", target)
	assert.FileExists(t, filepath.Join(dest, "usr", "include", "aom.h"))
}
