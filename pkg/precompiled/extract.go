// pkg/precompiled/extract.go
package precompiled

import (
	"archive/tar"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

var bundleSuffixes = []string{".tar.xz", ".txz", ".tar.zst", ".tzst", ".tar"}

// IsBundle reports whether path has a supported bundle extension
func IsBundle(path string) bool {
	return bundleName(path) != filepath.Base(path)
}

func bundleName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range bundleSuffixes {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

// Extract unpacks a bundle into dest
func Extract(src, dest string, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(src, ".xz") || strings.HasSuffix(src, ".txz"):
		logger.Printf("  Using xz decompression")
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		r = xzReader
	case strings.HasSuffix(src, ".zst") || strings.HasSuffix(src, ".tzst"):
		logger.Printf("  Using zstd decompression")
		zstdReader, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("creating zstd reader: %w", err)
		}
		defer zstdReader.Close()
		r = zstdReader
	default:
		logger.Printf("  Using uncompressed tar")
	}

	return extractTar(tar.NewReader(r), dest, logger)
}

func extractTar(tarReader *tar.Reader, dest string, logger *log.Logger) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	fileCount := 0
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		cleanPath := strings.TrimPrefix(header.Name, "./")
		if cleanPath == "" || cleanPath == "." {
			continue
		}

		targetPath := filepath.Join(root, cleanPath)
		if !within(root, targetPath) {
			return fmt.Errorf("tar entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}

		case tar.TypeSymlink:
			// link targets stay under dest
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("symlink %q has absolute target %q", header.Name, header.Linkname)
			}
			if !within(root, filepath.Join(filepath.Dir(targetPath), header.Linkname)) {
				return fmt.Errorf("symlink %q -> %q escapes destination", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory for symlink: %w", err)
			}
			os.Remove(targetPath)
			if err := os.Symlink(header.Linkname, targetPath); err != nil {
				return fmt.Errorf("creating symlink %s -> %s: %w", targetPath, header.Linkname, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&0777|0600)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", targetPath, err)
			}
			written, err := io.Copy(outFile, tarReader)
			outFile.Close()
			if err != nil {
				return fmt.Errorf("writing file %s: %w", targetPath, err)
			}
			if written != header.Size {
				return fmt.Errorf("file size mismatch for %s: expected %d, got %d", targetPath, header.Size, written)
			}
			fileCount++

		default:
			logger.Printf("  Skipping unsupported file type %v for %s", header.Typeflag, cleanPath)
		}
	}

	logger.Printf("  ✓ Extracted %d files", fileCount)
	return nil
}

// within reports whether path is root or lies under it
func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
