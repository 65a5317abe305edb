// pkg/layout/layout.go
package layout

import (
	"os"
	"path/filepath"
)

// Layout lists the relative directories where an installed library keeps
// its files
type Layout struct {
	Libraries []string
	Includes  []string
	PkgConfig []string
}

// Install is what `cmake --install` produces with CMAKE_INSTALL_LIBDIR=lib
func Install() Layout {
	return Layout{
		Libraries: []string{"lib"},
		Includes:  []string{"include"},
		PkgConfig: []string{filepath.Join("lib", "pkgconfig")},
	}
}

// Prebuilt covers hand-made precompiled directories: the archive either
// sits at the top or under lib/, headers at the top or under include/.
func Prebuilt() Layout {
	return Layout{
		Libraries: []string{".", "lib", "lib64"},
		Includes:  []string{".", "include"},
		PkgConfig: []string{filepath.Join("lib", "pkgconfig")},
	}
}

// StaticLibraryName returns the static archive name for lib on goos
func StaticLibraryName(lib, goos string) string {
	if goos == "windows" {
		return lib + ".lib"
	}
	return "lib" + lib + ".a"
}

// SharedLibraryNames returns candidate shared object names for lib on goos
func SharedLibraryNames(lib, goos string) []string {
	switch goos {
	case "darwin":
		return []string{"lib" + lib + ".dylib"}
	case "windows":
		return []string{lib + ".dll", "lib" + lib + ".dll"}
	default:
		return []string{"lib" + lib + ".so", "lib" + lib + ".so.3"}
	}
}

// FindFile returns the first root/dir/name that is a regular file
func FindFile(root string, dirs []string, names ...string) (string, bool) {
	for _, dir := range dirs {
		for _, name := range names {
			p := filepath.Join(root, dir, name)
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				return p, true
			}
		}
	}
	return "", false
}

// ExistingDirs returns root/dir for each dir that exists
func ExistingDirs(root string, dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		p := filepath.Join(root, dir)
		if IsDir(p) {
			out = append(out, p)
		}
	}
	return out
}

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
