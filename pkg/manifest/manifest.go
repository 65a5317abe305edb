// pkg/manifest/manifest.go
package manifest

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Manifest describes the native library a binding is generated for
type Manifest struct {
	Name         string   `toml:"name"`
	PkgConfig    string   `toml:"pkg_config"`
	MinVersion   string   `toml:"min_version"`
	Header       string   `toml:"header"`
	HeaderPrefix string   `toml:"header_prefix"`
	SourceDir    string   `toml:"source_dir"`
	GoPackage    string   `toml:"go_package"`
	Declarations string   `toml:"declarations"`
	BlockedTypes []string `toml:"blocked_types"`
	CMake        CMake    `toml:"cmake"`
}

// CMake holds configure-time settings for source builds
type CMake struct {
	Defines map[string]string `toml:"defines"`
}

// Parse decodes a manifest and fills in defaults
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("manifest: failed to parse: %w", err)
	}

	if m.Name == "" {
		return nil, fmt.Errorf("manifest: name is required")
	}
	if m.Header == "" {
		return nil, fmt.Errorf("manifest: header is required")
	}
	if m.PkgConfig == "" {
		m.PkgConfig = m.Name
	}
	if m.GoPackage == "" {
		m.GoPackage = m.Name
	}
	if m.Declarations == "" {
		m.Declarations = m.Name + ".go"
	}
	if m.HeaderPrefix == "" {
		m.HeaderPrefix = m.Name + "/"
	}

	return &m, nil
}

// Load reads and parses a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return Parse(data)
}

// Requirement renders the pkg-config version constraint
func (m *Manifest) Requirement() string {
	if m.MinVersion == "" {
		return m.PkgConfig
	}
	return fmt.Sprintf("%s >= %s", m.PkgConfig, m.MinVersion)
}

// CMakeDefines returns -D arguments in a stable order
func (m *Manifest) CMakeDefines() []string {
	keys := make([]string, 0, len(m.CMake.Defines))
	for k := range m.CMake.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("-D%s=%s", k, m.CMake.Defines[k]))
	}
	return args
}
