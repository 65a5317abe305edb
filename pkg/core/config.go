// pkg/core/config.go
package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given
const DefaultConfigFile = "aom-sys.yaml"

// Config holds the build configuration for one invocation
type Config struct {
	// LinkMode selects how libaom is acquired (source, dynamic, precompiled)
	LinkMode string `yaml:"link_mode"`

	// PrecompiledDir holds libaom.a and headers (or a bundle of them)
	PrecompiledDir string `yaml:"precompiled_dir"`

	// Root is the repository root that relative paths resolve against
	Root string `yaml:"root"`

	// SourceDir is the vendored libaom checkout
	SourceDir string `yaml:"source_dir"`

	// BuildDir receives cmake build trees and unpacked bundles
	BuildDir string `yaml:"build_dir"`

	// OutDir receives the generated Go files
	OutDir string `yaml:"out_dir"`

	// Header overrides the entry header from the manifest
	Header string `yaml:"header"`

	// CMakeArgs are appended to the cmake configure step
	CMakeArgs []string `yaml:"cmake_args"`

	// Jobs is the cmake --parallel value (0 means runtime.NumCPU)
	Jobs int `yaml:"jobs"`

	// Debug enables debug logging
	Debug bool `yaml:"debug"`

	// Logger for custom logging
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		LinkMode: "",
		Root:     ".",
		BuildDir: getDefaultBuildDir(),
		OutDir:   "aom",
		Jobs:     runtime.NumCPU(),
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Resolve returns p relative to the configured root unless it is absolute
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

// NewLogger returns the configured logger, or one derived from Debug
func (c Config) NewLogger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.Debug {
		return log.New(os.Stderr, "[aom-sys] ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func getDefaultBuildDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "aom-sys")
	}
	return filepath.Join(os.TempDir(), "aom-sys")
}
