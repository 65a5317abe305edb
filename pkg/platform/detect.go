// pkg/platform/detect.go
package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
)

// ErrToolNotFound indicates a required external tool is not on PATH
var ErrToolNotFound = errors.New("tool not found")

// Tools the build may shell out to
const (
	ToolCMake     = "cmake"
	ToolPkgConfig = "pkg-config"
	ToolCC        = "cc"
	ToolGo        = "go"
)

// Platform represents the detected host and its build tools
type Platform struct {
	OS    string            // linux, darwin, windows
	Arch  string            // amd64, arm64, 386, arm
	Tools map[string]string // tool name -> resolved path, for tools found
}

// Detect detects the current platform and which build tools are available
func Detect() *Platform {
	p := &Platform{
		OS:    runtime.GOOS,
		Arch:  runtime.GOARCH,
		Tools: make(map[string]string),
	}

	for _, tool := range []string{ToolCMake, PkgConfigBinary(), ToolCC, ToolGo} {
		if path, ok := lookPath(tool); ok {
			p.Tools[tool] = path
		}
	}

	return p
}

// Has reports whether tool was found
func (p *Platform) Has(tool string) bool {
	_, ok := p.Tools[tool]
	return ok
}

// Require fails with ErrToolNotFound for each missing tool
func (p *Platform) Require(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if !p.Has(tool) {
			missing = append(missing, tool)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v (install it or pick another link mode)", ErrToolNotFound, missing)
}

// Names returns the detected tools sorted by name
func (p *Platform) Names() []string {
	names := make([]string, 0, len(p.Tools))
	for name := range p.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PkgConfigBinary honours $PKG_CONFIG like pkg-config wrappers do
func PkgConfigBinary() string {
	if v := os.Getenv("PKG_CONFIG"); v != "" {
		return v
	}
	return ToolPkgConfig
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (tools: %v)", p.OS, p.Arch, p.Names())
}
