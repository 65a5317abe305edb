// pkg/loader/loader_purego.go

//go:build darwin || linux

package loader

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// Version opens libaom from dirs (or the system search path) and asks it
// for its version. The library is closed again before returning.
func Version(dirs []string) (*Info, error) {
	var lastErr error
	for _, path := range Candidates("aom", dirs, runtime.GOOS) {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err != nil {
			lastErr = err
			continue
		}

		info, err := query(handle)
		purego.Dlclose(handle)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", path, err)
			continue
		}
		info.Path = path
		return info, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, lastErr)
	}
	return nil, ErrNotFound
}

func query(handle uintptr) (*Info, error) {
	var (
		versionStr func() string
		version    func() int32
	)

	sym, err := purego.Dlsym(handle, "aom_codec_version_str")
	if err != nil {
		return nil, err
	}
	purego.RegisterFunc(&versionStr, sym)

	info := &Info{Version: versionStr()}

	// aom_codec_version is optional in very old releases
	if sym, err := purego.Dlsym(handle, "aom_codec_version"); err == nil {
		purego.RegisterFunc(&version, sym)
		info.Number = int(version())
	}

	return info, nil
}
