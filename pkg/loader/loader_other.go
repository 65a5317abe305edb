// pkg/loader/loader_other.go

//go:build !darwin && !linux

package loader

// Version is unavailable without a dlopen implementation
func Version(dirs []string) (*Info, error) {
	return nil, ErrPlatformNotSupported
}
