// pkg/core/env.go
package core

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables understood by aom-sys
const (
	EnvLinkMode     = "AOM_LINK_MODE"
	EnvLinuxDynamic = "AOM_LINUX_DYNAMIC"
	EnvPrecompiled  = "AOM_PRECOMPILED"
	EnvSourceDir    = "AOM_SOURCE_DIR"
	EnvBuildDir     = "AOM_BUILD_DIR"
	EnvOutDir       = "AOM_OUT_DIR"
	EnvCMakeArgs    = "AOM_CMAKE_ARGS"
	EnvJobs         = "AOM_JOBS"
	EnvDebug        = "AOM_DEBUG"
)

// EnvVar describes one recognised environment variable
type EnvVar struct {
	Name        string
	Value       string
	Description string
}

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// clean strips quotes and spaces the way shells and CI files leave them
func clean(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	return strings.Trim(v, "\"' "), true
}

// FromEnv overlays the process environment onto cfg
func FromEnv(cfg Config) Config {
	return ApplyEnv(cfg, os.LookupEnv)
}

// ApplyEnv overlays environment values onto cfg. AOM_LINK_MODE wins; the
// legacy switches only select a mode when it is unset: AOM_LINUX_DYNAMIC
// by presence, then AOM_PRECOMPILED by presence.
func ApplyEnv(cfg Config, lookup LookupFunc) Config {
	if dir, ok := clean(lookup, EnvPrecompiled); ok {
		cfg.PrecompiledDir = dir
	}

	if mode, ok := clean(lookup, EnvLinkMode); ok && mode != "" {
		cfg.LinkMode = mode
	} else if _, ok := lookup(EnvLinuxDynamic); ok {
		cfg.LinkMode = "dynamic"
	} else if _, ok := lookup(EnvPrecompiled); ok {
		cfg.LinkMode = "precompiled"
	}

	if v, ok := clean(lookup, EnvSourceDir); ok && v != "" {
		cfg.SourceDir = v
	}
	if v, ok := clean(lookup, EnvBuildDir); ok && v != "" {
		cfg.BuildDir = v
	}
	if v, ok := clean(lookup, EnvOutDir); ok && v != "" {
		cfg.OutDir = v
	}
	if v, ok := clean(lookup, EnvCMakeArgs); ok && v != "" {
		cfg.CMakeArgs = append(cfg.CMakeArgs, strings.Fields(v)...)
	}
	if v, ok := clean(lookup, EnvJobs); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Jobs = n
		}
	}
	if v, ok := clean(lookup, EnvDebug); ok && v != "" {
		d, err := strconv.ParseBool(v)
		if err != nil {
			d = true
		}
		cfg.Debug = d
	}

	return cfg
}

// Variables lists the recognised environment variables with their
// current values
func Variables(lookup LookupFunc) []EnvVar {
	get := func(key string) string {
		v, _ := clean(lookup, key)
		return v
	}
	return []EnvVar{
		{EnvLinkMode, get(EnvLinkMode), "Link mode: source (default), dynamic/shared-library, precompiled"},
		{EnvLinuxDynamic, get(EnvLinuxDynamic), "If set, link the system libaom dynamically (found with pkg-config)"},
		{EnvPrecompiled, get(EnvPrecompiled), "Directory (or .tar/.tar.xz/.tar.zst bundle) with libaom.a and headers"},
		{EnvSourceDir, get(EnvSourceDir), "Vendored libaom source (default c/aom)"},
		{EnvBuildDir, get(EnvBuildDir), "Build and staging directory"},
		{EnvOutDir, get(EnvOutDir), "Output directory for generated Go files (default aom)"},
		{EnvCMakeArgs, get(EnvCMakeArgs), "Extra cmake configure arguments"},
		{EnvJobs, get(EnvJobs), "Parallel cmake build jobs"},
		{EnvDebug, get(EnvDebug), "Show additional debug information (e.g. AOM_DEBUG=1)"},
	}
}
