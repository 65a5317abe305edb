// pkg/link/cgo.go
package link

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"
)

// CgoFile is the fixed name of the generated cgo flags file
const CgoFile = "zaom_cgo.go"

var cgoTemplate = template.Must(template.New("cgo").Parse(`// Code generated by aom-sys; DO NOT EDIT.

package {{.Package}}

/*
{{- if .CFlags}}
#cgo CFLAGS: {{.CFlags}}
{{- end}}
#cgo LDFLAGS: {{.LDFlags}}
{{- if .Header}}

#include "{{.Header}}"
{{- end}}
*/
import "C"
{{- if .Header}}

// CodecVersionStr returns the version string of the linked libaom
func CodecVersionStr() string {
	return C.GoString(C.aom_codec_version_str())
}

// CodecVersion returns the linked libaom version as
// major<<16 | minor<<8 | patch
func CodecVersion() int {
	return int(C.aom_codec_version())
}
{{- end}}
`))

// Cgo renders the cgo flags file for package pkg. When header is set, the
// preamble includes it so the libaom functions are callable from pkg.
func Cgo(pkg string, set Set, header string, includes []string, goos string) []byte {
	var cflags []string
	var include string
	if header != "" {
		include = filepath.Base(header)
		cflags = append(cflags, "-I"+filepath.Dir(header))
	}
	for _, dir := range includes {
		cflags = append(cflags, "-I"+dir)
	}

	var buf bytes.Buffer
	// The template only fails on a write error, which bytes.Buffer never returns.
	_ = cgoTemplate.Execute(&buf, struct {
		Package string
		CFlags  string
		LDFlags string
		Header  string
	}{
		Package: pkg,
		Header:  include,
		CFlags:  strings.Join(cflags, " "),
		LDFlags: strings.Join(set.LDFlags(goos), " "),
	})
	return buf.Bytes()
}
