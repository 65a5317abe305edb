// pkg/bindgen/godefs.go
package bindgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/arc-language/aom-sys/pkg/runner"
)

// Godefs translates headers with `go tool cgo -godefs`. It scans the
// headers for type and constant names, writes a cgo input file that
// mentions each of them, and lets cgo resolve their layout for the host.
type Godefs struct {
	Runner runner.Runner
	Go     string // go command (default "go")
	Logger *log.Logger
}

// NewGodefs creates a cgo -godefs translator
func NewGodefs(r runner.Runner, logger *log.Logger) *Godefs {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Godefs{Runner: r, Go: "go", Logger: logger}
}

// Translate implements Translator
func (g *Godefs) Translate(ctx context.Context, req *Request) ([]byte, error) {
	header, err := filepath.Abs(req.Header)
	if err != nil {
		return nil, err
	}

	scan, err := ScanHeaders(header, req.IncludePaths, req.HeaderPrefix)
	if err != nil {
		return nil, err
	}
	g.Logger.Printf("Scanned %d headers: %d typedefs, %d structs, %d enums, %d defines",
		len(scan.Files), len(scan.Typedefs), len(scan.Structs), len(scan.Enums), len(scan.Defines))
	if scan.Empty() {
		return nil, fmt.Errorf("%w: nothing declared in %s", ErrEmptyDeclarations, header)
	}

	plan := planGodefs(req, header, scan)

	work, err := os.MkdirTemp("", "aom-sys-godefs-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(work)

	inputPath := filepath.Join(work, "types.go")
	if err := os.WriteFile(inputPath, plan.input, 0644); err != nil {
		return nil, fmt.Errorf("writing cgo input: %w", err)
	}
	// cgo only creates its default object directory itself
	objDir := filepath.Join(work, "_obj")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cgo object dir: %w", err)
	}

	args := []string{"tool", "cgo", "-godefs", "-objdir", objDir, "--"}
	for _, inc := range req.IncludePaths {
		args = append(args, "-I"+inc)
	}
	args = append(args, inputPath)

	res, err := g.Runner.Run(ctx, &runner.Command{
		Name: g.Go,
		Args: args,
		Dir:  work,
		Env:  []string{"CGO_ENABLED=1"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	return finish(res.Stdout, plan, runtime.GOARCH)
}

// godefsPlan is the cgo input for a scan plus what is needed to complete
// cgo's output
type godefsPlan struct {
	input  []byte
	opaque []string            // Go names of opaque tags, declared after translation
	fields map[string][]string // Go struct name -> C member names
	sizes  map[string]string   // Sizeof constant -> Go struct name
}

// GodefsInput renders the cgo input file for a scan
func GodefsInput(req *Request, header string, scan *Scan) []byte {
	return planGodefs(req, header, scan).input
}

func planGodefs(req *Request, header string, scan *Scan) *godefsPlan {
	plan := &godefsPlan{
		fields: make(map[string][]string),
		sizes:  make(map[string]string),
	}

	blocked := make(map[string]bool, len(req.BlockedTypes))
	for _, t := range req.BlockedTypes {
		blocked[t] = true
	}

	pkg := req.Package
	if pkg == "" {
		pkg = "aom"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "/*\n#include %q\n*/\nimport \"C\"\n\n", header)

	names := newNamer()
	if req.SizeTypeIsUint {
		names.reserve("Size_t")
	}

	// opaque tags have no layout; point every reference at a Go type
	// declared once cgo is done
	if len(scan.Opaque) > 0 {
		for _, o := range scan.Opaque {
			c := o.Tag
			if o.Typedef != "" {
				c = o.Typedef
			}
			name := names.name(c)
			plan.opaque = append(plan.opaque, name)
			fmt.Fprintf(&buf, "// +godefs map %s %s\n", o.CType(), name)
			if o.Typedef != "" {
				fmt.Fprintf(&buf, "// +godefs map %s %s\n", o.Typedef, name)
			}
		}
		buf.WriteString("\n")
	}

	if req.SizeTypeIsUint {
		buf.WriteString("type Size_t C.size_t\n\n")
	}

	var sizes [][2]string
	for _, td := range scan.Typedefs {
		if blocked[td.Name] {
			continue
		}
		name := names.name(td.Name)
		fmt.Fprintf(&buf, "type %s C.%s\n", name, td.Name)
		if fields, ok := scan.StructFields(td.Name); ok {
			plan.fields[name] = fields
			sizes = append(sizes, [2]string{name, td.Name})
		}
	}
	for _, st := range scan.Structs {
		if st.Typedef != "" || st.Tag == "" || blocked[st.Tag] {
			continue
		}
		name := names.name(st.Tag)
		fmt.Fprintf(&buf, "type %s C.struct_%s\n", name, st.Tag)
		plan.fields[name] = st.Fields
		sizes = append(sizes, [2]string{name, "struct_" + st.Tag})
	}
	for _, e := range scan.Enums {
		// enums reached through a typedef are declared above
		if e.CType == "" || e.CType == e.Name || blocked[e.Name] {
			continue
		}
		fmt.Fprintf(&buf, "type %s C.%s\n", names.name(e.Name), e.CType)
	}

	consts := make(map[string]bool)
	for _, e := range scan.Enums {
		if blocked[e.Name] {
			continue
		}
		var group []string
		for _, c := range e.Constants {
			if !consts[c] {
				consts[c] = true
				group = append(group, c)
			}
		}
		writeConstGroup(&buf, e.Name, group)
	}

	var defines []string
	for _, d := range scan.Defines {
		if !consts[d] {
			consts[d] = true
			defines = append(defines, d)
		}
	}
	writeConstGroup(&buf, "", defines)

	if len(sizes) > 0 {
		buf.WriteString("\nconst (\n")
		for _, sz := range sizes {
			c := "Sizeof" + sz[0]
			plan.sizes[c] = sz[0]
			fmt.Fprintf(&buf, "\t%s = C.sizeof_%s\n", c, sz[1])
		}
		buf.WriteString(")\n")
	}

	plan.input = buf.Bytes()
	return plan
}

func writeConstGroup(buf *bytes.Buffer, name string, consts []string) {
	if len(consts) == 0 {
		return
	}
	buf.WriteString("\n")
	if name != "" {
		fmt.Fprintf(buf, "// %s\n", name)
	}
	buf.WriteString("const (\n")
	for _, c := range consts {
		fmt.Fprintf(buf, "\t%s = C.%s\n", c, c)
	}
	buf.WriteString(")\n")
}

// namer maps C type names to exported Go names without collisions
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (n *namer) reserve(name string) {
	n.used[name] = true
}

func (n *namer) name(c string) string {
	for _, candidate := range []string{GoName(c), exported(camel(c))} {
		if candidate != "" && !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", GoName(c), i)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}

// GoName derives an exported Go name from a libaom C type name:
// aom_codec_ctx_t -> CodecCtx, aome_enc_control_id -> EncControlId.
func GoName(c string) string {
	s := strings.TrimSuffix(c, "_t")
	lower := strings.ToLower(s)
	for _, prefix := range []string{"aom_", "aome_", "aomd_", "av1e_", "av1d_"} {
		if strings.HasPrefix(lower, prefix) && len(s) > len(prefix) {
			s = s[len(prefix):]
			break
		}
	}
	return exported(camel(s))
}

func camel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func exported(s string) string {
	if s == "" {
		return ""
	}
	if r := []rune(s)[0]; !unicode.IsUpper(r) {
		return "T" + s
	}
	return s
}
