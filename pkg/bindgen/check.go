// pkg/bindgen/check.go
package bindgen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/constant"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strings"
)

// finish declares the opaque types and restores the C member names that
// cgo -godefs shortens. Output that does not type-check, or whose struct
// sizes differ from C's, is an error.
func finish(out []byte, plan *godefsPlan, goarch string) ([]byte, error) {
	src := append([]byte(nil), out...)
	if len(plan.opaque) > 0 {
		src = append(src, "\n// Opaque C types, used only through pointers\n"...)
		for _, name := range plan.opaque {
			src = append(src, fmt.Sprintf("type %s struct{}\n", name)...)
		}
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "godefs.go", src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing cgo output: %v", ErrTranslation, err)
	}

	if err := renameFields(file, plan.fields); err != nil {
		return nil, err
	}
	if err := checkLayout(fset, file, plan.sizes, goarch); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("%w: formatting: %v", ErrTranslation, err)
	}
	return buf.Bytes(), nil
}

// renameFields gives each struct field the exported form of its C member
// name. cgo drops padding into fields named _ or Pad_cgo_N; those are
// skipped. A struct whose field count does not match its C members lost
// a member in translation.
func renameFields(file *ast.File, fields map[string][]string) error {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			members, ok := fields[ts.Name.Name]
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			var idents []*ast.Ident
			for _, f := range st.Fields.List {
				for _, n := range f.Names {
					if !isPadding(n.Name) {
						idents = append(idents, n)
					}
				}
			}
			if len(idents) != len(members) {
				return fmt.Errorf("%w: %s has %d fields for %d C members (%s)",
					ErrTranslation, ts.Name.Name, len(idents), len(members), strings.Join(members, ", "))
			}

			used := make(map[string]bool, len(members))
			for i, n := range idents {
				n.Name = fieldName(members[i], used)
			}
		}
	}
	return nil
}

func isPadding(name string) bool {
	return name == "_" || strings.HasPrefix(name, "Pad_cgo")
}

// fieldName exports a C member name: user_priv -> UserPriv
func fieldName(c string, used map[string]bool) string {
	name := exported(camel(c))
	if name == "" {
		name = "Field"
	}
	for used[name] {
		name += "_"
	}
	used[name] = true
	return name
}

// checkLayout type-checks the declarations and compares the size of each
// struct with the SizeofX constant cgo resolved from C
func checkLayout(fset *token.FileSet, file *ast.File, sizes map[string]string, goarch string) error {
	sz := types.SizesFor("gc", goarch)
	conf := types.Config{Sizes: sz}
	pkg, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, nil)
	if err != nil {
		return fmt.Errorf("%w: generated declarations do not type-check: %v", ErrTranslation, err)
	}
	if sz == nil {
		return nil
	}

	consts := make([]string, 0, len(sizes))
	for c := range sizes {
		consts = append(consts, c)
	}
	sort.Strings(consts)

	var mismatched []string
	for _, c := range consts {
		obj, ok := pkg.Scope().Lookup(c).(*types.Const)
		if !ok {
			continue
		}
		tn, ok := pkg.Scope().Lookup(sizes[c]).(*types.TypeName)
		if !ok {
			continue
		}
		want, exact := constant.Int64Val(obj.Val())
		if !exact {
			continue
		}
		if got := sz.Sizeof(tn.Type()); got != want {
			mismatched = append(mismatched, fmt.Sprintf("%s is %d bytes in Go, %d in C", tn.Name(), got, want))
		}
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%w: struct layout differs: %s", ErrTranslation, strings.Join(mismatched, "; "))
	}
	return nil
}
