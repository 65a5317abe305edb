// pkg/bindgen/scan.go
package bindgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Enum is one C enumeration
type Enum struct {
	CType     string   // cgo spelling of the type, e.g. "aom_codec_err_t" or "enum_aome_enc_control_id"
	Name      string   // C name: typedef name or tag
	Constants []string // enumerator names in declaration order
}

// Typedef is one C typedef
type Typedef struct {
	Name string // C name, e.g. "aom_codec_ctx_t"
	Enum bool   // typedef of an enum
}

// Struct is one C struct with a body
type Struct struct {
	Tag     string   // struct tag, empty for an anonymous struct
	Typedef string   // typedef name, empty when only the tag is declared
	Fields  []string // member names in declaration order, bit-fields left out
}

// Opaque is a struct or union tag that has no body in the scanned
// headers; it is only ever used through pointers
type Opaque struct {
	Kind    string // "struct" or "union"
	Tag     string
	Typedef string // typedef naming the tag, if any
}

// CType returns the cgo spelling of the tag, e.g. "struct_aom_codec_iface"
func (o Opaque) CType() string {
	return o.Kind + "_" + o.Tag
}

// Scan is what the header scanner found in the library headers
type Scan struct {
	Files    []string // headers read, in include order
	Typedefs []Typedef
	Enums    []Enum
	Defines  []string // object-like macros with integer values
	Structs  []Struct
	Opaque   []Opaque
}

// Empty reports whether the scan found nothing to declare
func (s *Scan) Empty() bool {
	return len(s.Typedefs) == 0 && len(s.Enums) == 0 && len(s.Defines) == 0 &&
		len(s.Structs) == 0 && len(s.Opaque) == 0
}

// StructFields returns the members of the struct behind a typedef
func (s *Scan) StructFields(typedef string) ([]string, bool) {
	for _, st := range s.Structs {
		if st.Typedef == typedef {
			return st.Fields, true
		}
	}
	return nil, false
}

// Scanner walks the entry header and every library header it includes
type Scanner struct {
	IncludePaths []string
	Prefix       string // <prefix...> includes are library headers; others are system headers

	seen map[string]bool
	scan *Scan
	// struct and union tags with a body somewhere
	bodies  map[string]bool
	opaque  []opaqueTypedef
	refs    []tagRef
	names   map[string]bool
	defines map[string]bool
}

type opaqueTypedef struct {
	name string
	tagRef
}

type tagRef struct {
	kind string
	tag  string
}

var (
	includeRe  = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*([<"])([^>"]+)[>"]`)
	defineRe   = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*define[ \t]+([A-Za-z_]\w*)[ \t]+(.+?)[ \t]*$`)
	intValueRe = regexp.MustCompile(`^[\s()~+\-|<>]*(0[xX][0-9a-fA-F]+|\d+)[uUlL]*(?:[\s()~+\-|<>]+(?:0[xX][0-9a-fA-F]+|\d+)[uUlL]*)*[\s)]*$`)
	enumRe     = regexp.MustCompile(`\benum\s+(\w+)?\s*\{([^{}]*)\}\s*(\w+)?`)
	bodyRe     = regexp.MustCompile(`\b(struct|union)\b\s*(\w*)\s*\{`)
	tagRefRe   = regexp.MustCompile(`\b(struct|union)\s+(\w+)`)
	funcPtrRe  = regexp.MustCompile(`\(\s*\*\s*(\w+)\s*\)\s*\(`)
	opaqueRe   = regexp.MustCompile(`^typedef\s+(struct|union)\s+(\w+)\s+(\w+)$`)
	lastIdent  = regexp.MustCompile(`(\w+)\s*(?:\[[^\]]*\]\s*)*$`)
	enumItemRe = regexp.MustCompile(`^\s*([A-Za-z_]\w*)`)
	typedefRe  = regexp.MustCompile(`\btypedef\b`)
)

// ScanHeaders scans entry and the library headers it includes
func ScanHeaders(entry string, includePaths []string, prefix string) (*Scan, error) {
	s := &Scanner{IncludePaths: includePaths, Prefix: prefix}
	return s.Scan(entry)
}

// Scan reads entry and follows library includes depth first
func (s *Scanner) Scan(entry string) (*Scan, error) {
	s.seen = make(map[string]bool)
	s.bodies = make(map[string]bool)
	s.names = make(map[string]bool)
	s.defines = make(map[string]bool)
	s.opaque = nil
	s.refs = nil
	s.scan = &Scan{}

	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, err
	}
	if err := s.file(abs); err != nil {
		return nil, err
	}

	for _, o := range s.opaque {
		if s.bodies[o.tag] {
			s.addTypedef(Typedef{Name: o.name})
			s.nameStruct(o.tag, o.name)
			continue
		}
		s.addOpaque(Opaque{Kind: o.kind, Tag: o.tag, Typedef: o.name})
	}
	for _, r := range s.refs {
		if !s.bodies[r.tag] {
			s.addOpaque(Opaque{Kind: r.kind, Tag: r.tag})
		}
	}

	return s.scan, nil
}

func (s *Scanner) file(path string) error {
	if s.seen[path] {
		return nil
	}
	s.seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrTranslation, path, err)
	}
	s.scan.Files = append(s.scan.Files, path)

	text := stripComments(joinContinuations(string(data)))

	for _, m := range includeRe.FindAllStringSubmatch(text, -1) {
		next, ok, err := s.resolve(filepath.Dir(path), m[1] == "\"", m[2])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if ok {
			if err := s.file(next); err != nil {
				return err
			}
		}
	}

	for _, m := range defineRe.FindAllStringSubmatch(text, -1) {
		if intValueRe.MatchString(m[2]) && !s.defines[m[1]] {
			s.defines[m[1]] = true
			s.scan.Defines = append(s.scan.Defines, m[1])
		}
	}

	code := dropDirectives(text)

	for _, a := range aggregates(code) {
		if a.Tag != "" {
			s.bodies[a.Tag] = true
		}
		if a.union || (a.Tag == "" && a.Typedef == "") {
			continue
		}
		s.scan.Structs = append(s.scan.Structs, a.Struct)
	}
	for _, m := range tagRefRe.FindAllStringSubmatch(code, -1) {
		s.refs = append(s.refs, tagRef{kind: m[1], tag: m[2]})
	}

	for _, m := range enumRe.FindAllStringSubmatchIndex(code, -1) {
		tag := submatch(code, m, 1)
		body := submatch(code, m, 2)
		name := submatch(code, m, 3)

		e := Enum{Name: name, CType: name}
		if name == "" || !precededByTypedef(code, m[0]) {
			if tag == "" {
				e.Name, e.CType = "", ""
			} else {
				e.Name, e.CType = tag, "enum_"+tag
			}
		}
		for _, item := range strings.Split(body, ",") {
			if im := enumItemRe.FindStringSubmatch(item); im != nil {
				e.Constants = append(e.Constants, im[1])
			}
		}
		s.scan.Enums = append(s.scan.Enums, e)
	}

	for _, stmt := range typedefStatements(code) {
		if m := funcPtrRe.FindStringSubmatch(stmt); m != nil {
			s.addTypedef(Typedef{Name: m[1]})
			continue
		}
		if m := opaqueRe.FindStringSubmatch(stmt); m != nil {
			s.opaque = append(s.opaque, opaqueTypedef{name: m[3], tagRef: tagRef{kind: m[1], tag: m[2]}})
			continue
		}
		m := lastIdent.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		isEnum := strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(stmt, "typedef")), "enum")
		s.addTypedef(Typedef{Name: m[1], Enum: isEnum})
	}

	return nil
}

func (s *Scanner) addTypedef(td Typedef) {
	if s.names[td.Name] {
		return
	}
	s.names[td.Name] = true
	s.scan.Typedefs = append(s.scan.Typedefs, td)
}

func (s *Scanner) addOpaque(o Opaque) {
	for _, have := range s.scan.Opaque {
		if have.Kind == o.Kind && have.Tag == o.Tag {
			return
		}
	}
	s.scan.Opaque = append(s.scan.Opaque, o)
}

// nameStruct records a typedef declared apart from the tagged body
func (s *Scanner) nameStruct(tag, name string) {
	for i, st := range s.scan.Structs {
		if st.Tag != tag {
			continue
		}
		switch st.Typedef {
		case name:
		case "":
			s.scan.Structs[i].Typedef = name
		default:
			s.scan.Structs = append(s.scan.Structs, Struct{Tag: tag, Typedef: name, Fields: st.Fields})
		}
		return
	}
}

// resolve finds an included header. Quoted includes are looked up next to
// the including file first. Anything outside the library prefix that
// cannot be found is a system header and is skipped; a missing library
// header is an error.
func (s *Scanner) resolve(dir string, quoted bool, name string) (string, bool, error) {
	library := s.Prefix != "" && strings.HasPrefix(name, s.Prefix)
	if !quoted && !library {
		return "", false, nil
	}

	var candidates []string
	if quoted {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	for _, inc := range s.IncludePaths {
		candidates = append(candidates, filepath.Join(inc, name))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return "", false, err
			}
			return abs, true, nil
		}
	}

	if library {
		return "", false, fmt.Errorf("%w: cannot resolve #include %q in %v", ErrTranslation, name, s.IncludePaths)
	}
	return "", false, nil
}

func submatch(s string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

func precededByTypedef(code string, at int) bool {
	return strings.HasSuffix(strings.TrimSpace(code[:at]), "typedef")
}

// typedefStatements returns each typedef up to its terminating semicolon,
// with whitespace collapsed and the semicolon removed
func typedefStatements(code string) []string {
	var out []string
	for _, loc := range typedefRe.FindAllStringIndex(code, -1) {
		depth := 0
		end := -1
	scan:
		for i := loc[0]; i < len(code); i++ {
			switch code[i] {
			case '{', '(':
				depth++
			case '}', ')':
				depth--
			case ';':
				if depth == 0 {
					end = i
					break scan
				}
			}
		}
		if end < 0 {
			continue
		}
		stmt := code[loc[0]:end]
		// drop struct and enum bodies so the declarator is what remains
		stmt = stripBraces(stmt)
		out = append(out, strings.Join(strings.Fields(stmt), " "))
	}
	return out
}

type aggregate struct {
	Struct
	union bool
}

// aggregates finds every struct and union body in code, nested ones
// included
func aggregates(code string) []aggregate {
	var out []aggregate
	for _, m := range bodyRe.FindAllStringSubmatchIndex(code, -1) {
		open := m[1] - 1
		end := matchBrace(code, open)
		if end < 0 {
			continue
		}
		a := aggregate{union: submatch(code, m, 1) == "union"}
		a.Tag = submatch(code, m, 2)
		if precededByTypedef(code, m[0]) {
			rest := code[end+1:]
			if semi := strings.IndexByte(rest, ';'); semi >= 0 {
				if d := lastIdent.FindStringSubmatch(rest[:semi]); d != nil {
					a.Typedef = d[1]
				}
			}
		}
		a.Fields = memberNames(code[open+1 : end])
		out = append(out, a)
	}
	return out
}

// memberNames lists the members of a struct body the way cgo lays them
// out: bit-fields are skipped, an anonymous union takes the name of its
// first member and an anonymous struct is numbered anonN.
func memberNames(body string) []string {
	var names []string
	anon := 0
	for _, decl := range splitTop(body, ';') {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		open := strings.IndexByte(decl, '{')
		if open < 0 {
			names = append(names, declarators(decl)...)
			continue
		}
		end := matchBrace(decl, open)
		if end < 0 {
			continue
		}
		if rest := strings.TrimSpace(decl[end+1:]); rest != "" {
			names = append(names, declarators(rest)...)
			continue
		}
		if strings.HasPrefix(decl, "union") {
			if inner := memberNames(decl[open+1 : end]); len(inner) > 0 {
				names = append(names, inner[0])
			}
			continue
		}
		names = append(names, fmt.Sprintf("anon%d", anon))
		anon++
	}
	return names
}

func declarators(decl string) []string {
	if m := funcPtrRe.FindStringSubmatch(decl); m != nil {
		return []string{m[1]}
	}
	var names []string
	for _, d := range splitTop(decl, ',') {
		if strings.Contains(d, ":") {
			continue
		}
		if m := lastIdent.FindStringSubmatch(strings.TrimSpace(d)); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// splitTop splits s at sep outside of braces, parentheses and brackets
func splitTop(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// matchBrace returns the index of the brace closing the one at open
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripBraces(s string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '{':
			if depth == 0 {
				b.WriteByte(' ')
			}
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				b.WriteByte(' ')
			}
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func joinContinuations(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\\\n", " ")
}

// stripComments removes C and C++ comments, leaving string literals alone
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"' || s[i] == '\'':
			q := s[i]
			b.WriteByte(q)
			for i++; i < len(s) && s[i] != q && s[i] != '\n'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					b.WriteByte(s[i])
					i++
				}
				b.WriteByte(s[i])
			}
			if i < len(s) {
				b.WriteByte(s[i])
			}
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			// keep line structure for the line-anchored regexps
			b.WriteString(strings.Repeat("\n", strings.Count(s[i:i+2+end], "\n")))
			b.WriteByte(' ')
			i += end + 3
		case strings.HasPrefix(s[i:], "//"):
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// dropDirectives removes preprocessor lines
func dropDirectives(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
