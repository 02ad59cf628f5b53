// Package annotate injects catalog descriptions into generated Go source.
//
// The generated file is processed line by line. A top level const, func or
// type line is looked up by its identifier; while a struct is open, its
// exported field lines are looked up as "Struct::field". Unions are rendered
// as storage plus one accessor method per member, so an accessor of the open
// struct is looked up as "Union::member" too. Go identifiers are the C names
// with the first letter upper-cased, so a lookup tries the identifier as
// written and then with its first letter lower-cased.
package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
)

// ErrEncoding is returned for source that is not valid UTF-8.
var ErrEncoding = errors.New("generated source is not valid UTF-8")

var (
	introducerRe = regexp.MustCompile(`^(\s*)(const|func|type) ([A-Z]\w*)( struct\b)?`)
	fieldRe      = regexp.MustCompile(`^(\s+)([A-Z]\w*)\s`)
	accessorRe   = regexp.MustCompile(`^(\s*)func \(\w+ \*([A-Z]\w*)\) ([A-Z]\w*)\(\)`)
)

// Annotator adds documentation comments to generated declarations.
type Annotator struct {
	catalog *catalog.Catalog
	diags   *diagnostic.Diagnostics

	// structName is the catalog name of the struct or union being declared.
	structName string
}

// New creates an Annotator reading descriptions from c. Lookup failures are
// reported to diags.
func New(c *catalog.Catalog, diags *diagnostic.Diagnostics) *Annotator {
	return &Annotator{catalog: c, diags: diags}
}

// Annotate returns src with a comment block before every declaration that
// has a non-empty description. Lines are otherwise copied unchanged.
func (a *Annotator) Annotate(src []byte) ([]byte, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: invalid byte sequence", ErrEncoding)
	}

	a.structName = ""

	var out bytes.Buffer

	out.Grow(len(src) + len(src)/2)

	prevBlank := false

	for _, line := range strings.SplitAfter(string(src), "\n") {
		if line == "" {
			continue
		}

		text := strings.TrimSuffix(line, "\n")

		if indent, key, ok := a.match(text); ok {
			if desc, ok := a.describe(key); ok {
				if !prevBlank {
					out.WriteByte('\n')
				}

				writeComment(&out, indent, desc)
			}
		}

		out.WriteString(line)
		prevBlank = strings.TrimSpace(text) == ""
	}

	return out.Bytes(), nil
}

// match recognizes declaration lines and returns their indentation and
// catalog key.
func (a *Annotator) match(line string) (string, string, bool) {
	if a.structName != "" {
		if m := accessorRe.FindStringSubmatch(line); m != nil && a.resolve(m[2]) == a.structName {
			return m[1], a.memberKey(m[3]), true
		}
	}

	if m := introducerRe.FindStringSubmatch(line); m != nil {
		name := a.resolve(m[3])

		a.structName = ""
		if m[4] != "" {
			a.structName = name
		}

		return m[1], name, true
	}

	if a.structName == "" {
		return "", "", false
	}

	m := fieldRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}

	return m[1], a.memberKey(m[2]), true
}

// memberKey is the catalog key of a member of the open struct.
func (a *Annotator) memberKey(ident string) string {
	if key := catalog.MemberKey(a.structName, ident); a.known(key) {
		return key
	}

	if key := catalog.MemberKey(a.structName, lowerFirst(ident)); a.known(key) {
		return key
	}

	return catalog.MemberKey(a.structName, cName(ident))
}

// resolve maps a Go identifier to its catalog name. Unknown identifiers
// come back in their likely C spelling so warnings can be searched for.
func (a *Annotator) resolve(ident string) string {
	if a.known(ident) {
		return ident
	}

	if lowered := lowerFirst(ident); a.known(lowered) {
		return lowered
	}

	return cName(ident)
}

func (a *Annotator) known(key string) bool {
	_, ok := a.catalog.FindDesc(key)
	return ok
}

// describe fetches a non-empty description, reporting what is missing.
func (a *Annotator) describe(key string) (string, bool) {
	desc, ok := a.catalog.FindDesc(key)
	if !ok {
		a.diags.AddWarning(diagnostic.CodeMissingDescription, key+" has no description", key)
		return "", false
	}

	if strings.TrimSpace(desc) == "" {
		a.diags.AddWarning(diagnostic.CodeEmptyDescription, key+" has an empty description", key)
		return "", false
	}

	return desc, true
}

func writeComment(out *bytes.Buffer, indent, desc string) {
	for _, line := range strings.Split(strings.TrimRight(desc, "\n"), "\n") {
		line = strings.TrimRight(line, " \t")

		out.WriteString(indent)

		if line == "" {
			out.WriteString("//\n")
			continue
		}

		out.WriteString("// ")
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

// cName guesses the C spelling of an exported identifier: names whose
// second rune isn't lower-case, like DPI_SUCCESS, were upper-case already.
func cName(ident string) string {
	_, size := utf8.DecodeRuneInString(ident)

	second, _ := utf8.DecodeRuneInString(ident[size:])
	if second == utf8.RuneError || !unicode.IsLower(second) {
		return ident
	}

	return lowerFirst(ident)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}
