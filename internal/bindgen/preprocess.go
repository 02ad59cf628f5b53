package bindgen

import (
	"fmt"
	"go/constant"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var definedRe = regexp.MustCompile(`\bdefined\s*(?:\(\s*(\w+)\s*\)|(\w+))`)
var identRe = regexp.MustCompile(`^[A-Za-z_]\w*`)

// macroDef is an object-like #define.
type macroDef struct {
	name string
	body string
}

// condFrame is one level of #if nesting.
type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
}

// preprocessor implements the subset of the C preprocessor needed to read
// library headers: comment removal, line continuations, quoted includes,
// conditional compilation and object-like macro capture. Macros are never
// expanded into declarations except for empty ones (export decorations).
type preprocessor struct {
	includeDirs []string
	readFile    func(string) ([]byte, error)

	macros   map[string]macroDef
	order    []string
	funcLike map[string]bool
	included map[string]bool

	out strings.Builder
}

func newPreprocessor(includeDirs []string) *preprocessor {
	return &preprocessor{
		includeDirs: includeDirs,
		readFile:    os.ReadFile,
		macros:      make(map[string]macroDef),
		funcLike:    make(map[string]bool),
		included:    make(map[string]bool),
	}
}

// includeFile preprocesses the header at path.
func (p *preprocessor) includeFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if p.included[abs] {
		return nil
	}

	p.included[abs] = true

	data, err := p.readFile(path)
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	return p.process(filepath.Dir(abs), filepath.Base(path), string(data))
}

// includeContents preprocesses inline header text. Quoted includes are
// resolved against the include directories only.
func (p *preprocessor) includeContents(name, contents string) error {
	return p.process("", name, contents)
}

func (p *preprocessor) process(dir, name, src string) error {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\\\n", "")
	src = stripComments(src)

	var stack []condFrame

	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	for lineno, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				p.out.WriteString(line)
				p.out.WriteByte('\n')
			}

			continue
		}

		directive, rest := splitDirective(trimmed[1:])
		where := fmt.Sprintf("%s:%d", name, lineno+1)

		switch directive {
		case "if", "ifdef", "ifndef":
			frame := condFrame{parentActive: active()}
			if frame.parentActive {
				ok, err := p.condition(directive, rest)
				if err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}

				frame.active = ok
				frame.taken = ok
			}

			stack = append(stack, frame)

		case "elif":
			if len(stack) == 0 {
				return fmt.Errorf("%s: #elif without #if", where)
			}

			top := &stack[len(stack)-1]
			top.active = false

			if top.parentActive && !top.taken {
				ok, err := p.condition("if", rest)
				if err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}

				top.active = ok
				top.taken = ok
			}

		case "else":
			if len(stack) == 0 {
				return fmt.Errorf("%s: #else without #if", where)
			}

			top := &stack[len(stack)-1]
			top.active = top.parentActive && !top.taken
			top.taken = true

		case "endif":
			if len(stack) == 0 {
				return fmt.Errorf("%s: #endif without #if", where)
			}

			stack = stack[:len(stack)-1]

		case "define":
			if active() {
				p.define(rest)
			}

		case "undef":
			if active() {
				delete(p.macros, strings.TrimSpace(rest))
			}

		case "include":
			if !active() {
				continue
			}

			if err := p.include(dir, rest); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}

		default:
			// #pragma, #error, #warning and #line carry no declarations
		}
	}

	if len(stack) != 0 {
		return fmt.Errorf("%s: unterminated conditional", name)
	}

	return nil
}

func (p *preprocessor) include(dir, spec string) error {
	spec = strings.TrimSpace(spec)

	// system headers provide the fixed-width types the generator knows
	if strings.HasPrefix(spec, "<") {
		return nil
	}

	if len(spec) < 2 || spec[0] != '"' || spec[len(spec)-1] != '"' {
		return fmt.Errorf("malformed #include %s", spec)
	}

	file := spec[1 : len(spec)-1]

	dirs := p.includeDirs
	if dir != "" {
		dirs = append([]string{dir}, dirs...)
	}

	for _, d := range dirs {
		candidate := filepath.Join(d, file)
		if _, err := os.Stat(candidate); err == nil {
			return p.includeFile(candidate)
		}
	}

	return fmt.Errorf("%s: file not found", file)
}

func (p *preprocessor) define(rest string) {
	rest = strings.TrimSpace(rest)

	name := identRe.FindString(rest)
	if name == "" {
		return
	}

	body := rest[len(name):]
	if strings.HasPrefix(body, "(") {
		p.funcLike[name] = true
		return
	}

	if _, ok := p.macros[name]; !ok {
		p.order = append(p.order, name)
	}

	p.macros[name] = macroDef{name: name, body: strings.TrimSpace(body)}
}

func (p *preprocessor) condition(directive, rest string) (bool, error) {
	rest = strings.TrimSpace(rest)

	switch directive {
	case "ifdef":
		return p.isDefined(rest), nil
	case "ifndef":
		return !p.isDefined(rest), nil
	}

	expr := definedRe.ReplaceAllStringFunc(rest, func(m string) string {
		sub := definedRe.FindStringSubmatch(m)

		name := sub[1]
		if name == "" {
			name = sub[2]
		}

		if p.isDefined(name) {
			return "1"
		}

		return "0"
	})

	// unknown identifiers evaluate to zero in #if expressions
	v, err := evalExpr(expr, func(name string) (constant.Value, bool) {
		if v, ok := p.value(name, nil); ok {
			return v, true
		}

		return constant.MakeInt64(0), true
	})
	if err != nil {
		return false, err
	}

	return truth(v), nil
}

func (p *preprocessor) isDefined(name string) bool {
	_, ok := p.macros[name]
	return ok || p.funcLike[name]
}

// value evaluates an object-like macro. seen guards against recursive
// definitions.
func (p *preprocessor) value(name string, seen map[string]bool) (constant.Value, bool) {
	def, ok := p.macros[name]
	if !ok || def.body == "" || seen[name] {
		return nil, false
	}

	if seen == nil {
		seen = make(map[string]bool)
	}

	seen[name] = true
	defer delete(seen, name)

	v, err := evalExpr(def.body, func(ref string) (constant.Value, bool) {
		return p.value(ref, seen)
	})
	if err != nil {
		return nil, false
	}

	return asInt(v), true
}

// emptyMacros returns the names of macros that expand to nothing, such as
// export or calling convention decorations.
func (p *preprocessor) emptyMacros() map[string]bool {
	empty := make(map[string]bool)

	for name, def := range p.macros {
		if def.body == "" {
			empty[name] = true
		}
	}

	return empty
}

func splitDirective(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	name := identRe.FindString(s)

	return name, s[len(name):]
}

// stripComments removes block and line comments outside of string and
// character literals. Block comments become a single space.
func stripComments(src string) string {
	var b strings.Builder

	b.Grow(len(src))

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}

				j++
			}

			if j >= len(src) {
				j = len(src) - 1
			}

			b.WriteString(src[i : j+1])
			i = j

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}

			if i < len(src) {
				b.WriteByte('\n')
			}

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return b.String()
			}

			// keep line structure so directives stay on their own lines
			b.WriteString(strings.Repeat("\n", strings.Count(src[i:i+2+end], "\n")))
			b.WriteByte(' ')
			i += end + 3

		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
