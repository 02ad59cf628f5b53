package bindgen

import (
	"fmt"
	"regexp"
)

// matcher matches C names against anchored patterns.
type matcher []*regexp.Regexp

func compileMatcher(patterns []string) (matcher, error) {
	m := make(matcher, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}

		m = append(m, re)
	}

	return m, nil
}

func (m matcher) match(name string) bool {
	for _, re := range m {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

// selection is the subset of a Header chosen for emission.
type selection struct {
	decls   []Decl
	chosen  map[Decl]bool
	skipped []string
}

func (s *selection) has(kind DeclKind, name string) bool {
	return s.chosen[Decl{Kind: kind, Name: name}]
}

// selectDecls applies the allow and block lists to h.
func selectDecls(h *Header, opts Options) (*selection, error) {
	allowTypes, err := compileMatcher(opts.AllowTypes)
	if err != nil {
		return nil, err
	}

	allowFuncs, err := compileMatcher(opts.AllowFunctions)
	if err != nil {
		return nil, err
	}

	allowVars, err := compileMatcher(opts.AllowVars)
	if err != nil {
		return nil, err
	}

	blockFuncs, err := compileMatcher(opts.BlockFunctions)
	if err != nil {
		return nil, err
	}

	blockTypes, err := compileMatcher(opts.BlockTypes)
	if err != nil {
		return nil, err
	}

	everything := len(allowTypes) == 0 && len(allowFuncs) == 0 && len(allowVars) == 0
	sel := &selection{chosen: make(map[Decl]bool)}

	for _, d := range h.Order {
		switch d.Kind {
		case DeclFunction:
			if (everything || allowFuncs.match(d.Name)) && !blockFuncs.match(d.Name) {
				sel.chosen[d] = true
			}
		case DeclMacro:
			if everything || allowVars.match(d.Name) {
				sel.chosen[d] = true
			}
		default:
			if (everything || allowTypes.match(d.Name)) && !blockTypes.match(d.Name) {
				sel.chosen[d] = true
			}
		}
	}

	if opts.AllowRecursively {
		pullReferenced(h, sel, blockTypes)
	}

	for _, d := range h.Order {
		if !sel.chosen[d] {
			continue
		}

		if d.Kind == DeclFunction && h.Functions[d.Name].Variadic {
			sel.skipped = append(sel.skipped, fmt.Sprintf("function %s: variadic functions are not supported", d.Name))
			continue
		}

		if d.Kind == DeclMacro && h.Macros[d.Name].Value == nil {
			sel.skipped = append(sel.skipped, fmt.Sprintf("macro %s: unsupported expression %q", d.Name, h.Macros[d.Name].Body))
			continue
		}

		sel.decls = append(sel.decls, d)
	}

	return sel, nil
}

// pullReferenced adds every type reachable from the chosen declarations.
func pullReferenced(h *Header, sel *selection, blocked matcher) {
	var queue []string

	for d := range sel.chosen {
		queue = append(queue, declRefs(h, d)...)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if blocked.match(name) {
			continue
		}

		d, ok := typeDecl(h, name)
		if !ok || sel.chosen[d] {
			continue
		}

		sel.chosen[d] = true
		queue = append(queue, declRefs(h, d)...)
	}
}

func typeDecl(h *Header, name string) (Decl, bool) {
	if _, ok := h.Records[name]; ok {
		return Decl{Kind: DeclRecord, Name: name}, true
	}

	if _, ok := h.TypeDefs[name]; ok {
		return Decl{Kind: DeclTypeDef, Name: name}, true
	}

	if _, ok := h.Enums[name]; ok {
		return Decl{Kind: DeclEnum, Name: name}, true
	}

	return Decl{}, false
}

func declRefs(h *Header, d Decl) []string {
	var out []string

	switch d.Kind {
	case DeclFunction:
		fn := h.Functions[d.Name]
		out = append(out, refs(fn.Return)...)

		for _, p := range fn.Params {
			out = append(out, refs(p.Type)...)
		}

	case DeclRecord:
		for _, f := range h.Records[d.Name].Fields {
			out = append(out, refs(f.Type)...)
		}

	case DeclTypeDef:
		out = refs(h.TypeDefs[d.Name].Target)
	}

	return out
}
