package driver

import (
	"fmt"
	"slices"

	"odpic-bindgen/internal/bindgen"
	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
	"odpic-bindgen/internal/match"
)

// suggestScore is the similarity a name needs to be offered as a likely
// rename.
const suggestScore = 0.75

// Check compares the catalog with the public header and reports every
// disagreement as a warning. Nothing is generated.
func Check(cfg Config) (*diagnostic.Diagnostics, error) {
	c, cls, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	opts := bindgen.DefaultOptions()
	opts.Headers = []string{cfg.Header}

	if cfg.ExtraHeader != "" {
		opts.HeaderContents = []bindgen.InlineHeader{{Name: "dpi_additional.h", Contents: cfg.ExtraHeader}}
	}

	h, err := bindgen.Parse(opts)
	if err != nil {
		return nil, err
	}

	diags := &diagnostic.Diagnostics{}

	checkFunctions(h, c, cls, diags)
	checkMembers(h, c, diags)

	return diags, nil
}

func checkFunctions(h *bindgen.Header, c *catalog.Catalog, cls *catalog.Classifier, diags *diagnostic.Diagnostics) {
	var undocumented []string

	for _, d := range h.Order {
		if d.Kind != bindgen.DeclFunction {
			continue
		}

		if _, ok := cls.Classify(d.Name); !ok {
			undocumented = append(undocumented, d.Name)
		}
	}

	var missing []string

	for _, name := range c.FunctionNames() {
		if _, ok := h.Functions[name]; !ok {
			missing = append(missing, name)
		}
	}

	for _, name := range undocumented {
		msg := suggest(fmt.Sprintf("function %s isn't listed", name), name, missing)
		diags.AddWarning(diagnostic.CodeUndocumentedFunction, msg, name)
	}

	for _, name := range missing {
		msg := suggest(fmt.Sprintf("function %s is documented but not declared", name), name, undocumented)
		diags.AddWarning(diagnostic.CodeMissingFunction, msg, name)
	}
}

// checkMembers compares the fields of documented structs and unions with
// the header declarations, then reports declared records the catalog lacks.
func checkMembers(h *bindgen.Header, c *catalog.Catalog, diags *diagnostic.Diagnostics) {
	for i := range c.DataTypes {
		dt := &c.DataTypes[i]
		if dt.Kind != catalog.DataKindStruct && dt.Kind != catalog.DataKindUnion {
			continue
		}

		rec, ok := h.Records[dt.Name]
		if !ok || rec.Opaque {
			diags.AddWarning(diagnostic.CodeMemberMismatch, fmt.Sprintf("%s %s is documented but not declared", dt.Kind, dt.Name), dt.Name)
			continue
		}

		var declared []string
		for _, f := range rec.Fields {
			declared = append(declared, f.Name)
		}

		var documented []string
		for _, m := range dt.Members {
			documented = append(documented, m.Name)
		}

		onlyDocumented := difference(documented, declared)
		onlyDeclared := difference(declared, documented)

		for _, name := range onlyDocumented {
			key := catalog.MemberKey(dt.Name, name)
			diags.AddWarning(diagnostic.CodeMemberMismatch, suggest(key+" is documented but not declared", name, onlyDeclared), key)
		}

		for _, name := range onlyDeclared {
			key := catalog.MemberKey(dt.Name, name)
			diags.AddWarning(diagnostic.CodeMemberMismatch, suggest(key+" is declared but not documented", name, onlyDocumented), key)
		}
	}

	for _, d := range h.Order {
		if d.Kind != bindgen.DeclRecord {
			continue
		}

		rec := h.Records[d.Name]
		if rec.Opaque {
			continue
		}

		if _, ok := c.DataType(d.Name); !ok {
			kind := catalog.DataKindStruct
			if rec.IsUnion {
				kind = catalog.DataKindUnion
			}

			diags.AddWarning(diagnostic.CodeMemberMismatch, fmt.Sprintf("%s %s is declared but not documented", kind, d.Name), d.Name)
		}
	}
}

// suggest appends the closest of candidates to msg, if any is close enough.
func suggest(msg, name string, candidates []string) string {
	if closest, ok := match.Closest(name, candidates, suggestScore); ok {
		return fmt.Sprintf("%s (closest: %s)", msg, closest)
	}

	return msg
}

// difference returns the elements of a missing from b, in order.
func difference(a, b []string) []string {
	var out []string

	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}

	return out
}
