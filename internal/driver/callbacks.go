package driver

import (
	"fmt"
	"regexp"
	"slices"

	"odpic-bindgen/internal/bindgen"
	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
)

// successMacro is the status code every function returns on success. It is
// compared against C int results, so it is always typed int32.
const successMacro = "DPI_SUCCESS"

// docCallbacks reports undocumented functions and types integer macros
// from the catalog while the bindings are generated.
type docCallbacks struct {
	catalog    *catalog.Catalog
	classifier *catalog.Classifier
	diags      *diagnostic.Diagnostics
}

var _ bindgen.ParseCallbacks = (*docCallbacks)(nil)

func newDocCallbacks(c *catalog.Catalog, cls *catalog.Classifier, diags *diagnostic.Diagnostics) *docCallbacks {
	return &docCallbacks{catalog: c, classifier: cls, diags: diags}
}

// ItemName never renames anything.
func (cb *docCallbacks) ItemName(item bindgen.ItemInfo) string {
	if item.Kind != bindgen.ItemFunction {
		return ""
	}

	if _, ok := cb.classifier.Classify(item.Name); !ok {
		cb.diags.AddWarning(
			diagnostic.CodeUndocumentedFunction,
			fmt.Sprintf("function %s isn't listed", item.Name),
			item.Name,
		)
	}

	return ""
}

func (cb *docCallbacks) IntMacro(name string, _ int64) (bindgen.IntKind, bool) {
	if name == successMacro {
		return bindgen.IntI32, true
	}

	u, ok := cb.catalog.FindUnderlyingType(name)
	if !ok {
		return 0, false
	}

	switch u {
	case catalog.UnderlyingUint8:
		return bindgen.IntU8, true
	case catalog.UnderlyingUint16:
		return bindgen.IntU16, true
	case catalog.UnderlyingUint32:
		return bindgen.IntU32, true
	default:
		return 0, false
	}
}

// FunctionFilters partitions the classified functions: allow holds the
// names whose classification is one of include, block holds the rest.
// Both lists are sorted.
func FunctionFilters(cls *catalog.Classifier, include ...catalog.RoundTrips) (allow, block []string) {
	for _, name := range cls.Names() {
		r, _ := cls.Classify(name)

		if slices.Contains(include, r) {
			allow = append(allow, name)
		} else {
			block = append(block, name)
		}
	}

	return allow, block
}

// exactPatterns turns names into anchored-safe patterns.
func exactPatterns(names []string) []string {
	patterns := make([]string, len(names))
	for i, name := range names {
		patterns[i] = regexp.QuoteMeta(name)
	}

	return patterns
}
