package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrParse is wrapped by every error caused by a document that does not
// conform to the catalog schema.
var ErrParse = errors.New("malformed catalog")

// LoadFile loads, parses and indexes the catalog at the given path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Parse parses YAML data into an indexed Catalog.
func Parse(data []byte) (*Catalog, error) {
	var docs []yamlDataType

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&docs)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: document is empty", ErrParse)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if err := markParams(data, docs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	types := make([]DataTypeInfo, 0, len(docs))

	for i := range docs {
		dt, err := convertDataType(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("%w: data type #%d: %w", ErrParse, i+1, err)
		}

		types = append(types, dt)
	}

	return New(types)
}

func convertDataType(y *yamlDataType) (DataTypeInfo, error) {
	if y.Name == nil || *y.Name == "" {
		return DataTypeInfo{}, errors.New("missing name")
	}

	name := *y.Name

	if y.Kind == nil {
		return DataTypeInfo{}, fmt.Errorf("%s: missing kind", name)
	}

	if y.Desc == nil {
		return DataTypeInfo{}, fmt.Errorf("%s: missing desc", name)
	}

	dt := DataTypeInfo{
		Name:           name,
		Kind:           *y.Kind,
		Desc:           *y.Desc,
		UnderlyingType: y.UnderlyingType,
		Hints:          y.Hints,
	}

	for i := range y.Members {
		m, err := convertMember(&y.Members[i])
		if err != nil {
			return DataTypeInfo{}, fmt.Errorf("%s: member #%d: %w", name, i+1, err)
		}

		dt.Members = append(dt.Members, m)
	}

	for i := range y.Functions {
		f, err := convertFunction(&y.Functions[i])
		if err != nil {
			return DataTypeInfo{}, fmt.Errorf("%s: function #%d: %w", name, i+1, err)
		}

		dt.Functions = append(dt.Functions, f)
	}

	return dt, nil
}

func convertMember(y *yamlMember) (MemberInfo, error) {
	if y.Name == nil || *y.Name == "" {
		return MemberInfo{}, errors.New("missing name")
	}

	if y.Desc == nil {
		return MemberInfo{}, fmt.Errorf("%s: missing desc", *y.Name)
	}

	return MemberInfo{
		Name:  *y.Name,
		Desc:  *y.Desc,
		CType: y.Type,
		Mode:  y.Mode,
		Hints: y.Hints,
	}, nil
}

func convertFunction(y *yamlFunction) (FunctionInfo, error) {
	if y.Name == nil || *y.Name == "" {
		return FunctionInfo{}, errors.New("missing name")
	}

	name := *y.Name

	switch {
	case y.Desc == nil:
		return FunctionInfo{}, fmt.Errorf("%s: missing desc", name)
	case y.RoundTrips == nil:
		return FunctionInfo{}, fmt.Errorf("%s: missing round_trips", name)
	case y.Return == nil:
		return FunctionInfo{}, fmt.Errorf("%s: missing return", name)
	case !y.hasParams:
		return FunctionInfo{}, fmt.Errorf("%s: missing params", name)
	}

	fn := FunctionInfo{
		Name:       name,
		Desc:       *y.Desc,
		RoundTrips: *y.RoundTrips,
		ReturnType: *y.Return,
	}

	for i := range y.Params {
		p, err := convertMember(&y.Params[i])
		if err != nil {
			return FunctionInfo{}, fmt.Errorf("%s: param #%d: %w", name, i+1, err)
		}

		fn.Params = append(fn.Params, p)
	}

	return fn, nil
}

// markParams records which function entries carry a params key. The typed
// decode already succeeded, so the node tree has the same shape as docs.
func markParams(data []byte, docs []yamlDataType) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}

	if len(root.Content) == 0 {
		return nil
	}

	types := resolveAlias(root.Content[0])

	for i := range docs {
		if i >= len(types.Content) {
			break
		}

		fns := mappingValue(types.Content[i], "functions")
		if fns == nil {
			continue
		}

		for j := range docs[i].Functions {
			if j >= len(fns.Content) {
				break
			}

			docs[i].Functions[j].hasParams = mappingValue(fns.Content[j], "params") != nil
		}
	}

	return nil
}

// mappingValue returns the value node of key, or nil when node isn't a
// mapping holding it. Keys written in the mapping win over merged ones.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolveAlias(node.Content[i+1])
		}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if k := node.Content[i]; k.Value != "<<" || (k.Tag != "!!merge" && k.Tag != "") {
			continue
		}

		merged := resolveAlias(node.Content[i+1])

		sources := []*yaml.Node{merged}
		if merged.Kind == yaml.SequenceNode {
			sources = merged.Content
		}

		for _, src := range sources {
			if v := mappingValue(src, key); v != nil {
				return v
			}
		}
	}

	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	return node
}
