package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlDataType mirrors one entry of doc.yaml. Required keys are pointers so a
// missing key can be told apart from an empty value.
type yamlDataType struct {
	Name           *string           `yaml:"name"`
	Kind           *DataKind         `yaml:"kind"`
	Desc           *string           `yaml:"desc"`
	UnderlyingType *UnderlyingType   `yaml:"underlying_type"`
	Hints          map[string]string `yaml:"hints"`
	Members        []yamlMember      `yaml:"members"`
	Functions      []yamlFunction    `yaml:"functions"`
}

type yamlMember struct {
	Name  *string           `yaml:"name"`
	Desc  *string           `yaml:"desc"`
	Type  string            `yaml:"type"`
	Mode  *ParamMode        `yaml:"mode"`
	Hints map[string]string `yaml:"hints"`
}

type yamlFunction struct {
	Name       *string      `yaml:"name"`
	Desc       *string      `yaml:"desc"`
	RoundTrips *RoundTrips  `yaml:"round_trips"`
	Return     *string      `yaml:"return"`
	Params     []yamlMember `yaml:"params"`

	// hasParams is set by markParams: a null params value decodes like a
	// missing key.
	hasParams bool
}

// tagged is satisfied by the enum types whose String method returns the YAML
// tag (see the -linecomment stringer directive).
type tagged interface {
	~int
	String() string
}

// decodeTag matches a scalar node against the tags of the given values.
func decodeTag[T tagged](node *yaml.Node, what string, values ...T) (T, error) {
	var zero T
	if node.Kind != yaml.ScalarNode {
		return zero, fmt.Errorf("line %d: %s must be a scalar", node.Line, what)
	}

	for _, v := range values {
		if v.String() == node.Value {
			return v, nil
		}
	}

	return zero, fmt.Errorf("line %d: unknown %s %q", node.Line, what, node.Value)
}

// UnmarshalYAML implements custom YAML unmarshaling for DataKind.
func (k *DataKind) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeTag(node, "kind",
		DataKindEnum, DataKindOpaqueStruct, DataKindStruct, DataKindUnion)
	if err != nil {
		return err
	}

	*k = v

	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for UnderlyingType.
func (u *UnderlyingType) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeTag(node, "underlying_type",
		UnderlyingUint8, UnderlyingUint16, UnderlyingUint32)
	if err != nil {
		return err
	}

	*u = v

	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for ParamMode.
func (m *ParamMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeTag(node, "mode", ModeIn, ModeOut, ModeInOut)
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for RoundTrips.
// The tags are matched on the raw scalar so "No" and "Yes" never turn into
// YAML 1.1 booleans.
func (r *RoundTrips) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeTag(node, "round_trips",
		RoundTripsNo, RoundTripsYes, RoundTripsMaybe)
	if err != nil {
		return err
	}

	*r = v

	return nil
}
