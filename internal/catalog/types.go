package catalog

//go:generate go tool stringer -type=DataKind,UnderlyingType,ParamMode,RoundTrips -linecomment -output=types_string.go

// DataKind is the kind of a documented C type.
type DataKind int

const (
	_ DataKind = iota // zero value is invalid, so a missing kind is detected

	DataKindEnum         // enum
	DataKindOpaqueStruct // opaque struct
	DataKindStruct       // struct
	DataKindUnion        // union
)

// UnderlyingType is the fixed-width integer type backing an enum.
type UnderlyingType int

const (
	_ UnderlyingType = iota

	UnderlyingUint8  // uint8_t
	UnderlyingUint16 // uint16_t
	UnderlyingUint32 // uint32_t
)

// ParamMode is the direction of a function parameter.
type ParamMode int

const (
	_ ParamMode = iota

	ModeIn    // IN
	ModeOut   // OUT
	ModeInOut // IN/OUT
)

// RoundTrips tells whether calling a function may require a network round
// trip to the database.
type RoundTrips int

const (
	_ RoundTrips = iota

	RoundTripsNo    // No
	RoundTripsYes   // Yes
	RoundTripsMaybe // Maybe
)

// MayBlock returns true if a call may wait on network I/O.
func (r RoundTrips) MayBlock() bool {
	return r == RoundTripsYes || r == RoundTripsMaybe
}

// Bits returns the width in bits of the underlying type.
func (u UnderlyingType) Bits() int {
	switch u {
	case UnderlyingUint8:
		return 8
	case UnderlyingUint16:
		return 16
	case UnderlyingUint32:
		return 32
	default:
		return 0
	}
}

// MemberInfo describes a struct/union field, an enum constant or a function
// parameter.
type MemberInfo struct {
	Name string
	Desc string
	// CType is the C type as written in the documentation (fields and
	// parameters only).
	CType string
	// Mode is set for function parameters only.
	Mode  *ParamMode
	Hints map[string]string
}

// FunctionInfo describes one documented C function.
type FunctionInfo struct {
	Name       string
	Desc       string
	RoundTrips RoundTrips
	ReturnType string
	Params     []MemberInfo
}

// DataTypeInfo describes one documented C type together with the functions
// grouped under it in the documentation.
type DataTypeInfo struct {
	Name           string
	Kind           DataKind
	Desc           string
	UnderlyingType *UnderlyingType
	Hints          map[string]string
	Members        []MemberInfo
	Functions      []FunctionInfo
}

// IsBitflags returns true if the documentation hints the type is a set of
// bit flags rather than a plain enumeration.
func (dt *DataTypeInfo) IsBitflags() bool {
	return dt.Hints["type"] == "bitflags"
}
