package field

import (
	"fmt"

	"golang.org/x/text/cases"
)

// A Type represents an attribute type. The set is fixed and mirrors the
// attribute types a managed object model can describe.
type Type uint8

// List of attribute types.
const (
	TypeUndefined Type = iota
	TypeInteger16
	TypeInteger32
	TypeInteger64
	TypeDecimal
	TypeDouble
	TypeFloat
	TypeString
	TypeBoolean
	TypeDate
	TypeBinaryData
	TypeTransformable
	TypeObjectID
	endTypes
)

var (
	typeNames = [...]string{
		TypeUndefined:     "undefined",
		TypeInteger16:     "integer16",
		TypeInteger32:     "integer32",
		TypeInteger64:     "integer64",
		TypeDecimal:       "decimal",
		TypeDouble:        "double",
		TypeFloat:         "float",
		TypeString:        "string",
		TypeBoolean:       "boolean",
		TypeDate:          "date",
		TypeBinaryData:    "binary-data",
		TypeTransformable: "transformable",
		TypeObjectID:      "object-id",
	}
	// names used by model-delta files written for CoreData.
	coreDataNames = [...]string{
		TypeUndefined:     "NSUndefinedAttributeType",
		TypeInteger16:     "NSInteger16AttributeType",
		TypeInteger32:     "NSInteger32AttributeType",
		TypeInteger64:     "NSInteger64AttributeType",
		TypeDecimal:       "NSDecimalAttributeType",
		TypeDouble:        "NSDoubleAttributeType",
		TypeFloat:         "NSFloatAttributeType",
		TypeString:        "NSStringAttributeType",
		TypeBoolean:       "NSBooleanAttributeType",
		TypeDate:          "NSDateAttributeType",
		TypeBinaryData:    "NSBinaryDataAttributeType",
		TypeTransformable: "NSTransformableAttributeType",
		TypeObjectID:      "NSObjectIDAttributeType",
	}
	typeLookup = func() map[string]Type {
		fold := cases.Fold()
		m := make(map[string]Type, 2*len(typeNames))
		for t := TypeUndefined; t < endTypes; t++ {
			m[fold.String(typeNames[t])] = t
			m[fold.String(coreDataNames[t])] = t
		}
		return m
	}()
)

// ParseType returns the type registered under the given name. Both the short
// names ("integer32", "binary-data") and the CoreData names
// ("NSInteger32AttributeType") are accepted, case-insensitively.
func ParseType(s string) (Type, error) {
	if t, ok := typeLookup[cases.Fold().String(s)]; ok {
		return t, nil
	}
	return TypeUndefined, fmt.Errorf("field: unknown attribute type %q", s)
}

// String returns the canonical name of the type.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// CoreDataName returns the CoreData constant name of the type.
func (t Type) CoreDataName() string {
	if t.Valid() {
		return coreDataNames[t]
	}
	return ""
}

// Valid reports if the type is one of the known attribute types.
func (t Type) Valid() bool { return t < endTypes }

// Integer reports if the type is one of the integer types.
func (t Type) Integer() bool { return t >= TypeInteger16 && t <= TypeInteger64 }

// Numeric reports if the type holds a number.
func (t Type) Numeric() bool { return t >= TypeInteger16 && t <= TypeFloat }

// MarshalText implements the encoding.TextMarshaler interface.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: invalid attribute type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Types returns all attribute types in declaration order.
func Types() []Type {
	ts := make([]Type, 0, int(endTypes))
	for t := TypeUndefined; t < endTypes; t++ {
		ts = append(ts, t)
	}
	return ts
}
