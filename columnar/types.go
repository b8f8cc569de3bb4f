package columnar

import "fmt"

// DataType identifies the element type of a column.
type DataType uint8

const (
	Boolean DataType = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	String
)

// String returns the string representation of a data type
func (dt DataType) String() string {
	switch dt {
	case Boolean:
		return "Boolean"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case String:
		return "String"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(dt))
	}
}

// IsNumeric returns true if the data type is numeric
func (dt DataType) IsNumeric() bool {
	switch dt {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float32, Float64:
		return true
	default:
		return false
	}
}

// IsInteger returns true for the signed and unsigned integer types
func (dt DataType) IsInteger() bool {
	switch dt {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	default:
		return false
	}
}

// IsFloatingPoint returns true if the data type is floating point
func (dt DataType) IsFloatingPoint() bool {
	switch dt {
	case Float32, Float64:
		return true
	default:
		return false
	}
}

// Width returns the size in bytes of a fixed-width data type, or 0 for
// variable-width types.
func (dt DataType) Width() int {
	switch dt {
	case Boolean, Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// Field represents a column definition in the schema
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Schema defines the structure of a record batch: an ordered list of fields.
type Schema struct {
	fields []Field
}

// NewSchema creates a schema from an ordered field list.
func NewSchema(fields []Field) *Schema {
	return &Schema{fields: fields}
}

// Len returns the number of fields in the schema.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the field at the given position.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns the ordered field list.
func (s *Schema) Fields() []Field {
	return s.fields
}

// FieldByName returns the named field and its position. The bool result is
// false when no field has that name.
func (s *Schema) FieldByName(name string) (Field, int, bool) {
	for i, f := range s.fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}
