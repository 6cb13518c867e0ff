// Package field defines the column types used by table definitions and the
// migration engine. A field.Type names the Go representation of a column;
// the SQL rendering per dialect is decided by dialect/sql/schema.
package field

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeJSON:    "json.RawMessage",
	TypeUUID:    "[16]byte",
	TypeBytes:   "[]byte",
	TypeEnum:    "string",
	TypeString:  "string",
	TypeOther:   "other",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

var constNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "TypeBool",
	TypeTime:    "TypeTime",
	TypeJSON:    "TypeJSON",
	TypeUUID:    "TypeUUID",
	TypeBytes:   "TypeBytes",
	TypeEnum:    "TypeEnum",
	TypeString:  "TypeString",
	TypeOther:   "TypeOther",
	TypeInt:     "TypeInt",
	TypeInt8:    "TypeInt8",
	TypeInt16:   "TypeInt16",
	TypeInt32:   "TypeInt32",
	TypeInt64:   "TypeInt64",
	TypeUint:    "TypeUint",
	TypeUint8:   "TypeUint8",
	TypeUint16:  "TypeUint16",
	TypeUint32:  "TypeUint32",
	TypeUint64:  "TypeUint64",
	TypeFloat32: "TypeFloat32",
	TypeFloat64: "TypeFloat64",
}

// String returns the name of the Go type the field maps to.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// ConstName returns the constant name of the type, e.g. "TypeInt64".
func (t Type) ConstName() string {
	if !t.Valid() {
		return constNames[TypeInvalid]
	}
	return constNames[t]
}

// Valid reports if the given type is a valid field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// Float reports if the given type is a float type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Integer reports if the given type is an integral type.
func (t Type) Integer() bool {
	return t.Numeric() && !t.Float()
}
