package field_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/australsoft/folio/schema/field"
)

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "int64", field.TypeInt64.String())
	assert.Equal(t, "time.Time", field.TypeTime.String())
	assert.Equal(t, "json.RawMessage", field.TypeJSON.String())
	assert.Equal(t, "[16]byte", field.TypeUUID.String())

	// Enums travel as strings.
	assert.Equal(t, field.TypeString.String(), field.TypeEnum.String())

	assert.Equal(t, "invalid", field.TypeInvalid.String())
	assert.Equal(t, "invalid", field.Type(200).String())
}

func TestConstNames(t *testing.T) {
	// Every valid type reports a Type-prefixed constant name, and no two
	// types share one.
	seen := make(map[string]field.Type)
	for typ := field.TypeBool; typ.Valid(); typ++ {
		name := typ.ConstName()
		assert.True(t, strings.HasPrefix(name, "Type"), name)
		if prev, dup := seen[name]; dup {
			t.Fatalf("%v and %v share the constant name %q", prev, typ, name)
		}
		seen[name] = typ
	}
	assert.Len(t, seen, 20)

	assert.Equal(t, "invalid", field.TypeInvalid.ConstName())
	assert.Equal(t, "invalid", field.Type(200).ConstName())
}

func TestValid(t *testing.T) {
	assert.False(t, field.TypeInvalid.Valid())
	assert.True(t, field.TypeBool.Valid())
	assert.True(t, field.TypeFloat64.Valid())
	assert.False(t, field.Type(200).Valid())
}

func TestNumericClasses(t *testing.T) {
	ints := []field.Type{
		field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt, field.TypeInt64,
		field.TypeUint8, field.TypeUint16, field.TypeUint32, field.TypeUint, field.TypeUint64,
	}
	for _, typ := range ints {
		assert.True(t, typ.Integer(), typ.ConstName())
		assert.True(t, typ.Numeric(), typ.ConstName())
		assert.False(t, typ.Float(), typ.ConstName())
	}

	for _, typ := range []field.Type{field.TypeFloat32, field.TypeFloat64} {
		assert.True(t, typ.Float(), typ.ConstName())
		assert.True(t, typ.Numeric(), typ.ConstName())
		assert.False(t, typ.Integer(), typ.ConstName())
	}

	others := []field.Type{
		field.TypeBool, field.TypeTime, field.TypeJSON, field.TypeUUID,
		field.TypeBytes, field.TypeEnum, field.TypeString, field.TypeOther,
	}
	for _, typ := range others {
		assert.False(t, typ.Numeric(), typ.ConstName())
		assert.False(t, typ.Float(), typ.ConstName())
		assert.False(t, typ.Integer(), typ.ConstName())
	}
}
