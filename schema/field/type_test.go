package field_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/contentkit/schema/field"
)

func TestTypeString(t *testing.T) {
	typ := field.TypeBoolean
	assert.Equal(t, "boolean", typ.String())
	typ = field.TypeInvalid
	assert.Equal(t, "invalid", typ.String())
	typ = 99
	assert.Equal(t, "invalid", typ.String())
}

func TestTypeValid(t *testing.T) {
	typ := field.TypeText
	assert.True(t, typ.Valid())
	typ = field.TypePassword
	assert.True(t, typ.Valid())
	typ = 0
	assert.False(t, typ.Valid())
	typ = 99
	assert.False(t, typ.Valid())
}

func TestTypeConstName(t *testing.T) {
	assert.Equal(t, "TypeJSON", field.TypeJSON.ConstName())
	assert.Equal(t, "TypeMultiSelect", field.TypeMultiSelect.ConstName())
	assert.Equal(t, "invalid", field.Type(99).ConstName())
}

// TestTypeTables makes sure every type added to the taxonomy has a name.
func TestTypeTables(t *testing.T) {
	types := field.Types()
	require.Len(t, types, 20)
	seen := map[string]bool{}
	for _, typ := range types {
		name := typ.String()
		assert.NotEmpty(t, name)
		assert.NotEqual(t, "invalid", name)
		assert.NotEqual(t, "invalid", typ.ConstName())
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true

		parsed, err := field.ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want field.Type
	}{
		{"text", field.TypeText},
		{" Email ", field.TypeEmail},
		{"integer", field.TypeNumber},
		{"float", field.TypeDecimal},
		{"multi_select", field.TypeMultiSelect},
		{"DATETIME", field.TypeDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := field.ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := field.ParseType("geometry")
	assert.ErrorContains(t, err, "unknown type")
	_, err = field.ParseType("invalid")
	assert.Error(t, err)
}

func TestTypeClassifiers(t *testing.T) {
	assert.True(t, field.TypeNumber.Numeric())
	assert.True(t, field.TypeDecimal.Numeric())
	assert.False(t, field.TypeText.Numeric())
	assert.True(t, field.TypeTime.Temporal())
	assert.False(t, field.TypeColor.Temporal())
	assert.True(t, field.TypeCheckbox.Structured())
	assert.False(t, field.TypeSelect.Structured())
}

func TestTypeText(t *testing.T) {
	b, err := json.Marshal(struct {
		T field.Type `json:"t"`
	}{field.TypeImage})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"image"}`, string(b))

	var v struct {
		T field.Type `json:"t"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"t":"relation"}`), &v))
	assert.Equal(t, field.TypeRelation, v.T)
	assert.Error(t, json.Unmarshal([]byte(`{"t":"nope"}`), &v))

	_, err = field.TypeInvalid.MarshalText()
	assert.Error(t, err)
}
