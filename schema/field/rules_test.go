package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/contentkit/schema/field"
)

func TestBuildRulesOrder(t *testing.T) {
	rs := field.BuildRules(field.RuleInput{
		FieldID:  7,
		Type:     field.TypeEmail,
		Required: true,
		Unique:   true,
		Custom:   []string{"max:255", "regex:/^[a-z@.]+$/"},
	})
	assert.Equal(t, []string{
		"required",
		"unique:field,7",
		"email",
		"max:255",
		"regex:/^[a-z@.]+$/",
	}, rs.Strings())
	assert.True(t, rs.Has(field.RuleUnique))
	assert.False(t, rs.Has(field.RuleURL))
}

func TestBuildRulesEmpty(t *testing.T) {
	assert.Empty(t, field.BuildRules(field.RuleInput{Type: field.TypeText}))
}

func TestBuildRulesByType(t *testing.T) {
	tests := []struct {
		typ  field.Type
		want []string
	}{
		{field.TypeEmail, []string{"email"}},
		{field.TypeURL, []string{"url"}},
		{field.TypeNumber, []string{"integer"}},
		{field.TypeDecimal, []string{"numeric"}},
		{field.TypeBoolean, []string{"boolean"}},
		{field.TypeDate, []string{"date"}},
		{field.TypeDateTime, []string{"date"}},
		{field.TypeTime, []string{"regex:/^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$/"}},
		{field.TypeFile, []string{"file"}},
		{field.TypeImage, []string{"file", "image"}},
		{field.TypeJSON, []string{"json"}},
		{field.TypeText, []string{}},
		{field.TypeSelect, []string{}},
		{field.TypeRelation, []string{}},
		{field.TypePassword, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			got := field.BuildRules(field.RuleInput{Type: tt.typ}).Strings()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRule(t *testing.T) {
	r, err := field.ParseRule("in:a, b,c")
	require.NoError(t, err)
	assert.Equal(t, field.RuleIn, r.Name)
	assert.Equal(t, []string{"a", "b", "c"}, r.Args)

	r, err = field.ParseRule("regex:/^a,b$/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/^a,b$/"}, r.Args)

	r, err = field.ParseRule("date_format:15:04")
	require.NoError(t, err)
	assert.Equal(t, field.RuleDateFormat, r.Name)
	assert.Equal(t, []string{"15:04"}, r.Args)

	r, err = field.ParseRule("required")
	require.NoError(t, err)
	assert.Empty(t, r.Args)
	assert.Equal(t, "required", r.String())

	_, err = field.ParseRule("  ")
	assert.Error(t, err)
}

func TestRuleNameKnown(t *testing.T) {
	assert.True(t, field.RuleMax.Known())
	assert.True(t, field.RuleName("date_format").Known())
	assert.False(t, field.RuleName("alpha_dash").Known())
}
