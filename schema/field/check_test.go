package field_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/contentkit/schema/field"
)

func TestRuleCheck(t *testing.T) {
	rule := func(s string) field.Rule {
		r, err := field.ParseRule(s)
		if err != nil {
			t.Fatal(err)
		}
		return r
	}
	tests := []struct {
		rule  string
		value any
		ok    bool
	}{
		{"email", "a@example.com", true},
		{"email", "Alice <a@example.com>", false},
		{"email", "nope", false},
		{"email", 12, false},
		{"url", "https://example.com/x", true},
		{"url", "example.com", false},
		{"integer", 12, true},
		{"integer", "12", true},
		{"integer", 12.5, false},
		{"integer", float64(3), true},
		{"numeric", "12.5", true},
		{"numeric", "1e3", true},
		{"numeric", "twelve", false},
		{"boolean", true, true},
		{"boolean", "0", true},
		{"boolean", 1, true},
		{"boolean", "yes", true},
		{"boolean", "on", true},
		{"boolean", " Off ", true},
		{"boolean", int32(0), true},
		{"boolean", uint(1), true},
		{"boolean", 2, false},
		{"boolean", "maybe", false},
		{"boolean", []int{1}, false},
		{"date", "2024-01-02", true},
		{"date", time.Now(), true},
		{"date", "12:00", false},
		{"date", "not a date", false},
		{"date_format:15:04", "09:30", true},
		{"date_format:15:04", "9h30", false},
		{"file", "uploads/report.pdf", true},
		{"file", map[string]any{"path": "a.txt"}, true},
		{"file", "", false},
		{"file", 3, false},
		{"image", "uploads/a.PNG", true},
		{"image", map[string]any{"url": "https://cdn/x.webp"}, true},
		{"image", "uploads/a.pdf", false},
		{"json", `{"a":1}`, true},
		{"json", `{"a":`, false},
		{"json", map[string]any{"a": 1}, true},
		{"min:3", "abc", true},
		{"min:3", "ab", false},
		{"min:3", "héé", true},
		{"max:10", 11, false},
		{"max:10", 10, true},
		{"max:2", []any{1, 2, 3}, false},
		{"in:a,b", "b", true},
		{"in:a,b", "c", false},
		{"in:1,2", 2, true},
		{"regex:/^[A-Z]+$/", "ABC", true},
		{"regex:/^[A-Z]+$/", "abc", false},
		{"regex:^\\d+$", "123", true},
		{"required", nil, true},
		{"unique:field,1", "x", true},
		{"alpha_dash", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			err := rule(tt.rule).Check(tt.value)
			if tt.ok {
				assert.NoError(t, err, "%v", tt.value)
			} else {
				assert.Error(t, err, "%v", tt.value)
			}
		})
	}
}

func TestRuleCheckNil(t *testing.T) {
	for _, name := range []string{"email", "integer", "file", "min:2"} {
		r, _ := field.ParseRule(name)
		assert.NoError(t, r.Check(nil), name)
	}
}

func TestRuleCheckMessages(t *testing.T) {
	r, _ := field.ParseRule("max:3")
	assert.EqualError(t, r.Check("abcd"), "must not be greater than 3 characters")
	r, _ = field.ParseRule("min:2")
	assert.EqualError(t, r.Check([]any{1}), "must be at least 2 items")
	r, _ = field.ParseRule("max:abc")
	assert.ErrorContains(t, r.Check(1), "invalid limit")
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *string
	assert.True(t, field.IsEmpty(nil))
	assert.True(t, field.IsEmpty(nilPtr))
	assert.True(t, field.IsEmpty("  "))
	assert.True(t, field.IsEmpty([]any{}))
	assert.True(t, field.IsEmpty(map[string]any{}))
	assert.False(t, field.IsEmpty(false))
	assert.False(t, field.IsEmpty(0))
	assert.False(t, field.IsEmpty("x"))
}
