package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/contentkit/schema/field"
)

func TestSelectOptions(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		got := field.SelectOptions(field.TypeSelect, map[string]any{
			"options": []any{"draft", "live"},
		})
		assert.Equal(t, []field.Choice{{Value: "draft", Label: "draft"}, {Value: "live", Label: "live"}}, got)
	})

	t.Run("objects", func(t *testing.T) {
		got := field.SelectOptions(field.TypeRadio, map[string]any{
			"choices": []any{
				map[string]any{"value": "s", "label": "Small"},
				map[string]any{"value": 2},
				map[string]any{"label": "missing value"},
			},
		})
		assert.Equal(t, []field.Choice{{Value: "s", Label: "Small"}, {Value: "2", Label: "2"}}, got)
	})

	t.Run("map", func(t *testing.T) {
		got := field.SelectOptions(field.TypeMultiSelect, map[string]any{
			"options": map[string]any{"b": "Bee", "a": "Ay"},
		})
		assert.Equal(t, []field.Choice{{Value: "a", Label: "Ay"}, {Value: "b", Label: "Bee"}}, got)
	})

	t.Run("non select type", func(t *testing.T) {
		assert.Nil(t, field.SelectOptions(field.TypeText, map[string]any{"options": []any{"x"}}))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, field.SelectOptions(field.TypeSelect, nil))
		assert.Nil(t, field.SelectOptions(field.TypeSelect, map[string]any{}))
	})
}

func TestFileUploadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := field.FileUploadSettings(field.TypeFile, nil)
		assert.Equal(t, int64(field.DefaultMaxUploadSize), s.MaxSize)
		assert.Empty(t, s.AllowedTypes)
		assert.False(t, s.Multiple)

		s = field.FileUploadSettings(field.TypeImage, nil)
		assert.Contains(t, s.AllowedTypes, "png")
	})

	t.Run("configured", func(t *testing.T) {
		s := field.FileUploadSettings(field.TypeFile, map[string]any{
			"max_size":      float64(512),
			"allowed_types": []any{"PDF", ".docx"},
			"multiple":      true,
		})
		assert.Equal(t, field.FileSettings{MaxSize: 512, AllowedTypes: []string{"pdf", "docx"}, Multiple: true}, s)

		s = field.FileUploadSettings(field.TypeImage, map[string]any{"allowed_types": "png, jpg"})
		assert.Equal(t, []string{"png", "jpg"}, s.AllowedTypes)
	})

	t.Run("non file type", func(t *testing.T) {
		assert.Equal(t, field.FileSettings{}, field.FileUploadSettings(field.TypeJSON, map[string]any{"max_size": 1}))
	})
}
