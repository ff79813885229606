package migrate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComponent(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{
			name: "no versions",
			item: Item{},
			want: true,
		},
		{
			name: "version without workflow step",
			item: Item{Versions: []Version{{}}},
			want: true,
		},
		{
			name: "version with workflow step",
			item: Item{Versions: []Version{
				{WorkflowStep: Reference{Codename: "draft"}},
			}},
			want: false,
		},
		{
			name: "any version with a step makes it an item",
			item: Item{Versions: []Version{
				{},
				{WorkflowStep: Reference{Codename: "published"}},
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.IsComponent())
		})
	}
}

func TestSortElements(t *testing.T) {
	elements := []Element{
		{Codename: "title"},
		{Codename: "body"},
		{Codename: "rating"},
	}
	SortElements(elements)
	assert.Equal(t, "body", elements[0].Codename)
	assert.Equal(t, "rating", elements[1].Codename)
	assert.Equal(t, "title", elements[2].Codename)
}

func TestElementUnmarshalTypedValues(t *testing.T) {
	raw := `[
		{"codename": "title", "type": "text", "value": "Hello"},
		{"codename": "rating", "type": "number", "value": 4.5},
		{"codename": "absent", "type": "number", "value": null},
		{"codename": "published_on", "type": "date_time", "value": {"value": "2024-01-01T00:00:00Z", "display_timezone": "Europe/Prague"}},
		{"codename": "slug", "type": "url_slug", "value": {"value": "hello", "mode": "custom"}},
		{"codename": "color", "type": "multiple_choice", "value": [{"codename": "red"}]},
		{"codename": "body", "type": "rich_text", "value": {"html": "<p>hi</p>", "components": [{"codename": "c1", "type": {"codename": "article"}, "elements": [{"codename": "title", "type": "text", "value": "inner"}]}]}}
	]`

	var elements []Element
	require.NoError(t, json.Unmarshal([]byte(raw), &elements))
	require.Len(t, elements, 7)

	assert.Equal(t, "Hello", elements[0].Value)

	n, ok := elements[1].Value.(*float64)
	require.True(t, ok)
	assert.Equal(t, 4.5, *n)

	assert.Nil(t, elements[2].Value)

	dt := elements[3].Value.(DateTimeValue)
	assert.Equal(t, "Europe/Prague", dt.DisplayTimezone)

	slug := elements[4].Value.(URLSlugValue)
	assert.Equal(t, "custom", slug.Mode)

	assert.Equal(t, []Reference{{Codename: "red"}}, elements[5].Value)

	// Component elements decode recursively into typed values.
	rt := elements[6].Value.(RichTextValue)
	require.Len(t, rt.Components, 1)
	assert.Equal(t, "inner", rt.Components[0].Elements[0].Value)
}

func TestElementUnmarshalUnknownTypeFails(t *testing.T) {
	var el Element
	err := json.Unmarshal([]byte(`{"codename": "x", "type": "hologram", "value": 1}`), &el)
	require.Error(t, err)

	// The message names the types that do exist.
	assert.Contains(t, err.Error(), "hologram")
	assert.Contains(t, err.Error(), "url_slug")
	assert.Contains(t, err.Error(), "rich_text")
}
