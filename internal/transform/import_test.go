package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
)

func importFixture(t *testing.T) (*FlattenedTypes, *resolver.ImportResolver) {
	t.Helper()

	types := []kontent.ContentType{{
		ID:       "type-1",
		Codename: "article",
		Elements: []kontent.TypeElement{
			{ID: "el-title", Codename: "title", Type: "text"},
			{ID: "el-rating", Codename: "rating", Type: "number"},
			{ID: "el-published", Codename: "published_on", Type: "date_time"},
			{ID: "el-slug", Codename: "slug", Type: "url_slug"},
			{
				ID: "el-color", Codename: "color", Type: "multiple_choice",
				Options: []kontent.MultipleChoiceOption{
					{ID: "opt-red", Codename: "red"},
					{ID: "opt-blue", Codename: "blue"},
				},
			},
			{ID: "el-hero", Codename: "hero", Type: "asset"},
			{ID: "el-related", Codename: "related", Type: "modular_content"},
			{ID: "el-body", Codename: "body", Type: "rich_text"},
		},
	}}

	flat, err := Flatten(types, nil, nil)
	require.NoError(t, err)

	res := resolver.NewImportResolver()
	res.RegisterItem("existing_article", "item-id-1")
	res.RegisterAsset("hero_image", "asset-id-1")
	return flat, res
}

func TestRestoreTextEmptyBecomesNil(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "title", Type: migrate.ElementTypeText, Value: ""},
	})
	require.NoError(t, err)
	assert.Nil(t, out[0].Value)

	out, err = imp.RestoreElements("article", []migrate.Element{
		{Codename: "title", Type: migrate.ElementTypeText, Value: "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", out[0].Value)
}

func TestRestoreNumberPreservesZero(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	zero := float64(0)
	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "rating", Type: migrate.ElementTypeNumber, Value: &zero},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out[0].Value)

	out, err = imp.RestoreElements("article", []migrate.Element{
		{Codename: "rating", Type: migrate.ElementTypeNumber, Value: (*float64)(nil)},
	})
	require.NoError(t, err)
	assert.Nil(t, out[0].Value)
}

func TestRestoreURLSlugForcesCustomMode(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "slug", Type: migrate.ElementTypeURLSlug, Value: migrate.URLSlugValue{Value: "hello", Mode: "autogenerated"}},
	})
	require.NoError(t, err)

	// The migrated value is authoritative, never regenerated.
	assert.Equal(t, "hello", out[0].Value)
	assert.Equal(t, "custom", out[0].Mode)
}

func TestRestoreDateTime(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "published_on", Type: migrate.ElementTypeDateTime, Value: migrate.DateTimeValue{
			Value: "2024-01-01T00:00:00Z", DisplayTimezone: "Europe/Prague",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", out[0].Value)
	assert.Equal(t, "Europe/Prague", out[0].DisplayTimezone)
}

func TestRestoreMultipleChoiceByCodename(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "color", Type: migrate.ElementTypeMultipleChoice, Value: []migrate.Reference{
			{Codename: "red"}, {Codename: "blue"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []kontent.ObjectReference{{Codename: "red"}, {Codename: "blue"}}, out[0].Value)
}

func TestRestoreItemReferences(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "related", Type: migrate.ElementTypeModularContent, Value: []migrate.Reference{
			{Codename: "existing_article"},
			{Codename: "future_article"},
		}},
	})
	require.NoError(t, err)

	refs := out[0].Value.([]kontent.ObjectReference)
	require.Len(t, refs, 2)
	// Existing item resolves to its ID, the forward reference to its
	// deterministic external ID.
	assert.Equal(t, "item-id-1", refs[0].ID)
	assert.Equal(t, resolver.ExternalItemID("future_article"), refs[1].ExternalID)
}

func TestRestoreUnknownAssetSkipped(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "hero", Type: migrate.ElementTypeAsset, Value: []migrate.Reference{
			{Codename: "hero_image"},
			{Codename: "gone_image"},
		}},
	})
	require.NoError(t, err)

	refs := out[0].Value.([]kontent.ObjectReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "asset-id-1", refs[0].ID)
}

func TestRestoreItemReferenceToComponentDropped(t *testing.T) {
	flat, res := importFixture(t)
	res.RegisterComponent("inline_teaser")
	imp := NewImporter(flat, res, nil)

	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "related", Type: migrate.ElementTypeModularContent, Value: []migrate.Reference{
			{Codename: "existing_article"},
			{Codename: "inline_teaser"},
		}},
	})
	require.NoError(t, err)

	// Components have no standalone identity, so a linked-items reference
	// to one can never materialize and is dropped.
	refs := out[0].Value.([]kontent.ObjectReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "item-id-1", refs[0].ID)
}

func TestRestoreRichTextWithComponent(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	html := `<object type="application/kenticocloud" data-type="component" data-codename="comp_1"></object>`
	out, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "body", Type: migrate.ElementTypeRichText, Value: migrate.RichTextValue{
			HTML: html,
			Components: []migrate.Component{{
				Codename: "comp_1",
				Type:     migrate.Reference{Codename: "article"},
				Elements: []migrate.Element{
					{Codename: "title", Type: migrate.ElementTypeText, Value: "inside"},
				},
			}},
		}},
	})
	require.NoError(t, err)

	// Marker and payload agree on the derived component identifier.
	wantID := resolver.ComponentID("comp_1")
	assert.Contains(t, out[0].Value.(string), wantID)
	require.Len(t, out[0].Components, 1)
	assert.Equal(t, wantID, out[0].Components[0].ID)
	assert.Equal(t, "inside", out[0].Components[0].Elements[0].Value)
}

func TestRestoreUnknownElementFails(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	_, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "ghost", Type: migrate.ElementTypeText, Value: "x"},
	})
	require.Error(t, err)
	assert.Equal(t, merrors.CodeElementNotFound, merrors.AsMigrateError(err).Code)
}

func TestRestoreWrongShapeIsTransformError(t *testing.T) {
	flat, res := importFixture(t)
	imp := NewImporter(flat, res, nil)

	_, err := imp.RestoreElements("article", []migrate.Element{
		{Codename: "rating", Type: migrate.ElementTypeNumber, Value: "not a number"},
	})
	require.Error(t, err)
	assert.Equal(t, merrors.CodeElementTransform, merrors.AsMigrateError(err).Code)
}
