package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
)

// fakeSourceAPI is an in-memory source environment.
type fakeSourceAPI struct {
	kontent.API

	items    map[string]*kontent.ContentItem
	itemsByC map[string]*kontent.ContentItem
	variants map[string]*kontent.LanguageVariant
	assets   map[string]*kontent.Asset

	downloads map[string][]byte
}

func newFakeSource() *fakeSourceAPI {
	return &fakeSourceAPI{
		items:     make(map[string]*kontent.ContentItem),
		itemsByC:  make(map[string]*kontent.ContentItem),
		variants:  make(map[string]*kontent.LanguageVariant),
		assets:    make(map[string]*kontent.Asset),
		downloads: make(map[string][]byte),
	}
}

func (f *fakeSourceAPI) addItem(item *kontent.ContentItem, variant *kontent.LanguageVariant) {
	f.items[item.ID] = item
	f.itemsByC[item.Codename] = item
	if variant != nil {
		f.variants[item.Codename] = variant
	}
}

func notFound() error {
	return &kontent.APIError{StatusCode: 404, Message: "not found"}
}

func (f *fakeSourceAPI) ListCollections(ctx context.Context) ([]kontent.Collection, error) {
	return []kontent.Collection{{ID: "c1", Codename: "default"}}, nil
}

func (f *fakeSourceAPI) ListLanguages(ctx context.Context) ([]kontent.Language, error) {
	return []kontent.Language{{ID: "l1", Codename: "en"}}, nil
}

func (f *fakeSourceAPI) ListWorkflows(ctx context.Context) ([]kontent.Workflow, error) {
	return []kontent.Workflow{{
		ID:       "w1",
		Codename: "default",
		Steps: []kontent.WorkflowStep{
			{ID: "s1", Codename: "draft"},
		},
		PublishedStep: kontent.WorkflowStep{ID: "s2", Codename: "published"},
		ScheduledStep: kontent.WorkflowStep{ID: "s3", Codename: "scheduled"},
		ArchivedStep:  kontent.WorkflowStep{ID: "s4", Codename: "archived"},
	}}, nil
}

func (f *fakeSourceAPI) ListTaxonomies(ctx context.Context) ([]kontent.TaxonomyGroup, error) {
	return nil, nil
}

func (f *fakeSourceAPI) ListContentTypes(ctx context.Context) ([]kontent.ContentType, error) {
	return []kontent.ContentType{{
		ID:       "type-1",
		Codename: "article",
		Elements: []kontent.TypeElement{
			{ID: "el-title", Codename: "title", Type: "text"},
			{ID: "el-related", Codename: "related", Type: "modular_content"},
			{ID: "el-hero", Codename: "hero", Type: "asset"},
			{ID: "el-body", Codename: "body", Type: "rich_text"},
		},
	}}, nil
}

func (f *fakeSourceAPI) ListSnippets(ctx context.Context) ([]kontent.Snippet, error) {
	return nil, nil
}

func (f *fakeSourceAPI) ContentItemByCodename(ctx context.Context, codename string) (*kontent.ContentItem, error) {
	if item, ok := f.itemsByC[codename]; ok {
		return item, nil
	}
	return nil, notFound()
}

func (f *fakeSourceAPI) ContentItemByID(ctx context.Context, id string) (*kontent.ContentItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, notFound()
}

func (f *fakeSourceAPI) LanguageVariant(ctx context.Context, itemCodename, languageCodename string) (*kontent.LanguageVariant, error) {
	if v, ok := f.variants[itemCodename]; ok {
		return v, nil
	}
	return nil, notFound()
}

func (f *fakeSourceAPI) AssetByID(ctx context.Context, id string) (*kontent.Asset, error) {
	if asset, ok := f.assets[id]; ok {
		return asset, nil
	}
	return nil, notFound()
}

func (f *fakeSourceAPI) DownloadBinary(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.downloads[url]; ok {
		return data, nil
	}
	return nil, notFound()
}

func fixtureSource() *fakeSourceAPI {
	api := newFakeSource()

	api.addItem(
		&kontent.ContentItem{
			ID: "item-1", Codename: "first_article", Name: "First",
			Type:       kontent.ObjectReference{ID: "type-1"},
			Collection: kontent.ObjectReference{ID: "c1"},
		},
		&kontent.LanguageVariant{
			Elements: []kontent.ElementData{
				{Element: kontent.ObjectReference{ID: "el-title"}, Value: "First"},
				{Element: kontent.ObjectReference{ID: "el-related"}, Value: []any{
					map[string]any{"id": "item-2"},
				}},
				{Element: kontent.ObjectReference{ID: "el-hero"}, Value: []any{
					map[string]any{"id": "asset-1"},
				}},
			},
			Workflow: kontent.VariantWorkflow{
				WorkflowIdentifier: kontent.ObjectReference{ID: "w1"},
				StepIdentifier:     kontent.ObjectReference{ID: "s2"},
			},
		},
	)
	api.addItem(
		&kontent.ContentItem{
			ID: "item-2", Codename: "second_article", Name: "Second",
			Type:       kontent.ObjectReference{ID: "type-1"},
			Collection: kontent.ObjectReference{ID: "c1"},
		},
		nil,
	)
	api.assets["asset-1"] = &kontent.Asset{
		ID: "asset-1", Codename: "hero_image", FileName: "hero.png",
		Title: "Hero", Size: 3, URL: "https://assets.example/hero.png",
		Collection:   &kontent.ObjectReference{ID: "c1"},
		Descriptions: []kontent.AssetDescription{{Language: kontent.ObjectReference{ID: "l1"}, Description: "the hero"}},
	}
	api.downloads["https://assets.example/hero.png"] = []byte{1, 2, 3}
	return api
}

func TestBuildExportsItemWithReferences(t *testing.T) {
	api := fixtureSource()
	b := NewBuilder(api, Config{}, nil, nil)

	data, err := b.Build(context.Background(), []ItemRequest{{Codename: "first_article", Language: "en"}})
	require.NoError(t, err)
	require.Len(t, data.Items, 1)

	item := data.Items[0]
	assert.Equal(t, "first_article", item.System.Codename)
	assert.Equal(t, "article", item.System.Type.Codename)
	assert.Equal(t, "default", item.System.Collection.Codename)
	assert.Equal(t, "en", item.System.Language.Codename)

	require.Len(t, item.Versions, 1)
	version := item.Versions[0]
	assert.Equal(t, "default", version.Workflow.Codename)
	assert.Equal(t, "published", version.WorkflowStep.Codename)

	// Elements come back sorted by codename.
	require.Len(t, version.Elements, 3)
	assert.Equal(t, "hero", version.Elements[0].Codename)
	assert.Equal(t, "related", version.Elements[1].Codename)
	assert.Equal(t, "title", version.Elements[2].Codename)

	// The referenced item resolved to its codename.
	assert.Equal(t, []migrate.Reference{{Codename: "second_article"}}, version.Elements[1].Value)

	// The referenced asset is materialized with resolved metadata.
	require.Len(t, data.Assets, 1)
	asset := data.Assets[0]
	assert.Equal(t, "hero_image", asset.Codename)
	assert.Equal(t, "default", asset.Collection.Codename)
	require.Len(t, asset.Descriptions, 1)
	assert.Equal(t, "en", asset.Descriptions[0].Language.Codename)
	// No binary without FetchAssetDetails.
	assert.Nil(t, asset.Binary)
}

func TestBuildFetchesBinariesWhenRequested(t *testing.T) {
	api := fixtureSource()
	b := NewBuilder(api, Config{FetchAssetDetails: true}, nil, nil)

	data, err := b.Build(context.Background(), []ItemRequest{{Codename: "first_article", Language: "en"}})
	require.NoError(t, err)
	require.Len(t, data.Assets, 1)
	assert.Equal(t, []byte{1, 2, 3}, data.Assets[0].Binary)
}

func TestBuildDanglingReferenceFails(t *testing.T) {
	api := fixtureSource()
	// Remove the referenced item so resolution records it as nonexistent.
	delete(api.items, "item-2")

	b := NewBuilder(api, Config{}, nil, nil)
	_, err := b.Build(context.Background(), []ItemRequest{{Codename: "first_article", Language: "en"}})
	require.Error(t, err)

	merr := merrors.AsMigrateError(err)
	require.NotNil(t, merr)
	assert.Equal(t, merrors.CodeItemFailed, merr.Code)
}

func TestBuildUnknownItemFails(t *testing.T) {
	b := NewBuilder(fixtureSource(), Config{}, nil, nil)
	_, err := b.Build(context.Background(), []ItemRequest{{Codename: "missing", Language: "en"}})
	require.Error(t, err)
}

func TestBuildSkipFailedItems(t *testing.T) {
	b := NewBuilder(fixtureSource(), Config{SkipFailedItems: true}, nil, nil)

	data, err := b.Build(context.Background(), []ItemRequest{
		{Codename: "missing", Language: "en"},
		{Codename: "first_article", Language: "en"},
	})
	require.NoError(t, err)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "first_article", data.Items[0].System.Codename)
}

func TestBuildCollectsReferencesFromRichTextAndComponents(t *testing.T) {
	api := fixtureSource()

	html := `<object type="application/kenticocloud" data-type="item" data-id="comp-1" data-rel="component"></object>` +
		`<p><a data-item-id="item-2">link</a></p>`
	api.addItem(
		&kontent.ContentItem{
			ID: "item-3", Codename: "rich_article", Name: "Rich",
			Type:       kontent.ObjectReference{ID: "type-1"},
			Collection: kontent.ObjectReference{ID: "c1"},
		},
		&kontent.LanguageVariant{
			Elements: []kontent.ElementData{
				{
					Element: kontent.ObjectReference{ID: "el-body"},
					Value:   html,
					Components: []kontent.ComponentData{{
						ID:   "comp-1",
						Type: kontent.ObjectReference{ID: "type-1"},
						Elements: []kontent.ElementData{
							// The component references an asset; it must be
							// collected and exported too.
							{Element: kontent.ObjectReference{ID: "el-hero"}, Value: []any{
								map[string]any{"id": "asset-1"},
							}},
						},
					}},
				},
			},
			Workflow: kontent.VariantWorkflow{
				WorkflowIdentifier: kontent.ObjectReference{ID: "w1"},
				StepIdentifier:     kontent.ObjectReference{ID: "s1"},
			},
		},
	)

	b := NewBuilder(api, Config{}, nil, nil)
	data, err := b.Build(context.Background(), []ItemRequest{{Codename: "rich_article", Language: "en"}})
	require.NoError(t, err)

	require.Len(t, data.Items, 1)
	rt := data.Items[0].Versions[0].Elements[0].Value.(migrate.RichTextValue)
	assert.Contains(t, rt.HTML, `data-item-codename="second_article"`)
	require.Len(t, rt.Components, 1)

	// The component-referenced asset made it into the graph.
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "hero_image", data.Assets[0].Codename)
}
