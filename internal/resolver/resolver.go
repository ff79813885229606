// Package resolver translates between environment-internal IDs and portable
// codenames for items, assets, taxonomy terms, collections, languages and
// workflow steps. Export resolution is a lookup into pre-fetched state
// tables and fails hard on a dangling ID; import resolution of a reference
// to a not-yet-created item yields a deterministic external ID instead, so
// items can be imported in any order with forward references intact.
package resolver

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
)

// namespace seeds every derived UUID. Changing it would break the external
// IDs of in-flight migrations, so it never changes.
var namespace = uuid.MustParse("b32b5f4d-f2c7-4e8c-8e2a-1f6d3c9a7b10")

// DeriveUUID returns the stable UUID for a codename: same codename, same
// UUID, across processes and runs.
func DeriveUUID(codename string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(codename))
}

// ComponentID returns the environment-side identifier for an inline
// component codename. A codename that already parses as a UUID (after
// normalizing '_' to '-') is used as-is; anything else gets a derived UUID.
func ComponentID(codename string) string {
	normalized := strings.ReplaceAll(codename, "_", "-")
	if id, err := uuid.Parse(normalized); err == nil {
		return id.String()
	}
	return DeriveUUID(codename).String()
}

// ExternalItemID returns the client-generated external ID under which a
// not-yet-existing item is created and referenced.
func ExternalItemID(codename string) string {
	return "migrate_item_" + DeriveUUID(codename).String()
}

// ExternalAssetID returns the client-generated external ID for a
// not-yet-existing asset.
func ExternalAssetID(codename string) string {
	return "migrate_asset_" + DeriveUUID(codename).String()
}

// ItemState records the outcome of resolving one referenced item ID.
type ItemState struct {
	Exists bool
	Item   *kontent.ContentItem
}

// AssetState records the outcome of resolving one referenced asset ID.
type AssetState struct {
	Exists bool
	Asset  *kontent.Asset
}

// ExportResolver is the read-only lookup table set built once per export
// run. All tables are populated before any parallel consumer starts.
type ExportResolver struct {
	items       map[string]ItemState
	assets      map[string]AssetState
	terms       map[string]string
	collections map[string]string
	languages   map[string]string
	steps       map[string]string
	workflows   map[string]string
}

// NewExportResolver builds the fixed (metadata-derived) tables. Item and
// asset states are added afterwards by the batch resolution phase.
func NewExportResolver(
	collections []kontent.Collection,
	languages []kontent.Language,
	workflows []kontent.Workflow,
	taxonomies []kontent.TaxonomyGroup,
) *ExportResolver {
	r := &ExportResolver{
		items:       make(map[string]ItemState),
		assets:      make(map[string]AssetState),
		terms:       make(map[string]string),
		collections: make(map[string]string),
		languages:   make(map[string]string),
		steps:       make(map[string]string),
		workflows:   make(map[string]string),
	}
	for _, c := range collections {
		r.collections[c.ID] = c.Codename
	}
	for _, l := range languages {
		r.languages[l.ID] = l.Codename
	}
	for _, w := range workflows {
		r.workflows[w.ID] = w.Codename
		for _, s := range w.Steps {
			r.steps[s.ID] = s.Codename
		}
		r.steps[w.PublishedStep.ID] = w.PublishedStep.Codename
		r.steps[w.ScheduledStep.ID] = w.ScheduledStep.Codename
		r.steps[w.ArchivedStep.ID] = w.ArchivedStep.Codename
	}
	for _, g := range taxonomies {
		addTerms(r.terms, g.Terms)
	}
	return r
}

func addTerms(dst map[string]string, terms []kontent.TaxonomyTerm) {
	for _, t := range terms {
		dst[t.ID] = t.Codename
		addTerms(dst, t.Terms)
	}
}

// SetItemState records the batch-resolution outcome for an item ID.
func (r *ExportResolver) SetItemState(id string, state ItemState) {
	r.items[id] = state
}

// SetAssetState records the batch-resolution outcome for an asset ID.
func (r *ExportResolver) SetAssetState(id string, state AssetState) {
	r.assets[id] = state
}

// HasItemState reports whether an item ID was already batch-resolved.
func (r *ExportResolver) HasItemState(id string) bool {
	_, ok := r.items[id]
	return ok
}

// HasAssetState reports whether an asset ID was already batch-resolved.
func (r *ExportResolver) HasAssetState(id string) bool {
	_, ok := r.assets[id]
	return ok
}

// ItemCodename resolves an item ID to its codename. An unresolved ID is a
// hard failure: the exported graph must be internally consistent.
func (r *ExportResolver) ItemCodename(id string) (string, error) {
	state, ok := r.items[id]
	if !ok || !state.Exists {
		return "", merrors.ErrMissingReference("item", id)
	}
	return state.Item.Codename, nil
}

// Item returns the resolved content item for an ID.
func (r *ExportResolver) Item(id string) (*kontent.ContentItem, error) {
	state, ok := r.items[id]
	if !ok || !state.Exists {
		return nil, merrors.ErrMissingReference("item", id)
	}
	return state.Item, nil
}

// AssetCodename resolves an asset ID to its codename.
func (r *ExportResolver) AssetCodename(id string) (string, error) {
	state, ok := r.assets[id]
	if !ok || !state.Exists {
		return "", merrors.ErrMissingReference("asset", id)
	}
	return state.Asset.Codename, nil
}

// Asset returns the resolved asset for an ID.
func (r *ExportResolver) Asset(id string) (*kontent.Asset, error) {
	state, ok := r.assets[id]
	if !ok || !state.Exists {
		return nil, merrors.ErrMissingReference("asset", id)
	}
	return state.Asset, nil
}

// Assets returns every asset that resolved during batch resolution,
// ordered by codename so downstream output is deterministic.
func (r *ExportResolver) Assets() []*kontent.Asset {
	var out []*kontent.Asset
	for _, state := range r.assets {
		if state.Exists {
			out = append(out, state.Asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codename < out[j].Codename })
	return out
}

// TermCodename resolves a taxonomy term ID to its codename.
func (r *ExportResolver) TermCodename(id string) (string, error) {
	codename, ok := r.terms[id]
	if !ok {
		return "", merrors.ErrMissingReference("taxonomy term", id)
	}
	return codename, nil
}

// CollectionCodename resolves a collection ID to its codename.
func (r *ExportResolver) CollectionCodename(id string) (string, error) {
	codename, ok := r.collections[id]
	if !ok {
		return "", merrors.ErrMissingReference("collection", id)
	}
	return codename, nil
}

// LanguageCodename resolves a language ID to its codename.
func (r *ExportResolver) LanguageCodename(id string) (string, error) {
	codename, ok := r.languages[id]
	if !ok {
		return "", merrors.ErrMissingReference("language", id)
	}
	return codename, nil
}

// WorkflowCodename resolves a workflow ID to its codename.
func (r *ExportResolver) WorkflowCodename(id string) (string, error) {
	codename, ok := r.workflows[id]
	if !ok {
		return "", merrors.ErrMissingReference("workflow", id)
	}
	return codename, nil
}

// StepCodename resolves a workflow step ID to its codename.
func (r *ExportResolver) StepCodename(id string) (string, error) {
	codename, ok := r.steps[id]
	if !ok {
		return "", merrors.ErrMissingReference("workflow step", id)
	}
	return codename, nil
}

// ImportResolver maps incoming codenames to target-environment identities.
// Items and assets that exist in the target resolve to their real IDs;
// everything else resolves to the deterministic external ID so the target
// can create the reference before the referenced entity itself is created.
// Component codenames resolve to their derived component IDs and are never
// treated as standalone items.
type ImportResolver struct {
	itemIDs    map[string]string
	assetIDs   map[string]string
	components map[string]bool
}

// NewImportResolver creates an empty import identity map.
func NewImportResolver() *ImportResolver {
	return &ImportResolver{
		itemIDs:    make(map[string]string),
		assetIDs:   make(map[string]string),
		components: make(map[string]bool),
	}
}

// RegisterItem records the target-environment ID of an existing item.
func (r *ImportResolver) RegisterItem(codename, id string) {
	r.itemIDs[codename] = id
}

// RegisterAsset records the target-environment ID of an existing asset.
func (r *ImportResolver) RegisterAsset(codename, id string) {
	r.assetIDs[codename] = id
}

// RegisterComponent marks a codename as an inline component.
func (r *ImportResolver) RegisterComponent(codename string) {
	r.components[codename] = true
}

// IsComponent reports whether a codename belongs to an inline component.
func (r *ImportResolver) IsComponent(codename string) bool {
	return r.components[codename]
}

// ItemReference resolves an item codename to the reference the target
// environment accepts: existing ID, or external ID for forward references.
func (r *ImportResolver) ItemReference(codename string) kontent.ObjectReference {
	if id, ok := r.itemIDs[codename]; ok {
		return kontent.ObjectReference{ID: id}
	}
	return kontent.ObjectReference{ExternalID: ExternalItemID(codename)}
}

// AssetReference resolves an asset codename like ItemReference does for
// items. The second return is false when the asset is entirely unknown;
// callers decide whether that warrants a warning-and-skip.
func (r *ImportResolver) AssetReference(codename string) (kontent.ObjectReference, bool) {
	if id, ok := r.assetIDs[codename]; ok {
		return kontent.ObjectReference{ID: id}, true
	}
	return kontent.ObjectReference{ExternalID: ExternalAssetID(codename)}, false
}
