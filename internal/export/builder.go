// Package export builds a portable content graph from a source
// environment: it fetches environment metadata, resolves the requested
// items, extracts every transitively referenced item and asset, resolves
// those against the source in bounded-parallel batches and finally
// transforms each item into portable form.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/richtext"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/transform"
)

// ItemRequest names one language variant to export.
type ItemRequest struct {
	Codename string
	Language string
}

// Config controls an export run.
type Config struct {
	// SkipFailedItems downgrades per-item failures to log-and-continue.
	SkipFailedItems bool
	// ReplaceInvalidLinks degrades rich-text links to unresolvable items
	// to plain text instead of failing the element.
	ReplaceInvalidLinks bool
	// FetchAssetDetails downloads asset binaries into the graph.
	FetchAssetDetails bool
	// ResolveConcurrency bounds parallel referenced-entity resolution.
	ResolveConcurrency int
	// DownloadConcurrency bounds parallel asset binary downloads.
	DownloadConcurrency int
}

func (c Config) resolveLimit() int {
	if c.ResolveConcurrency > 0 {
		return c.ResolveConcurrency
	}
	return 5
}

func (c Config) downloadLimit() int {
	if c.DownloadConcurrency > 0 {
		return c.DownloadConcurrency
	}
	return 5
}

// Builder assembles the export context for one run.
type Builder struct {
	client   kontent.API
	cfg      Config
	logger   *slog.Logger
	reporter *progress.Reporter
}

// NewBuilder creates an export builder.
func NewBuilder(client kontent.API, cfg Config, reporter *progress.Reporter, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = progress.Discard()
	}
	return &Builder{client: client, cfg: cfg, logger: logger, reporter: reporter}
}

// preparedItem is one requested variant with its environment state.
type preparedItem struct {
	request ItemRequest
	item    *kontent.ContentItem
	variant *kontent.LanguageVariant
}

// Build runs the export state machine and returns the portable graph.
func (b *Builder) Build(ctx context.Context, requests []ItemRequest) (*migrate.Data, error) {
	// 1. Fetch environment metadata
	meta, err := b.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}

	types, err := transform.Flatten(meta.types, meta.snippets, meta.taxonomies)
	if err != nil {
		return nil, err
	}
	res := resolver.NewExportResolver(meta.collections, meta.languages, meta.workflows, meta.taxonomies)

	// 2. Resolve requested items, one call pair per item+language so a
	// failure names the offending request.
	prepared, err := b.prepareItems(ctx, requests, res)
	if err != nil {
		return nil, err
	}

	// 3. Extract every transitively referenced item/asset ID, recursing
	// into rich text and component payloads.
	itemIDs, assetIDs, err := b.extractReferences(prepared, types)
	if err != nil {
		return nil, err
	}

	// 4. Batch-resolve the referenced IDs against the source environment.
	if err := b.resolveReferences(ctx, res, itemIDs, assetIDs); err != nil {
		return nil, err
	}

	// 5. Transform prepared items into portable form.
	data, err := b.transformItems(prepared, types, res)
	if err != nil {
		return nil, err
	}

	// 6. Materialize referenced assets.
	assets, err := b.exportAssets(ctx, res)
	if err != nil {
		return nil, err
	}
	data.Assets = assets

	b.logger.Info("export complete", "items", len(data.Items), "assets", len(data.Assets))
	return data, nil
}

type environmentMetadata struct {
	collections []kontent.Collection
	languages   []kontent.Language
	workflows   []kontent.Workflow
	taxonomies  []kontent.TaxonomyGroup
	types       []kontent.ContentType
	snippets    []kontent.Snippet
}

func (b *Builder) fetchMetadata(ctx context.Context) (*environmentMetadata, error) {
	b.reporter.Report(progress.ActionFetch, "environment", "metadata")
	meta := &environmentMetadata{}
	var err error

	if meta.collections, err = b.client.ListCollections(ctx); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if meta.languages, err = b.client.ListLanguages(ctx); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	if meta.workflows, err = b.client.ListWorkflows(ctx); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	if meta.taxonomies, err = b.client.ListTaxonomies(ctx); err != nil {
		return nil, fmt.Errorf("list taxonomies: %w", err)
	}
	if meta.types, err = b.client.ListContentTypes(ctx); err != nil {
		return nil, fmt.Errorf("list content types: %w", err)
	}
	if meta.snippets, err = b.client.ListSnippets(ctx); err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	return meta, nil
}

// prepareItems fetches each requested item and variant. Requested items are
// processed serially to keep error attribution and progress deterministic.
func (b *Builder) prepareItems(ctx context.Context, requests []ItemRequest, res *resolver.ExportResolver) ([]preparedItem, error) {
	prepared := make([]preparedItem, 0, len(requests))
	for _, req := range requests {
		b.reporter.Report(progress.ActionFetch, "item", req.Codename)

		item, err := b.client.ContentItemByCodename(ctx, req.Codename)
		if err != nil {
			if b.skipUnit(err, "item", req) {
				continue
			}
			return nil, fmt.Errorf("resolve item '%s' (language '%s'): %w", req.Codename, req.Language, err)
		}
		variant, err := b.client.LanguageVariant(ctx, req.Codename, req.Language)
		if err != nil {
			if b.skipUnit(err, "variant", req) {
				continue
			}
			return nil, fmt.Errorf("resolve variant '%s' (language '%s'): %w", req.Codename, req.Language, err)
		}

		// Requested items are themselves resolvable references.
		res.SetItemState(item.ID, resolver.ItemState{Exists: true, Item: item})
		prepared = append(prepared, preparedItem{request: req, item: item, variant: variant})
	}
	return prepared, nil
}

func (b *Builder) skipUnit(err error, what string, req ItemRequest) bool {
	if !b.cfg.SkipFailedItems {
		return false
	}
	b.logger.Warn("skipping failed "+what,
		"codename", req.Codename, "language", req.Language, "error", err)
	b.reporter.Report(progress.ActionSkip, what, req.Codename)
	return true
}

// extractReferences walks every prepared item's element set and collects
// referenced item and asset IDs. Rich-text elements contribute their marker
// references and recurse into component sub-elements, since components can
// themselves reference items, assets and taxonomy.
func (b *Builder) extractReferences(prepared []preparedItem, types *transform.FlattenedTypes) (itemIDs, assetIDs []string, err error) {
	seenItems := make(map[string]bool)
	seenAssets := make(map[string]bool)

	addItem := func(id string) {
		if !seenItems[id] {
			seenItems[id] = true
			itemIDs = append(itemIDs, id)
		}
	}
	addAsset := func(id string) {
		if !seenAssets[id] {
			seenAssets[id] = true
			assetIDs = append(assetIDs, id)
		}
	}

	for _, p := range prepared {
		flat, err := types.TypeByID(p.item.Type.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := collectFromElements(flat, p.variant.Elements, types, addItem, addAsset); err != nil {
			return nil, nil, fmt.Errorf("extract references from '%s': %w", p.item.Codename, err)
		}
	}
	return itemIDs, assetIDs, nil
}

func collectFromElements(flat *transform.FlattenedType, elements []kontent.ElementData, types *transform.FlattenedTypes, addItem, addAsset func(string)) error {
	for _, el := range elements {
		def, ok := elementDef(flat, el.Element)
		if !ok {
			return merrors.ErrElementNotFound(flat.Codename, el.Element.Identifier())
		}

		switch migrate.ElementType(def.Type) {
		case migrate.ElementTypeModularContent, migrate.ElementTypeSubpages:
			for _, id := range referenceIDs(el.Value) {
				addItem(id)
			}
		case migrate.ElementTypeAsset:
			for _, id := range referenceIDs(el.Value) {
				addAsset(id)
			}
		case migrate.ElementTypeRichText:
			raw, _ := el.Value.(string)
			refs, err := richtext.CollectReferences(raw)
			if err != nil {
				return err
			}
			for _, id := range refs.ItemIDs {
				addItem(id)
			}
			for _, id := range refs.AssetIDs {
				addAsset(id)
			}
			for _, comp := range el.Components {
				compType, err := types.TypeByID(comp.Type.ID)
				if err != nil {
					return err
				}
				if err := collectFromElements(compType, comp.Elements, types, addItem, addAsset); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func elementDef(flat *transform.FlattenedType, ref kontent.ObjectReference) (*transform.FlattenedElement, bool) {
	if ref.ID != "" {
		return flat.ElementByID(ref.ID)
	}
	return flat.ElementByCodename(ref.Codename)
}

// referenceIDs reads the {id} reference list shape without failing: the
// transform stage re-reads the value strictly and reports malformed values
// with full diagnostics.
func referenceIDs(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var ids []string
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			if id, ok := m["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// resolveReferences batch-resolves referenced IDs with bounded parallelism.
// Results land in an indexed slice during the parallel phase; the resolver
// tables are populated afterwards so consumers only ever read them.
func (b *Builder) resolveReferences(ctx context.Context, res *resolver.ExportResolver, itemIDs, assetIDs []string) error {
	pendingItems := filterUnknown(itemIDs, res.HasItemState)
	pendingAssets := filterUnknown(assetIDs, res.HasAssetState)

	itemStates := make([]resolver.ItemState, len(pendingItems))
	assetStates := make([]resolver.AssetState, len(pendingAssets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.resolveLimit())

	for i, id := range pendingItems {
		g.Go(func() error {
			item, err := b.client.ContentItemByID(gctx, id)
			if err != nil {
				if kontent.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("resolve referenced item '%s': %w", id, err)
			}
			itemStates[i] = resolver.ItemState{Exists: true, Item: item}
			return nil
		})
	}
	for i, id := range pendingAssets {
		g.Go(func() error {
			asset, err := b.client.AssetByID(gctx, id)
			if err != nil {
				if kontent.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("resolve referenced asset '%s': %w", id, err)
			}
			assetStates[i] = resolver.AssetState{Exists: true, Asset: asset}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, id := range pendingItems {
		res.SetItemState(id, itemStates[i])
	}
	for i, id := range pendingAssets {
		res.SetAssetState(id, assetStates[i])
	}
	return nil
}

func filterUnknown(ids []string, known func(string) bool) []string {
	var out []string
	for _, id := range ids {
		if !known(id) {
			out = append(out, id)
		}
	}
	return out
}

// transformItems converts each prepared item into portable form.
func (b *Builder) transformItems(prepared []preparedItem, types *transform.FlattenedTypes, res *resolver.ExportResolver) (*migrate.Data, error) {
	exporter := transform.NewExporter(types, res, b.cfg.ReplaceInvalidLinks, b.logger)
	data := &migrate.Data{}

	for _, p := range prepared {
		item, err := b.transformItem(p, types, res, exporter)
		if err != nil {
			if b.skipUnit(err, "item", p.request) {
				continue
			}
			return nil, merrors.ErrItemFailed(p.request.Codename, p.request.Language, err)
		}
		data.Items = append(data.Items, item)
	}
	return data, nil
}

func (b *Builder) transformItem(p preparedItem, types *transform.FlattenedTypes, res *resolver.ExportResolver, exporter *transform.Exporter) (migrate.Item, error) {
	flat, err := types.TypeByID(p.item.Type.ID)
	if err != nil {
		return migrate.Item{}, err
	}
	collection, err := res.CollectionCodename(p.item.Collection.ID)
	if err != nil {
		return migrate.Item{}, err
	}

	elements, err := exporter.ExportElements(p.item.Type.ID, p.variant.Elements)
	if err != nil {
		return migrate.Item{}, err
	}

	version := migrate.Version{Elements: elements}
	if wf := p.variant.Workflow; wf.WorkflowIdentifier.ID != "" {
		workflowCodename, err := res.WorkflowCodename(wf.WorkflowIdentifier.ID)
		if err != nil {
			return migrate.Item{}, err
		}
		stepCodename, err := res.StepCodename(wf.StepIdentifier.ID)
		if err != nil {
			return migrate.Item{}, err
		}
		version.Workflow = migrate.Reference{Codename: workflowCodename}
		version.WorkflowStep = migrate.Reference{Codename: stepCodename}
	}

	return migrate.Item{
		System: migrate.ItemSystem{
			Codename:   p.item.Codename,
			Name:       p.item.Name,
			Language:   migrate.Reference{Codename: p.request.Language},
			Type:       migrate.Reference{Codename: flat.Codename},
			Collection: migrate.Reference{Codename: collection},
		},
		Versions: []migrate.Version{version},
	}, nil
}

// exportAssets materializes every resolved referenced asset, downloading
// binaries with bounded parallelism when asset details are requested.
func (b *Builder) exportAssets(ctx context.Context, res *resolver.ExportResolver) ([]migrate.Asset, error) {
	sources := res.Assets()
	assets := make([]migrate.Asset, len(sources))

	for i, src := range sources {
		asset := migrate.Asset{
			Codename: src.Codename,
			Filename: src.FileName,
			Title:    src.Title,
			Size:     src.Size,
			URL:      src.URL,
		}
		if src.Collection != nil && src.Collection.ID != "" {
			codename, err := res.CollectionCodename(src.Collection.ID)
			if err != nil {
				return nil, err
			}
			asset.Collection = &migrate.Reference{Codename: codename}
		}
		for _, d := range src.Descriptions {
			lang, err := res.LanguageCodename(d.Language.ID)
			if err != nil {
				return nil, err
			}
			asset.Descriptions = append(asset.Descriptions, migrate.AssetDescription{
				Language:    migrate.Reference{Codename: lang},
				Description: d.Description,
			})
		}
		assets[i] = asset
	}

	if !b.cfg.FetchAssetDetails {
		return assets, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.downloadLimit())
	for i := range assets {
		g.Go(func() error {
			if assets[i].URL == "" {
				return nil
			}
			b.reporter.Report(progress.ActionFetch, "asset binary", assets[i].Codename)
			data, err := b.client.DownloadBinary(gctx, assets[i].URL)
			if err != nil {
				return merrors.ErrAssetFailed(assets[i].Codename, err)
			}
			assets[i].Binary = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}
