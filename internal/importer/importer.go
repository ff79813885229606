// Package importer replays a portable content graph into a target
// environment. Phase ordering is mandatory: assets import before content
// items, content items before language variants, so every identity exists
// before something references it. Inline component items never become
// standalone content items.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/transform"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/workflow"
)

// Config controls an import run.
type Config struct {
	// SkipFailedItems downgrades per-unit failures to log-and-continue.
	// Element transform failures stay fatal regardless.
	SkipFailedItems bool
	// CanImportAsset filters incoming assets. Nil imports everything.
	CanImportAsset func(asset migrate.Asset) bool
	// CanImportItem filters incoming items. Nil imports everything.
	CanImportItem func(item migrate.Item) bool
}

// UnitError is one per-unit failure recorded during a skip-enabled run.
type UnitError struct {
	Codename string
	Err      error
}

// Result summarizes what an import run did.
type Result struct {
	AssetsCreated int
	AssetsUpdated int
	AssetsSkipped int

	ItemsCreated int
	ItemsUpdated int
	ItemsSkipped int

	VariantsUpserted int

	Errors []UnitError
}

// Importer reconciles a portable graph against a target environment.
type Importer struct {
	client   kontent.API
	cfg      Config
	reporter *progress.Reporter
	logger   *slog.Logger
}

// New creates an importer.
func New(client kontent.API, cfg Config, reporter *progress.Reporter, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = progress.Discard()
	}
	return &Importer{client: client, cfg: cfg, reporter: reporter, logger: logger}
}

// Run executes the import and returns the result.
func (imp *Importer) Run(ctx context.Context, data *migrate.Data) (*Result, error) {
	result := &Result{}

	// 1. Fetch target environment metadata
	meta, err := imp.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	types, err := transform.Flatten(meta.types, meta.snippets, meta.taxonomies)
	if err != nil {
		return nil, err
	}
	engine := workflow.NewEngine(imp.client, meta.workflows, imp.reporter, imp.logger)

	collectionsByID := make(map[string]string, len(meta.collections))
	collectionCodenames := make([]string, 0, len(meta.collections))
	for _, c := range meta.collections {
		collectionsByID[c.ID] = c.Codename
		collectionCodenames = append(collectionCodenames, c.Codename)
	}
	languageCodenames := make([]string, 0, len(meta.languages))
	for _, l := range meta.languages {
		languageCodenames = append(languageCodenames, l.Codename)
	}

	// 2. Categorize incoming items: inline components are registered for
	// reference resolution only and never created as standalone items.
	res := resolver.NewImportResolver()
	var regular []migrate.Item
	for _, item := range data.Items {
		if item.IsComponent() {
			res.RegisterComponent(item.System.Codename)
			continue
		}
		regular = append(regular, item)
	}

	// 3. Assets first: item elements referencing them need their identity.
	if err := imp.importAssets(ctx, data.Assets, res, collectionsByID, result); err != nil {
		return nil, err
	}

	// 4. Content items next.
	if err := imp.importItems(ctx, regular, res, collectionsByID, collectionCodenames, result); err != nil {
		return nil, err
	}

	// 5. Language variants last.
	if err := imp.importVariants(ctx, regular, types, res, engine, languageCodenames, result); err != nil {
		return nil, err
	}

	imp.logger.Info("import complete",
		"assets_created", result.AssetsCreated, "assets_updated", result.AssetsUpdated,
		"items_created", result.ItemsCreated, "items_updated", result.ItemsUpdated,
		"variants_upserted", result.VariantsUpserted, "errors", len(result.Errors))
	return result, nil
}

type targetMetadata struct {
	collections []kontent.Collection
	languages   []kontent.Language
	workflows   []kontent.Workflow
	taxonomies  []kontent.TaxonomyGroup
	types       []kontent.ContentType
	snippets    []kontent.Snippet
}

func (imp *Importer) fetchMetadata(ctx context.Context) (*targetMetadata, error) {
	imp.reporter.Report(progress.ActionFetch, "environment", "metadata")
	meta := &targetMetadata{}
	var err error

	if meta.collections, err = imp.client.ListCollections(ctx); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if meta.languages, err = imp.client.ListLanguages(ctx); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	if meta.workflows, err = imp.client.ListWorkflows(ctx); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	if meta.taxonomies, err = imp.client.ListTaxonomies(ctx); err != nil {
		return nil, fmt.Errorf("list taxonomies: %w", err)
	}
	if meta.types, err = imp.client.ListContentTypes(ctx); err != nil {
		return nil, fmt.Errorf("list content types: %w", err)
	}
	if meta.snippets, err = imp.client.ListSnippets(ctx); err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	return meta, nil
}

// failUnit applies the per-unit skip-or-fail policy. Element transform
// failures indicate a structural data problem and are never skipped.
func (imp *Importer) failUnit(err error, codename string, result *Result) error {
	if merr := merrors.AsMigrateError(err); merr != nil && merr.Code == merrors.CodeElementTransform {
		return err
	}
	if !imp.cfg.SkipFailedItems {
		return err
	}
	imp.logger.Warn("skipping failed unit", "codename", codename, "error", err)
	imp.reporter.Report(progress.ActionSkip, "unit", codename)
	result.Errors = append(result.Errors, UnitError{Codename: codename, Err: err})
	return nil
}

// importItems creates or narrowly updates each incoming content item.
func (imp *Importer) importItems(ctx context.Context, items []migrate.Item, res *resolver.ImportResolver, collectionsByID map[string]string, collectionCodenames []string, result *Result) error {
	for _, item := range items {
		if imp.cfg.CanImportItem != nil && !imp.cfg.CanImportItem(item) {
			result.ItemsSkipped++
			continue
		}
		if err := imp.importItem(ctx, item, res, collectionsByID, collectionCodenames, result); err != nil {
			if ferr := imp.failUnit(err, item.System.Codename, result); ferr != nil {
				return merrors.ErrItemFailed(item.System.Codename, item.System.Language.Codename, ferr)
			}
		}
	}
	return nil
}

func (imp *Importer) importItem(ctx context.Context, item migrate.Item, res *resolver.ImportResolver, collectionsByID map[string]string, collectionCodenames []string, result *Result) error {
	codename := item.System.Codename
	if !slices.Contains(collectionCodenames, item.System.Collection.Codename) {
		return merrors.ErrCollectionNotFound(item.System.Collection.Codename, collectionCodenames)
	}
	existing, err := imp.client.ContentItemByCodename(ctx, codename)
	if err != nil && !kontent.IsNotFound(err) {
		return fmt.Errorf("fetch item '%s': %w", codename, err)
	}

	if existing == nil {
		imp.reporter.Report(progress.ActionCreate, "item", codename)
		created, err := imp.client.CreateContentItem(ctx, kontent.ContentItemDraft{
			Name:       item.System.Name,
			Codename:   codename,
			Type:       &kontent.ObjectReference{Codename: item.System.Type.Codename},
			Collection: &kontent.ObjectReference{Codename: item.System.Collection.Codename},
			ExternalID: resolver.ExternalItemID(codename),
		})
		if err != nil {
			return fmt.Errorf("create item '%s': %w", codename, err)
		}
		res.RegisterItem(codename, created.ID)
		result.ItemsCreated++
		return nil
	}

	res.RegisterItem(codename, existing.ID)

	// Update decision compares name and collection only; any other
	// difference is ignored.
	if !shouldUpdateItem(existing, item, collectionsByID) {
		result.ItemsSkipped++
		return nil
	}

	imp.reporter.Report(progress.ActionUpsert, "item", codename)
	if _, err := imp.client.UpsertContentItem(ctx, codename, kontent.ContentItemDraft{
		Name:       item.System.Name,
		Collection: &kontent.ObjectReference{Codename: item.System.Collection.Codename},
	}); err != nil {
		return fmt.Errorf("update item '%s': %w", codename, err)
	}
	result.ItemsUpdated++
	return nil
}

// shouldUpdateItem reports whether the target item differs from the
// incoming one in name or collection codename.
func shouldUpdateItem(existing *kontent.ContentItem, incoming migrate.Item, collectionsByID map[string]string) bool {
	if existing.Name != incoming.System.Name {
		return true
	}
	existingCollection := existing.Collection.Codename
	if existingCollection == "" {
		existingCollection = collectionsByID[existing.Collection.ID]
	}
	return existingCollection != incoming.System.Collection.Codename
}

// importVariants upserts each item version's elements and finalizes its
// workflow state.
func (imp *Importer) importVariants(ctx context.Context, items []migrate.Item, types *transform.FlattenedTypes, res *resolver.ImportResolver, engine *workflow.Engine, languageCodenames []string, result *Result) error {
	restorer := transform.NewImporter(types, res, imp.logger)

	for _, item := range items {
		if imp.cfg.CanImportItem != nil && !imp.cfg.CanImportItem(item) {
			continue
		}
		if err := imp.importItemVariants(ctx, item, restorer, engine, languageCodenames, result); err != nil {
			if ferr := imp.failUnit(err, item.System.Codename, result); ferr != nil {
				return merrors.ErrItemFailed(item.System.Codename, item.System.Language.Codename, ferr)
			}
		}
	}
	return nil
}

func (imp *Importer) importItemVariants(ctx context.Context, item migrate.Item, restorer *transform.Importer, engine *workflow.Engine, languageCodenames []string, result *Result) error {
	codename := item.System.Codename
	language := item.System.Language.Codename
	if !slices.Contains(languageCodenames, language) {
		return merrors.ErrLanguageNotFound(language, languageCodenames)
	}

	// The variant's current step feeds the already-there no-op check.
	currentStep := ""
	if existing, err := imp.client.LanguageVariant(ctx, codename, language); err == nil {
		currentStep = engine.CurrentStepCodename(existing.Workflow.StepIdentifier)
	} else if !kontent.IsNotFound(err) {
		return fmt.Errorf("fetch variant '%s' (language '%s'): %w", codename, language, err)
	}

	// Versions replay in order; the last one's workflow state wins.
	for _, version := range item.Versions {
		elements, err := restorer.RestoreElements(item.System.Type.Codename, version.Elements)
		if err != nil {
			return err
		}

		imp.reporter.Report(progress.ActionUpsert, "variant", codename)
		if _, err := imp.client.UpsertLanguageVariant(ctx, codename, language, kontent.LanguageVariantData{
			Elements: elements,
		}); err != nil {
			return fmt.Errorf("upsert variant '%s' (language '%s'): %w", codename, language, err)
		}
		result.VariantsUpserted++

		if version.WorkflowStep.Codename == "" {
			continue
		}
		if err := engine.Transition(ctx, codename, language,
			version.Workflow.Codename, version.WorkflowStep.Codename, currentStep); err != nil {
			return err
		}
		currentStep = version.WorkflowStep.Codename
	}
	return nil
}
