package importer

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
)

// importAssets reconciles every incoming asset against the target.
func (imp *Importer) importAssets(ctx context.Context, assets []migrate.Asset, res *resolver.ImportResolver, collectionsByID map[string]string, result *Result) error {
	for _, asset := range assets {
		if imp.cfg.CanImportAsset != nil && !imp.cfg.CanImportAsset(asset) {
			result.AssetsSkipped++
			continue
		}
		if err := imp.importAsset(ctx, asset, res, collectionsByID, result); err != nil {
			if ferr := imp.failUnit(err, asset.Codename, result); ferr != nil {
				return merrors.ErrAssetFailed(asset.Codename, ferr)
			}
		}
	}
	return nil
}

func (imp *Importer) importAsset(ctx context.Context, asset migrate.Asset, res *resolver.ImportResolver, collectionsByID map[string]string, result *Result) error {
	existing, err := imp.client.AssetByCodename(ctx, asset.Codename)
	if err != nil && !kontent.IsNotFound(err) {
		return fmt.Errorf("fetch asset '%s': %w", asset.Codename, err)
	}

	if existing == nil {
		imp.reporter.Report(progress.ActionCreate, "asset", asset.Codename)
		created, err := imp.createAsset(ctx, asset)
		if err != nil {
			return err
		}
		res.RegisterAsset(asset.Codename, created.ID)
		result.AssetsCreated++
		return nil
	}

	res.RegisterAsset(asset.Codename, existing.ID)

	update := ShouldUpdateAsset(existing, asset, collectionsByID)
	replaceBinary := ShouldReplaceBinaryFile(existing, asset)
	if !update && !replaceBinary {
		result.AssetsSkipped++
		return nil
	}

	draft := assetDraft(asset)
	if replaceBinary {
		fileRef, err := imp.uploadBinary(ctx, asset)
		if err != nil {
			return err
		}
		draft.FileReference = &fileRef
	}

	imp.reporter.Report(progress.ActionUpsert, "asset", asset.Codename)
	if _, err := imp.client.UpsertAsset(ctx, asset.Codename, draft); err != nil {
		return fmt.Errorf("update asset '%s': %w", asset.Codename, err)
	}
	result.AssetsUpdated++
	return nil
}

func (imp *Importer) createAsset(ctx context.Context, asset migrate.Asset) (*kontent.Asset, error) {
	draft := assetDraft(asset)
	draft.Codename = asset.Codename
	draft.ExternalID = resolver.ExternalAssetID(asset.Codename)

	if len(asset.Binary) > 0 {
		fileRef, err := imp.uploadBinary(ctx, asset)
		if err != nil {
			return nil, err
		}
		draft.FileReference = &fileRef
	}

	created, err := imp.client.CreateAsset(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create asset '%s': %w", asset.Codename, err)
	}
	return created, nil
}

func (imp *Importer) uploadBinary(ctx context.Context, asset migrate.Asset) (kontent.ObjectReference, error) {
	if len(asset.Binary) == 0 {
		return kontent.ObjectReference{}, fmt.Errorf("asset '%s' has no binary payload to upload", asset.Codename)
	}
	contentType := mime.TypeByExtension(filepath.Ext(asset.Filename))
	ref, err := imp.client.UploadBinaryFile(ctx, asset.Filename, contentType, asset.Binary)
	if err != nil {
		return kontent.ObjectReference{}, fmt.Errorf("upload binary for asset '%s': %w", asset.Codename, err)
	}
	return ref, nil
}

func assetDraft(asset migrate.Asset) kontent.AssetDraft {
	draft := kontent.AssetDraft{Title: asset.Title}
	if asset.Collection != nil {
		draft.Collection = &kontent.ObjectReference{Codename: asset.Collection.Codename}
	}
	for _, d := range asset.Descriptions {
		draft.Descriptions = append(draft.Descriptions, kontent.AssetDescription{
			Language:    kontent.ObjectReference{Codename: d.Language.Codename},
			Description: d.Description,
		})
	}
	return draft
}

// ShouldUpdateAsset reports whether the target asset's metadata differs
// from the incoming one: collection, description set, title, or binary
// identity (size plus filename as a content-identity proxy, never a hash).
func ShouldUpdateAsset(existing *kontent.Asset, incoming migrate.Asset, collectionsByID map[string]string) bool {
	if existing.Title != incoming.Title {
		return true
	}
	if existingCollection(existing, collectionsByID) != incomingCollection(incoming) {
		return true
	}
	if existing.Size != incoming.Size || existing.FileName != incoming.Filename {
		return true
	}
	return !sameDescriptions(existing.Descriptions, incoming.Descriptions)
}

// ShouldReplaceBinaryFile reports whether the binary payload itself must be
// re-uploaded. The decision is independent of metadata-only differences: a
// title or description change never re-uploads the file.
func ShouldReplaceBinaryFile(existing *kontent.Asset, incoming migrate.Asset) bool {
	if len(incoming.Binary) == 0 {
		return false
	}
	return existing.Size != incoming.Size || existing.FileName != incoming.Filename
}

func existingCollection(existing *kontent.Asset, collectionsByID map[string]string) string {
	if existing.Collection == nil {
		return ""
	}
	if existing.Collection.Codename != "" {
		return existing.Collection.Codename
	}
	return collectionsByID[existing.Collection.ID]
}

func incomingCollection(incoming migrate.Asset) string {
	if incoming.Collection == nil {
		return ""
	}
	return incoming.Collection.Codename
}

func sameDescriptions(existing []kontent.AssetDescription, incoming []migrate.AssetDescription) bool {
	if len(existing) != len(incoming) {
		return false
	}
	byLanguage := make(map[string]string, len(existing))
	for _, d := range existing {
		byLanguage[d.Language.Codename] = d.Description
	}
	for _, d := range incoming {
		desc, ok := byLanguage[d.Language.Codename]
		if !ok || desc != d.Description {
			return false
		}
	}
	return true
}
