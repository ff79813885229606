package transform

import (
	"fmt"
	"log/slog"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/resolver"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/richtext"
)

// urlSlugModeCustom is the mode every imported url_slug gets: the migrated
// value is authoritative, not regenerated from the item name.
const urlSlugModeCustom = "custom"

// Importer turns portable values back into environment element payloads.
type Importer struct {
	types  *FlattenedTypes
	res    *resolver.ImportResolver
	rich   *richtext.ImportProcessor
	logger *slog.Logger
}

// NewImporter creates the import-direction transform set.
func NewImporter(types *FlattenedTypes, res *resolver.ImportResolver, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	rich := richtext.NewImportProcessor(richtext.ImportConfig{
		ResolveItemReference:  res.ItemReference,
		ResolveAssetReference: res.AssetReference,
	}, logger)
	return &Importer{types: types, res: res, rich: rich, logger: logger}
}

// RestoreElements transforms every portable element of an item version into
// the payload the target environment accepts.
func (t *Importer) RestoreElements(typeCodename string, elements []migrate.Element) ([]kontent.ElementData, error) {
	flat, err := t.types.TypeByCodename(typeCodename)
	if err != nil {
		return nil, err
	}

	out := make([]kontent.ElementData, 0, len(elements))
	for _, el := range elements {
		def, ok := flat.ElementByCodename(el.Codename)
		if !ok {
			return nil, merrors.ErrElementNotFound(flat.Codename, el.Codename)
		}
		restored, err := t.restoreElement(def, el)
		if err != nil {
			return nil, merrors.ErrElementTransform(el.Codename, string(el.Type), dumpValue(el.Value), err)
		}
		out = append(out, restored)
	}
	return out, nil
}

// restoreElement transforms one portable element value. The switch is
// exhaustive over the element type enum.
func (t *Importer) restoreElement(def *FlattenedElement, el migrate.Element) (kontent.ElementData, error) {
	result := kontent.ElementData{
		Element: kontent.ObjectReference{Codename: def.Codename},
	}

	switch el.Type {
	case migrate.ElementTypeText, migrate.ElementTypeCustom:
		s, err := portableString(el.Value)
		if err != nil {
			return result, err
		}
		if s == "" {
			result.Value = nil
		} else {
			result.Value = s
		}

	case migrate.ElementTypeNumber:
		switch v := el.Value.(type) {
		case nil:
			result.Value = nil
		case *float64:
			if v == nil {
				result.Value = nil
			} else {
				result.Value = *v
			}
		case float64:
			result.Value = v
		default:
			return result, fmt.Errorf("expected number value, got %T", el.Value)
		}

	case migrate.ElementTypeDateTime:
		v, ok := el.Value.(migrate.DateTimeValue)
		if !ok {
			if el.Value == nil {
				result.Value = nil
				break
			}
			return result, fmt.Errorf("expected date_time value, got %T", el.Value)
		}
		if v.Value == "" {
			result.Value = nil
		} else {
			result.Value = v.Value
			result.DisplayTimezone = v.DisplayTimezone
		}

	case migrate.ElementTypeURLSlug:
		v, ok := el.Value.(migrate.URLSlugValue)
		if !ok {
			return result, fmt.Errorf("expected url_slug value, got %T", el.Value)
		}
		result.Value = v.Value
		result.Mode = urlSlugModeCustom

	case migrate.ElementTypeMultipleChoice, migrate.ElementTypeTaxonomy:
		refs, err := portableReferences(el.Value)
		if err != nil {
			return result, err
		}
		wire := make([]kontent.ObjectReference, 0, len(refs))
		for _, ref := range refs {
			wire = append(wire, kontent.ObjectReference{Codename: ref.Codename})
		}
		result.Value = wire

	case migrate.ElementTypeAsset:
		refs, err := portableReferences(el.Value)
		if err != nil {
			return result, err
		}
		wire := make([]kontent.ObjectReference, 0, len(refs))
		for _, ref := range refs {
			resolved, known := t.res.AssetReference(ref.Codename)
			if !known {
				t.logger.Warn("skipping reference to unknown asset",
					"asset_codename", ref.Codename, "element", def.Codename)
				continue
			}
			wire = append(wire, resolved)
		}
		result.Value = wire

	case migrate.ElementTypeModularContent, migrate.ElementTypeSubpages:
		refs, err := portableReferences(el.Value)
		if err != nil {
			return result, err
		}
		wire := make([]kontent.ObjectReference, 0, len(refs))
		for _, ref := range refs {
			// Inline components never exist as standalone items, so a
			// linked-items reference to one can never resolve.
			if t.res.IsComponent(ref.Codename) {
				t.logger.Warn("skipping linked items reference to inline component",
					"item_codename", ref.Codename, "element", def.Codename)
				continue
			}
			wire = append(wire, t.res.ItemReference(ref.Codename))
		}
		result.Value = wire

	case migrate.ElementTypeRichText:
		v, ok := el.Value.(migrate.RichTextValue)
		if !ok {
			return result, fmt.Errorf("expected rich_text value, got %T", el.Value)
		}
		processed, err := t.rich.Process(v.HTML)
		if err != nil {
			return result, err
		}
		components, err := t.restoreComponents(v.Components)
		if err != nil {
			return result, err
		}
		result.Value = processed
		result.Components = components

	default:
		return result, fmt.Errorf("unknown element type '%s'", el.Type)
	}

	return result, nil
}

// restoreComponents rebuilds inline component payloads, recursively
// transforming their element sets. The component ID derivation is the same
// pure function the rich-text rewrite uses, so markers and payloads agree.
func (t *Importer) restoreComponents(components []migrate.Component) ([]kontent.ComponentData, error) {
	if len(components) == 0 {
		return nil, nil
	}
	out := make([]kontent.ComponentData, 0, len(components))
	for _, comp := range components {
		elements, err := t.RestoreElements(comp.Type.Codename, comp.Elements)
		if err != nil {
			return nil, err
		}
		out = append(out, kontent.ComponentData{
			ID:       resolver.ComponentID(comp.Codename),
			Type:     kontent.ObjectReference{Codename: comp.Type.Codename},
			Elements: elements,
		})
	}
	return out, nil
}

func portableString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string value, got %T", v)
	}
	return s, nil
}

func portableReferences(v any) ([]migrate.Reference, error) {
	if v == nil {
		return nil, nil
	}
	refs, ok := v.([]migrate.Reference)
	if !ok {
		return nil, fmt.Errorf("expected reference list, got %T", v)
	}
	return refs, nil
}
