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

// Exporter turns environment element payloads into portable values.
type Exporter struct {
	types  *FlattenedTypes
	res    *resolver.ExportResolver
	rich   *richtext.ExportProcessor
	logger *slog.Logger
}

// NewExporter creates the export-direction transform set.
func NewExporter(types *FlattenedTypes, res *resolver.ExportResolver, replaceInvalidLinks bool, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	rich := richtext.NewExportProcessor(richtext.ExportConfig{
		ResolveItemCodename:  res.ItemCodename,
		ResolveAssetCodename: res.AssetCodename,
		ReplaceInvalidLinks:  replaceInvalidLinks,
	}, logger)
	return &Exporter{types: types, res: res, rich: rich, logger: logger}
}

// ExportElements transforms every element of a variant into portable form,
// ordered by element codename for deterministic output.
func (e *Exporter) ExportElements(typeID string, elements []kontent.ElementData) ([]migrate.Element, error) {
	flat, err := e.types.TypeByID(typeID)
	if err != nil {
		return nil, err
	}

	out := make([]migrate.Element, 0, len(elements))
	for _, el := range elements {
		def, ok := flat.ElementByID(el.Element.ID)
		if !ok {
			return nil, merrors.ErrElementNotFound(flat.Codename, el.Element.ID)
		}
		exported, err := e.exportElement(def, el, flat)
		if err != nil {
			return nil, merrors.ErrElementTransform(def.Codename, def.Type, dumpValue(el.Value), err)
		}
		out = append(out, exported)
	}

	migrate.SortElements(out)
	return out, nil
}

// exportElement transforms one element value. The switch is exhaustive over
// the element type enum.
func (e *Exporter) exportElement(def *FlattenedElement, el kontent.ElementData, owner *FlattenedType) (migrate.Element, error) {
	result := migrate.Element{
		Codename: def.Codename,
		Type:     migrate.ElementType(def.Type),
	}

	switch migrate.ElementType(def.Type) {
	case migrate.ElementTypeText, migrate.ElementTypeCustom:
		s, err := asString(el.Value)
		if err != nil {
			return result, err
		}
		result.Value = s

	case migrate.ElementTypeNumber:
		n, err := asNumber(el.Value)
		if err != nil {
			return result, err
		}
		result.Value = n

	case migrate.ElementTypeDateTime:
		s, err := asString(el.Value)
		if err != nil {
			return result, err
		}
		result.Value = migrate.DateTimeValue{Value: s, DisplayTimezone: el.DisplayTimezone}

	case migrate.ElementTypeURLSlug:
		s, err := asString(el.Value)
		if err != nil {
			return result, err
		}
		result.Value = migrate.URLSlugValue{Value: s, Mode: el.Mode}

	case migrate.ElementTypeMultipleChoice:
		ids, err := asReferenceIDs(el.Value)
		if err != nil {
			return result, err
		}
		refs := make([]migrate.Reference, 0, len(ids))
		for _, id := range ids {
			codename, ok := def.OptionsByID[id]
			if !ok {
				return result, fmt.Errorf("multiple choice option '%s' not defined on element '%s'", id, def.Codename)
			}
			refs = append(refs, migrate.Reference{Codename: codename})
		}
		result.Value = refs

	case migrate.ElementTypeTaxonomy:
		ids, err := asReferenceIDs(el.Value)
		if err != nil {
			return result, err
		}
		refs := make([]migrate.Reference, 0, len(ids))
		for _, id := range ids {
			codename, ok := def.TermsByID[id]
			if !ok {
				// Terms can live outside the element's group snapshot.
				c, err := e.res.TermCodename(id)
				if err != nil {
					return result, err
				}
				codename = c
			}
			refs = append(refs, migrate.Reference{Codename: codename})
		}
		result.Value = refs

	case migrate.ElementTypeAsset:
		ids, err := asReferenceIDs(el.Value)
		if err != nil {
			return result, err
		}
		refs := make([]migrate.Reference, 0, len(ids))
		for _, id := range ids {
			codename, err := e.res.AssetCodename(id)
			if err != nil {
				return result, err
			}
			refs = append(refs, migrate.Reference{Codename: codename})
		}
		result.Value = refs

	case migrate.ElementTypeModularContent, migrate.ElementTypeSubpages:
		ids, err := asReferenceIDs(el.Value)
		if err != nil {
			return result, err
		}
		refs := make([]migrate.Reference, 0, len(ids))
		for _, id := range ids {
			codename, err := e.res.ItemCodename(id)
			if err != nil {
				return result, err
			}
			refs = append(refs, migrate.Reference{Codename: codename})
		}
		result.Value = refs

	case migrate.ElementTypeRichText:
		raw, err := asString(el.Value)
		if err != nil {
			return result, err
		}
		processed, err := e.rich.Process(raw)
		if err != nil {
			return result, err
		}
		components, err := e.exportComponents(processed.ComponentIDs, el.Components)
		if err != nil {
			return result, err
		}
		result.Value = migrate.RichTextValue{HTML: processed.HTML, Components: components}

	default:
		return result, fmt.Errorf("unknown element type '%s'", def.Type)
	}

	return result, nil
}

// exportComponents materializes the inline components a rich-text rewrite
// extracted, recursively transforming their element sets. The component's
// portable codename is its environment ID, which round-trips back to the
// same identifier on import.
func (e *Exporter) exportComponents(componentIDs []string, available []kontent.ComponentData) ([]migrate.Component, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}

	byID := make(map[string]kontent.ComponentData, len(available))
	for _, c := range available {
		byID[c.ID] = c
	}

	out := make([]migrate.Component, 0, len(componentIDs))
	for _, id := range componentIDs {
		comp, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("component '%s' referenced by rich text but not present in element payload", id)
		}
		compType, err := e.types.TypeByID(comp.Type.ID)
		if err != nil {
			return nil, err
		}
		elements, err := e.ExportElements(comp.Type.ID, comp.Elements)
		if err != nil {
			return nil, err
		}
		out = append(out, migrate.Component{
			Codename: comp.ID,
			Type:     migrate.Reference{Codename: compType.Codename},
			Elements: elements,
		})
	}
	return out, nil
}
