// Package transform converts element values between environment payloads
// and portable values, one total function per element type in each
// direction. Dispatch is an exhaustive switch over the closed element type
// enum, so an element type without a transform does not compile past its
// tests.
package transform

import (
	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
)

// FlattenedElement is one element of a flattened content type, carrying the
// per-option and per-term metadata the transforms need for ID↔codename
// translation.
type FlattenedElement struct {
	ID       string
	Codename string
	Type     string

	// multiple_choice metadata
	OptionsByID       map[string]string
	OptionsByCodename map[string]string

	// taxonomy metadata
	TaxonomyGroup   string
	TermsByID       map[string]string
	TermsByCodename map[string]string
}

// FlattenedType is a content type with snippet elements expanded inline.
type FlattenedType struct {
	ID       string
	Codename string
	Elements []FlattenedElement

	byID       map[string]*FlattenedElement
	byCodename map[string]*FlattenedElement
}

// ElementByID finds an element definition by internal ID.
func (t *FlattenedType) ElementByID(id string) (*FlattenedElement, bool) {
	el, ok := t.byID[id]
	return el, ok
}

// ElementByCodename finds an element definition by codename.
func (t *FlattenedType) ElementByCodename(codename string) (*FlattenedElement, bool) {
	el, ok := t.byCodename[codename]
	return el, ok
}

// FlattenedTypes indexes every flattened content type of one environment.
type FlattenedTypes struct {
	byID       map[string]*FlattenedType
	byCodename map[string]*FlattenedType
}

// TypeByID finds a flattened type by internal ID.
func (f *FlattenedTypes) TypeByID(id string) (*FlattenedType, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, merrors.ErrContentTypeNotFound(id)
	}
	return t, nil
}

// TypeByCodename finds a flattened type by codename.
func (f *FlattenedTypes) TypeByCodename(codename string) (*FlattenedType, error) {
	t, ok := f.byCodename[codename]
	if !ok {
		return nil, merrors.ErrContentTypeNotFound(codename)
	}
	return t, nil
}

// Flatten expands snippet elements of every content type inline and
// attaches option/term metadata. A snippet element referencing an unknown
// snippet is a fatal schema error.
func Flatten(types []kontent.ContentType, snippets []kontent.Snippet, taxonomies []kontent.TaxonomyGroup) (*FlattenedTypes, error) {
	snippetsByID := make(map[string]*kontent.Snippet, len(snippets))
	snippetsByCodename := make(map[string]*kontent.Snippet, len(snippets))
	for i := range snippets {
		snippetsByID[snippets[i].ID] = &snippets[i]
		snippetsByCodename[snippets[i].Codename] = &snippets[i]
	}

	taxonomiesByID := make(map[string]*kontent.TaxonomyGroup, len(taxonomies))
	taxonomiesByCodename := make(map[string]*kontent.TaxonomyGroup, len(taxonomies))
	for i := range taxonomies {
		taxonomiesByID[taxonomies[i].ID] = &taxonomies[i]
		taxonomiesByCodename[taxonomies[i].Codename] = &taxonomies[i]
	}

	out := &FlattenedTypes{
		byID:       make(map[string]*FlattenedType, len(types)),
		byCodename: make(map[string]*FlattenedType, len(types)),
	}

	for _, ct := range types {
		flat := &FlattenedType{
			ID:         ct.ID,
			Codename:   ct.Codename,
			byID:       make(map[string]*FlattenedElement),
			byCodename: make(map[string]*FlattenedElement),
		}

		for _, el := range ct.Elements {
			if el.Type == "snippet" {
				if el.Snippet == nil {
					return nil, merrors.ErrSnippetInvalid(ct.Codename, "(no reference)")
				}
				snippet := lookupSnippet(snippetsByID, snippetsByCodename, *el.Snippet)
				if snippet == nil {
					return nil, merrors.ErrSnippetInvalid(ct.Codename, el.Snippet.Identifier())
				}
				for _, sel := range snippet.Elements {
					flat.Elements = append(flat.Elements, flattenElement(sel, taxonomiesByID, taxonomiesByCodename))
				}
				continue
			}
			flat.Elements = append(flat.Elements, flattenElement(el, taxonomiesByID, taxonomiesByCodename))
		}

		for i := range flat.Elements {
			flat.byID[flat.Elements[i].ID] = &flat.Elements[i]
			flat.byCodename[flat.Elements[i].Codename] = &flat.Elements[i]
		}

		out.byID[ct.ID] = flat
		out.byCodename[ct.Codename] = flat
	}

	return out, nil
}

func lookupSnippet(byID, byCodename map[string]*kontent.Snippet, ref kontent.ObjectReference) *kontent.Snippet {
	if ref.ID != "" {
		return byID[ref.ID]
	}
	if ref.Codename != "" {
		return byCodename[ref.Codename]
	}
	return nil
}

func flattenElement(el kontent.TypeElement, taxByID, taxByCodename map[string]*kontent.TaxonomyGroup) FlattenedElement {
	flat := FlattenedElement{
		ID:       el.ID,
		Codename: el.Codename,
		Type:     el.Type,
	}

	if len(el.Options) > 0 {
		flat.OptionsByID = make(map[string]string, len(el.Options))
		flat.OptionsByCodename = make(map[string]string, len(el.Options))
		for _, opt := range el.Options {
			flat.OptionsByID[opt.ID] = opt.Codename
			flat.OptionsByCodename[opt.Codename] = opt.ID
		}
	}

	if el.TaxonomyGroup != nil {
		var group *kontent.TaxonomyGroup
		if el.TaxonomyGroup.ID != "" {
			group = taxByID[el.TaxonomyGroup.ID]
		} else if el.TaxonomyGroup.Codename != "" {
			group = taxByCodename[el.TaxonomyGroup.Codename]
		}
		if group != nil {
			flat.TaxonomyGroup = group.Codename
			flat.TermsByID = make(map[string]string)
			flat.TermsByCodename = make(map[string]string)
			flattenTerms(group.Terms, flat.TermsByID, flat.TermsByCodename)
		}
	}

	return flat
}

func flattenTerms(terms []kontent.TaxonomyTerm, byID, byCodename map[string]string) {
	for _, t := range terms {
		byID[t.ID] = t.Codename
		byCodename[t.Codename] = t.ID
		flattenTerms(t.Terms, byID, byCodename)
	}
}
