// Package migrate defines the portable content graph exchanged between
// environments: items, language versions, inline components and assets,
// with every cross-reference expressed by codename instead of an
// environment-internal ID.
package migrate

import "sort"

// Reference points at another entity by its codename.
type Reference struct {
	Codename string `json:"codename"`
}

// ElementType identifies the shape of an element value. The set is closed:
// both transform directions switch exhaustively over it.
type ElementType string

const (
	ElementTypeText           ElementType = "text"
	ElementTypeRichText       ElementType = "rich_text"
	ElementTypeNumber         ElementType = "number"
	ElementTypeMultipleChoice ElementType = "multiple_choice"
	ElementTypeDateTime       ElementType = "date_time"
	ElementTypeAsset          ElementType = "asset"
	ElementTypeModularContent ElementType = "modular_content"
	ElementTypeTaxonomy       ElementType = "taxonomy"
	ElementTypeURLSlug        ElementType = "url_slug"
	ElementTypeCustom         ElementType = "custom"
	ElementTypeSubpages       ElementType = "subpages"
)

// ElementTypes lists every known element type.
var ElementTypes = []ElementType{
	ElementTypeText,
	ElementTypeRichText,
	ElementTypeNumber,
	ElementTypeMultipleChoice,
	ElementTypeDateTime,
	ElementTypeAsset,
	ElementTypeModularContent,
	ElementTypeTaxonomy,
	ElementTypeURLSlug,
	ElementTypeCustom,
	ElementTypeSubpages,
}

// Element is one element value in portable form. Value holds the
// type-dependent shape:
//
//	text, custom              string
//	number                    *float64 (nil when absent; 0 is a real value)
//	date_time                 DateTimeValue
//	url_slug                  URLSlugValue
//	multiple_choice, taxonomy []Reference (option/term codenames)
//	asset                     []Reference (asset codenames)
//	modular_content, subpages []Reference (item codenames)
//	rich_text                 RichTextValue
type Element struct {
	Codename string      `json:"codename"`
	Type     ElementType `json:"type"`
	Value    any         `json:"value"`
}

// DateTimeValue is the portable date_time element value.
type DateTimeValue struct {
	Value           string `json:"value"`
	DisplayTimezone string `json:"display_timezone,omitempty"`
}

// URLSlugValue is the portable url_slug element value.
type URLSlugValue struct {
	Value string `json:"value"`
	Mode  string `json:"mode"`
}

// RichTextValue is the portable rich_text element value: processed HTML with
// codename-addressed reference markers, plus the inline components extracted
// from it. Component elements are themselves in portable form.
type RichTextValue struct {
	HTML       string      `json:"html"`
	Components []Component `json:"components,omitempty"`
}

// Component is a sub-item embedded inline in a rich-text value. It has no
// top-level existence; its identity on the environment side is a UUID
// derived deterministically from its codename.
type Component struct {
	Codename string    `json:"codename"`
	Type     Reference `json:"type"`
	Elements []Element `json:"elements"`
}

// ItemSystem carries the stable identity of an item.
type ItemSystem struct {
	Codename   string    `json:"codename"`
	Name       string    `json:"name"`
	Language   Reference `json:"language"`
	Type       Reference `json:"type"`
	Collection Reference `json:"collection"`
}

// Version is one workflow version of an item: its element values and the
// workflow step they sit in. Workflow is empty on component items, which
// have no workflow state of their own.
type Version struct {
	Elements     []Element `json:"elements"`
	Workflow     Reference `json:"workflow,omitempty"`
	WorkflowStep Reference `json:"workflow_step,omitempty"`
}

// Item is one logical content item with its versions. Codename uniquely
// identifies an item within one migration unit; codename plus language
// identifies a language variant.
type Item struct {
	System   ItemSystem `json:"system"`
	Versions []Version  `json:"versions"`
}

// IsComponent reports whether the item represents an inline component
// rather than a standalone content item. Components carry no workflow
// state in any version.
func (i Item) IsComponent() bool {
	for _, v := range i.Versions {
		if v.WorkflowStep.Codename != "" {
			return false
		}
	}
	return true
}

// AssetDescription is a per-language asset description.
type AssetDescription struct {
	Language    Reference `json:"language"`
	Description string    `json:"description"`
}

// Asset is a binary file with metadata. Binary is lazily materialized and
// may be nil when asset details were not fetched; Size and Filename stand
// in as the content-identity proxy either way.
type Asset struct {
	Codename     string             `json:"codename"`
	Filename     string             `json:"filename"`
	Title        string             `json:"title"`
	Size         int64              `json:"size"`
	Collection   *Reference         `json:"collection,omitempty"`
	Descriptions []AssetDescription `json:"descriptions,omitempty"`
	URL          string             `json:"url,omitempty"`
	Binary       []byte             `json:"-"`
}

// Data is the interchange artifact handed to the archive codec.
type Data struct {
	Items  []Item  `json:"items"`
	Assets []Asset `json:"assets"`
}

// SortElements orders elements by codename in place. Export uses it so a
// version's element list is deterministic across runs.
func SortElements(elements []Element) {
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].Codename < elements[j].Codename
	})
}
