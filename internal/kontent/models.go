// Package kontent wraps the Kontent.ai Management API behind the narrow
// capability set the migration core consumes. Transport concerns (retry,
// backoff, rate limiting) live in the underlying retryable HTTP client;
// this package only shapes requests and interprets outcomes.
package kontent

// ObjectReference addresses an entity in a request payload. Exactly one of
// the fields is set: ID for entities that already exist, Codename when the
// caller addresses by codename, ExternalID for entities created on demand.
type ObjectReference struct {
	ID         string `json:"id,omitempty"`
	Codename   string `json:"codename,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Identifier returns the codename when set and the ID otherwise, so error
// messages name a single identifier.
func (r ObjectReference) Identifier() string {
	if r.Codename != "" {
		return r.Codename
	}
	return r.ID
}

// Collection is an environment collection.
type Collection struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// Language is an environment language.
type Language struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// WorkflowStep is one step of a workflow.
type WorkflowStep struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// Workflow is an environment workflow definition. The published, scheduled
// and archived steps are structurally distinguished from the regular steps.
type Workflow struct {
	ID            string         `json:"id"`
	Codename      string         `json:"codename"`
	Name          string         `json:"name"`
	Steps         []WorkflowStep `json:"steps"`
	PublishedStep WorkflowStep   `json:"published_step"`
	ScheduledStep WorkflowStep   `json:"scheduled_step"`
	ArchivedStep  WorkflowStep   `json:"archived_step"`
}

// MultipleChoiceOption is one option of a multiple_choice element.
type MultipleChoiceOption struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// TypeElement is one element definition of a content type or snippet.
// Snippet-typed elements carry the snippet reference and no own value shape.
type TypeElement struct {
	ID            string                 `json:"id"`
	Codename      string                 `json:"codename"`
	Type          string                 `json:"type"`
	Options       []MultipleChoiceOption `json:"options,omitempty"`
	TaxonomyGroup *ObjectReference       `json:"taxonomy_group,omitempty"`
	Snippet       *ObjectReference       `json:"snippet,omitempty"`
}

// ContentType is an environment content type definition.
type ContentType struct {
	ID       string        `json:"id"`
	Codename string        `json:"codename"`
	Name     string        `json:"name"`
	Elements []TypeElement `json:"elements"`
}

// Snippet is a content type snippet definition.
type Snippet struct {
	ID       string        `json:"id"`
	Codename string        `json:"codename"`
	Name     string        `json:"name"`
	Elements []TypeElement `json:"elements"`
}

// TaxonomyTerm is one term of a taxonomy group; terms nest.
type TaxonomyTerm struct {
	ID       string         `json:"id"`
	Codename string         `json:"codename"`
	Name     string         `json:"name"`
	Terms    []TaxonomyTerm `json:"terms,omitempty"`
}

// TaxonomyGroup is an environment taxonomy group.
type TaxonomyGroup struct {
	ID       string         `json:"id"`
	Codename string         `json:"codename"`
	Name     string         `json:"name"`
	Terms    []TaxonomyTerm `json:"terms,omitempty"`
}

// ContentItem is an environment content item.
type ContentItem struct {
	ID         string          `json:"id"`
	Codename   string          `json:"codename"`
	Name       string          `json:"name"`
	Type       ObjectReference `json:"type"`
	Collection ObjectReference `json:"collection"`
}

// ContentItemDraft is the payload for creating or upserting a content item.
type ContentItemDraft struct {
	Name       string           `json:"name"`
	Codename   string           `json:"codename,omitempty"`
	Type       *ObjectReference `json:"type,omitempty"`
	Collection *ObjectReference `json:"collection,omitempty"`
	ExternalID string           `json:"external_id,omitempty"`
}

// ComponentData is an inline component inside a rich_text element value.
type ComponentData struct {
	ID       string          `json:"id"`
	Type     ObjectReference `json:"type"`
	Elements []ElementData   `json:"elements"`
}

// ElementData is one element value of a language variant. Value is the
// JSON-decoded wire value; its shape depends on the element type and is
// interpreted by the transform layer. Components is populated for
// rich_text elements only.
type ElementData struct {
	Element         ObjectReference `json:"element"`
	Value           any             `json:"value"`
	Mode            string          `json:"mode,omitempty"`
	DisplayTimezone string          `json:"display_timezone,omitempty"`
	Components      []ComponentData `json:"components,omitempty"`
}

// VariantWorkflow identifies the workflow state of a language variant.
type VariantWorkflow struct {
	WorkflowIdentifier ObjectReference `json:"workflow_identifier"`
	StepIdentifier     ObjectReference `json:"step_identifier"`
}

// LanguageVariant is the per-language rendition of a content item.
type LanguageVariant struct {
	Item     ObjectReference `json:"item"`
	Language ObjectReference `json:"language"`
	Elements []ElementData   `json:"elements"`
	Workflow VariantWorkflow `json:"workflow"`
}

// LanguageVariantData is the payload for upserting a language variant.
type LanguageVariantData struct {
	Elements []ElementData    `json:"elements"`
	Workflow *VariantWorkflow `json:"workflow,omitempty"`
}

// AssetDescription is a per-language asset description.
type AssetDescription struct {
	Language    ObjectReference `json:"language"`
	Description string          `json:"description"`
}

// Asset is an environment asset.
type Asset struct {
	ID           string             `json:"id"`
	Codename     string             `json:"codename"`
	FileName     string             `json:"file_name"`
	Title        string             `json:"title"`
	Size         int64              `json:"size"`
	URL          string             `json:"url"`
	Collection   *ObjectReference   `json:"collection,omitempty"`
	Descriptions []AssetDescription `json:"descriptions,omitempty"`
}

// AssetDraft is the payload for creating or upserting an asset. FileReference
// points at a previously uploaded binary; it is omitted on metadata-only
// upserts so the existing binary is kept.
type AssetDraft struct {
	FileReference *ObjectReference   `json:"file_reference,omitempty"`
	Codename      string             `json:"codename,omitempty"`
	Title         string             `json:"title,omitempty"`
	Collection    *ObjectReference   `json:"collection,omitempty"`
	Descriptions  []AssetDescription `json:"descriptions,omitempty"`
	ExternalID    string             `json:"external_id,omitempty"`
}
