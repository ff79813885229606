// Package errors provides structured error types for the migration toolkit.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for the migration toolkit.
const (
	// Schema mismatch errors, fatal and never retried.
	CodeWorkflowNotFound     Code = "WORKFLOW_NOT_FOUND"
	CodeWorkflowStepNotFound Code = "WORKFLOW_STEP_NOT_FOUND"
	CodeCollectionNotFound   Code = "COLLECTION_NOT_FOUND"
	CodeContentTypeNotFound  Code = "CONTENT_TYPE_NOT_FOUND"
	CodeLanguageNotFound     Code = "LANGUAGE_NOT_FOUND"
	CodeElementNotFound      Code = "ELEMENT_NOT_FOUND"
	CodeSnippetInvalid       Code = "SNIPPET_INVALID"

	// Graph consistency errors.
	CodeMissingReference Code = "MISSING_REFERENCE"

	// Transform errors.
	CodeElementTransform Code = "ELEMENT_TRANSFORM_FAILED"

	// Per-unit errors.
	CodeItemFailed  Code = "ITEM_FAILED"
	CodeAssetFailed Code = "ASSET_FAILED"

	// Config errors.
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// Category groups error codes by how the run should react to them.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryFatal indicates a source/target schema mismatch; the run
	// cannot produce a consistent result and must abort.
	CategoryFatal
	// CategoryPerUnit indicates a failure scoped to one item or asset;
	// downgraded to log-and-continue when skipFailedItems is set.
	CategoryPerUnit
	// CategoryConfig indicates invalid or missing configuration.
	CategoryConfig
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeWorkflowNotFound:     CategoryFatal,
	CodeWorkflowStepNotFound: CategoryFatal,
	CodeCollectionNotFound:   CategoryFatal,
	CodeContentTypeNotFound:  CategoryFatal,
	CodeLanguageNotFound:     CategoryFatal,
	CodeElementNotFound:      CategoryFatal,
	CodeSnippetInvalid:       CategoryFatal,
	CodeMissingReference:     CategoryFatal,
	CodeElementTransform:     CategoryFatal,
	CodeItemFailed:           CategoryPerUnit,
	CodeAssetFailed:          CategoryPerUnit,
	CodeConfigInvalid:        CategoryConfig,
	CodeConfigMissing:        CategoryConfig,
}

// MigrateError is the structured error type for the migration toolkit.
type MigrateError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *MigrateError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *MigrateError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *MigrateError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for run-abort decisions.
func (e *MigrateError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// MarshalJSON implements json.Marshaler.
func (e *MigrateError) MarshalJSON() ([]byte, error) {
	type alias MigrateError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a MigrateError with the same code.
func (e *MigrateError) Is(target error) bool {
	t, ok := target.(*MigrateError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *MigrateError) WithCause(err error) *MigrateError {
	return &MigrateError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrWorkflowNotFound returns an error for an unknown workflow codename,
// listing the workflows that do exist in the target environment.
func ErrWorkflowNotFound(codename string, valid []string) *MigrateError {
	return &MigrateError{
		Code: CodeWorkflowNotFound,
		What: fmt.Sprintf("workflow '%s' not found in target environment", codename),
		Why:  fmt.Sprintf("Available workflows: %s", joinOrNone(valid)),
		Fix:  "Check that the target environment defines the same workflows as the source",
	}
}

// ErrWorkflowStepNotFound returns an error for an unknown workflow step
// codename, listing the steps the workflow does define.
func ErrWorkflowStepNotFound(workflow, step string, valid []string) *MigrateError {
	return &MigrateError{
		Code: CodeWorkflowStepNotFound,
		What: fmt.Sprintf("workflow step '%s' not found in workflow '%s'", step, workflow),
		Why:  fmt.Sprintf("Available steps: %s", joinOrNone(valid)),
		Fix:  "Check that the target workflow defines the same steps as the source",
	}
}

// ErrCollectionNotFound returns an error for an unknown collection codename.
func ErrCollectionNotFound(codename string, valid []string) *MigrateError {
	return &MigrateError{
		Code: CodeCollectionNotFound,
		What: fmt.Sprintf("collection '%s' not found", codename),
		Why:  fmt.Sprintf("Available collections: %s", joinOrNone(valid)),
	}
}

// ErrContentTypeNotFound returns an error for a content type with no
// flattened definition.
func ErrContentTypeNotFound(codename string) *MigrateError {
	return &MigrateError{
		Code: CodeContentTypeNotFound,
		What: fmt.Sprintf("content type '%s' not found", codename),
		Why:  "The environment does not define this content type",
		Fix:  "Migrate content type definitions before migrating content",
	}
}

// ErrLanguageNotFound returns an error for an unknown language codename.
func ErrLanguageNotFound(codename string, valid []string) *MigrateError {
	return &MigrateError{
		Code: CodeLanguageNotFound,
		What: fmt.Sprintf("language '%s' not found", codename),
		Why:  fmt.Sprintf("Available languages: %s", joinOrNone(valid)),
	}
}

// ErrElementNotFound returns an error when a content type has no element
// definition matching an incoming element.
func ErrElementNotFound(contentType, element string) *MigrateError {
	return &MigrateError{
		Code: CodeElementNotFound,
		What: fmt.Sprintf("element '%s' not found on content type '%s'", element, contentType),
		Why:  "The flattened content type does not define this element",
		Fix:  "Check that source and target content type definitions match",
	}
}

// ErrSnippetInvalid returns an error for a snippet element whose snippet
// definition cannot be resolved.
func ErrSnippetInvalid(contentType, snippet string) *MigrateError {
	return &MigrateError{
		Code: CodeSnippetInvalid,
		What: fmt.Sprintf("content type '%s' references unknown snippet '%s'", contentType, snippet),
		Why:  "Snippet elements cannot be expanded without the snippet definition",
	}
}

// ErrMissingReference returns an error for an ID referenced by the exported
// graph that does not resolve in the source environment.
func ErrMissingReference(kind, id string) *MigrateError {
	return &MigrateError{
		Code: CodeMissingReference,
		What: fmt.Sprintf("referenced %s '%s' could not be resolved", kind, id),
		Why:  "The exported content graph references an entity that does not exist in the source environment",
		Fix:  "Remove the dangling reference in the source, or export without the referencing item",
	}
}

// ErrElementTransform wraps a transform failure with the element codename,
// element type and a best-effort dump of the offending raw value.
func ErrElementTransform(codename, elementType, rawValue string, cause error) *MigrateError {
	return &MigrateError{
		Code:  CodeElementTransform,
		What:  fmt.Sprintf("failed to transform element '%s' of type '%s'", codename, elementType),
		Why:   fmt.Sprintf("Raw value: %s", rawValue),
		Cause: cause,
	}
}

// ErrItemFailed wraps a per-item failure.
func ErrItemFailed(codename, language string, cause error) *MigrateError {
	return &MigrateError{
		Code:  CodeItemFailed,
		What:  fmt.Sprintf("item '%s' (language '%s') failed", codename, language),
		Cause: cause,
	}
}

// ErrAssetFailed wraps a per-asset failure.
func ErrAssetFailed(codename string, cause error) *MigrateError {
	return &MigrateError{
		Code:  CodeAssetFailed,
		What:  fmt.Sprintf("asset '%s' failed", codename),
		Cause: cause,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *MigrateError {
	return &MigrateError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check .kontent-migrate.yaml and fix the invalid field",
	}
}

// ErrConfigMissing returns an error for missing configuration.
func ErrConfigMissing(field string) *MigrateError {
	return &MigrateError{
		Code: CodeConfigMissing,
		What: fmt.Sprintf("missing required configuration: %s", field),
		Why:  "This field is required but not set in configuration or environment",
		Fix:  fmt.Sprintf("Add '%s' to .kontent-migrate.yaml or set the matching KONTENT_* variable", field),
	}
}

// AsMigrateError attempts to convert an error to a MigrateError.
// Returns nil if the error is not a MigrateError.
func AsMigrateError(err error) *MigrateError {
	var merr *MigrateError
	if As(err, &merr) {
		return merr
	}
	return nil
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return asError(err, target)
}

// asError implements errors.As behavior.
func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if merr, ok := err.(*MigrateError); ok {
		if t, ok := target.(**MigrateError); ok {
			*t = merr
			return true
		}
	}
	// Check unwrapped error
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
