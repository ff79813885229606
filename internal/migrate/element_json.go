package migrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalJSON decodes an element with its value in the concrete shape the
// element type prescribes, so consumers never see generic maps.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw struct {
		Codename string          `json:"codename"`
		Type     ElementType     `json:"type"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Codename = raw.Codename
	e.Type = raw.Type

	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		e.Value = nil
		return nil
	}

	switch raw.Type {
	case ElementTypeText, ElementTypeCustom:
		var v string
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = v
	case ElementTypeNumber:
		var v float64
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = &v
	case ElementTypeDateTime:
		var v DateTimeValue
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = v
	case ElementTypeURLSlug:
		var v URLSlugValue
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = v
	case ElementTypeMultipleChoice, ElementTypeTaxonomy, ElementTypeAsset,
		ElementTypeModularContent, ElementTypeSubpages:
		var v []Reference
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = v
	case ElementTypeRichText:
		var v RichTextValue
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("element %s: %w", raw.Codename, err)
		}
		e.Value = v
	default:
		known := make([]string, len(ElementTypes))
		for i, t := range ElementTypes {
			known[i] = string(t)
		}
		return fmt.Errorf("element %s: unknown element type '%s', known types: %s",
			raw.Codename, raw.Type, strings.Join(known, ", "))
	}
	return nil
}
