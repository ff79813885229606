package transform

import (
	"encoding/json"
	"fmt"
)

// dumpValue serializes a raw value for diagnostics. Best effort: a value
// that cannot be serialized yields a sentinel instead of masking the
// original error.
func dumpValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "<value not serializable>"
	}
	return string(data)
}

// asString interprets a wire value as a string. nil is the empty string.
func asString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string value, got %T", v)
	}
	return s, nil
}

// asNumber interprets a wire value as an optional number. nil stays nil;
// zero is a real value.
func asNumber(v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case int:
		f := float64(n)
		return &f, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("expected numeric value, got %T", v)
	}
}

// asReferenceIDs interprets a wire value as a list of {id} references and
// returns the IDs in order.
func asReferenceIDs(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected reference list, got %T", v)
	}
	ids := make([]string, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected reference object, got %T", entry)
		}
		id, ok := m["id"].(string)
		if !ok {
			return nil, fmt.Errorf("reference object has no id: %s", dumpValue(entry))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
