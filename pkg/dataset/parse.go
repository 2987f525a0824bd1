package dataset

import (
	"encoding/json"
	"fmt"
)

// ExtractField pulls the string value of one field out of an NDJSON line.
// Malformed JSON, a missing field, and a non-string value are all ordinary
// errors: the caller logs and skips the line.
func ExtractField(line, field string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return "", fmt.Errorf("parse record: %w", err)
	}
	raw, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("record has no field %q", field)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	return value, nil
}
