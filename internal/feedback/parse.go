package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("top-level JSON value is not an object")

// Parse decodes the JSON object embedded in a model reply. The extracted text
// is parsed as is first and through the repair passes second.
func Parse(raw string) (map[string]any, error) {
	cleaned := ExtractJSON(raw)

	data, err := decodeObject(cleaned)
	if err == nil {
		return data, nil
	}

	repaired, rerr := decodeObject(Repair(cleaned))
	if rerr != nil {
		return nil, fmt.Errorf("parse model reply: %w", errors.Join(err, rerr))
	}
	return repaired, nil
}

func decodeObject(text string) (map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}

	data, ok := value.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return data, nil
}
