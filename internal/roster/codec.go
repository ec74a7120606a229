package roster

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stemsi/classpoints-backend/internal/model"
)

// Encode renders the collection as the bare JSON array used by exports and
// every snapshot store, indented with two spaces.
func Encode(classes []model.ClassData) ([]byte, error) {
	return json.MarshalIndent(Normalize(Clone(classes)), "", "  ")
}

// Decode parses a snapshot. It accepts the bare array written by Encode and
// the versioned envelope {"version":1,"classes":[...]}. The result is
// validated; any failure wraps ErrInvalidRoster.
func Decode(raw []byte) ([]model.ClassData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRoster)
	}

	var classes []model.ClassData
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &classes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
		}
	case '{':
		var env struct {
			Version *int              `json:"version"`
			Classes []model.ClassData `json:"classes"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
		}
		if env.Version == nil || *env.Version != model.SnapshotVersion {
			return nil, fmt.Errorf("%w: unsupported snapshot version", ErrInvalidRoster)
		}
		classes = env.Classes
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", ErrInvalidRoster)
	}

	if err := Validate(classes); err != nil {
		return nil, err
	}
	return Normalize(classes), nil
}
