package store

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is written into every record envelope. Records with a newer
// version than this binary understands are treated as not initialized.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, Data: data})
}

// decode reports whether raw held a readable record of the current schema.
func decode(raw []byte, v any) (bool, error) {
	if len(raw) == 0 {
		return false, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.SchemaVersion < 1 || env.SchemaVersion > SchemaVersion {
		return false, fmt.Errorf("unsupported schema_version %d", env.SchemaVersion)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return false, fmt.Errorf("malformed record: %w", err)
	}
	return true, nil
}
