package util

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWithKind decodes data into target after checking that the
// document's "kind" field matches expectedKind. target should be a pointer
// to the struct being decoded.
func UnmarshalWithKind(data []byte, target any, expectedKind string) error {
	probe := struct {
		Kind string `json:"kind"`
	}{}

	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Kind != expectedKind {
		return fmt.Errorf("cannot decode kind '%s' as kind '%s'", probe.Kind, expectedKind)
	}

	return json.Unmarshal(data, target)
}
