package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalWithKind(t *testing.T) {
	type doc struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}

	t.Run("matching kind decodes", func(t *testing.T) {
		var d doc
		err := UnmarshalWithKind([]byte(`{"kind": "SkillTask", "name": "x"}`), &d, "SkillTask")
		require.NoError(t, err)
		assert.Equal(t, "x", d.Name)
	})

	t.Run("mismatched kind rejected", func(t *testing.T) {
		var d doc
		err := UnmarshalWithKind([]byte(`{"kind": "Other"}`), &d, "SkillTask")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot decode kind 'Other'")
	})

	t.Run("invalid json", func(t *testing.T) {
		var d doc
		err := UnmarshalWithKind([]byte(`{{`), &d, "SkillTask")
		assert.Error(t, err)
	})
}
