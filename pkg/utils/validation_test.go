package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Word  string   `json:"word" validate:"required"`
	Words []string `json:"words" validate:"required,min=1,max=3,dive,required"`
	Note  string   `json:"note" validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Word: "coffee", Words: []string{"a"}})
		assert.NoError(t, err)
	})

	t.Run("messages use json field names", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Words: []string{"a"}})
		require.Error(t, err)
		assert.Equal(t, "word is required", err.Error())
	})

	t.Run("slice bounds are reported as item counts", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Word: "x", Words: []string{"a", "b", "c", "d"}})
		require.Error(t, err)
		assert.Equal(t, "words must contain at most 3 items", err.Error())
	})

	t.Run("multiple failures are joined", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Note: "too long"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "word is required")
		assert.Contains(t, err.Error(), "words is required")
		assert.Contains(t, err.Error(), "note must be at most 5 characters")
	})
}
