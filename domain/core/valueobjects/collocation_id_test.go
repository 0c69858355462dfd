package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollocationIDFromString(t *testing.T) {
	id := NewCollocationID()
	parsed, err := NewCollocationIDFromString(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))

	_, err = NewCollocationIDFromString("")
	assert.EqualError(t, err, "collocation ID cannot be empty")

	_, err = NewCollocationIDFromString("507f1f77bcf86cd799439011")
	assert.EqualError(t, err, "collocation ID must be a valid UUID")
}

func TestCollocationIDJSON(t *testing.T) {
	id := NewCollocationID()

	data, err := json.Marshal(struct {
		ID CollocationID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(data))

	var decoded struct {
		ID CollocationID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded.ID)

	assert.True(t, CollocationID{}.IsZero())
}
