package valueobjects

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// CollocationID is a value object representing a unique collocation identifier.
// It is assigned by the store on creation and never changes afterwards.
type CollocationID struct {
	value string
}

// NewCollocationID creates a new random CollocationID
func NewCollocationID() CollocationID {
	return CollocationID{value: uuid.New().String()}
}

// NewCollocationIDFromString creates a CollocationID from an existing string
func NewCollocationIDFromString(id string) (CollocationID, error) {
	if id == "" {
		return CollocationID{}, errors.New("collocation ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return CollocationID{}, errors.New("collocation ID must be a valid UUID")
	}
	return CollocationID{value: id}, nil
}

// String returns the string representation of the CollocationID
func (id CollocationID) String() string {
	return id.value
}

// Equals checks if two CollocationIDs are equal
func (id CollocationID) Equals(other CollocationID) bool {
	return id.value == other.value
}

// IsZero checks if the CollocationID is the zero value
func (id CollocationID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id CollocationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *CollocationID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("CollocationID must be a string")
	}
	id.value = s
	return nil
}
