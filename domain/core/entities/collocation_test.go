package entities

import (
	"strings"
	"testing"
	"time"

	pkgerrors "collocation-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollocation(t *testing.T) {
	t.Run("trims fields and assigns identity", func(t *testing.T) {
		c, err := NewCollocation(Fields{
			Collocation: "  strong coffee ",
			IPA:         " /strɒŋ ˈkɒfi/ ",
			Meaning:     "cà phê đậm",
		})
		require.NoError(t, err)

		assert.Equal(t, "strong coffee", c.Collocation)
		assert.Equal(t, "/strɒŋ ˈkɒfi/", c.IPA)
		assert.False(t, c.ID.IsZero())
		assert.WithinDuration(t, time.Now(), c.CreatedAt, time.Second)
	})

	t.Run("rejects blank phrase", func(t *testing.T) {
		_, err := NewCollocation(Fields{Collocation: "   ", Meaning: "nothing"})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Equal(t, "collocation is required", err.Error())
	})

	t.Run("rejects overlong phrase", func(t *testing.T) {
		_, err := NewCollocation(Fields{Collocation: strings.Repeat("a", MaxPhraseLength+1)})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects overlong optional field", func(t *testing.T) {
		_, err := NewCollocation(Fields{Collocation: "ok", Synonyms: strings.Repeat("s", MaxFieldLength+1)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "synonyms")
	})

	t.Run("explicit creation time is kept in UTC", func(t *testing.T) {
		at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
		c, err := NewCollocationAt(Fields{Collocation: "make sense"}, at)
		require.NoError(t, err)
		assert.Equal(t, at.UTC(), c.CreatedAt)
		assert.Equal(t, time.UTC, c.CreatedAt.Location())
	})
}

func TestCollocationApply(t *testing.T) {
	c, err := NewCollocation(Fields{Collocation: "take action", Meaning: "act"})
	require.NoError(t, err)
	id, createdAt := c.ID, c.CreatedAt

	require.NoError(t, c.Apply(Fields{Collocation: "take swift action", Synonyms: "act quickly"}))
	assert.Equal(t, "take swift action", c.Collocation)
	assert.Equal(t, "", c.Meaning, "full-field update clears omitted fields")
	assert.Equal(t, "act quickly", c.Synonyms)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, createdAt, c.CreatedAt)

	err = c.Apply(Fields{})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "take swift action", c.Collocation, "failed update leaves the entity unchanged")
}

func TestCollocationMatches(t *testing.T) {
	c := &Collocation{Collocation: "Strong Coffee", Meaning: "cà phê đậm", Synonyms: "bold brew"}

	tests := []struct {
		search string
		want   bool
	}{
		{"", true},
		{"coffee", true},
		{"STRONG", true},
		{"đậm", true},
		{"BREW", true},
		{"tea", false},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Matches(tt.search))
		})
	}
}

func TestCollocationSortKey(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := NewCollocationAt(Fields{Collocation: "a"}, base)
	require.NoError(t, err)
	second, err := NewCollocationAt(Fields{Collocation: "b"}, base.Add(time.Nanosecond))
	require.NoError(t, err)
	third, err := NewCollocationAt(Fields{Collocation: "c"}, base.Add(time.Second))
	require.NoError(t, err)

	assert.Less(t, first.SortKey(), second.SortKey())
	assert.Less(t, second.SortKey(), third.SortKey())
	assert.True(t, strings.HasPrefix(first.SortKey(), "2024-01-01T00:00:00.000000000Z#"))
}
