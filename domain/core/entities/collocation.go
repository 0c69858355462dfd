package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"collocation-backend/domain/core/valueobjects"
	pkgerrors "collocation-backend/pkg/errors"
)

const (
	MaxPhraseLength = 200
	MaxFieldLength  = 2000

	sortKeyLayout = "2006-01-02T15:04:05.000000000Z"
)

// Fields holds the client-editable part of a collocation. Creation and the
// full-field update both take a complete Fields value.
type Fields struct {
	Collocation string `json:"collocation"`
	IPA         string `json:"ipa"`
	Meaning     string `json:"meaning"`
	Synonyms    string `json:"synonyms"`
}

// Normalize trims surrounding whitespace from every field
func (f Fields) Normalize() Fields {
	return Fields{
		Collocation: strings.TrimSpace(f.Collocation),
		IPA:         strings.TrimSpace(f.IPA),
		Meaning:     strings.TrimSpace(f.Meaning),
		Synonyms:    strings.TrimSpace(f.Synonyms),
	}
}

// Validate checks the invariants of a normalized Fields value
func (f Fields) Validate() error {
	if f.Collocation == "" {
		return pkgerrors.NewValidationError("collocation is required")
	}
	if utf8.RuneCountInString(f.Collocation) > MaxPhraseLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("collocation must be at most %d characters", MaxPhraseLength))
	}
	for name, value := range map[string]string{"ipa": f.IPA, "meaning": f.Meaning, "synonyms": f.Synonyms} {
		if utf8.RuneCountInString(value) > MaxFieldLength {
			return pkgerrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", name, MaxFieldLength))
		}
	}
	return nil
}

// Collocation is a catalogued vocabulary entry: a habitually paired phrase
// with its pronunciation, meaning and synonyms.
type Collocation struct {
	ID          valueobjects.CollocationID `json:"id"`
	Collocation string                     `json:"collocation"`
	IPA         string                     `json:"ipa"`
	Meaning     string                     `json:"meaning"`
	Synonyms    string                     `json:"synonyms"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

// NewCollocation creates a collocation stamped with the current time
func NewCollocation(fields Fields) (*Collocation, error) {
	return NewCollocationAt(fields, time.Now().UTC())
}

// NewCollocationAt creates a collocation with an explicit creation time.
func NewCollocationAt(fields Fields, createdAt time.Time) (*Collocation, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	return &Collocation{
		ID:          valueobjects.NewCollocationID(),
		Collocation: fields.Collocation,
		IPA:         fields.IPA,
		Meaning:     fields.Meaning,
		Synonyms:    fields.Synonyms,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// Fields returns the editable fields of the collocation
func (c *Collocation) Fields() Fields {
	return Fields{
		Collocation: c.Collocation,
		IPA:         c.IPA,
		Meaning:     c.Meaning,
		Synonyms:    c.Synonyms,
	}
}

// Apply replaces every editable field. ID and CreatedAt are left untouched.
func (c *Collocation) Apply(fields Fields) error {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return err
	}

	c.Collocation = fields.Collocation
	c.IPA = fields.IPA
	c.Meaning = fields.Meaning
	c.Synonyms = fields.Synonyms
	return nil
}

// Matches reports whether the collocation matches a case-insensitive
// substring search over phrase, meaning and synonyms. An empty search
// matches everything.
func (c *Collocation) Matches(search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Collocation), needle) ||
		strings.Contains(strings.ToLower(c.Meaning), needle) ||
		strings.Contains(strings.ToLower(c.Synonyms), needle)
}

// SortKey orders collocations by creation time with the ID as tie-breaker.
// The timestamp has a fixed width so keys compare correctly as strings.
func (c *Collocation) SortKey() string {
	return c.CreatedAt.UTC().Format(sortKeyLayout) + "#" + c.ID.String()
}

// Clone returns a copy that can be modified independently
func (c *Collocation) Clone() *Collocation {
	clone := *c
	return &clone
}
