package ports

import (
	"context"

	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
)

// SortOrder selects the creation-time ordering of a listing
type SortOrder int

const (
	// SortNewestFirst orders by creation time, descending
	SortNewestFirst SortOrder = iota
	// SortOldestFirst orders by creation time, ascending ("store order")
	SortOldestFirst
)

// ListOptions describes a filtered, ordered and bounded listing
type ListOptions struct {
	// Search is a case-insensitive substring matched against the phrase,
	// meaning and synonyms. Empty matches everything.
	Search string
	Sort   SortOrder
	Skip   int
	// Limit bounds the page size; zero means no bound.
	Limit int
}

// BulkInsertResult counts the outcome of a duplicate-tolerant bulk insert.
// Inserted == 0 with SkippedDuplicates > 0 means every record already existed.
type BulkInsertResult struct {
	Inserted          int `json:"insertedCount"`
	SkippedDuplicates int `json:"skippedDuplicates"`
}

// CollocationRepository defines the interface for collocation persistence.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type CollocationRepository interface {
	// InsertMany inserts every record it can. Uniqueness violations are
	// skipped and counted; any other failure aborts the call.
	InsertMany(ctx context.Context, records []*entities.Collocation) (BulkInsertResult, error)

	// InsertOne inserts a single record, failing with a duplicate error
	// if the phrase already exists
	InsertOne(ctx context.Context, record *entities.Collocation) (*entities.Collocation, error)

	// FindAll returns one page of matching records and the total number of matches
	FindAll(ctx context.Context, opts ListOptions) ([]*entities.Collocation, int, error)

	// CountMatching counts records matching the search
	CountMatching(ctx context.Context, search string) (int, error)

	// FindExists reports whether any phrase contains the substring, case-insensitively
	FindExists(ctx context.Context, phraseSubstring string) (bool, error)

	// UpdateByID replaces the editable fields of a record
	UpdateByID(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error)

	// DeleteByID removes a record and returns it
	DeleteByID(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error)

	// DeleteAll removes every record and returns how many were removed
	DeleteAll(ctx context.Context) (int, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}

// GenerationConfig carries everything a generator call needs. It is built
// per call so a newly saved credential takes effect without a restart.
type GenerationConfig struct {
	APIKey string
	Model  string
}

// Generator produces candidate collocations for a list of words
type Generator interface {
	Generate(ctx context.Context, cfg GenerationConfig, words []string) ([]entities.Fields, error)
}

// GeneratorAPIKeySetting names the secret holding the generator credential
const GeneratorAPIKeySetting = "GEMINI_API_KEY"

// SecretStore persists runtime secrets such as the generator API key
type SecretStore interface {
	// Get returns the current in-process value of a key
	Get(key string) (string, bool)

	// Set persists the value and updates the in-process copy
	Set(key, value string) error
}
