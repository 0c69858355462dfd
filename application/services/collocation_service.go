package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	"collocation-backend/pkg/common"
	pkgerrors "collocation-backend/pkg/errors"

	"go.uber.org/zap"
)

// ListAllLimit caps the unpaginated listing
const ListAllLimit = 1000

// GenerateResult reports a generate-and-persist call
type GenerateResult struct {
	Generated int
	ports.BulkInsertResult
}

// VocabularyPage is one page of the searchable vocabulary listing
type VocabularyPage struct {
	Items      []*entities.Collocation
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// CollocationService implements the vocabulary use cases. Each method runs
// exactly one store, generator, exporter or settings operation.
type CollocationService struct {
	repo      ports.CollocationRepository
	generator ports.Generator
	secrets   ports.SecretStore
	model     string
	now       func() time.Time
	logger    *zap.Logger
}

// NewCollocationService creates a new collocation service. model names the
// generator model used for every call.
func NewCollocationService(
	repo ports.CollocationRepository,
	generator ports.Generator,
	secrets ports.SecretStore,
	model string,
	logger *zap.Logger,
) *CollocationService {
	return &CollocationService{
		repo:      repo,
		generator: generator,
		secrets:   secrets,
		model:     model,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// newBatch builds entities for a batch. Creation times are one nanosecond
// apart so that store order follows batch order.
func (s *CollocationService) newBatch(fields []entities.Fields) ([]*entities.Collocation, error) {
	base := s.now()
	records := make([]*entities.Collocation, 0, len(fields))
	for i, f := range fields {
		record, err := entities.NewCollocationAt(f, base.Add(time.Duration(i)))
		if err != nil {
			if appErr := pkgerrors.GetAppError(err); appErr != nil {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf("collocations[%d]: %s", i, appErr.Message)).
					WithDetails(map[string]interface{}{"index": i})
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// AddCollocations bulk-inserts client-supplied records, skipping duplicates
func (s *CollocationService) AddCollocations(ctx context.Context, fields []entities.Fields) (ports.BulkInsertResult, error) {
	records, err := s.newBatch(fields)
	if err != nil {
		return ports.BulkInsertResult{}, err
	}

	result, err := s.repo.InsertMany(ctx, records)
	if err != nil {
		return ports.BulkInsertResult{}, err
	}

	s.logger.Info("Added collocations",
		zap.Int("requested", len(records)),
		zap.Int("inserted", result.Inserted),
		zap.Int("skippedDuplicates", result.SkippedDuplicates),
	)
	return result, nil
}

// CheckWord reports whether any stored phrase contains word
func (s *CollocationService) CheckWord(ctx context.Context, word string) (bool, error) {
	return s.repo.FindExists(ctx, strings.TrimSpace(word))
}

// ExportCSV renders every record in store order
func (s *CollocationService) ExportCSV(ctx context.Context) ([]byte, error) {
	records, _, err := s.repo.FindAll(ctx, ports.ListOptions{Sort: ports.SortOldestFirst})
	if err != nil {
		return nil, err
	}
	return ExportCSV(records)
}

// DeleteAll removes every record
func (s *CollocationService) DeleteAll(ctx context.Context) (int, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("Deleted all collocations", zap.Int("deletedCount", count))
	return count, nil
}

// ListAll returns up to ListAllLimit records in store order
func (s *CollocationService) ListAll(ctx context.Context) ([]*entities.Collocation, error) {
	items, _, err := s.repo.FindAll(ctx, ports.ListOptions{
		Sort:  ports.SortOldestFirst,
		Limit: ListAllLimit,
	})
	return items, err
}

// Generate asks the generator for collocations of words and persists them
// through the duplicate-tolerant bulk path. The credential is read per call.
func (s *CollocationService) Generate(ctx context.Context, words []string) (GenerateResult, error) {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		return GenerateResult{}, pkgerrors.NewValidationError("words must contain at least one non-empty word")
	}

	apiKey, _ := s.secrets.Get(ports.GeneratorAPIKeySetting)
	generated, err := s.generator.Generate(ctx, ports.GenerationConfig{
		APIKey: apiKey,
		Model:  s.model,
	}, cleaned)
	if err != nil {
		return GenerateResult{}, err
	}

	result := GenerateResult{Generated: len(generated)}
	if len(generated) == 0 {
		return result, nil
	}

	records, err := s.newBatch(generated)
	if err != nil {
		return GenerateResult{}, err
	}
	result.BulkInsertResult, err = s.repo.InsertMany(ctx, records)
	if err != nil {
		return GenerateResult{}, err
	}

	s.logger.Info("Generated collocations",
		zap.Strings("words", cleaned),
		zap.Int("generated", result.Generated),
		zap.Int("inserted", result.Inserted),
	)
	return result, nil
}

// SaveAPIKey persists the generator credential; later calls use it at once
func (s *CollocationService) SaveAPIKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return pkgerrors.NewValidationError("apiKey is required")
	}
	if err := s.secrets.Set(ports.GeneratorAPIKeySetting, apiKey); err != nil {
		return pkgerrors.Wrap(err, "failed to save API key")
	}
	return nil
}

// ListVocabulary returns one page of records, newest first
func (s *CollocationService) ListVocabulary(ctx context.Context, params common.PageParams) (VocabularyPage, error) {
	items, total, err := s.repo.FindAll(ctx, ports.ListOptions{
		Search: params.Search,
		Sort:   ports.SortNewestFirst,
		Skip:   params.Offset(),
		Limit:  params.Limit,
	})
	if err != nil {
		return VocabularyPage{}, err
	}

	return VocabularyPage{
		Items:      items,
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: common.CalculateTotalPages(total, params.Limit),
	}, nil
}

// CreateVocabulary inserts a single record
func (s *CollocationService) CreateVocabulary(ctx context.Context, fields entities.Fields) (*entities.Collocation, error) {
	record, err := entities.NewCollocationAt(fields, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.InsertOne(ctx, record)
}

// UpdateVocabulary replaces every editable field of a record
func (s *CollocationService) UpdateVocabulary(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error) {
	return s.repo.UpdateByID(ctx, id, fields)
}

// DeleteVocabulary removes a record
func (s *CollocationService) DeleteVocabulary(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	return s.repo.DeleteByID(ctx, id)
}

// Ping checks the store
func (s *CollocationService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
