package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	pkgerrors "collocation-backend/pkg/errors"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// recordsBucket maps id -> JSON record
	recordsBucket = "collocations"
	// phrasesBucket maps phrase -> id and is the unique index
	phrasesBucket = "phrases"
	// createdBucket maps sort key -> id and gives creation order
	createdBucket = "created"
)

// CollocationRepository implements ports.CollocationRepository on an
// embedded bbolt file. Every operation runs in a single bbolt transaction.
type CollocationRepository struct {
	db     *bbolt.DB
	path   string
	logger *zap.Logger
}

var _ ports.CollocationRepository = (*CollocationRepository)(nil)

// storedCollocation is the on-disk JSON representation of a record
type storedCollocation struct {
	ID          string    `json:"id"`
	Collocation string    `json:"collocation"`
	IPA         string    `json:"ipa,omitempty"`
	Meaning     string    `json:"meaning,omitempty"`
	Synonyms    string    `json:"synonyms,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Open opens (creating if needed) the bbolt file at dbPath
func Open(dbPath string, logger *zap.Logger) (*CollocationRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store at %s: %w", dbPath, err)
	}

	repo := &CollocationRepository{
		db:     db,
		path:   dbPath,
		logger: logger,
	}

	if err := repo.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	logger.Info("Opened bolt collocation store", zap.String("path", dbPath))
	return repo, nil
}

// Close releases the underlying file
func (r *CollocationRepository) Close() error {
	return r.db.Close()
}

func (r *CollocationRepository) initBuckets() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recordsBucket, phrasesBucket, createdBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// InsertMany inserts the batch in one transaction, skipping phrases that
// already exist (including repeats within the batch).
func (r *CollocationRepository) InsertMany(ctx context.Context, records []*entities.Collocation) (ports.BulkInsertResult, error) {
	var result ports.BulkInsertResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		result = ports.BulkInsertResult{}
		for _, record := range records {
			if err := putNew(tx, record); err != nil {
				if pkgerrors.IsDuplicate(err) {
					result.SkippedDuplicates++
					continue
				}
				return err
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return ports.BulkInsertResult{}, pkgerrors.NewDatabaseError("insert collocations", err)
	}

	return result, nil
}

// InsertOne inserts a single record
func (r *CollocationRepository) InsertOne(ctx context.Context, record *entities.Collocation) (*entities.Collocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		return putNew(tx, record)
	})
	if err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("insert collocation", err)
	}

	return record.Clone(), nil
}

// FindAll walks the creation index in the requested direction
func (r *CollocationRepository) FindAll(ctx context.Context, opts ports.ListOptions) ([]*entities.Collocation, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	items := make([]*entities.Collocation, 0)
	total := 0

	err := r.db.View(func(tx *bbolt.Tx) error {
		return walkCreated(tx, opts.Sort, func(record *entities.Collocation) error {
			if !record.Matches(opts.Search) {
				return nil
			}
			total++
			if total <= opts.Skip {
				return nil
			}
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return nil
			}
			items = append(items, record)
			return nil
		})
	})
	if err != nil {
		return nil, 0, pkgerrors.NewDatabaseError("find collocations", err)
	}

	return items, total, nil
}

// CountMatching counts records matching the search
func (r *CollocationRepository) CountMatching(ctx context.Context, search string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(_, v []byte) error {
			record, err := decode(v)
			if err != nil {
				return err
			}
			if record.Matches(search) {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("count collocations", err)
	}

	return count, nil
}

// FindExists scans the phrase index for a case-insensitive substring match
func (r *CollocationRepository) FindExists(ctx context.Context, phraseSubstring string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	needle := strings.ToLower(phraseSubstring)
	found := false
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(phrasesBucket)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if strings.Contains(strings.ToLower(string(k)), needle) {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, pkgerrors.NewDatabaseError("check collocation", err)
	}

	return found, nil
}

// UpdateByID replaces the editable fields, moving the unique index entry
// when the phrase changes
func (r *CollocationRepository) UpdateByID(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *entities.Collocation
	err := r.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))
		phrases := tx.Bucket([]byte(phrasesBucket))

		data := records.Get([]byte(id.String()))
		if data == nil {
			return pkgerrors.NewNotFoundError("collocation")
		}
		record, err := decode(data)
		if err != nil {
			return err
		}

		oldPhrase := record.Collocation
		if err := record.Apply(fields); err != nil {
			return err
		}

		if record.Collocation != oldPhrase {
			if owner := phrases.Get([]byte(record.Collocation)); owner != nil && !bytes.Equal(owner, []byte(id.String())) {
				return pkgerrors.NewDuplicateError(record.Collocation)
			}
			if err := phrases.Delete([]byte(oldPhrase)); err != nil {
				return err
			}
			if err := phrases.Put([]byte(record.Collocation), []byte(id.String())); err != nil {
				return err
			}
		}

		encoded, err := encode(record)
		if err != nil {
			return err
		}
		if err := records.Put([]byte(id.String()), encoded); err != nil {
			return err
		}

		updated = record
		return nil
	})
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("update collocation", err)
	}

	return updated, nil
}

// DeleteByID removes a record with its index entries
func (r *CollocationRepository) DeleteByID(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var deleted *entities.Collocation
	err := r.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordsBucket))

		data := records.Get([]byte(id.String()))
		if data == nil {
			return pkgerrors.NewNotFoundError("collocation")
		}
		record, err := decode(data)
		if err != nil {
			return err
		}

		if err := records.Delete([]byte(id.String())); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(phrasesBucket)).Delete([]byte(record.Collocation)); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(createdBucket)).Delete([]byte(record.SortKey())); err != nil {
			return err
		}

		deleted = record
		return nil
	})
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("delete collocation", err)
	}

	return deleted, nil
}

// DeleteAll drops and recreates every bucket
func (r *CollocationRepository) DeleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	err := r.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(recordsBucket)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			deleted++
		}
		for _, name := range []string{recordsBucket, phrasesBucket, createdBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to drop %s bucket: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to recreate %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("delete all collocations", err)
	}

	r.logger.Info("Deleted all collocations", zap.Int("deletedCount", deleted))
	return deleted, nil
}

// Ping checks that the file is still usable
func (r *CollocationRepository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(recordsBucket)) == nil {
			return fmt.Errorf("bolt store %s is missing the %s bucket", r.path, recordsBucket)
		}
		return nil
	})
}

// putNew stores a record and its index entries, rejecting a taken phrase
func putNew(tx *bbolt.Tx, record *entities.Collocation) error {
	phrases := tx.Bucket([]byte(phrasesBucket))
	if phrases.Get([]byte(record.Collocation)) != nil {
		return pkgerrors.NewDuplicateError(record.Collocation)
	}

	encoded, err := encode(record)
	if err != nil {
		return err
	}

	id := []byte(record.ID.String())
	if err := tx.Bucket([]byte(recordsBucket)).Put(id, encoded); err != nil {
		return err
	}
	if err := phrases.Put([]byte(record.Collocation), id); err != nil {
		return err
	}
	return tx.Bucket([]byte(createdBucket)).Put([]byte(record.SortKey()), id)
}

// walkCreated visits records in creation order
func walkCreated(tx *bbolt.Tx, order ports.SortOrder, visit func(*entities.Collocation) error) error {
	records := tx.Bucket([]byte(recordsBucket))
	c := tx.Bucket([]byte(createdBucket)).Cursor()

	step := c.Next
	k, id := c.First()
	if order == ports.SortNewestFirst {
		step = c.Prev
		k, id = c.Last()
	}

	for ; k != nil; k, id = step() {
		data := records.Get(id)
		if data == nil {
			return fmt.Errorf("creation index references missing record %s", id)
		}
		record, err := decode(data)
		if err != nil {
			return err
		}
		if err := visit(record); err != nil {
			return err
		}
	}
	return nil
}

func encode(record *entities.Collocation) ([]byte, error) {
	data, err := json.Marshal(storedCollocation{
		ID:          record.ID.String(),
		Collocation: record.Collocation,
		IPA:         record.IPA,
		Meaning:     record.Meaning,
		Synonyms:    record.Synonyms,
		CreatedAt:   record.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collocation: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*entities.Collocation, error) {
	var stored storedCollocation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collocation: %w", err)
	}

	id, err := valueobjects.NewCollocationIDFromString(stored.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt collocation record: %w", err)
	}

	return &entities.Collocation{
		ID:          id,
		Collocation: stored.Collocation,
		IPA:         stored.IPA,
		Meaning:     stored.Meaning,
		Synonyms:    stored.Synonyms,
		CreatedAt:   stored.CreatedAt.UTC(),
	}, nil
}
