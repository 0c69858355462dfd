package decorators

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	"collocation-backend/infrastructure/persistence"
	"collocation-backend/infrastructure/persistence/bolt"
	"collocation-backend/pkg/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInstrumented(t *testing.T) (*InstrumentedRepository, *observability.Collector) {
	t.Helper()
	inner, err := bolt.Open(filepath.Join(t.TempDir(), "store.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	metrics := observability.NewCollector("test")
	return NewInstrumentedRepository(inner, "bolt", metrics, observability.NewXRayTracer("test"), zap.NewNop()), metrics
}

func newRecord(t *testing.T, phrase string) *entities.Collocation {
	t.Helper()
	c, err := entities.NewCollocation(entities.Fields{Collocation: phrase})
	require.NoError(t, err)
	return c
}

func TestInstrumentedRepositoryCountsBusinessMetrics(t *testing.T) {
	ctx := context.Background()
	repo, metrics := newInstrumented(t)

	result, err := repo.InsertMany(ctx, []*entities.Collocation{
		newRecord(t, "heavy rain"),
		newRecord(t, "strong wind"),
		newRecord(t, "heavy rain"),
	})
	require.NoError(t, err)
	assert.Equal(t, ports.BulkInsertResult{Inserted: 2, SkippedDuplicates: 1}, result)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CollocationsInserted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DuplicatesSkipped))

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CollocationsDeleted))
}

func TestInstrumentedRepositoryClientErrorsAreNotFailures(t *testing.T) {
	ctx := context.Background()
	repo, metrics := newInstrumented(t)

	_, err := repo.DeleteByID(ctx, valueobjects.NewCollocationID())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("delete_by_id", "bolt", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("delete_by_id", "bolt", "error")))
}

func TestInstrumentedRepositoryRecordsStoreFailures(t *testing.T) {
	metrics := observability.NewCollector("test")
	repo := NewInstrumentedRepository(persistence.NewUnavailable(errors.New("file locked")), "bolt", metrics,
		observability.NewXRayTracer("test"), zap.NewNop())

	_, _, err := repo.FindAll(context.Background(), ports.ListOptions{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("find_all", "bolt", "error")))

	assert.Error(t, repo.Ping(context.Background()))
}
