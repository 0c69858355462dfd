package decorators

import (
	"context"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	pkgerrors "collocation-backend/pkg/errors"
	"collocation-backend/pkg/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "collocation-backend/store"

// InstrumentedRepository is a decorator adding logging, Prometheus metrics
// and trace spans to every call of a CollocationRepository.
type InstrumentedRepository struct {
	inner   ports.CollocationRepository
	driver  string
	metrics *observability.Collector
	xray    *observability.XRayTracer
	tracer  trace.Tracer
	logger  *zap.Logger
}

var _ ports.CollocationRepository = (*InstrumentedRepository)(nil)

// NewInstrumentedRepository wraps inner. driver labels the metrics ("dynamodb", "bolt").
func NewInstrumentedRepository(
	inner ports.CollocationRepository,
	driver string,
	metrics *observability.Collector,
	xray *observability.XRayTracer,
	logger *zap.Logger,
) *InstrumentedRepository {
	return &InstrumentedRepository{
		inner:   inner,
		driver:  driver,
		metrics: metrics,
		xray:    xray,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// observe runs fn inside a span and records its outcome. Client errors
// (validation, duplicate, not found) are not counted as store failures.
func (r *InstrumentedRepository) observe(ctx context.Context, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("db.system", r.driver))...),
	)
	defer span.End()

	err := r.xray.TraceFunction(ctx, operation, func(ctx context.Context) error {
		r.xray.AddAnnotation(ctx, "driver", r.driver)
		return fn(ctx)
	})
	duration := time.Since(start)

	failed := err != nil && pkgerrors.StatusCode(err) >= 500
	if failed {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordStoreOperation(operation, r.driver, duration, err)
		r.logger.Error("Store operation failed",
			zap.String("operation", operation),
			zap.String("driver", r.driver),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}

	r.metrics.RecordStoreOperation(operation, r.driver, duration, nil)
	r.logger.Debug("Store operation completed",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.Bool("clientError", err != nil),
	)
	return err
}

func (r *InstrumentedRepository) InsertMany(ctx context.Context, records []*entities.Collocation) (ports.BulkInsertResult, error) {
	var result ports.BulkInsertResult
	err := r.observe(ctx, "insert_many", func(ctx context.Context) error {
		var err error
		result, err = r.inner.InsertMany(ctx, records)
		return err
	}, attribute.Int("batch.size", len(records)))
	if err == nil {
		r.metrics.CollocationsInserted.Add(float64(result.Inserted))
		r.metrics.DuplicatesSkipped.Add(float64(result.SkippedDuplicates))
	}
	return result, err
}

func (r *InstrumentedRepository) InsertOne(ctx context.Context, record *entities.Collocation) (*entities.Collocation, error) {
	var created *entities.Collocation
	err := r.observe(ctx, "insert_one", func(ctx context.Context) error {
		var err error
		created, err = r.inner.InsertOne(ctx, record)
		return err
	})
	if err == nil {
		r.metrics.CollocationsInserted.Inc()
	}
	return created, err
}

func (r *InstrumentedRepository) FindAll(ctx context.Context, opts ports.ListOptions) ([]*entities.Collocation, int, error) {
	var (
		items []*entities.Collocation
		total int
	)
	err := r.observe(ctx, "find_all", func(ctx context.Context) error {
		var err error
		items, total, err = r.inner.FindAll(ctx, opts)
		return err
	},
		attribute.Bool("query.search", opts.Search != ""),
		attribute.Int("query.skip", opts.Skip),
		attribute.Int("query.limit", opts.Limit),
	)
	return items, total, err
}

func (r *InstrumentedRepository) CountMatching(ctx context.Context, search string) (int, error) {
	var count int
	err := r.observe(ctx, "count_matching", func(ctx context.Context) error {
		var err error
		count, err = r.inner.CountMatching(ctx, search)
		return err
	})
	return count, err
}

func (r *InstrumentedRepository) FindExists(ctx context.Context, phraseSubstring string) (bool, error) {
	var exists bool
	err := r.observe(ctx, "find_exists", func(ctx context.Context) error {
		var err error
		exists, err = r.inner.FindExists(ctx, phraseSubstring)
		return err
	})
	return exists, err
}

func (r *InstrumentedRepository) UpdateByID(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error) {
	var updated *entities.Collocation
	err := r.observe(ctx, "update_by_id", func(ctx context.Context) error {
		var err error
		updated, err = r.inner.UpdateByID(ctx, id, fields)
		return err
	}, attribute.String("collocation.id", id.String()))
	return updated, err
}

func (r *InstrumentedRepository) DeleteByID(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	var deleted *entities.Collocation
	err := r.observe(ctx, "delete_by_id", func(ctx context.Context) error {
		var err error
		deleted, err = r.inner.DeleteByID(ctx, id)
		return err
	}, attribute.String("collocation.id", id.String()))
	if err == nil {
		r.metrics.CollocationsDeleted.Inc()
	}
	return deleted, err
}

func (r *InstrumentedRepository) DeleteAll(ctx context.Context) (int, error) {
	var count int
	err := r.observe(ctx, "delete_all", func(ctx context.Context) error {
		var err error
		count, err = r.inner.DeleteAll(ctx)
		return err
	})
	if err == nil {
		r.metrics.CollocationsDeleted.Add(float64(count))
	}
	return count, err
}

func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	return r.observe(ctx, "ping", r.inner.Ping)
}
