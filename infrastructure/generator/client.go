package generator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	pkgerrors "collocation-backend/pkg/errors"
	"collocation-backend/pkg/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when the configuration names no model
const DefaultModel = "gemini-2.0-flash"

// Config holds generator client configuration
type Config struct {
	// BaseURL overrides the Gemini API endpoint (tests, proxies)
	BaseURL string
	// Timeout bounds one call; zero disables the bound
	Timeout time.Duration

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	FailureThreshold   float64
	MinRequests        uint32
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		Timeout:            90 * time.Second,
		BreakerMaxRequests: 1,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
		FailureThreshold:   0.6,
		MinRequests:        3,
	}
}

// Client generates collocations through the Gemini API. A genai client is
// built per call from the GenerationConfig so a newly saved key applies
// immediately.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Collector
	tracer     trace.Tracer
	logger     *zap.Logger
}

var _ ports.Generator = (*Client)(nil)

// NewClient creates a new generator client
func NewClient(config Config, metrics *observability.Collector, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: config.BreakerMaxRequests,
		Interval:    config.BreakerInterval,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a fault of the service
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		breaker:    breaker,
		metrics:    metrics,
		tracer:     otel.Tracer("collocation-backend/generator"),
		logger:     logger,
	}
}

// Generate asks the model for collocations of words and returns the
// normalized candidates.
func (c *Client) Generate(ctx context.Context, cfg ports.GenerationConfig, words []string) ([]entities.Fields, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "generator.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("generator.model", c.model(cfg)),
			attribute.Int("generator.words", len(words)),
		),
	)
	defer span.End()

	results, err := c.generate(ctx, cfg, words)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.Code != "" {
			outcome = appErr.Code
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Error("Generation failed",
			zap.String("stage", outcome),
			zap.Strings("words", words),
			zap.Error(err),
		)
	} else {
		span.SetAttributes(attribute.Int("generator.results", len(results)))
		c.logger.Info("Generated collocations",
			zap.Int("words", len(words)),
			zap.Int("results", len(results)),
			zap.Duration("duration", time.Since(start)),
		)
	}
	c.metrics.RecordGeneration(outcome, time.Since(start))

	return results, err
}

func (c *Client) model(cfg ports.GenerationConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return DefaultModel
}

func (c *Client) generate(ctx context.Context, cfg ports.GenerationConfig, words []string) ([]entities.Fields, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.NewUpstreamError(StageCredential, "generator API key is not configured", nil)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      cfg.APIKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  c.httpClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: c.config.BaseURL},
		})
		if err != nil {
			return nil, err
		}

		return client.Models.GenerateContent(ctx, c.model(cfg), genai.Text(buildPrompt(words)), &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.4),
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.NewUpstreamError(StageTransport, "generator service temporarily unavailable", err)
		}
		return nil, pkgerrors.NewUpstreamError(StageTransport, "failed to reach generator service", err)
	}

	resp, ok := out.(*genai.GenerateContentResponse)
	if !ok || resp == nil || len(resp.Candidates) == 0 {
		return nil, pkgerrors.NewUpstreamError(StageEmpty, "generator returned an empty response", nil)
	}

	results, err := parseResults(resp.Text())
	if err != nil {
		return nil, err
	}

	valid := normalize(results)
	if dropped := len(results) - len(valid); dropped > 0 {
		c.logger.Warn("Dropped invalid generated records",
			zap.Int("dropped", dropped),
			zap.Int("received", len(results)),
		)
	}
	return valid, nil
}
