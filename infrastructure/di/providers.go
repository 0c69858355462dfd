package di

import (
	"context"
	"fmt"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/application/services"
	"collocation-backend/infrastructure/config"
	"collocation-backend/infrastructure/generator"
	"collocation-backend/infrastructure/persistence"
	"collocation-backend/infrastructure/persistence/bolt"
	"collocation-backend/infrastructure/persistence/decorators"
	"collocation-backend/infrastructure/persistence/dynamodb"
	"collocation-backend/infrastructure/settings"
	"collocation-backend/interfaces/http/rest"
	"collocation-backend/pkg/observability"
	"collocation-backend/pkg/ratelimit"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName      = "collocation-backend"
	metricsNamespace = "collocation"

	// storeStartupTimeout bounds table creation and the first ping
	storeStartupTimeout = 30 * time.Second
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideXRayTracer creates the X-Ray subsegment tracer
func ProvideXRayTracer() *observability.XRayTracer {
	return observability.NewXRayTracer(serviceName)
}

// ProvideStoreLocation parses STORE_URI
func ProvideStoreLocation(cfg *config.Config) (persistence.StoreLocation, error) {
	return persistence.ParseStoreURI(cfg.StoreURI)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, loc persistence.StoreLocation) (aws.Config, error) {
	region := loc.Region
	if region == "" {
		region = cfg.AWSRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.EnableXRay || cfg.IsLambda {
		observability.InstrumentAWSConfig(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local
// endpoint when the store URI names one
func ProvideDynamoDBClient(awsCfg aws.Config, loc persistence.StoreLocation) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if loc.Endpoint != "" {
			o.BaseEndpoint = aws.String(loc.Endpoint)
		}
	})
}

// ProvideRepository opens the record store named by the store location and
// wraps it with metrics, tracing and logging. A store that cannot be reached
// at startup is logged, not fatal: requests fail until it comes back.
func ProvideRepository(
	ctx context.Context,
	cfg *config.Config,
	loc persistence.StoreLocation,
	metrics *observability.Collector,
	xray *observability.XRayTracer,
	logger *zap.Logger,
) (ports.CollocationRepository, func(), error) {
	var (
		inner   ports.CollocationRepository
		cleanup = func() {}
	)

	switch loc.Driver {
	case persistence.DriverDynamoDB:
		inner = openDynamoDB(ctx, cfg, loc, logger)

	case persistence.DriverBolt:
		repo, err := bolt.Open(loc.Path, logger)
		if err != nil {
			logger.Error("Failed to open bolt store, requests will fail",
				zap.String("path", loc.Path),
				zap.Error(err),
			)
			inner = persistence.NewUnavailable(err)
			break
		}
		inner = repo
		cleanup = func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close bolt store", zap.Error(err))
			}
		}

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", loc.Driver)
	}

	logger.Info("Record store configured",
		zap.String("driver", loc.Driver),
		zap.String("table", loc.Table),
		zap.String("path", loc.Path),
	)

	return decorators.NewInstrumentedRepository(inner, loc.Driver, metrics, xray, logger), cleanup, nil
}

func openDynamoDB(ctx context.Context, cfg *config.Config, loc persistence.StoreLocation, logger *zap.Logger) ports.CollocationRepository {
	awsCfg, err := ProvideAWSConfig(ctx, cfg, loc)
	if err != nil {
		logger.Error("DynamoDB unavailable, requests will fail", zap.Error(err))
		return persistence.NewUnavailable(err)
	}

	repo := dynamodb.NewCollocationRepository(
		ProvideDynamoDBClient(awsCfg, loc),
		loc.Table,
		cfg.BulkInsertConcurrency,
		logger,
	)

	ctx, cancel := context.WithTimeout(ctx, storeStartupTimeout)
	defer cancel()

	if loc.CreateTable {
		if err := repo.EnsureTable(ctx); err != nil {
			logger.Error("Failed to ensure DynamoDB table", zap.String("table", loc.Table), zap.Error(err))
		}
	}
	if err := repo.Ping(ctx); err != nil {
		logger.Warn("DynamoDB table not reachable yet", zap.String("table", loc.Table), zap.Error(err))
	}
	return repo
}

// ProvideSecretStore opens the runtime secrets file. The environment's
// credential seeds the store; a value saved in the file takes precedence.
func ProvideSecretStore(cfg *config.Config, logger *zap.Logger) (*settings.FileStore, error) {
	return settings.NewFileStore(cfg.SecretsFile, map[string]string{
		settings.GeminiAPIKey: cfg.GeminiAPIKey,
	}, logger)
}

// ProvideGenerator creates the generator client
func ProvideGenerator(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) *generator.Client {
	genCfg := generator.DefaultConfig()
	genCfg.Timeout = cfg.GeneratorTimeout
	genCfg.BaseURL = cfg.GeneratorBaseURL
	return generator.NewClient(genCfg, metrics, logger)
}

// ProvideCollocationService creates the application service
func ProvideCollocationService(
	repo ports.CollocationRepository,
	gen ports.Generator,
	secrets ports.SecretStore,
	cfg *config.Config,
	logger *zap.Logger,
) *services.CollocationService {
	return services.NewCollocationService(repo, gen, secrets, cfg.GeminiModel, logger)
}

// ProvideGenerateLimiter bounds generation requests per client; nil when disabled
func ProvideGenerateLimiter(cfg *config.Config) *ratelimit.SlidingWindowLimiter {
	if cfg.GenerateRateLimit <= 0 {
		return nil
	}
	return ratelimit.NewSlidingWindowLimiter(cfg.GenerateRateLimit, time.Minute)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	service rest.Service,
	limiter *ratelimit.SlidingWindowLimiter,
	metrics *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(rest.RouterConfig{
		CORSOrigins:     cfg.CORSOrigins,
		Debug:           cfg.Debug,
		GenerateLimiter: limiter,
	}, service, metrics, logger)
}
