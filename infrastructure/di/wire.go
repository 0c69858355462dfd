//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"collocation-backend/application/ports"
	"collocation-backend/application/services"
	"collocation-backend/infrastructure/config"
	"collocation-backend/infrastructure/generator"
	"collocation-backend/infrastructure/settings"
	"collocation-backend/interfaces/http/rest"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideXRayTracer,
	ProvideStoreLocation,
	ProvideRepository,
	ProvideSecretStore,
	ProvideGenerator,
	ProvideCollocationService,
	ProvideGenerateLimiter,
	ProvideRouter,
	wire.Bind(new(ports.Generator), new(*generator.Client)),
	wire.Bind(new(ports.SecretStore), new(*settings.FileStore)),
	wire.Bind(new(rest.Service), new(*services.CollocationService)),
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
