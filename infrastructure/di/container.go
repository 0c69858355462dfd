package di

import (
	"collocation-backend/application/ports"
	"collocation-backend/application/services"
	"collocation-backend/infrastructure/config"
	"collocation-backend/infrastructure/settings"
	"collocation-backend/interfaces/http/rest"
	"collocation-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Repository ports.CollocationRepository
	Secrets    *settings.FileStore
	Service    *services.CollocationService
	Router     *rest.Router
}
