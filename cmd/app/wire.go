//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/kisanmitra/internal/bootstrap"
	"github.com/yanqian/kisanmitra/internal/domain/crops"
	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/plantid"
	"github.com/yanqian/kisanmitra/internal/domain/profile"
	"github.com/yanqian/kisanmitra/internal/infra/config"
	"github.com/yanqian/kisanmitra/internal/infra/tokens"
	httpiface "github.com/yanqian/kisanmitra/internal/interface/http"
	"github.com/yanqian/kisanmitra/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGatewayConfig,
		provideLLMProvider,
		provideTokenCounter,
		provideProfileRepository,
		provideLanguagePreferences,
		providePlantIDConfig,
		providePlantIDClient,
		provideCropsConfig,
		provideRateLimiter,
		provideIdentityVerifier,
		profile.NewService,
		gateway.NewService,
		plantid.NewService,
		crops.NewService,
		wire.Bind(new(gateway.TokenCounter), new(*tokens.Counter)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
