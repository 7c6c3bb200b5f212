//go:build wireinject
// +build wireinject

// Package main 为媒体库管理 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/streamfox/services-media/internal/infrastructure/assetstore"
	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/infrastructure/database"
	"github.com/streamfox/services-media/internal/infrastructure/logger"
	"github.com/streamfox/services-media/internal/repositories"
	"github.com/streamfox/services-media/internal/services"
	"github.com/streamfox/services-media/internal/storage"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireMediactl(context.Context, loader.Params) (*mediactlApp, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		logger.ProviderSet,
		database.ProviderSet,
		repositories.ProviderSet,
		assetstore.ProviderSet,
		services.ProviderSet,

		// Service 层接口由消费方声明，在装配点绑定到具体实现。
		wire.Bind(new(services.VideoQueryRepo), new(*repositories.VideoRepository)),
		wire.Bind(new(services.VideoCommandRepo), new(*repositories.VideoRepository)),
		wire.Bind(new(services.IngestionRepo), new(*repositories.VideoRepository)),
		wire.Bind(new(services.WatchVideoRepo), new(*repositories.VideoRepository)),
		wire.Bind(new(services.TagQueryRepo), new(*repositories.TagRepository)),
		wire.Bind(new(services.TagCommandRepo), new(*repositories.TagRepository)),
		wire.Bind(new(services.VideoOutboxWriter), new(*repositories.OutboxRepository)),
		wire.Bind(new(services.IngestionAssetWriter), new(*storage.AssetStore)),
		wire.Bind(new(services.WatchAssetReader), new(*storage.AssetStore)),
		wire.Bind(new(services.AssetEnumerator), new(*storage.AssetStore)),

		newMediactlApp,
	))
}

func newMediactlApp(
	log log.Logger,
	ingestion *services.IngestionService,
	queries *services.VideoQueryService,
	commands *services.VideoCommandService,
	watch *services.WatchService,
) *mediactlApp {
	return &mediactlApp{
		Ingestion: ingestion,
		Queries:   queries,
		Commands:  commands,
		Watch:     watch,
		Logger:    log,
	}
}
