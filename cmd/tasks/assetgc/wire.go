//go:build wireinject
// +build wireinject

// Package main 为资产清理任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/streamfox/services-media/internal/infrastructure/assetstore"
	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/infrastructure/logger"
	"github.com/streamfox/services-media/internal/infrastructure/messaging"
	assetgctasks "github.com/streamfox/services-media/internal/tasks/assetgc"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireAssetGCTask(context.Context, loader.Params) (*assetGCTaskApp, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		logger.ProviderSet,
		assetstore.NewStores,
		assetstore.ProvideAssetStore,
		messaging.NewClient,
		messaging.NewSubscription,
		assetgctasks.ProvideRunner,
		newAssetGCTaskApp,
	))
}

func newAssetGCTaskApp(log log.Logger, runner *assetgctasks.Runner) (*assetGCTaskApp, error) {
	if runner == nil {
		return nil, fmt.Errorf("assetgc runner not initialized")
	}
	return &assetGCTaskApp{
		Runner: runner,
		Logger: log,
	}, nil
}
