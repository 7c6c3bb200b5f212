//go:build wireinject
// +build wireinject

// Package main 为 Outbox 发布任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/infrastructure/database"
	"github.com/streamfox/services-media/internal/infrastructure/logger"
	"github.com/streamfox/services-media/internal/infrastructure/messaging"
	"github.com/streamfox/services-media/internal/repositories"
	outboxtasks "github.com/streamfox/services-media/internal/tasks/outbox"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireOutboxTask(context.Context, loader.Params) (*outboxTaskApp, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		logger.ProviderSet,
		database.NewPgxPool,
		repositories.NewOutboxRepository,
		messaging.NewClient,
		messaging.NewPublisher,
		outboxtasks.ProvideTask,
		newOutboxTaskApp,
	))
}

func newOutboxTaskApp(log log.Logger, task *outboxtasks.PublisherTask) (*outboxTaskApp, error) {
	if task == nil {
		return nil, fmt.Errorf("outbox task not initialized")
	}
	return &outboxTaskApp{
		Task:   task,
		Logger: log,
	}, nil
}
