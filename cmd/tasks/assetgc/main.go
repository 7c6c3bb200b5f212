// Package main 提供资产清理任务的独立进程入口，消费 video.deleted 事件。
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	_ "go.uber.org/automaxprocs"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	assetgctasks "github.com/streamfox/services-media/internal/tasks/assetgc"
)

type assetGCTaskApp struct {
	Runner *assetgctasks.Runner
	Logger log.Logger
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := loader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireAssetGCTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	helper.Info("starting asset cleanup runner")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("asset cleanup runner stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("asset cleanup runner stopped")
}
