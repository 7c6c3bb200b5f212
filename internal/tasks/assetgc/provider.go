package assetgc

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/infrastructure/messaging"
	"github.com/streamfox/services-media/internal/storage"
)

// ProvideRunner 将资产门面与 Pub/Sub 订阅包装为清理 Runner。
func ProvideRunner(
	subscriber messaging.Subscriber,
	assets *storage.AssetStore,
	logger log.Logger,
) (*Runner, error) {
	return NewRunner(RunnerParams{
		Subscriber: subscriber,
		Assets:     assets,
		Logger:     logger,
	})
}
