package outbox

import (
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/infrastructure/messaging"
	"github.com/streamfox/services-media/internal/repositories"
)

// ProvideTask 将 Outbox 仓储与 Pub/Sub 发布器包装为发布任务。
func ProvideTask(
	repo *repositories.OutboxRepository,
	publisher messaging.Publisher,
	cfg loader.Outbox,
	logger log.Logger,
) (*PublisherTask, error) {
	return NewPublisherTask(PublisherParams{
		Store:     repo,
		Publisher: publisher,
		Config: Config{
			BatchSize:    cfg.BatchSize,
			PollInterval: loader.MustDuration(cfg.PollInterval, 0),
			RetryBackoff: loader.MustDuration(cfg.RetryBackoff, 0),
			MaxBackoff:   loader.MustDuration(cfg.MaxBackoff, 0),
		},
		Logger: logger,
	})
}
