// Package outbox 实现 Outbox 发布任务：轮询 outbox_events 表中到期未发布的事件，
// 发布到 Pub/Sub 后回写发布状态，失败时按指数退避重新调度。
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/streamfox/services-media/internal/infrastructure/messaging"
	"github.com/streamfox/services-media/internal/repositories"
)

// Config 控制发布任务的节奏与退避参数。
type Config struct {
	BatchSize    int           // 每轮最多发布的事件数，零值回退到 100
	PollInterval time.Duration // 轮询间隔，零值回退到 1s
	RetryBackoff time.Duration // 首次失败的退避基准，零值回退到 5s
	MaxBackoff   time.Duration // 退避上限，零值回退到 5m
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
	defaultRetryBackoff = 5 * time.Second
	defaultMaxBackoff   = 5 * time.Minute
)

// EventStore 定义发布任务对 Outbox 表的访问行为。
type EventStore interface {
	ClaimPending(ctx context.Context, availableBefore time.Time, limit int) ([]repositories.OutboxEvent, error)
	MarkPublished(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, publishedAt time.Time) error
	Reschedule(ctx context.Context, sess txmanager.Session, eventID uuid.UUID, nextAvailable time.Time, lastErr string) error
}

// PublisherParams 注入构建 PublisherTask 所需的依赖。
type PublisherParams struct {
	Store     EventStore
	Publisher messaging.Publisher
	Config    Config
	Logger    log.Logger
}

// PublisherTask 是 Outbox 发布循环的任务实体。
type PublisherTask struct {
	store EventStore
	pub   messaging.Publisher
	cfg   Config
	log   *log.Helper
	now   func() time.Time
}

// NewPublisherTask 构造 Outbox 发布任务。
func NewPublisherTask(params PublisherParams) (*PublisherTask, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("outbox: event store is required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("outbox: publisher is required")
	}

	cfg := params.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	return &PublisherTask{
		store: params.Store,
		pub:   params.Publisher,
		cfg:   cfg,
		log:   log.NewHelper(params.Logger),
		now:   time.Now,
	}, nil
}

// Run 启动发布循环，直到 ctx 取消。
func (t *PublisherTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	t.log.Infof("outbox publisher started: batch_size=%d poll_interval=%s", t.cfg.BatchSize, t.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			t.log.Info("outbox publisher stopped")
			return nil
		case <-ticker.C:
			if _, err := t.PublishPending(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				t.log.Errorf("outbox publish round failed: err=%v", err)
			}
		}
	}
}

// PublishPending 执行一轮发布：认领到期事件逐个发布并回写状态。
// 返回本轮成功发布的事件数。单个事件失败只影响该事件的调度，不中断本轮。
func (t *PublisherTask) PublishPending(ctx context.Context) (int, error) {
	events, err := t.store.ClaimPending(ctx, t.now(), t.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim pending events: %w", err)
	}

	published := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}

		attrs := decodeHeaders(event.Headers)
		msgID, pubErr := t.pub.Publish(ctx, event.Payload, attrs)
		if pubErr != nil {
			next := t.now().Add(t.backoff(event.DeliveryAttempts))
			t.log.Warnf("publish event failed, rescheduling: event_id=%s attempts=%d next=%s err=%v",
				event.EventID, event.DeliveryAttempts+1, next.Format(time.RFC3339), pubErr)
			if resErr := t.store.Reschedule(ctx, nil, event.EventID, next, pubErr.Error()); resErr != nil {
				t.log.Errorf("reschedule event failed: event_id=%s err=%v", event.EventID, resErr)
			}
			continue
		}

		if markErr := t.store.MarkPublished(ctx, nil, event.EventID, t.now()); markErr != nil {
			// 消息已发出但状态未落库，下一轮会重复发布，消费方以 event_id 去重。
			t.log.Errorf("mark published failed: event_id=%s message_id=%s err=%v", event.EventID, msgID, markErr)
			continue
		}

		published++
		t.log.Debugf("event published: event_id=%s event_type=%s message_id=%s", event.EventID, event.EventType, msgID)
	}
	return published, nil
}

// backoff 计算第 attempts 次失败后的退避时长，指数增长并封顶。
func (t *PublisherTask) backoff(attempts int32) time.Duration {
	backoff := t.cfg.RetryBackoff
	for i := int32(0); i < attempts; i++ {
		backoff *= 2
		if backoff >= t.cfg.MaxBackoff {
			return t.cfg.MaxBackoff
		}
	}
	return backoff
}

// decodeHeaders 将 outbox.headers 的 JSON 还原为消息属性，解析失败时退化为空属性。
func decodeHeaders(headers []byte) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	var attrs map[string]string
	if err := json.Unmarshal(headers, &attrs); err != nil {
		return nil
	}
	return attrs
}
