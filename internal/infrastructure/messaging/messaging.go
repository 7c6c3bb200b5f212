// Package messaging 封装 Pub/Sub 客户端、发布器与订阅的初始化。
package messaging

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
)

// Publisher 是任务层依赖的最小发布接口。
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// Subscriber 是任务层依赖的最小消费接口，*pubsub.Subscription 直接满足。
type Subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// NewClient 创建 Pub/Sub 客户端并返回清理函数。
func NewClient(ctx context.Context, cfg loader.Messaging, logger log.Logger) (*pubsub.Client, func(), error) {
	helper := log.NewHelper(logger)

	if cfg.ProjectID == "" {
		return nil, nil, fmt.Errorf("messaging: project id is required (set PUBSUB_PROJECT_ID)")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("messaging: create pubsub client: %w", err)
	}

	helper.Infof("pubsub client created: project=%s", cfg.ProjectID)
	cleanup := func() {
		helper.Info("closing pubsub client")
		if err := client.Close(); err != nil {
			helper.Warnf("close pubsub client: %v", err)
		}
	}
	return client, cleanup, nil
}

// topicPublisher 将 *pubsub.Topic 适配为 Publisher。
type topicPublisher struct {
	topic *pubsub.Topic
}

var _ Publisher = (*topicPublisher)(nil)

// NewPublisher 基于配置的 topic 构造发布器。
func NewPublisher(client *pubsub.Client, cfg loader.Messaging) (Publisher, error) {
	if cfg.TopicID == "" {
		return nil, fmt.Errorf("messaging: topic id is required")
	}
	return &topicPublisher{topic: client.Topic(cfg.TopicID)}, nil
}

// Publish 发布消息并等待服务端确认，返回消息 ID。
func (p *topicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("messaging: publish: %w", err)
	}
	return id, nil
}

// NewSubscription 返回配置的订阅句柄。
func NewSubscription(client *pubsub.Client, cfg loader.Messaging) (Subscriber, error) {
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("messaging: subscription id is required")
	}
	return client.Subscription(cfg.SubscriptionID), nil
}
