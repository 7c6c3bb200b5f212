package messaging

import "github.com/google/wire"

// ProviderSet 暴露 Pub/Sub 构造器供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewClient,
	NewPublisher,
	NewSubscription,
)
