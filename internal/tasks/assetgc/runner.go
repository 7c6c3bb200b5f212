package assetgc

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/infrastructure/messaging"
)

// RunnerParams 注入构建 Runner 所需的依赖。
type RunnerParams struct {
	Subscriber messaging.Subscriber
	Assets     AssetRemover
	Logger     log.Logger
}

// Runner 负责消费 video.deleted 事件并触发资产清理。
type Runner struct {
	sub     messaging.Subscriber
	decoder *eventDecoder
	handler *Handler
	log     *log.Helper
}

// NewRunner 构造资产清理 Runner。
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Subscriber == nil {
		return nil, fmt.Errorf("assetgc: subscriber is required")
	}
	if params.Assets == nil {
		return nil, fmt.Errorf("assetgc: asset remover is required")
	}

	return &Runner{
		sub:     params.Subscriber,
		decoder: newEventDecoder(),
		handler: NewHandler(params.Assets, params.Logger),
		log:     log.NewHelper(params.Logger),
	}, nil
}

// Run 启动消费循环，直到 ctx 取消。
//
// Ack/Nack 决策：
//   - 解码失败的消息是毒消息，Ack 丢弃并记录错误；
//   - 非本任务关心的事件类型 Ack 跳过；
//   - 处理失败 Nack 等待重投。
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("assetgc runner started")
	err := r.sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		req, decodeErr := r.decoder.Decode(msg.Data, msg.Attributes)
		if decodeErr != nil {
			r.log.WithContext(msgCtx).Errorf("drop undecodable message: message_id=%s err=%v", msg.ID, decodeErr)
			msg.Ack()
			return
		}
		if req == nil {
			msg.Ack()
			return
		}

		if handleErr := r.handler.Handle(msgCtx, req); handleErr != nil {
			r.log.WithContext(msgCtx).Errorf("handle delete request failed, will retry: video_id=%s err=%v", req.VideoID, handleErr)
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("assetgc: receive: %w", err)
	}
	r.log.Info("assetgc runner stopped")
	return nil
}
