// Package assetgc 消费 video.deleted 事件并清理对应的二进制资产，
// 使元数据删除与资产删除跨存储最终一致。
package assetgc

import (
	"fmt"
	"strings"

	"github.com/streamfox/services-media/internal/models/events"
	"github.com/streamfox/services-media/internal/models/po"
)

// DeleteRequest 是解码后的资产清理请求。
type DeleteRequest struct {
	VideoID po.VideoID
	Reason  string
}

// eventDecoder 将 Pub/Sub 消息解码为资产清理请求。
type eventDecoder struct{}

func newEventDecoder() *eventDecoder {
	return &eventDecoder{}
}

// Decode 校验事件类型并解析负载。非 video.deleted 事件返回 (nil, nil) 跳过。
func (d *eventDecoder) Decode(data []byte, attrs map[string]string) (*DeleteRequest, error) {
	if eventType := strings.TrimSpace(attrs["event_type"]); eventType != "" && eventType != events.EventTypeVideoDeleted {
		return nil, nil
	}

	payload, err := events.DecodeVideoDeleted(data)
	if err != nil {
		return nil, fmt.Errorf("assetgc: decode payload: %w", err)
	}

	id, err := po.ParseVideoID(payload.VideoID)
	if err != nil {
		return nil, fmt.Errorf("assetgc: invalid video id %q: %w", payload.VideoID, err)
	}

	return &DeleteRequest{VideoID: id, Reason: payload.Reason}, nil
}
