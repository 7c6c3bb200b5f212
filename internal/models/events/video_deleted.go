package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamfox/services-media/internal/models/po"
)

// VideoDeletedPayload 是 video.deleted 事件的 JSON 负载。
// 携带删除行的标识，供后台任务清理对应的二进制资产。
type VideoDeletedPayload struct {
	VideoID   string `json:"video_id"`
	Version   int64  `json:"version"`
	DeletedAt string `json:"deleted_at"`
	Reason    string `json:"reason,omitempty"`
}

// NewVideoDeletedEvent 基于删除的实体构建 VideoDeleted 事件。
func NewVideoDeletedEvent(video *po.Video, eventID uuid.UUID, occurredAt time.Time, reason *string) (*Event, error) {
	if video == nil {
		return nil, ErrNilVideo
	}
	if eventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	version := VersionFromTime(occurredAt)
	payload := VideoDeletedPayload{
		VideoID:   video.ID.String(),
		Version:   version,
		DeletedAt: occurredAt.UTC().Format(time.RFC3339Nano),
	}
	if reason != nil {
		payload.Reason = *reason
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal video deleted payload: %w", err)
	}

	return &Event{
		EventID:       eventID,
		EventType:     EventTypeVideoDeleted,
		AggregateID:   video.ID.String(),
		AggregateType: AggregateTypeVideo,
		Version:       version,
		OccurredAt:    occurredAt.UTC(),
		Payload:       data,
	}, nil
}

// DecodeVideoDeleted 解析 video.deleted 事件负载。
func DecodeVideoDeleted(payload []byte) (*VideoDeletedPayload, error) {
	var decoded VideoDeletedPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode video deleted payload: %w", err)
	}
	if decoded.VideoID == "" {
		return nil, fmt.Errorf("decode video deleted payload: video_id is empty")
	}
	return &decoded, nil
}
