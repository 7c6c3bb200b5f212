// Package events 提供领域事件构造与元数据辅助函数，统一事件命名与属性。
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// 事件类型与聚合常量。
const (
	AggregateTypeVideo = "video"

	EventTypeVideoDeleted = "video.deleted"

	SchemaVersionV1 = "v1"
)

// 构造事件时的参数校验错误。
var (
	ErrNilVideo       = errors.New("events: video is nil")
	ErrInvalidEventID = errors.New("events: event id is required")
)

// Event 是写入 outbox 并经 Pub/Sub 发布的领域事件封装。
// Payload 为 JSON 编码的事件负载。
type Event struct {
	EventID       uuid.UUID
	EventType     string
	AggregateID   string
	AggregateType string
	Version       int64
	OccurredAt    time.Time
	Payload       []byte
}

// BuildAttributes 构造符合 Pub/Sub 约定的 message attributes。
func BuildAttributes(event *Event, schemaVersion string, traceID string) map[string]string {
	if schemaVersion == "" {
		schemaVersion = SchemaVersionV1
	}
	attrs := map[string]string{
		"event_id":       event.EventID.String(),
		"event_type":     event.EventType,
		"aggregate_id":   event.AggregateID,
		"aggregate_type": event.AggregateType,
		"version":        strconv.FormatInt(event.Version, 10),
		"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339),
		"schema_version": schemaVersion,
	}
	if traceID != "" {
		attrs["trace_id"] = traceID
	}
	return attrs
}

// MarshalAttributes 将 attributes 编码为 JSON，供 outbox.headers 字段使用。
func MarshalAttributes(attrs map[string]string) ([]byte, error) {
	return json.Marshal(attrs)
}

// TraceIDFromContext 提取 OTel Trace ID，若不存在返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// VersionFromTime 根据时间戳计算聚合版本号，采用 UTC 微秒时间，保证单调递增。
func VersionFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}
