// Package logger 基于 gclog 构造结构化日志器，并注入链路追踪字段。
package logger

import (
	"context"
	"os"

	gclog "github.com/bionicotaku/lingo-utils/gclog"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

// Config 是日志器携带的服务运行时元信息。
// 空字段在 NewLogger 内回退到可用的默认值。
type Config struct {
	Service string // 服务名，空值回退到 services-media
	Version string // 构建版本，空值回退到 dev
	HostID  string // 实例标识，空值回退到主机名
	Env     string // 部署环境，空值回退到 development
}

// NewLogger 构造 Kratos 日志器。每条日志附带 trace_id 与 span_id，
// 上下文中没有活跃 span 时两个字段为空串。
func NewLogger(cfg Config) (log.Logger, error) {
	if cfg.Service == "" {
		cfg.Service = "services-media"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.HostID == "" {
		cfg.HostID, _ = os.Hostname()
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	base, err := gclog.NewLogger(
		gclog.WithService(cfg.Service),
		gclog.WithVersion(cfg.Version),
		gclog.WithEnvironment(cfg.Env),
		gclog.WithStaticLabels(map[string]string{"service.id": cfg.HostID}),
		gclog.EnableSourceLocation(),
	)
	if err != nil {
		return nil, err
	}
	return log.With(base,
		"trace_id", spanField(func(sc trace.SpanContext) (string, bool) {
			return sc.TraceID().String(), sc.HasTraceID()
		}),
		"span_id", spanField(func(sc trace.SpanContext) (string, bool) {
			return sc.SpanID().String(), sc.HasSpanID()
		}),
	), nil
}

// spanField 将 span 上下文的单个字段包装为 log.Valuer。
func spanField(extract func(trace.SpanContext) (string, bool)) log.Valuer {
	return func(ctx context.Context) interface{} {
		if v, ok := extract(trace.SpanContextFromContext(ctx)); ok {
			return v
		}
		return ""
	}
}
