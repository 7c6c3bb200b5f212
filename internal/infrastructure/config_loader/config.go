package loader

import (
	"fmt"
	"time"
)

// Bootstrap 是服务的根配置，从 YAML/JSON 配置文件扫描得到。
type Bootstrap struct {
	Data      Data      `json:"data"`
	Storage   Storage   `json:"storage"`
	Messaging Messaging `json:"messaging"`
	Watch     Watch     `json:"watch"`
	Outbox    Outbox    `json:"outbox"`
}

// Data 聚合数据层配置。
type Data struct {
	Postgres Postgres `json:"postgres"`
}

// Postgres 描述 PostgreSQL 连接池与事务行为。
// 时间类字段使用 time.ParseDuration 可解析的字符串，如 "30m"、"5s"。
type Postgres struct {
	DSN                      string      `json:"dsn"`
	Schema                   string      `json:"schema"`
	MaxOpenConns             int32       `json:"max_open_conns"`
	MinOpenConns             int32       `json:"min_open_conns"`
	MaxConnLifetime          string      `json:"max_conn_lifetime"`
	MaxConnIdleTime          string      `json:"max_conn_idle_time"`
	HealthCheckPeriod        string      `json:"health_check_period"`
	EnablePreparedStatements bool        `json:"enable_prepared_statements"`
	Transaction              Transaction `json:"transaction"`
}

// Transaction 描述事务管理器的默认行为。
type Transaction struct {
	DefaultIsolation string `json:"default_isolation"`
	DefaultTimeout   string `json:"default_timeout"`
	LockTimeout      string `json:"lock_timeout"`
	MaxRetries       int    `json:"max_retries"`
}

// 存储后端取值。
const (
	StorageBackendDisk = "disk"
	StorageBackendGCS  = "gcs"
)

// Storage 描述视频与缩略图资产的存储介质。
// Backend 为 disk 时使用 VideoDir/ThumbnailDir，为 gcs 时使用 Bucket 与前缀。
type Storage struct {
	Backend              string `json:"backend"`
	VideoDir             string `json:"video_dir"`
	ThumbnailDir         string `json:"thumbnail_dir"`
	Bucket               string `json:"bucket"`
	VideoPrefix          string `json:"video_prefix"`
	ThumbnailPrefix      string `json:"thumbnail_prefix"`
	SignerServiceAccount string `json:"signer_service_account"`
	PlaybackTTL          string `json:"playback_ttl"`
}

// Messaging 描述 Pub/Sub 连接参数。
type Messaging struct {
	ProjectID      string `json:"project_id"`
	TopicID        string `json:"topic_id"`
	SubscriptionID string `json:"subscription_id"`
}

// Watch 控制观看进度与计数行为。
type Watch struct {
	CompletionPercent float64 `json:"completion_percent"`
	MinRateSamples    int     `json:"min_rate_samples"`
}

// Outbox 控制 Outbox 发布任务的节奏。
type Outbox struct {
	BatchSize    int    `json:"batch_size"`
	PollInterval string `json:"poll_interval"`
	RetryBackoff string `json:"retry_backoff"`
	MaxBackoff   string `json:"max_backoff"`
}

// validate 检查配置完整性，替代不了数据库连通性检查，只拦截明显的配置缺失。
func (bc *Bootstrap) validate() error {
	if bc.Data.Postgres.DSN == "" {
		return fmt.Errorf("data.postgres.dsn is required (set DATABASE_URL)")
	}
	switch bc.Storage.Backend {
	case StorageBackendDisk:
		if bc.Storage.VideoDir == "" || bc.Storage.ThumbnailDir == "" {
			return fmt.Errorf("storage.video_dir and storage.thumbnail_dir are required for disk backend")
		}
	case StorageBackendGCS:
		if bc.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for gcs backend")
		}
	case "":
		return fmt.Errorf("storage.backend is required (disk or gcs)")
	default:
		return fmt.Errorf("storage.backend %q is not supported (disk or gcs)", bc.Storage.Backend)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"data.postgres.max_conn_lifetime", bc.Data.Postgres.MaxConnLifetime},
		{"data.postgres.max_conn_idle_time", bc.Data.Postgres.MaxConnIdleTime},
		{"data.postgres.health_check_period", bc.Data.Postgres.HealthCheckPeriod},
		{"data.postgres.transaction.default_timeout", bc.Data.Postgres.Transaction.DefaultTimeout},
		{"data.postgres.transaction.lock_timeout", bc.Data.Postgres.Transaction.LockTimeout},
		{"storage.playback_ttl", bc.Storage.PlaybackTTL},
		{"outbox.poll_interval", bc.Outbox.PollInterval},
		{"outbox.retry_backoff", bc.Outbox.RetryBackoff},
		{"outbox.max_backoff", bc.Outbox.MaxBackoff},
	} {
		if _, err := parseDuration(field.value, 0); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	return nil
}

// parseDuration 解析可选的 duration 字符串，空值回退到 fallback。
func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}

// MustDuration 解析已通过 validate 的 duration 字段，空值回退到 fallback。
func MustDuration(raw string, fallback time.Duration) time.Duration {
	d, err := parseDuration(raw, fallback)
	if err != nil {
		return fallback
	}
	return d
}
