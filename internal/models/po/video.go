// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// PO 对象映射数据库表结构，不直接暴露给上层业务逻辑。
package po

import (
	"time"
)

// VideoStatus 表示视频元数据行的生命周期状态
type VideoStatus string

// 视频状态常量定义
const (
	VideoStatusPending   VideoStatus = "pending"   // 元数据已创建但二进制资产尚未写入
	VideoStatusAvailable VideoStatus = "available" // 资产写入完成，可被列举与播放
)

// VideoCodec 表示视频编码
type VideoCodec string

// 编码常量定义
const (
	CodecUnknown VideoCodec = ""
	CodecH264    VideoCodec = "h264"
	CodecVP9     VideoCodec = "vp9"
	CodecAV1     VideoCodec = "av1"
)

// VideoFormat 表示容器格式
type VideoFormat string

// 容器格式常量定义
const (
	FormatUnknown VideoFormat = ""
	FormatMP4     VideoFormat = "mp4"
	FormatWebM    VideoFormat = "webm"
	FormatMKV     VideoFormat = "mkv"
)

// Video 表示 videos 表的数据库实体。
// ID 在插入时由 identity 序列生成，此后不可变，是元数据与二进制存储的唯一关联键。
type Video struct {
	ID         VideoID     `db:"id"`
	Name       *string     `db:"name"`        // 标题（可选）
	Codec      VideoCodec  `db:"codec"`       // 编码
	Format     VideoFormat `db:"format"`      // 容器格式
	Status     VideoStatus `db:"status"`      // 生命周期状态
	Views      int64       `db:"views"`       // 观看计数（单调递增，原子更新）
	SizeBytes  *int64      `db:"size_bytes"`  // 资产大小（字节，写入完成后补写）
	BitrateBPS *int64      `db:"bitrate_bps"` // 申报码率（bit/s，观看进度估算用）
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`

	// Tags 为关联标签，由 Repository 联表填充，非表字段。
	Tags []Tag `db:"-"`
}
