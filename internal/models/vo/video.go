// Package vo 定义视图对象（View Objects），用于向上层传递业务数据。
// VO 对象由 Service 层返回，经外部传输层序列化为响应，隔离内部数据结构。
package vo

import (
	"time"

	"github.com/google/uuid"

	"github.com/streamfox/services-media/internal/models/po"
)

// VideoDetail 封装视频精简视图，仅包含对外展示需要的核心字段。
type VideoDetail struct {
	ID        po.VideoID `json:"id"`
	Name      *string    `json:"name"`
	Codec     string     `json:"codec"`
	Format    string     `json:"format"`
	Status    string     `json:"status"`
	Views     int64      `json:"views"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewVideoDetail 从领域实体构造精简 VO。
func NewVideoDetail(video *po.Video) *VideoDetail {
	if video == nil {
		return nil
	}
	tags := make([]string, 0, len(video.Tags))
	for _, tag := range video.Tags {
		tags = append(tags, tag.Value)
	}
	return &VideoDetail{
		ID:        video.ID,
		Name:      video.Name,
		Codec:     string(video.Codec),
		Format:    string(video.Format),
		Status:    string(video.Status),
		Views:     video.Views,
		Tags:      tags,
		CreatedAt: video.CreatedAt,
		UpdatedAt: video.UpdatedAt,
	}
}

// VideoCreated 表示创建视频后的回执，携带数据库生成的标识。
type VideoCreated struct {
	ID        po.VideoID `json:"id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// VideoDeleted 表示删除视频后的回执，EventID 关联异步资产清理事件。
type VideoDeleted struct {
	ID        po.VideoID `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	DeletedAt time.Time  `json:"deleted_at"`
}

// NewVideoCreated 从新建实体构造回执。
func NewVideoCreated(video *po.Video) *VideoCreated {
	if video == nil {
		return nil
	}
	return &VideoCreated{
		ID:        video.ID,
		Status:    string(video.Status),
		CreatedAt: video.CreatedAt,
	}
}
