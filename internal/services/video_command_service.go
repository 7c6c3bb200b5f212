package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/streamfox/services-media/internal/models/events"
	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/models/vo"
	"github.com/streamfox/services-media/internal/repositories"
)

// VideoCommandRepo 定义写模型需要的持久化行为。
type VideoCommandRepo interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateVideoInput) (*po.Video, error)
	Update(ctx context.Context, sess txmanager.Session, input repositories.UpdateVideoInput) (*po.Video, error)
	Delete(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
	FindByID(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
}

// TagCommandRepo 定义标签写模型需要的持久化行为。
type TagCommandRepo interface {
	Ensure(ctx context.Context, sess txmanager.Session, value string) (*po.Tag, error)
	Attach(ctx context.Context, sess txmanager.Session, videoID po.VideoID, tagID int64) error
	Detach(ctx context.Context, sess txmanager.Session, videoID po.VideoID, tagID int64) error
	FindByValue(ctx context.Context, sess txmanager.Session, value string) (*po.Tag, error)
	Delete(ctx context.Context, sess txmanager.Session, tagID int64) error
}

// VideoOutboxWriter 定义 Outbox 写入行为。
type VideoOutboxWriter interface {
	Enqueue(ctx context.Context, sess txmanager.Session, msg repositories.OutboxMessage) error
}

// CreateVideoInput 表示创建视频元数据行的输入参数。
type CreateVideoInput struct {
	Name       *string
	Codec      po.VideoCodec
	Format     po.VideoFormat
	BitrateBPS *int64
}

// UpdateVideoInput 表示更新视频时的可选字段，nil 字段保持原值。
type UpdateVideoInput struct {
	ID     po.VideoID
	Name   *string
	Codec  *po.VideoCodec
	Format *po.VideoFormat
}

// DeleteVideoInput 表示删除视频时的输入。
type DeleteVideoInput struct {
	ID     po.VideoID
	Reason *string
}

// VideoCommandService 封装 Video 写模型用例。
// 删除视频时在同一事务内写入 video.deleted Outbox 事件，
// 由后台任务据此清理二进制资产，元数据与资产的删除跨存储最终一致。
type VideoCommandService struct {
	repo      VideoCommandRepo
	tags      TagCommandRepo
	outbox    VideoOutboxWriter
	txManager txmanager.Manager
	log       *log.Helper
}

// NewVideoCommandService 构造一个 Video 写模型服务。
func NewVideoCommandService(repo VideoCommandRepo, tags TagCommandRepo, outbox VideoOutboxWriter, tx txmanager.Manager, logger log.Logger) *VideoCommandService {
	return &VideoCommandService{
		repo:      repo,
		tags:      tags,
		outbox:    outbox,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// CreateVideo 创建新的元数据行，状态为 pending，标识由数据库生成。
func (s *VideoCommandService) CreateVideo(ctx context.Context, input CreateVideoInput) (*vo.VideoCreated, error) {
	repoInput := repositories.CreateVideoInput{
		Name:       input.Name,
		Codec:      input.Codec,
		Format:     input.Format,
		BitrateBPS: input.BitrateBPS,
	}

	var created *po.Video
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, repoErr := s.repo.Create(txCtx, sess, repoInput)
		if repoErr != nil {
			return repoErr
		}
		created = video
		return nil
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("create video failed: err=%v", err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to create video").WithCause(fmt.Errorf("create video: %w", err))
	}

	s.log.WithContext(ctx).Infof("CreateVideo: video_id=%s status=%s", created.ID, created.Status)
	return vo.NewVideoCreated(created), nil
}

// UpdateVideo 更新元数据行的可编辑字段，并发编辑采用 last-write-wins。
func (s *VideoCommandService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*vo.VideoDetail, error) {
	if input.Name == nil && input.Codec == nil && input.Format == nil {
		return nil, errors.BadRequest(ReasonQueryFailed, "no fields to update")
	}

	repoInput := repositories.UpdateVideoInput{
		ID:     input.ID,
		Name:   input.Name,
		Codec:  input.Codec,
		Format: input.Format,
	}

	var updated *po.Video
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, repoErr := s.repo.Update(txCtx, sess, repoInput)
		if repoErr != nil {
			return repoErr
		}
		updated = video
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		s.log.WithContext(ctx).Errorf("update video failed: video_id=%s err=%v", input.ID, err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to update video").WithCause(fmt.Errorf("update video: %w", err))
	}

	s.log.WithContext(ctx).Infof("UpdateVideo: video_id=%s", updated.ID)
	return vo.NewVideoDetail(updated), nil
}

// DeleteVideo 删除元数据行。标签关联随外键级联消失，
// 同一事务内入队 video.deleted 事件，资产清理由订阅方异步执行。
func (s *VideoCommandService) DeleteVideo(ctx context.Context, input DeleteVideoInput) (*vo.VideoDeleted, error) {
	var deleted *po.Video
	var eventID uuid.UUID
	var occurredAt time.Time

	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, repoErr := s.repo.Delete(txCtx, sess, input.ID)
		if repoErr != nil {
			return repoErr
		}

		occurredAt = time.Now().UTC()
		eventID = uuid.New()
		event, buildErr := events.NewVideoDeletedEvent(video, eventID, occurredAt, input.Reason)
		if buildErr != nil {
			return fmt.Errorf("build video deleted event: %w", buildErr)
		}

		if enqueueErr := s.enqueueOutbox(txCtx, sess, event); enqueueErr != nil {
			return enqueueErr
		}

		deleted = video
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		s.log.WithContext(ctx).Errorf("delete video failed: video_id=%s err=%v", input.ID, err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to delete video").WithCause(fmt.Errorf("delete video: %w", err))
	}

	s.log.WithContext(ctx).Infof("DeleteVideo: video_id=%s event_id=%s", deleted.ID, eventID)
	return &vo.VideoDeleted{ID: deleted.ID, EventID: eventID, DeletedAt: occurredAt}, nil
}

// AttachTag 为视频附加标签，标签不存在时创建。重复附加是 no-op。
func (s *VideoCommandService) AttachTag(ctx context.Context, id po.VideoID, value string) (*po.Tag, error) {
	var tag *po.Tag
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if _, repoErr := s.repo.FindByID(txCtx, sess, id); repoErr != nil {
			return repoErr
		}
		ensured, repoErr := s.tags.Ensure(txCtx, sess, value)
		if repoErr != nil {
			return repoErr
		}
		if repoErr := s.tags.Attach(txCtx, sess, id, ensured.ID); repoErr != nil {
			return repoErr
		}
		tag = ensured
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		if errors.Is(err, repositories.ErrTagValueRequired) {
			return nil, errors.BadRequest(ReasonTagInvalid, "tag value is required")
		}
		s.log.WithContext(ctx).Errorf("attach tag failed: video_id=%s value=%q err=%v", id, value, err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to attach tag").WithCause(fmt.Errorf("attach tag: %w", err))
	}

	s.log.WithContext(ctx).Infof("AttachTag: video_id=%s tag_id=%d value=%q", id, tag.ID, tag.Value)
	return tag, nil
}

// DetachTag 解除视频与标签的关联，关联不存在时同样成功。
func (s *VideoCommandService) DetachTag(ctx context.Context, id po.VideoID, value string) error {
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		tag, repoErr := s.tags.FindByValue(txCtx, sess, value)
		if repoErr != nil {
			return repoErr
		}
		return s.tags.Detach(txCtx, sess, id, tag.ID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTagNotFound) {
			return nil
		}
		s.log.WithContext(ctx).Errorf("detach tag failed: video_id=%s value=%q err=%v", id, value, err)
		return errors.InternalServer(ReasonQueryFailed, "failed to detach tag").WithCause(fmt.Errorf("detach tag: %w", err))
	}
	return nil
}

// DeleteTag 删除标签本身，引用它的关联级联消失，视频行不受影响。
func (s *VideoCommandService) DeleteTag(ctx context.Context, value string) error {
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		tag, repoErr := s.tags.FindByValue(txCtx, sess, value)
		if repoErr != nil {
			return repoErr
		}
		return s.tags.Delete(txCtx, sess, tag.ID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTagNotFound) {
			return errors.NotFound(ReasonTagInvalid, "tag not found")
		}
		s.log.WithContext(ctx).Errorf("delete tag failed: value=%q err=%v", value, err)
		return errors.InternalServer(ReasonQueryFailed, "failed to delete tag").WithCause(fmt.Errorf("delete tag: %w", err))
	}
	return nil
}

// enqueueOutbox 将领域事件编码后写入 Outbox，使事件与行变更同生共死。
func (s *VideoCommandService) enqueueOutbox(ctx context.Context, sess txmanager.Session, event *events.Event) error {
	attrs := events.BuildAttributes(event, events.SchemaVersionV1, events.TraceIDFromContext(ctx))
	headers, err := events.MarshalAttributes(attrs)
	if err != nil {
		return fmt.Errorf("marshal event attributes: %w", err)
	}

	msg := repositories.OutboxMessage{
		EventID:       event.EventID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       event.Payload,
		Headers:       headers,
		OccurredAt:    event.OccurredAt,
		AvailableAt:   event.OccurredAt,
	}
	if err := s.outbox.Enqueue(ctx, sess, msg); err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}
