package services

import (
	"context"
	"fmt"
	"io"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/models/vo"
	"github.com/streamfox/services-media/internal/repositories"
)

// IngestionRepo 定义摄取流程需要的元数据持久化行为。
type IngestionRepo interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateVideoInput) (*po.Video, error)
	MarkAvailable(ctx context.Context, sess txmanager.Session, id po.VideoID, sizeBytes int64) (*po.Video, error)
	Delete(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
	FindByID(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
}

// IngestionAssetWriter 定义摄取流程需要的资产写入与补偿能力。
type IngestionAssetWriter interface {
	SaveVideo(ctx context.Context, id po.VideoID, r io.Reader) (int64, error)
	SaveThumbnail(ctx context.Context, id po.VideoID, r io.Reader) (int64, error)
	DeleteVideo(ctx context.Context, id po.VideoID) error
}

// IngestVideoInput 表示摄取一个新视频的输入：元数据字段加二进制内容流。
type IngestVideoInput struct {
	Name       *string
	Codec      po.VideoCodec
	Format     po.VideoFormat
	BitrateBPS *int64
	Content    io.Reader
}

// IngestionService 编排视频摄取：先落元数据行，再写二进制资产，最后置为可用。
//
// 失败路径逐级补偿：
//   - 资产写入失败时删除刚插入的元数据行，回到摄取前的状态；
//   - 补偿本身失败时返回 ErrInconsistentState 并记录错误日志，
//     绝不吞掉失败让孤儿行静默存活。
type IngestionService struct {
	repo      IngestionRepo
	assets    IngestionAssetWriter
	txManager txmanager.Manager
	log       *log.Helper
}

// NewIngestionService 构造摄取服务。
func NewIngestionService(repo IngestionRepo, assets IngestionAssetWriter, tx txmanager.Manager, logger log.Logger) *IngestionService {
	return &IngestionService{
		repo:      repo,
		assets:    assets,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// IngestVideo 执行完整摄取流程并返回携带生成标识的回执。
func (s *IngestionService) IngestVideo(ctx context.Context, input IngestVideoInput) (*vo.VideoCreated, error) {
	if input.Content == nil {
		return nil, errors.BadRequest(ReasonIngestionFailed, "video content is required")
	}

	// 第一步：插入 pending 元数据行并提交，拿到数据库生成的标识。
	var created *po.Video
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, repoErr := s.repo.Create(txCtx, sess, repositories.CreateVideoInput{
			Name:       input.Name,
			Codec:      input.Codec,
			Format:     input.Format,
			BitrateBPS: input.BitrateBPS,
		})
		if repoErr != nil {
			return repoErr
		}
		created = video
		return nil
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("ingest video: insert metadata failed: err=%v", err)
		return nil, errors.InternalServer(ReasonIngestionFailed, "failed to insert video metadata").WithCause(fmt.Errorf("insert metadata: %w", err))
	}

	// 第二步：写入二进制资产。失败时补偿删除元数据行。
	size, writeErr := s.assets.SaveVideo(ctx, created.ID, input.Content)
	if writeErr != nil {
		s.log.WithContext(ctx).Errorf("ingest video: asset write failed: video_id=%s err=%v", created.ID, writeErr)
		if compErr := s.compensateMetadata(ctx, created.ID); compErr != nil {
			return nil, compErr
		}
		return nil, errors.InternalServer(ReasonIngestionFailed, "failed to write video asset").WithCause(fmt.Errorf("write video asset: %w", writeErr))
	}

	// 第三步：置为可用。失败时资产已落盘，补偿删除资产保持对称。
	var available *po.Video
	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		video, repoErr := s.repo.MarkAvailable(txCtx, sess, created.ID, size)
		if repoErr != nil {
			return repoErr
		}
		available = video
		return nil
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("ingest video: mark available failed: video_id=%s err=%v", created.ID, err)
		if delErr := s.assets.DeleteVideo(ctx, created.ID); delErr != nil {
			s.log.WithContext(ctx).Errorf("ingest video: asset compensation failed, stores inconsistent: video_id=%s err=%v", created.ID, delErr)
			return nil, ErrInconsistentState.WithCause(fmt.Errorf("delete video asset after mark available failure: %w", delErr))
		}
		if compErr := s.compensateMetadata(ctx, created.ID); compErr != nil {
			return nil, compErr
		}
		return nil, errors.InternalServer(ReasonIngestionFailed, "failed to finalize video metadata").WithCause(fmt.Errorf("mark available: %w", err))
	}

	s.log.WithContext(ctx).Infof("IngestVideo: video_id=%s size_bytes=%d status=%s", available.ID, size, available.Status)
	return vo.NewVideoCreated(available), nil
}

// IngestThumbnail 为已存在的视频写入缩略图资产。视频行缺失时拒绝写入孤儿资产。
func (s *IngestionService) IngestThumbnail(ctx context.Context, id po.VideoID, content io.Reader) error {
	if content == nil {
		return errors.BadRequest(ReasonIngestionFailed, "thumbnail content is required")
	}

	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		_, repoErr := s.repo.FindByID(txCtx, sess, id)
		return repoErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return ErrVideoNotFound
		}
		return errors.InternalServer(ReasonIngestionFailed, "failed to verify video metadata").WithCause(fmt.Errorf("find video: %w", err))
	}

	if _, writeErr := s.assets.SaveThumbnail(ctx, id, content); writeErr != nil {
		s.log.WithContext(ctx).Errorf("ingest thumbnail failed: video_id=%s err=%v", id, writeErr)
		return errors.InternalServer(ReasonIngestionFailed, "failed to write thumbnail asset").WithCause(fmt.Errorf("write thumbnail asset: %w", writeErr))
	}

	s.log.WithContext(ctx).Infof("IngestThumbnail: video_id=%s", id)
	return nil
}

// compensateMetadata 删除摄取中途失败留下的元数据行。
// 删除失败意味着元数据指向不存在的资产，升级为 ErrInconsistentState。
func (s *IngestionService) compensateMetadata(ctx context.Context, id po.VideoID) error {
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		_, repoErr := s.repo.Delete(txCtx, sess, id)
		return repoErr
	})
	if err != nil && !errors.Is(err, repositories.ErrVideoNotFound) {
		s.log.WithContext(ctx).Errorf("ingest video: metadata compensation failed, stores inconsistent: video_id=%s err=%v", id, err)
		return ErrInconsistentState.WithCause(fmt.Errorf("delete metadata after asset failure: %w", err))
	}
	return nil
}
