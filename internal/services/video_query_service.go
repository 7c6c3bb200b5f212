package services

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/models/vo"
	"github.com/streamfox/services-media/internal/repositories"
	"github.com/streamfox/services-media/internal/storage"
)

// VideoQueryRepo 定义读模型所需的访问接口。
type VideoQueryRepo interface {
	FindByID(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
	List(ctx context.Context, sess txmanager.Session, onlyAvailable bool) ([]*po.Video, error)
}

// TagQueryRepo 定义标签读取接口。
type TagQueryRepo interface {
	FindByValue(ctx context.Context, sess txmanager.Session, value string) (*po.Tag, error)
	ListVideoIDsForTag(ctx context.Context, sess txmanager.Session, tagID int64) ([]po.VideoID, error)
}

// AssetEnumerator 定义资产命名空间的枚举能力。
type AssetEnumerator interface {
	ListLabels(ctx context.Context) ([]po.VideoID, error)
}

// VideoQueryService 封装视频只读用例。
type VideoQueryService struct {
	repo      VideoQueryRepo
	tags      TagQueryRepo
	assets    AssetEnumerator
	txManager txmanager.Manager
	log       *log.Helper
}

// NewVideoQueryService 构造视频查询服务。
func NewVideoQueryService(repo VideoQueryRepo, tags TagQueryRepo, assets AssetEnumerator, tx txmanager.Manager, logger log.Logger) *VideoQueryService {
	return &VideoQueryService{
		repo:      repo,
		tags:      tags,
		assets:    assets,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// GetVideoInfo 按标识查询视频详情，含标签列表。
func (s *VideoQueryService) GetVideoInfo(ctx context.Context, id po.VideoID) (*vo.VideoDetail, error) {
	var video *po.Video
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		video, repoErr = s.repo.FindByID(txCtx, sess, id)
		return repoErr
	})
	if err != nil {
		return nil, s.mapQueryErr(ctx, err, "get video info", id.String())
	}

	s.log.WithContext(ctx).Debugf("GetVideoInfo: video_id=%s status=%s", video.ID, video.Status)
	return vo.NewVideoDetail(video), nil
}

// ListVideos 返回视频列表，按标识升序。onlyAvailable 为 true 时仅返回资产已就绪的行。
func (s *VideoQueryService) ListVideos(ctx context.Context, onlyAvailable bool) ([]*vo.VideoDetail, error) {
	var videos []*po.Video
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		videos, repoErr = s.repo.List(txCtx, sess, onlyAvailable)
		return repoErr
	})
	if err != nil {
		return nil, s.mapQueryErr(ctx, err, "list videos", "")
	}

	details := make([]*vo.VideoDetail, 0, len(videos))
	for _, video := range videos {
		details = append(details, vo.NewVideoDetail(video))
	}
	return details, nil
}

// ListVideosByTag 返回引用某个标签文本的全部视频，按标识升序。
func (s *VideoQueryService) ListVideosByTag(ctx context.Context, tagValue string) ([]*vo.VideoDetail, error) {
	var videos []*po.Video
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		tag, repoErr := s.tags.FindByValue(txCtx, sess, tagValue)
		if repoErr != nil {
			return repoErr
		}
		ids, repoErr := s.tags.ListVideoIDsForTag(txCtx, sess, tag.ID)
		if repoErr != nil {
			return repoErr
		}
		for _, id := range ids {
			video, findErr := s.repo.FindByID(txCtx, sess, id)
			if findErr != nil {
				return findErr
			}
			videos = append(videos, video)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTagNotFound) {
			return nil, errors.NotFound(ReasonTagInvalid, "tag not found")
		}
		return nil, s.mapQueryErr(ctx, err, "list videos by tag", tagValue)
	}

	details := make([]*vo.VideoDetail, 0, len(videos))
	for _, video := range videos {
		details = append(details, vo.NewVideoDetail(video))
	}
	return details, nil
}

// ListStoredLabels 枚举资产存储中的全部视频标识，升序。
// 任一资产名解析失败即存储根不可信，整个列举以 ErrCorruptStorageState 失败。
func (s *VideoQueryService) ListStoredLabels(ctx context.Context) ([]po.VideoID, error) {
	ids, err := s.assets.ListLabels(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCorruptState) {
			s.log.WithContext(ctx).Errorf("list stored labels: storage state corrupt: err=%v", err)
			return nil, ErrCorruptStorageState.WithCause(err)
		}
		return nil, s.mapQueryErr(ctx, err, "list stored labels", "")
	}
	return ids, nil
}

// mapQueryErr 将仓储错误映射为服务边界错误。
func (s *VideoQueryService) mapQueryErr(ctx context.Context, err error, op, subject string) error {
	if errors.Is(err, repositories.ErrVideoNotFound) {
		return ErrVideoNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.WithContext(ctx).Warnf("%s timeout: subject=%s", op, subject)
		return errors.GatewayTimeout(ReasonQueryTimeout, "query timeout")
	}
	s.log.WithContext(ctx).Errorf("%s failed: subject=%s err=%v", op, subject, err)
	return errors.InternalServer(ReasonQueryFailed, "failed to query video").WithCause(fmt.Errorf("%s: %w", op, err))
}
