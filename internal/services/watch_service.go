package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/models/vo"
	"github.com/streamfox/services-media/internal/repositories"
	"github.com/streamfox/services-media/internal/storage"
)

// WatchVideoRepo 定义观看流程需要的元数据访问行为。
type WatchVideoRepo interface {
	FindByID(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error)
	IncrementViews(ctx context.Context, sess txmanager.Session, id po.VideoID) (int64, error)
}

// WatchAssetReader 定义观看流程需要的资产读取能力。
type WatchAssetReader interface {
	LoadVideo(ctx context.Context, id po.VideoID) (io.ReadCloser, error)
	LoadThumbnail(ctx context.Context, id po.VideoID) (io.ReadCloser, error)
	ThumbnailExists(ctx context.Context, id po.VideoID) (bool, error)
}

// PlaybackURLSigner 为对象存储后端生成带时效的播放地址。
type PlaybackURLSigner interface {
	SignedPlaybackURL(ctx context.Context, bucket, objectName string, ttl time.Duration) (string, time.Time, error)
}

// WatchConfig 控制观看会话的进度判定与签名播放。
type WatchConfig struct {
	// CompletionPercent 是计入一次观看的交付进度阈值，零值回退到 50。
	CompletionPercent float64
	// MinRateSamples 是改用实测交付速率前所需的最少采样次数，零值回退到 3。
	MinRateSamples int
	// PlaybackBucket 是签名播放地址指向的对象存储桶，磁盘后端留空。
	PlaybackBucket string
	// PlaybackObjectPrefix 是视频对象名前缀，与存储命名空间的前缀保持一致。
	PlaybackObjectPrefix string
	// PlaybackTTL 是签名播放地址的有效期，零值回退到 15 分钟。
	PlaybackTTL time.Duration
}

const (
	defaultCompletionPercent = 50
	defaultMinRateSamples    = 3
	defaultPlaybackTTL       = 15 * time.Minute
)

// watchSession 记录单个播放会话的交付进度，全部字段受 WatchService.mu 保护。
type watchSession struct {
	totalBytes     int64
	bitrateBPS     int64
	deliveredBytes int64
	firstAt        time.Time
	lastAt         time.Time
	samples        int
	viewCounted    bool
}

type watchSessionKey struct {
	session string
	video   po.VideoID
}

// WatchOption 配置 WatchService 的可选行为。
type WatchOption func(*WatchService)

// WithWatchClock 覆盖时间源，测试注入虚拟时钟使用。
func WithWatchClock(clock func() time.Time) WatchOption {
	return func(s *WatchService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WatchService 追踪播放会话的交付进度并驱动观看计数。
//
// 会话状态保存在内存注册表中，键为会话标识与视频标识的组合；
// 同一会话无论交付多少字节最多计入一次观看，跨会话互不影响。
type WatchService struct {
	repo      WatchVideoRepo
	assets    WatchAssetReader
	signer    PlaybackURLSigner
	txManager txmanager.Manager
	cfg       WatchConfig
	log       *log.Helper
	now       func() time.Time

	mu       sync.Mutex
	sessions map[watchSessionKey]*watchSession
}

// NewWatchService 构造观看服务。signer 在磁盘后端下为 nil，签名播放不可用。
func NewWatchService(repo WatchVideoRepo, assets WatchAssetReader, signer PlaybackURLSigner, tx txmanager.Manager, cfg WatchConfig, logger log.Logger, opts ...WatchOption) *WatchService {
	if cfg.CompletionPercent <= 0 {
		cfg.CompletionPercent = defaultCompletionPercent
	}
	if cfg.MinRateSamples <= 0 {
		cfg.MinRateSamples = defaultMinRateSamples
	}
	if cfg.PlaybackTTL <= 0 {
		cfg.PlaybackTTL = defaultPlaybackTTL
	}

	s := &WatchService{
		repo:      repo,
		assets:    assets,
		signer:    signer,
		txManager: tx,
		cfg:       cfg,
		log:       log.NewHelper(logger),
		now:       time.Now,
		sessions:  make(map[watchSessionKey]*watchSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenVideo 打开视频资产的只读流。元数据行存在而资产缺失说明
// 两个存储已经不一致，返回 ErrInconsistentState 而非普通 not found。
func (s *WatchService) OpenVideo(ctx context.Context, id po.VideoID) (io.ReadCloser, error) {
	if _, err := s.findVideo(ctx, id); err != nil {
		return nil, err
	}

	rc, err := s.assets.LoadVideo(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.WithContext(ctx).Errorf("video metadata exists but asset missing: video_id=%s", id)
			return nil, ErrInconsistentState.WithCause(fmt.Errorf("video asset %s missing", id))
		}
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to open video asset").WithCause(fmt.Errorf("open video asset: %w", err))
	}
	return rc, nil
}

// OpenThumbnail 打开缩略图只读流。缩略图缺席返回 ErrThumbnailNotFound，
// 调用方据此回退到占位图。
func (s *WatchService) OpenThumbnail(ctx context.Context, id po.VideoID) (io.ReadCloser, error) {
	rc, err := s.assets.LoadThumbnail(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrThumbnailNotFound
		}
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to open thumbnail asset").WithCause(fmt.Errorf("open thumbnail asset: %w", err))
	}
	return rc, nil
}

// HasThumbnail 纯存在性检查，缺席不是错误。
func (s *WatchService) HasThumbnail(ctx context.Context, id po.VideoID) (bool, error) {
	ok, err := s.assets.ThumbnailExists(ctx, id)
	if err != nil {
		return false, errors.InternalServer(ReasonQueryFailed, "failed to check thumbnail").WithCause(fmt.Errorf("check thumbnail: %w", err))
	}
	return ok, nil
}

// SignedPlaybackURL 为视频生成带时效的直连播放地址，仅对象存储后端可用。
func (s *WatchService) SignedPlaybackURL(ctx context.Context, id po.VideoID) (string, time.Time, error) {
	if s.signer == nil || s.cfg.PlaybackBucket == "" {
		return "", time.Time{}, errors.New(501, ReasonQueryFailed, "signed playback is not configured for this storage backend")
	}
	if _, err := s.findVideo(ctx, id); err != nil {
		return "", time.Time{}, err
	}

	url, expiresAt, err := s.signer.SignedPlaybackURL(ctx, s.cfg.PlaybackBucket, s.cfg.PlaybackObjectPrefix+id.String(), s.cfg.PlaybackTTL)
	if err != nil {
		s.log.WithContext(ctx).Errorf("sign playback url failed: video_id=%s err=%v", id, err)
		return "", time.Time{}, errors.InternalServer(ReasonQueryFailed, "failed to sign playback url").WithCause(fmt.Errorf("sign playback url: %w", err))
	}
	return url, expiresAt, nil
}

// RecordDelivery 记录一次字节交付并返回最新观看状态。
// 首次交付时加载元数据建立会话；交付进度首次越过阈值时计入一次观看。
func (s *WatchService) RecordDelivery(ctx context.Context, sessionID string, id po.VideoID, bytes int64) (*vo.WatchConditions, error) {
	if sessionID == "" {
		return nil, errors.BadRequest(ReasonWatchSessionNeeded, "session id is required")
	}
	if bytes < 0 {
		return nil, errors.BadRequest(ReasonWatchSessionNeeded, "delivered bytes must be non-negative")
	}

	key := watchSessionKey{session: sessionID, video: id}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	s.mu.Unlock()

	if !ok {
		video, err := s.findVideo(ctx, id)
		if err != nil {
			return nil, err
		}
		sess = &watchSession{}
		if video.SizeBytes != nil {
			sess.totalBytes = *video.SizeBytes
		}
		if video.BitrateBPS != nil {
			sess.bitrateBPS = *video.BitrateBPS
		}
	}

	now := s.now()

	s.mu.Lock()
	if existing, exists := s.sessions[key]; exists {
		sess = existing
	} else {
		sess.firstAt = now
		s.sessions[key] = sess
	}
	sess.deliveredBytes += bytes
	sess.lastAt = now
	sess.samples++

	conditions := s.conditionsLocked(sess, now)
	countView := !sess.viewCounted && conditions.Percentage >= s.cfg.CompletionPercent
	if countView {
		// 先占位再递增，并发交付下同一会话绝不重复计数。
		sess.viewCounted = true
	}
	s.mu.Unlock()

	if countView {
		if _, err := s.repo.IncrementViews(ctx, nil, id); err != nil {
			// 占位不回滚：宁可少计一次，不让重试把同一会话计成两次。
			s.log.WithContext(ctx).Errorf("increment views failed: video_id=%s session=%s err=%v", id, sessionID, err)
		} else {
			s.log.WithContext(ctx).Infof("view counted: video_id=%s session=%s percentage=%.1f", id, sessionID, conditions.Percentage)
		}
	}

	return conditions, nil
}

// Conditions 返回会话的当前观看状态，不推进任何进度。
func (s *WatchService) Conditions(ctx context.Context, sessionID string, id po.VideoID) (*vo.WatchConditions, error) {
	key := watchSessionKey{session: sessionID, video: id}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return &vo.WatchConditions{}, nil
	}
	return s.conditionsLocked(sess, s.now()), nil
}

// EndSession 丢弃会话状态。之后同一会话标识重新开始观看会再次计数。
func (s *WatchService) EndSession(sessionID string, id po.VideoID) {
	key := watchSessionKey{session: sessionID, video: id}
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// conditionsLocked 计算观看状态，调用方必须持有 s.mu。
func (s *WatchService) conditionsLocked(sess *watchSession, now time.Time) *vo.WatchConditions {
	conditions := &vo.WatchConditions{}
	if sess.totalBytes <= 0 {
		return conditions
	}

	remaining := sess.totalBytes - sess.deliveredBytes
	if remaining < 0 {
		remaining = 0
	}
	conditions.RemainingBytes = remaining

	percentage := float64(sess.deliveredBytes) / float64(sess.totalBytes) * 100
	if percentage > 100 {
		percentage = 100
	}
	conditions.Percentage = percentage

	// 采样足够时用实测交付速率估算剩余时间，否则回退到声明码率。
	elapsed := now.Sub(sess.firstAt)
	if sess.samples >= s.cfg.MinRateSamples && elapsed > 0 && sess.deliveredBytes > 0 {
		rate := float64(sess.deliveredBytes) / elapsed.Seconds()
		conditions.RemainingTimeMs = int64(float64(remaining) / rate * 1000)
	} else if sess.bitrateBPS > 0 {
		conditions.RemainingTimeMs = remaining * 8 * 1000 / sess.bitrateBPS
	}
	return conditions
}

// findVideo 在只读事务内加载元数据行并映射边界错误。
//
// 只有 available 状态的行可进入观看流程：摄入先提交 pending 行再写资产，
// 窗口期内的行对播放端等同不存在，返回 ErrVideoNotFound 而非不一致错误。
func (s *WatchService) findVideo(ctx context.Context, id po.VideoID) (*po.Video, error) {
	var video *po.Video
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		video, repoErr = s.repo.FindByID(txCtx, sess, id)
		return repoErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.GatewayTimeout(ReasonQueryTimeout, "query timeout")
		}
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to query video").WithCause(fmt.Errorf("find video: %w", err))
	}
	if video.Status != po.VideoStatusAvailable {
		return nil, ErrVideoNotFound
	}
	return video, nil
}
