package services_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/jackc/pgx/v5"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/repositories"
	"github.com/streamfox/services-media/internal/storage"
)

// ---- 事务桩 ----

type noopTxManager struct{}

type noopSession struct{}

func (noopSession) Tx() pgx.Tx               { return nil }
func (noopSession) Context() context.Context { return context.Background() }

func (noopTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}

func (noopTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}

// ---- 元数据仓储桩 ----

type videoRepoStub struct {
	mu sync.Mutex

	video *po.Video
	list  []*po.Video

	createErr error
	markErr   error
	deleteErr error
	incErr    error

	views          int64
	incrementCalls int
	deleteCalls    int
	markCalls      int
	markedSize     int64
}

func (s *videoRepoStub) Create(_ context.Context, _ txmanager.Session, _ repositories.CreateVideoInput) (*po.Video, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.video, nil
}

func (s *videoRepoStub) Update(_ context.Context, _ txmanager.Session, _ repositories.UpdateVideoInput) (*po.Video, error) {
	if s.video == nil {
		return nil, repositories.ErrVideoNotFound
	}
	return s.video, nil
}

func (s *videoRepoStub) Delete(_ context.Context, _ txmanager.Session, _ po.VideoID) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	if s.video == nil {
		return nil, repositories.ErrVideoNotFound
	}
	s.deleteCalls++
	return s.video, nil
}

func (s *videoRepoStub) FindByID(_ context.Context, _ txmanager.Session, _ po.VideoID) (*po.Video, error) {
	if s.video == nil {
		return nil, repositories.ErrVideoNotFound
	}
	return s.video, nil
}

func (s *videoRepoStub) List(_ context.Context, _ txmanager.Session, _ bool) ([]*po.Video, error) {
	return s.list, nil
}

func (s *videoRepoStub) MarkAvailable(_ context.Context, _ txmanager.Session, _ po.VideoID, sizeBytes int64) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return nil, s.markErr
	}
	if s.video == nil {
		return nil, repositories.ErrVideoNotFound
	}
	s.markCalls++
	s.markedSize = sizeBytes
	marked := *s.video
	marked.Status = po.VideoStatusAvailable
	marked.SizeBytes = &sizeBytes
	return &marked, nil
}

func (s *videoRepoStub) IncrementViews(_ context.Context, _ txmanager.Session, _ po.VideoID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incErr != nil {
		return 0, s.incErr
	}
	if s.video == nil {
		return 0, repositories.ErrVideoNotFound
	}
	s.incrementCalls++
	s.views++
	return s.views, nil
}

// ---- 标签仓储桩 ----

type tagRepoStub struct {
	tags    map[string]*po.Tag
	nextID  int64
	pairs   map[[2]int64]struct{}
	attachN int
}

func newTagRepoStub() *tagRepoStub {
	return &tagRepoStub{
		tags:  make(map[string]*po.Tag),
		pairs: make(map[[2]int64]struct{}),
	}
}

func (s *tagRepoStub) Ensure(_ context.Context, _ txmanager.Session, value string) (*po.Tag, error) {
	if value == "" {
		return nil, repositories.ErrTagValueRequired
	}
	if tag, ok := s.tags[value]; ok {
		return tag, nil
	}
	s.nextID++
	tag := &po.Tag{ID: s.nextID, Value: value}
	s.tags[value] = tag
	return tag, nil
}

func (s *tagRepoStub) FindByValue(_ context.Context, _ txmanager.Session, value string) (*po.Tag, error) {
	if tag, ok := s.tags[value]; ok {
		return tag, nil
	}
	return nil, repositories.ErrTagNotFound
}

func (s *tagRepoStub) Attach(_ context.Context, _ txmanager.Session, videoID po.VideoID, tagID int64) error {
	s.attachN++
	s.pairs[[2]int64{videoID.Int64(), tagID}] = struct{}{}
	return nil
}

func (s *tagRepoStub) Detach(_ context.Context, _ txmanager.Session, videoID po.VideoID, tagID int64) error {
	delete(s.pairs, [2]int64{videoID.Int64(), tagID})
	return nil
}

func (s *tagRepoStub) Delete(_ context.Context, _ txmanager.Session, tagID int64) error {
	for value, tag := range s.tags {
		if tag.ID == tagID {
			delete(s.tags, value)
			return nil
		}
	}
	return repositories.ErrTagNotFound
}

func (s *tagRepoStub) ListVideoIDsForTag(_ context.Context, _ txmanager.Session, tagID int64) ([]po.VideoID, error) {
	var ids []po.VideoID
	for pair := range s.pairs {
		if pair[1] == tagID {
			ids = append(ids, po.VideoID(pair[0]))
		}
	}
	po.SortVideoIDs(ids)
	return ids, nil
}

// ---- Outbox 桩 ----

type outboxRepoStub struct {
	messages []repositories.OutboxMessage
	err      error
}

func (s *outboxRepoStub) Enqueue(_ context.Context, _ txmanager.Session, msg repositories.OutboxMessage) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

// ---- 资产桩 ----

type assetWriterStub struct {
	saveVideoErr error
	deleteErr    error

	savedVideos     map[po.VideoID][]byte
	savedThumbnails map[po.VideoID][]byte
	deleted         []po.VideoID
}

func newAssetWriterStub() *assetWriterStub {
	return &assetWriterStub{
		savedVideos:     make(map[po.VideoID][]byte),
		savedThumbnails: make(map[po.VideoID][]byte),
	}
}

func (s *assetWriterStub) SaveVideo(_ context.Context, id po.VideoID, r io.Reader) (int64, error) {
	if s.saveVideoErr != nil {
		return 0, s.saveVideoErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.savedVideos[id] = data
	return int64(len(data)), nil
}

func (s *assetWriterStub) SaveThumbnail(_ context.Context, id po.VideoID, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.savedThumbnails[id] = data
	return int64(len(data)), nil
}

func (s *assetWriterStub) DeleteVideo(_ context.Context, id po.VideoID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.savedVideos, id)
	return nil
}

type assetEnumeratorStub struct {
	ids []po.VideoID
	err error
}

func (s *assetEnumeratorStub) ListLabels(context.Context) ([]po.VideoID, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ids, nil
}

type assetReaderStub struct {
	videoData     []byte
	thumbnailData []byte
}

func (s *assetReaderStub) LoadVideo(_ context.Context, _ po.VideoID) (io.ReadCloser, error) {
	if s.videoData == nil {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(s.videoData)), nil
}

func (s *assetReaderStub) LoadThumbnail(_ context.Context, _ po.VideoID) (io.ReadCloser, error) {
	if s.thumbnailData == nil {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(s.thumbnailData)), nil
}

func (s *assetReaderStub) ThumbnailExists(_ context.Context, _ po.VideoID) (bool, error) {
	return s.thumbnailData != nil, nil
}
