package services_test

import (
	"context"
	"io"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/services"
	"github.com/streamfox/services-media/internal/storage"
)

func newQueryService(repo *videoRepoStub, tags *tagRepoStub) *services.VideoQueryService {
	logger := log.NewStdLogger(io.Discard)
	return services.NewVideoQueryService(repo, tags, &assetEnumeratorStub{}, noopTxManager{}, logger)
}

func TestGetVideoInfoNotFound(t *testing.T) {
	t.Parallel()

	svc := newQueryService(&videoRepoStub{}, newTagRepoStub())

	_, err := svc.GetVideoInfo(context.Background(), po.VideoID(404))
	require.Error(t, err)
	require.True(t, errors.IsNotFound(err))
}

func TestGetVideoInfoReturnsTags(t *testing.T) {
	t.Parallel()

	name := "demo"
	video := &po.Video{
		ID:     po.VideoID(1),
		Name:   &name,
		Codec:  po.CodecH264,
		Format: po.FormatMP4,
		Status: po.VideoStatusAvailable,
		Views:  3,
		Tags:   []po.Tag{{ID: 1, Value: "golang"}, {ID: 2, Value: "tutorial"}},
	}
	svc := newQueryService(&videoRepoStub{video: video}, newTagRepoStub())

	detail, err := svc.GetVideoInfo(context.Background(), video.ID)
	require.NoError(t, err)
	require.Equal(t, video.ID, detail.ID)
	require.Equal(t, int64(3), detail.Views)
	require.Equal(t, []string{"golang", "tutorial"}, detail.Tags)
}

func TestListVideosMapsDetails(t *testing.T) {
	t.Parallel()

	list := []*po.Video{
		{ID: po.VideoID(1), Status: po.VideoStatusAvailable},
		{ID: po.VideoID(2), Status: po.VideoStatusAvailable},
	}
	svc := newQueryService(&videoRepoStub{list: list}, newTagRepoStub())

	details, err := svc.ListVideos(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.Equal(t, po.VideoID(1), details[0].ID)
	require.Equal(t, po.VideoID(2), details[1].ID)
}

func TestListVideosByTagUnknownTag(t *testing.T) {
	t.Parallel()

	svc := newQueryService(&videoRepoStub{}, newTagRepoStub())

	_, err := svc.ListVideosByTag(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, errors.IsNotFound(err))
}

func TestListStoredLabels(t *testing.T) {
	t.Parallel()

	logger := log.NewStdLogger(io.Discard)
	enum := &assetEnumeratorStub{ids: []po.VideoID{2, 30, 100}}
	svc := services.NewVideoQueryService(&videoRepoStub{}, newTagRepoStub(), enum, noopTxManager{}, logger)

	ids, err := svc.ListStoredLabels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []po.VideoID{2, 30, 100}, ids)
}

func TestListStoredLabelsCorruptState(t *testing.T) {
	t.Parallel()

	logger := log.NewStdLogger(io.Discard)
	enum := &assetEnumeratorStub{err: storage.ErrCorruptState}
	svc := services.NewVideoQueryService(&videoRepoStub{}, newTagRepoStub(), enum, noopTxManager{}, logger)

	_, err := svc.ListStoredLabels(context.Background())
	require.Error(t, err)
	require.Equal(t, services.ReasonCorruptStorage, errors.Reason(err), "存储损坏必须上抛为服务级失败")
}
