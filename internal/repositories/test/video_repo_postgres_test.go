package repositories_test

import (
	"context"
	"sync"
	"testing"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/repositories"
)

func TestVideoRepositoryLifecycle(t *testing.T) {
	env := newRepoEnv(t)

	created, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Name:       strPtr("demo"),
		Codec:      po.CodecH264,
		Format:     po.FormatMP4,
		BitrateBPS: int64Ptr(4_000_000),
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID.Int64(), "identity 序列应生成正整数标识")
	assert.Equal(t, po.VideoStatusPending, created.Status)
	assert.Equal(t, int64(0), created.Views)
	assert.Nil(t, created.SizeBytes, "资产写入前不应有大小")

	second, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Name:   strPtr("other"),
		Codec:  po.CodecVP9,
		Format: po.FormatWebM,
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID.Int64(), created.ID.Int64(), "标识应单调递增")

	// MarkAvailable 补写大小并切换状态
	marked, err := env.videos.MarkAvailable(env.ctx, nil, created.ID, 2048)
	require.NoError(t, err)
	assert.Equal(t, po.VideoStatusAvailable, marked.Status)
	require.NotNil(t, marked.SizeBytes)
	assert.Equal(t, int64(2048), *marked.SizeBytes)

	found, err := env.videos.FindByID(env.ctx, nil, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Name)
	assert.Equal(t, "demo", *found.Name)
	assert.Equal(t, po.CodecH264, found.Codec)

	// onlyAvailable 过滤掉 pending 行
	available, err := env.videos.List(env.ctx, nil, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, created.ID, available[0].ID)

	all, err := env.videos.List(env.ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, created.ID, all[0].ID, "列表应按 id 升序")
	assert.Equal(t, second.ID, all[1].ID)
}

func TestVideoRepositoryFindMissing(t *testing.T) {
	env := newRepoEnv(t)

	_, err := env.videos.FindByID(env.ctx, nil, po.VideoID(999999))
	require.ErrorIs(t, err, repositories.ErrVideoNotFound)

	_, err = env.videos.MarkAvailable(env.ctx, nil, po.VideoID(999999), 1)
	require.ErrorIs(t, err, repositories.ErrVideoNotFound)

	_, err = env.videos.Delete(env.ctx, nil, po.VideoID(999999))
	require.ErrorIs(t, err, repositories.ErrVideoNotFound)
}

func TestVideoRepositoryUpdatePartial(t *testing.T) {
	env := newRepoEnv(t)

	created, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Name:  strPtr("before"),
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	codec := po.CodecAV1
	updated, err := env.videos.Update(env.ctx, nil, repositories.UpdateVideoInput{
		ID:    created.ID,
		Codec: &codec,
	})
	require.NoError(t, err)
	assert.Equal(t, po.CodecAV1, updated.Codec)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "before", *updated.Name, "未指定的字段应保持原值")
	assert.Equal(t, po.FormatMP4, updated.Format)
}

func TestVideoRepositoryConcurrentViewIncrements(t *testing.T) {
	env := newRepoEnv(t)

	created, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	const watchers = 8
	var wg sync.WaitGroup
	errs := make(chan error, watchers)
	for i := 0; i < watchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, incErr := env.videos.IncrementViews(env.ctx, nil, created.ID)
			errs <- incErr
		}()
	}
	wg.Wait()
	close(errs)
	for incErr := range errs {
		require.NoError(t, incErr)
	}

	found, err := env.videos.FindByID(env.ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(watchers), found.Views, "并发递增不得丢失更新")
}

func TestVideoRepositoryDeleteCascadesTagLinks(t *testing.T) {
	env := newRepoEnv(t)

	video, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	var tag *po.Tag
	err = env.txMgr.WithinTx(env.ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var txErr error
		tag, txErr = env.tags.Ensure(txCtx, sess, "cascade")
		if txErr != nil {
			return txErr
		}
		return env.tags.Attach(txCtx, sess, video.ID, tag.ID)
	})
	require.NoError(t, err)

	deleted, err := env.videos.Delete(env.ctx, nil, video.ID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, deleted.ID)

	// 关联被级联删除，标签行本身保留
	ids, err := env.tags.ListVideoIDsForTag(env.ctx, nil, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	kept, err := env.tags.FindByValue(env.ctx, nil, "cascade")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, kept.ID)

	var pairs int64
	err = env.pool.QueryRow(env.ctx, `SELECT count(*) FROM video_tags WHERE video_id = $1`, video.ID.Int64()).Scan(&pairs)
	require.NoError(t, err)
	assert.Zero(t, pairs)
}
