package repositories_test

import (
	"context"
	"testing"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/repositories"
)

func TestTagEnsureIsIdempotentWithinTx(t *testing.T) {
	env := newRepoEnv(t)

	var first, second *po.Tag
	err := env.txMgr.WithinTx(env.ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var txErr error
		first, txErr = env.tags.Ensure(txCtx, sess, "music")
		if txErr != nil {
			return txErr
		}
		second, txErr = env.tags.Ensure(txCtx, sess, "music")
		return txErr
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "同一文本应复用已有标签行")

	var count int64
	err = env.pool.QueryRow(env.ctx, `SELECT count(*) FROM tags WHERE value = 'music'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTagEnsureRejectsBlankValue(t *testing.T) {
	env := newRepoEnv(t)

	_, err := env.tags.Ensure(env.ctx, nil, "   ")
	require.ErrorIs(t, err, repositories.ErrTagValueRequired)
}

func TestTagAttachIdempotent(t *testing.T) {
	env := newRepoEnv(t)

	video, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	tag, err := env.tags.Ensure(env.ctx, nil, "tutorial")
	require.NoError(t, err)

	require.NoError(t, env.tags.Attach(env.ctx, nil, video.ID, tag.ID))
	require.NoError(t, env.tags.Attach(env.ctx, nil, video.ID, tag.ID), "重复关联必须是 no-op")

	var pairs int64
	err = env.pool.QueryRow(env.ctx, `SELECT count(*) FROM video_tags WHERE video_id = $1 AND tag_id = $2`,
		video.ID.Int64(), tag.ID).Scan(&pairs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pairs, "联结表不得出现重复行")
}

func TestTagDetachMissingPairIsNoop(t *testing.T) {
	env := newRepoEnv(t)

	video, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	tag, err := env.tags.Ensure(env.ctx, nil, "sports")
	require.NoError(t, err)

	require.NoError(t, env.tags.Detach(env.ctx, nil, video.ID, tag.ID))
}

func TestTagDeleteCascadesLinksKeepsVideos(t *testing.T) {
	env := newRepoEnv(t)

	videoA, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)
	videoB, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecVP9, Format: po.FormatWebM,
	})
	require.NoError(t, err)

	tag, err := env.tags.Ensure(env.ctx, nil, "shared")
	require.NoError(t, err)
	require.NoError(t, env.tags.Attach(env.ctx, nil, videoA.ID, tag.ID))
	require.NoError(t, env.tags.Attach(env.ctx, nil, videoB.ID, tag.ID))

	require.NoError(t, env.tags.Delete(env.ctx, nil, tag.ID))

	// 两个视频行都完好，只有关联消失
	_, err = env.videos.FindByID(env.ctx, nil, videoA.ID)
	require.NoError(t, err)
	_, err = env.videos.FindByID(env.ctx, nil, videoB.ID)
	require.NoError(t, err)

	var pairs int64
	err = env.pool.QueryRow(env.ctx, `SELECT count(*) FROM video_tags WHERE tag_id = $1`, tag.ID).Scan(&pairs)
	require.NoError(t, err)
	assert.Zero(t, pairs)

	err = env.tags.Delete(env.ctx, nil, tag.ID)
	require.ErrorIs(t, err, repositories.ErrTagNotFound, "重复删除应返回 ErrTagNotFound")
}

func TestTagListingsSorted(t *testing.T) {
	env := newRepoEnv(t)

	video, err := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		Codec: po.CodecH264, Format: po.FormatMP4,
	})
	require.NoError(t, err)

	for _, value := range []string{"zulu", "alpha", "mike"} {
		tag, ensureErr := env.tags.Ensure(env.ctx, nil, value)
		require.NoError(t, ensureErr)
		require.NoError(t, env.tags.Attach(env.ctx, nil, video.ID, tag.ID))
	}

	tags, err := env.tags.ListForVideo(env.ctx, nil, video.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Value, "标签应按文本升序")
	assert.Equal(t, "mike", tags[1].Value)
	assert.Equal(t, "zulu", tags[2].Value)

	found, err := env.videos.FindByID(env.ctx, nil, video.ID)
	require.NoError(t, err)
	require.Len(t, found.Tags, 3, "FindByID 应联表填充标签")
}

func TestTagListVideoIDsSorted(t *testing.T) {
	env := newRepoEnv(t)

	tag, err := env.tags.Ensure(env.ctx, nil, "series")
	require.NoError(t, err)

	var want []po.VideoID
	for i := 0; i < 3; i++ {
		video, createErr := env.videos.Create(env.ctx, nil, repositories.CreateVideoInput{
			Codec: po.CodecH264, Format: po.FormatMP4,
		})
		require.NoError(t, createErr)
		require.NoError(t, env.tags.Attach(env.ctx, nil, video.ID, tag.ID))
		want = append(want, video.ID)
	}

	got, err := env.tags.ListVideoIDsForTag(env.ctx, nil, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got, "视频标识应按升序返回")
}
