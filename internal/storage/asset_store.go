package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/streamfox/services-media/internal/models/po"
)

// AssetStore 将 VideoID 映射到某个存储介质上的视频与缩略图字节流。
// 它是注入能力接口之上的纯门面：自身不持有可变状态、不做缓存，
// 每次 ListLabels 都完整枚举存储；替换存储介质不需要改动本组件。
type AssetStore struct {
	videos     Namespace
	thumbnails Namespace
	log        *log.Helper
}

// NewAssetStore 以视频与缩略图两个命名空间构造门面。
func NewAssetStore(videos, thumbnails Namespace, logger log.Logger) *AssetStore {
	return &AssetStore{
		videos:     videos,
		thumbnails: thumbnails,
		log:        log.NewHelper(logger),
	}
}

// LoadVideo 打开 id 对应的视频资产只读流。资产缺失时返回 ErrNotFound。
// 返回流的所有权交给调用方，使用完毕必须 Close。
func (s *AssetStore) LoadVideo(ctx context.Context, id po.VideoID) (io.ReadCloser, error) {
	return s.videos.OpenRead(ctx, id.String())
}

// LoadThumbnail 打开 id 对应的缩略图只读流，语义与 LoadVideo 对称。
func (s *AssetStore) LoadThumbnail(ctx context.Context, id po.VideoID) (io.ReadCloser, error) {
	return s.thumbnails.OpenRead(ctx, id.String())
}

// ThumbnailExists 纯存在性检查。缩略图缺席是常态而非错误，
// 服务层据此在真实缩略图与占位图之间选择。
func (s *AssetStore) ThumbnailExists(ctx context.Context, id po.VideoID) (bool, error) {
	return s.thumbnails.Exists(ctx, id.String())
}

// ListLabels 枚举视频命名空间内全部资产名，严格解析为 VideoID 并升序返回。
// 任一名称解析失败即视为存储损坏，整个列举以 ErrCorruptState 失败，
// 绝不返回静默跳过后的部分列表。
func (s *AssetStore) ListLabels(ctx context.Context) ([]po.VideoID, error) {
	names, err := s.videos.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list video assets: %w", err)
	}

	ids := make([]po.VideoID, 0, len(names))
	for _, name := range names {
		id, parseErr := po.ParseVideoID(name)
		if parseErr != nil {
			s.log.WithContext(ctx).Errorf("corrupt asset name in video namespace: name=%q err=%v", name, parseErr)
			return nil, fmt.Errorf("%w: asset name %q", ErrCorruptState, name)
		}
		ids = append(ids, id)
	}
	po.SortVideoIDs(ids)
	return ids, nil
}

// SaveVideo 将 r 的内容写入 id 对应的视频资产。
// 写入失败或 ctx 取消时不会留下可见的半写资产。
func (s *AssetStore) SaveVideo(ctx context.Context, id po.VideoID, r io.Reader) (int64, error) {
	return s.videos.WriteFile(ctx, id.String(), r)
}

// SaveThumbnail 将 r 的内容写入 id 对应的缩略图资产。
func (s *AssetStore) SaveThumbnail(ctx context.Context, id po.VideoID, r io.Reader) (int64, error) {
	return s.thumbnails.WriteFile(ctx, id.String(), r)
}

// DeleteVideo 删除 id 对应的视频资产。资产不存在时返回 ErrNotFound。
func (s *AssetStore) DeleteVideo(ctx context.Context, id po.VideoID) error {
	return s.videos.Delete(ctx, id.String())
}

// DeleteThumbnail 删除 id 对应的缩略图资产。
func (s *AssetStore) DeleteThumbnail(ctx context.Context, id po.VideoID) error {
	return s.thumbnails.Delete(ctx, id.String())
}
