package assetgc

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/storage"
)

// AssetRemover 定义清理任务需要的资产删除能力。
type AssetRemover interface {
	DeleteVideo(ctx context.Context, id po.VideoID) error
	DeleteThumbnail(ctx context.Context, id po.VideoID) error
}

// Handler 执行单个清理请求：删除视频资产与缩略图资产。
type Handler struct {
	assets AssetRemover
	log    *log.Helper
}

// NewHandler 构造清理处理器。
func NewHandler(assets AssetRemover, logger log.Logger) *Handler {
	return &Handler{
		assets: assets,
		log:    log.NewHelper(logger),
	}
}

// Handle 删除请求指向的资产。
// 视频资产缺失说明删除事件到达前资产已经不在，属于可检测的不一致，
// 记录警告后视为已清理；缩略图本就可选，缺失直接跳过。
func (h *Handler) Handle(ctx context.Context, req *DeleteRequest) error {
	if req == nil {
		return fmt.Errorf("assetgc: delete request is nil")
	}

	if err := h.assets.DeleteVideo(ctx, req.VideoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.log.WithContext(ctx).Warnf("video asset already absent, stores were inconsistent: video_id=%s reason=%s", req.VideoID, req.Reason)
		} else {
			return fmt.Errorf("assetgc: delete video asset %s: %w", req.VideoID, err)
		}
	}

	if err := h.assets.DeleteThumbnail(ctx, req.VideoID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("assetgc: delete thumbnail asset %s: %w", req.VideoID, err)
		}
	}

	h.log.WithContext(ctx).Infof("assets cleaned: video_id=%s", req.VideoID)
	return nil
}
