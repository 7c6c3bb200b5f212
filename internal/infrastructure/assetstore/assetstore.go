// Package assetstore 根据配置选择资产存储后端（本地磁盘或 GCS），
// 并组装成统一的 AssetStore 门面供服务层使用。
package assetstore

import (
	"context"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/services"
	"github.com/streamfox/services-media/internal/storage"
	"github.com/streamfox/services-media/internal/storage/diskstore"
	"github.com/streamfox/services-media/internal/storage/gcstore"
)

// Stores 聚合按配置组装好的资产门面与可选的播放签名器。
// Signer 仅在 GCS 后端下非空，磁盘后端没有可签名的对象地址。
type Stores struct {
	Assets *storage.AssetStore
	Signer services.PlaybackURLSigner
}

// NewStores 按 Storage 配置组装资产存储。返回的清理函数负责关闭底层客户端。
func NewStores(ctx context.Context, cfg loader.Storage, logger log.Logger) (*Stores, func(), error) {
	helper := log.NewHelper(logger)

	switch cfg.Backend {
	case loader.StorageBackendDisk:
		videos, err := diskstore.NewNamespace(cfg.VideoDir)
		if err != nil {
			return nil, nil, fmt.Errorf("assetstore: video namespace: %w", err)
		}
		thumbnails, err := diskstore.NewNamespace(cfg.ThumbnailDir)
		if err != nil {
			return nil, nil, fmt.Errorf("assetstore: thumbnail namespace: %w", err)
		}
		helper.Infof("asset store ready: backend=disk video_dir=%s thumbnail_dir=%s", cfg.VideoDir, cfg.ThumbnailDir)
		return &Stores{
			Assets: storage.NewAssetStore(videos, thumbnails, logger),
		}, func() {}, nil

	case loader.StorageBackendGCS:
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("assetstore: create gcs client: %w", err)
		}
		// 视频对象按 id 至多写入一次，缩略图允许重新上传覆盖。
		videos, err := gcstore.NewNamespace(client, cfg.Bucket, cfg.VideoPrefix, gcstore.WriteOnce())
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("assetstore: video namespace: %w", err)
		}
		thumbnails, err := gcstore.NewNamespace(client, cfg.Bucket, cfg.ThumbnailPrefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("assetstore: thumbnail namespace: %w", err)
		}

		var signer services.PlaybackURLSigner
		if cfg.SignerServiceAccount != "" {
			playbackSigner, signerErr := gcstore.NewPlaybackSigner(ctx, cfg.SignerServiceAccount, logger)
			if signerErr != nil {
				_ = client.Close()
				return nil, nil, fmt.Errorf("assetstore: playback signer: %w", signerErr)
			}
			signer = playbackSigner
		}

		helper.Infof("asset store ready: backend=gcs bucket=%s signer=%v", cfg.Bucket, signer != nil)
		cleanup := func() {
			helper.Info("closing gcs client")
			if closeErr := client.Close(); closeErr != nil {
				helper.Warnf("close gcs client: %v", closeErr)
			}
		}
		return &Stores{
			Assets: storage.NewAssetStore(videos, thumbnails, logger),
			Signer: signer,
		}, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("assetstore: unsupported backend %q", cfg.Backend)
	}
}

// ProvideAssetStore 暴露组装好的资产门面。
func ProvideAssetStore(s *Stores) *storage.AssetStore {
	if s == nil {
		return nil
	}
	return s.Assets
}

// ProvideSigner 暴露可选的播放签名器，磁盘后端下为 nil。
func ProvideSigner(s *Stores) services.PlaybackURLSigner {
	if s == nil {
		return nil
	}
	return s.Signer
}

// ProvideWatchConfig 将观看配置与存储配置合并为服务层的 WatchConfig。
// 对象前缀与 gcstore 命名空间采用同一规范化规则，保证签名地址指向真实对象。
func ProvideWatchConfig(watch loader.Watch, st loader.Storage) services.WatchConfig {
	prefix := st.VideoPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return services.WatchConfig{
		CompletionPercent:    watch.CompletionPercent,
		MinRateSamples:       watch.MinRateSamples,
		PlaybackBucket:       st.Bucket,
		PlaybackObjectPrefix: prefix,
		PlaybackTTL:          loader.MustDuration(st.PlaybackTTL, 0),
	}
}
