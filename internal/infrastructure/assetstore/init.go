package assetstore

import "github.com/google/wire"

// ProviderSet 暴露资产存储构造器供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewStores,
	ProvideAssetStore,
	ProvideSigner,
	ProvideWatchConfig,
)
