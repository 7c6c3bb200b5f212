package logger

import (
	"github.com/google/wire"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
)

// ProviderSet 注册日志器相关的依赖注入提供者。
var ProviderSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
)

// ProvideConfig 从解析后的服务元信息推导日志器配置。
func ProvideConfig(meta loader.ServiceMetadata) Config {
	return Config{
		Service: meta.Name,
		Version: meta.Version,
		HostID:  meta.InstanceID,
		Env:     meta.Environment,
	}
}
