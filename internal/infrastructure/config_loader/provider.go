package loader

import (
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideBundle,
	ProvideServiceMetadata,
	ProvideBootstrap,
	ProvideDataConfig,
	ProvideStorageConfig,
	ProvideMessagingConfig,
	ProvideWatchConfig,
	ProvideOutboxConfig,
	ProvideTxConfig,
)

// ProvideBundle builds the configuration bundle from runtime params.
func ProvideBundle(params Params) (*Bundle, error) {
	return Build(params)
}

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideBootstrap exposes the strongly typed bootstrap configuration.
func ProvideBootstrap(b *Bundle) *Bootstrap {
	if b == nil {
		return nil
	}
	return b.Bootstrap
}

// ProvideDataConfig returns the data section of the bootstrap configuration.
func ProvideDataConfig(bc *Bootstrap) Data {
	if bc == nil {
		return Data{}
	}
	return bc.Data
}

// ProvideStorageConfig returns the storage section of the bootstrap configuration.
func ProvideStorageConfig(bc *Bootstrap) Storage {
	if bc == nil {
		return Storage{}
	}
	return bc.Storage
}

// ProvideMessagingConfig returns the messaging section of the bootstrap configuration.
func ProvideMessagingConfig(bc *Bootstrap) Messaging {
	if bc == nil {
		return Messaging{}
	}
	return bc.Messaging
}

// ProvideWatchConfig returns the watch section of the bootstrap configuration.
func ProvideWatchConfig(bc *Bootstrap) Watch {
	if bc == nil {
		return Watch{}
	}
	return bc.Watch
}

// ProvideOutboxConfig returns the outbox section of the bootstrap configuration.
func ProvideOutboxConfig(bc *Bootstrap) Outbox {
	if bc == nil {
		return Outbox{}
	}
	return bc.Outbox
}

// ProvideTxConfig exposes the transaction manager configuration.
func ProvideTxConfig(b *Bundle) txmanager.Config {
	if b == nil {
		return txmanager.Config{}
	}
	return b.TxConfig
}
