// Package services 封装应用用例层，协调元数据仓储、资产存储与后台事件。
package services

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// 服务边界错误 reason 常量。
const (
	ReasonVideoNotFound      = "VIDEO_NOT_FOUND"
	ReasonThumbnailNotFound  = "THUMBNAIL_NOT_FOUND"
	ReasonTagInvalid         = "TAG_INVALID"
	ReasonCorruptStorage     = "CORRUPT_STORAGE_STATE"
	ReasonIngestionFailed    = "INGESTION_FAILED"
	ReasonInconsistentState  = "INCONSISTENT_STATE"
	ReasonWatchSessionNeeded = "WATCH_SESSION_REQUIRED"
	ReasonQueryFailed        = "QUERY_VIDEO_FAILED"
	ReasonQueryTimeout       = "QUERY_TIMEOUT"
)

// ErrVideoNotFound 是当视频未找到时返回的哨兵错误。
var ErrVideoNotFound = errors.NotFound(ReasonVideoNotFound, "video not found")

// ErrThumbnailNotFound 是当缩略图资产缺失且调用方明确要求字节流时返回的哨兵错误。
var ErrThumbnailNotFound = errors.NotFound(ReasonThumbnailNotFound, "thumbnail not found")

// ErrCorruptStorageState 表示资产命名空间中存在无法解析的名称，
// 存储根不可信，列举操作整体失败。
var ErrCorruptStorageState = errors.InternalServer(ReasonCorruptStorage, "corrupt storage state")

// ErrInconsistentState 表示跨存储一致性已被破坏（孤儿元数据或孤儿资产），
// 需要运维介入，系统不自行修复。
var ErrInconsistentState = errors.InternalServer(ReasonInconsistentState, "metadata and asset stores are inconsistent")
