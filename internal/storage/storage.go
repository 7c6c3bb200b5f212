// Package storage 定义二进制资产存储的能力接口与领域门面。
// 任意存储介质（本地磁盘、对象存储）只需实现这组最小能力接口即可接入，
// 领域层仅依赖能力集合，不感知具体介质。
package storage

import (
	"context"
	"errors"
	"io"
)

// 存储层哨兵错误。
var (
	// ErrNotFound 表示请求的资产不存在，属于预期内的否定结果。
	ErrNotFound = errors.New("storage: asset not found")
	// ErrCorruptState 表示存储根中出现无法解析为 VideoID 的资产名。
	// 资产名是内部不变量而非外部输入，整个列举操作因此失败，不做逐项跳过。
	ErrCorruptState = errors.New("storage: corrupt storage state")
	// ErrAlreadyExists 表示写入时同名资产已存在。
	// 仅由启用至多一次写入的命名空间（视频对象存储）报告。
	ErrAlreadyExists = errors.New("storage: asset already exists")
)

// FileLister 列举存储根下当前存在的全部资产名，不保证顺序。
type FileLister interface {
	ListFiles(ctx context.Context) ([]string, error)
}

// FileReadOpener 按名称打开只读字节流，流起始于偏移 0。
// 名称不存在时返回 ErrNotFound。调用方持有流的所有权，任何退出路径都必须 Close。
type FileReadOpener interface {
	OpenRead(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileWriter 将 r 的全部内容原子写入名称对应的资产。
// 写入失败或 ctx 取消时不得留下可见的半写资产；半写状态永远不会
// 成为有效的已完成资产（磁盘实现经临时文件+rename，对象存储经条件写）。
type FileWriter interface {
	WriteFile(ctx context.Context, name string, r io.Reader) (int64, error)
}

// FileExistenceChecker 纯存在性检查，无副作用、不分配流。
// 用于"缩略图尚未上传"这类预期内缺席，避免为测存在性而打开再关闭流。
type FileExistenceChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// FileDeleter 按名称删除资产。名称不存在时返回 ErrNotFound。
type FileDeleter interface {
	Delete(ctx context.Context, name string) error
}

// Namespace 聚合单个资产命名空间（视频或缩略图）所需的全部能力。
type Namespace interface {
	FileLister
	FileReadOpener
	FileWriter
	FileExistenceChecker
	FileDeleter
}
