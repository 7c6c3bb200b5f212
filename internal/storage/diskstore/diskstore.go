// Package diskstore 提供基于本地文件系统的资产命名空间实现。
// 每个资产对应命名空间根目录下的单个文件，文件名即 VideoID 的十进制形式。
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/streamfox/services-media/internal/storage"
)

// Namespace 实现 storage.Namespace，根目录下一文件一资产。
type Namespace struct {
	root string
}

var _ storage.Namespace = (*Namespace)(nil)

// NewNamespace 构造命名空间并确保根目录存在。
func NewNamespace(root string) (*Namespace, error) {
	if root == "" {
		return nil, errors.New("diskstore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	return &Namespace{root: root}, nil
}

// ListFiles 返回根目录下全部常规文件名，不保证顺序。
// 写入过程中的临时文件不会出现在结果中。
func (n *Namespace) ListFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(n.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root %q: %w", n.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// 以 "." 开头的是尚未发布的临时写入文件
		if entry.Name()[0] == '.' {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// OpenRead 打开资产只读流，起始于偏移 0。
func (n *Namespace) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(n.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	return f, nil
}

// WriteFile 先写临时文件再 rename，保证半写内容对读取方不可见。
func (n *Namespace) WriteFile(ctx context.Context, name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(n.root, "."+name+".partial-*")
	if err != nil {
		return 0, fmt.Errorf("create temp for %q: %w", name, err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, readerWithContext{ctx: ctx, r: r})
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("write %q: %w", name, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(n.root, name)); err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("publish %q: %w", name, err)
	}
	return written, nil
}

// Exists 纯存在性检查，不打开文件。
func (n *Namespace) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(n.root, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %q: %w", name, err)
}

// Delete 删除资产文件。
func (n *Namespace) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(n.root, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// readerWithContext 在每次 Read 前检查取消，使上传中断能及时终止拷贝。
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (rc readerWithContext) Read(p []byte) (int, error) {
	if err := rc.ctx.Err(); err != nil {
		return 0, err
	}
	return rc.r.Read(p)
}
