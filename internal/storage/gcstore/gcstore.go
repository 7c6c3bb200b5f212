// Package gcstore 提供基于 Google Cloud Storage 的资产命名空间实现。
// 同一 bucket 下以对象前缀区分视频与缩略图命名空间，对象名为前缀 + VideoID。
package gcstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/streamfox/services-media/internal/storage"
)

// Namespace 实现 storage.Namespace，映射到单个 bucket 的一个对象前缀。
type Namespace struct {
	bucket    *gcs.BucketHandle
	prefix    string
	writeOnce bool
}

var _ storage.Namespace = (*Namespace)(nil)

// Option 配置命名空间的可选行为。
type Option func(*Namespace)

// WriteOnce 让 WriteFile 带 DoesNotExist 前置条件：同名对象已存在时
// 写入以 storage.ErrAlreadyExists 失败。视频命名空间使用；
// 缩略图允许覆盖，与磁盘后端的替换语义保持一致。
func WriteOnce() Option {
	return func(n *Namespace) {
		n.writeOnce = true
	}
}

// NewNamespace 构造命名空间。prefix 形如 "videos/"，可为空。
func NewNamespace(client *gcs.Client, bucket, prefix string, opts ...Option) (*Namespace, error) {
	if client == nil {
		return nil, errors.New("gcstore: client is required")
	}
	if bucket == "" {
		return nil, errors.New("gcstore: bucket is required")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	n := &Namespace{bucket: client.Bucket(bucket), prefix: prefix}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// ListFiles 枚举前缀下全部对象名（剥除前缀），不保证顺序。
func (n *Namespace) ListFiles(ctx context.Context) ([]string, error) {
	it := n.bucket.Objects(ctx, &gcs.Query{Prefix: n.prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects with prefix %q: %w", n.prefix, err)
		}
		names = append(names, strings.TrimPrefix(attrs.Name, n.prefix))
	}
	return names, nil
}

// OpenRead 打开对象只读流。
func (n *Namespace) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := n.bucket.Object(n.prefix + name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return nil, fmt.Errorf("open object %q: %w", name, err)
	}
	return r, nil
}

// WriteFile 写入对象。Close 失败时 GCS 不会产生可见对象，半写内容天然不可见。
// WriteOnce 命名空间下对象已存在时返回 storage.ErrAlreadyExists。
func (n *Namespace) WriteFile(ctx context.Context, name string, r io.Reader) (int64, error) {
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	obj := n.bucket.Object(n.prefix + name)
	if n.writeOnce {
		obj = obj.If(gcs.Conditions{DoesNotExist: true})
	}
	w := obj.NewWriter(writeCtx)
	written, err := io.Copy(w, r)
	if err != nil {
		// 取消上下文丢弃已上传分片，再 Close 释放资源。
		cancel()
		_ = w.Close()
		return written, fmt.Errorf("write object %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		if n.writeOnce && isPreconditionFailed(err) {
			return written, fmt.Errorf("%w: %s", storage.ErrAlreadyExists, name)
		}
		return written, fmt.Errorf("finalize object %q: %w", name, err)
	}
	return written, nil
}

// isPreconditionFailed 判断错误是否为 GCS 前置条件失败（HTTP 412）。
func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

// Exists 通过对象元数据查询做纯存在性检查。
func (n *Namespace) Exists(ctx context.Context, name string) (bool, error) {
	_, err := n.bucket.Object(n.prefix + name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %q: %w", name, err)
}

// Delete 删除对象。
func (n *Namespace) Delete(ctx context.Context, name string) error {
	if err := n.bucket.Object(n.prefix + name).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return fmt.Errorf("delete object %q: %w", name, err)
	}
	return nil
}
