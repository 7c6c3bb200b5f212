package diskstore_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamfox/services-media/internal/storage"
	"github.com/streamfox/services-media/internal/storage/diskstore"
)

func TestNewNamespaceRequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := diskstore.NewNamespace("")
	require.Error(t, err, "空根目录应被拒绝")
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	payload := []byte("fake video bytes")
	written, err := ns.WriteFile(context.Background(), "42", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written, "写入字节数应等于内容长度")

	rc, err := ns.OpenRead(context.Background(), "42")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteOverwritesExistingAsset(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	_, err = ns.WriteFile(context.Background(), "7", bytes.NewReader([]byte("old")))
	require.NoError(t, err)
	_, err = ns.WriteFile(context.Background(), "7", bytes.NewReader([]byte("new content")))
	require.NoError(t, err)

	rc, err := ns.OpenRead(context.Background(), "7")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), got)
}

func TestOpenReadMissingAsset(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	_, err = ns.OpenRead(context.Background(), "404")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListFilesSkipsTempAndDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ns, err := diskstore.NewNamespace(root)
	require.NoError(t, err)

	_, err = ns.WriteFile(context.Background(), "1", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	_, err = ns.WriteFile(context.Background(), "2", bytes.NewReader([]byte("b")))
	require.NoError(t, err)

	// 模拟一个中断写入遗留的临时文件与一个子目录
	require.NoError(t, os.WriteFile(filepath.Join(root, ".3.partial-xyz"), []byte("half"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))

	names, err := ns.ListFiles(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, names, "临时文件与目录不应出现在列举结果中")
}

func TestDeleteRemovesAsset(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	_, err = ns.WriteFile(context.Background(), "9", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, ns.Delete(context.Background(), "9"))

	exists, err := ns.Exists(context.Background(), "9")
	require.NoError(t, err)
	assert.False(t, exists)

	err = ns.Delete(context.Background(), "9")
	require.ErrorIs(t, err, storage.ErrNotFound, "重复删除应返回 ErrNotFound")
}

func TestExists(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	exists, err := ns.Exists(context.Background(), "5")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = ns.WriteFile(context.Background(), "5", bytes.NewReader([]byte("thumb")))
	require.NoError(t, err)

	exists, err = ns.Exists(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCancelledWriteLeavesNoVisibleAsset(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ns, err := diskstore.NewNamespace(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ns.WriteFile(ctx, "11", bytes.NewReader(bytes.Repeat([]byte("v"), 1<<16)))
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	exists, existsErr := ns.Exists(context.Background(), "11")
	require.NoError(t, existsErr)
	assert.False(t, exists, "被取消的写入不得发布可见资产")

	names, listErr := ns.ListFiles(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, names, "被取消的写入不得留下可列举的残留文件")
}

func TestCancelledContextShortCircuits(t *testing.T) {
	t.Parallel()

	ns, err := diskstore.NewNamespace(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ns.ListFiles(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = ns.OpenRead(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)

	_, err = ns.Exists(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)

	err = ns.Delete(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}
