package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photogallery/server/internal/models"
)

func setupTestStorage(t *testing.T) *AssetStorage {
	t.Helper()
	svc, err := NewAssetStorage(t.TempDir(), nil, 1)
	require.NoError(t, err)
	return svc
}

func TestAssetStorage_Store(t *testing.T) {
	taken := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("stores file in Year/Month folder", func(t *testing.T) {
		svc := setupTestStorage(t)

		storedPath, err := svc.Store(bytes.NewReader([]byte("fake image")), "test_photo.jpg", taken)

		require.NoError(t, err)
		assert.Equal(t, "2024/03/test_photo.jpg", storedPath)
		assert.True(t, svc.Exists(storedPath))
	})

	t.Run("replaces an existing file with the same name", func(t *testing.T) {
		svc := setupTestStorage(t)

		first, err := svc.Store(bytes.NewReader([]byte("v1")), "same.jpg", taken)
		require.NoError(t, err)
		second, err := svc.Store(bytes.NewReader([]byte("v2")), "same.jpg", taken)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		full, err := svc.Resolve(second)
		require.NoError(t, err)
		data, err := os.ReadFile(full)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("rejects disallowed extensions", func(t *testing.T) {
		svc := setupTestStorage(t)

		for _, ext := range []string{".exe", ".sh", ".php", ""} {
			_, err := svc.Store(bytes.NewReader([]byte("content")), "file"+ext, taken)
			assert.ErrorIs(t, err, models.ErrInvalidExtension, "extension %q should be rejected", ext)
		}
	})

	t.Run("rejects files over the size limit", func(t *testing.T) {
		svc := setupTestStorage(t)

		big := bytes.Repeat([]byte("x"), 1024*1024+1)
		_, err := svc.Store(bytes.NewReader(big), "big.jpg", taken)

		assert.ErrorIs(t, err, models.ErrFileTooLarge)
		assert.False(t, svc.Exists("2024/03/big.jpg"))
	})

	t.Run("sanitizes path traversal attempts", func(t *testing.T) {
		svc := setupTestStorage(t)

		for _, name := range []string{"../../../etc/passwd.jpg", "..\\..\\windows\\system32.jpg", "/etc/passwd.jpg"} {
			storedPath, err := svc.Store(bytes.NewReader([]byte("content")), name, taken)

			require.NoError(t, err)
			assert.NotContains(t, storedPath, "..")
			assert.NotContains(t, storedPath, "/etc/")
			assert.True(t, strings.HasPrefix(storedPath, "2024/03/"))
		}
	})
}

func TestAssetStorage_Resolve(t *testing.T) {
	svc := setupTestStorage(t)

	t.Run("returns full path for valid stored path", func(t *testing.T) {
		fullPath, err := svc.Resolve("2024/03/test.jpg")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(svc.BasePath(), "2024", "03", "test.jpg"), fullPath)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		for _, p := range []string{"../../../etc/passwd", "2024/../../secret.jpg", "..", "."} {
			_, err := svc.Resolve(p)
			assert.ErrorIs(t, err, models.ErrPathTraversal, p)
		}
	})

	t.Run("rejects sibling directories sharing the prefix", func(t *testing.T) {
		sibling := "../" + filepath.Base(svc.BasePath()) + "-evil/x.jpg"

		_, err := svc.Resolve(sibling)

		assert.ErrorIs(t, err, models.ErrPathTraversal)
	})

	t.Run("rejects empty paths", func(t *testing.T) {
		_, err := svc.Resolve("  ")
		assert.Error(t, err)
	})
}

func TestAssetStorage_Open(t *testing.T) {
	svc := setupTestStorage(t)
	storedPath, err := svc.Store(bytes.NewReader([]byte("content")), "open.png", time.Now())
	require.NoError(t, err)

	t.Run("opens an existing file", func(t *testing.T) {
		f, info, err := svc.Open(storedPath)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, int64(7), info.Size())
	})

	t.Run("missing files and directories are not found", func(t *testing.T) {
		_, _, err := svc.Open("2024/01/nonexistent.jpg")
		assert.ErrorIs(t, err, models.ErrAssetNotFound)

		_, _, err = svc.Open(filepath.ToSlash(filepath.Dir(storedPath)))
		assert.ErrorIs(t, err, models.ErrAssetNotFound)
	})
}

func TestFormatHelpers(t *testing.T) {
	assert.True(t, IsSupportedFormat("a.JPG"))
	assert.True(t, IsSupportedFormat("a.heic"))
	assert.False(t, IsSupportedFormat("a.webp"))
	assert.False(t, IsSupportedFormat("a.txt"))
	assert.True(t, IsHEIC("IMG_0001.HEIF"))
	assert.False(t, IsHEIC("IMG_0001.jpg"))
}
