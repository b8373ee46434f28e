package handlers

import (
	"bytes"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/services"
)

func newImageRouter(t *testing.T) http.Handler {
	t.Helper()
	storage, err := services.NewAssetStorage(t.TempDir(), nil, 0)
	require.NoError(t, err)

	dir := filepath.Join(storage.BasePath(), "2024", "03")
	require.NoError(t, os.MkdirAll(dir, 0755))
	img := imaging.New(400, 200, color.NRGBA{R: 30, G: 90, B: 160, A: 255})
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "p1.jpg")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.webp"), []byte("not decoded"), 0644))

	return NewRouter(RouterDeps{
		Gallery:   services.NewGalleryService(newSeededStore(t), time.Second, observability.NewNopLogger()),
		Templates: MustLoadTemplates(),
		Images:    services.NewImageService(storage, services.NewEXIFService(), nil),
	})
}

func TestImageHandler(t *testing.T) {
	router := newImageRouter(t)

	t.Run("serves the original without parameters", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/p1.jpg")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	})

	t.Run("applies the gallery optimization parameters", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/p1.jpg?"+services.OptimizedImageParams)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		decoded, err := imaging.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		// Width only with no upscale keeps the source size
		assert.Equal(t, 400, decoded.Bounds().Dx())
	})

	t.Run("resizes to the requested width", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/p1.jpg?w=100")

		require.Equal(t, http.StatusOK, rec.Code)
		decoded, err := imaging.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 100, decoded.Bounds().Dx())
		assert.Equal(t, 50, decoded.Bounds().Dy())
	})

	t.Run("crops to both dimensions", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/p1.jpg?w=50&h=50&fit=crop")

		require.Equal(t, http.StatusOK, rec.Code)
		decoded, err := imaging.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 50, decoded.Bounds().Dx())
		assert.Equal(t, 50, decoded.Bounds().Dy())
	})

	t.Run("formats the decoder cannot read are served as stored", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/notes.webp?w=100")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "not decoded", rec.Body.String())
	})

	t.Run("invalid parameters are a 400", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/p1.jpg?w=huge")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing asset is a 404", func(t *testing.T) {
		rec := get(t, router, "/images/2024/03/missing.jpg?w=100")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("paths outside the asset root are rejected", func(t *testing.T) {
		rec := get(t, router, "/images/../../etc/passwd.jpg")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
