package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanityStore(t *testing.T, handler http.HandlerFunc, token string) *SanityStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewSanityStore(Options{
		ProjectID:  "proj",
		Dataset:    "production",
		APIVersion: "2023-05-03",
		Token:      token,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return store
}

func TestSanityStore(t *testing.T) {
	ctx := context.Background()

	t.Run("queries the dataset endpoint and decodes photos", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2023-05-03/data/query/production", r.URL.Path)
			assert.True(t, strings.HasPrefix(r.URL.Query().Get("query"), `*[_type == "photo"]`))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ms": 3, "result": [
				{"_id": "p1", "_createdAt": "2024-01-02T03:04:05Z", "title": "Fjord", "slug": "fjord",
				 "price": 49.5, "imageUrl": "https://cdn.sanity.io/images/proj/production/abc.jpg",
				 "collections": [{"_id": "c1", "title": "Norway", "slug": "norway"}, null],
				 "cameraSettings": {"camera": "X100V"}, "displayOrder": 2},
				{"_id": "p2", "title": "No image", "slug": "no-image", "imageUrl": null}
			]}`))
		}, "")

		photos, err := store.Photos().GetAll(ctx)

		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, "fjord", photos[0].Slug)
		assert.Equal(t, "49.5", photos[0].Price.String())
		assert.Equal(t, "https://cdn.sanity.io/images/proj/production/abc.jpg", photos[0].ImageURL)
		require.Len(t, photos[0].Collections, 1)
		assert.Equal(t, "norway", photos[0].Collections[0].Slug)
		assert.Equal(t, 2.0, *photos[0].DisplayOrder)
		assert.Equal(t, "X100V", *photos[0].CameraSettings.Camera)
		assert.Empty(t, photos[1].ImageURL)
	})

	t.Run("passes named parameters as JSON literals", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, `"iceland"`, r.URL.Query().Get("$slug"))
			w.Write([]byte(`{"result": {"_id": "c1", "title": "Iceland", "slug": "iceland", "photoCount": 7}}`))
		}, "")

		c, err := store.Collections().GetBySlug(ctx, "iceland")

		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, 7, c.PhotoCount)
	})

	t.Run("null result means not found", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": null}`))
		}, "")

		photo, err := store.Photos().GetBySlug(ctx, "missing")

		require.NoError(t, err)
		assert.Nil(t, photo)
	})

	t.Run("attaches the read token as a bearer header", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer sk-read", r.Header.Get("Authorization"))
			w.Write([]byte(`{"result": []}`))
		}, "sk-read")

		categories, err := store.Categories().GetAll(ctx)

		require.NoError(t, err)
		assert.Empty(t, categories)
	})

	t.Run("non-2xx responses are errors", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"description": "expected '}' following object body", "type": "queryParseError"}}`))
		}, "")

		_, err := store.Photos().GetAll(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=400")
		assert.Contains(t, err.Error(), "expected '}'")
	})

	t.Run("malformed bodies are errors", func(t *testing.T) {
		store := newTestSanityStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway</html>`))
		}, "")

		_, err := store.Collections().GetAll(ctx)

		assert.Error(t, err)
	})

	t.Run("builds the CDN host when requested", func(t *testing.T) {
		store, err := NewSanityStore(Options{ProjectID: "abc", Dataset: "production", APIVersion: "v2023-05-03", UseCDN: true})

		require.NoError(t, err)
		assert.Equal(t, "https://abc.apicdn.sanity.io/v2023-05-03/data/query/production", store.queryURL)
	})
}
