package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/repository"
	"github.com/photogallery/server/internal/services"
)

const (
	testAdminUser     = "editor"
	testAdminPassword = "s3cret"
)

func ptr[T any](v T) *T { return &v }

// failingStore fails every query the way an unreachable CMS does
type failingStore struct{ err error }

func (s *failingStore) Photos() repository.PhotoRepo           { return failingPhotos{s.err} }
func (s *failingStore) Collections() repository.CollectionRepo { return failingCollections{s.err} }
func (s *failingStore) Categories() repository.CategoryRepo    { return failingCategories{s.err} }
func (s *failingStore) Driver() string                         { return "failing" }
func (s *failingStore) Ping(ctx context.Context) error         { return s.err }
func (s *failingStore) Close() error                           { return nil }

type failingPhotos struct{ err error }

func (f failingPhotos) GetAll(context.Context) ([]*models.Photo, error) { return nil, f.err }
func (f failingPhotos) GetBySlug(context.Context, string) (*models.Photo, error) {
	return nil, f.err
}
func (f failingPhotos) GetByCollectionID(context.Context, string) ([]*models.Photo, error) {
	return nil, f.err
}
func (f failingPhotos) GetByCategoryID(context.Context, string) ([]*models.Photo, error) {
	return nil, f.err
}
func (f failingPhotos) GetForCollectionAdmin(context.Context, string) ([]*models.Photo, error) {
	return nil, f.err
}

type failingCollections struct{ err error }

func (f failingCollections) GetAll(context.Context) ([]*models.Collection, error) {
	return nil, f.err
}
func (f failingCollections) GetBySlug(context.Context, string) (*models.Collection, error) {
	return nil, f.err
}

type failingCategories struct{ err error }

func (f failingCategories) GetAll(context.Context) ([]*models.Category, error) { return nil, f.err }
func (f failingCategories) GetBySlug(context.Context, string) (*models.Category, error) {
	return nil, f.err
}

// newSeededStore returns a SQLite store holding two collections, a category and four photos
func newSeededStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	store := repository.NewSQLStore(db, repository.DriverSQLite, "/images")
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SeedCategory(ctx, &models.Category{ID: "cat-bw", Title: "Black and White", Slug: "black-and-white"}))
	require.NoError(t, store.SeedCollection(ctx, &models.Collection{ID: "col-land", Title: "Landscapes", Slug: "landscapes", DisplayOrder: ptr(1.0)}))
	require.NoError(t, store.SeedCollection(ctx, &models.Collection{ID: "col-empty", Title: "Empty Shelf", Slug: "empty-shelf", DisplayOrder: ptr(2.0)}))

	photos := []*models.Photo{
		{ID: "p1", Title: "Zebra Ridge", Slug: "zebra-ridge", ImagePath: "2024/03/p1.jpg", DisplayOrder: ptr(1.0), CreatedAt: base, CollectionIDs: []string{"col-land"}, CategoryIDs: []string{"cat-bw"}},
		{ID: "p2", Title: "Alpine Lake", Slug: "alpine-lake", ImagePath: "2024/03/p2.jpg", CreatedAt: base.Add(time.Hour), CollectionIDs: []string{"col-land"}, Price: ptr(decimal.RequireFromString("49.5"))},
		{ID: "p3", Title: "Draft Sketch", Slug: "draft-sketch", CreatedAt: base, CollectionIDs: []string{"col-land"}},
		{ID: "p4", Title: "City Night", Slug: "city-night", ImagePath: "2024/03/p4.jpg", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, p := range photos {
		require.NoError(t, store.SeedPhoto(ctx, p))
	}
	return store
}

func newTestRouter(t *testing.T, store repository.Store, adminHash string) http.Handler {
	t.Helper()
	return NewRouter(RouterDeps{
		Gallery:           services.NewGalleryService(store, time.Second, observability.NewNopLogger()),
		Templates:         MustLoadTemplates(),
		AdminUsername:     testAdminUser,
		AdminPasswordHash: adminHash,
		AllowedOrigins:    []string{"*"},
	})
}

func adminHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func get(t *testing.T, h http.Handler, target string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func withAdmin(user, password string) func(*http.Request) {
	return func(r *http.Request) { r.SetBasicAuth(user, password) }
}

func TestPages(t *testing.T) {
	router := newTestRouter(t, newSeededStore(t), "")

	t.Run("home lists photos with images and the collections strip", func(t *testing.T) {
		rec := get(t, router, "/")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "All Photos")
		assert.Contains(t, body, `href="/collections/landscapes"`)
		assert.Contains(t, body, "Zebra Ridge")
		assert.Contains(t, body, "/images/2024/03/p1.jpg?auto=format,compress&amp;fit=crop&amp;w=800&amp;q=80")
		assert.NotContains(t, body, "Draft Sketch")
	})

	t.Run("collection page shows its photos and marks the current collection", func(t *testing.T) {
		rec := get(t, router, "/collections/landscapes")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<h1>Landscapes</h1>")
		assert.Contains(t, body, `class="current"`)
		assert.Contains(t, body, "Alpine Lake")
		assert.NotContains(t, body, "City Night")
	})

	t.Run("empty collection says so", func(t *testing.T) {
		rec := get(t, router, "/collections/empty-shelf")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No photos found in this collection.")
	})

	t.Run("unknown collection is a 404", func(t *testing.T) {
		rec := get(t, router, "/collections/nowhere")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "This collection does not exist.")
	})

	t.Run("photo page shows price and collections", func(t *testing.T) {
		rec := get(t, router, "/photos/alpine-lake")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "$49.5")
		assert.Contains(t, body, "Landscapes")
	})

	t.Run("unknown route renders the 404 page", func(t *testing.T) {
		rec := get(t, router, "/no/such/page")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})
}

func TestPagesWithUnavailableStore(t *testing.T) {
	router := newTestRouter(t, &failingStore{err: errors.New("dial tcp: connection refused")}, "")

	t.Run("home still renders with empty sections", func(t *testing.T) {
		rec := get(t, router, "/")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "All Photos")
		assert.NotContains(t, body, "Temporarily unavailable")
		assert.NotContains(t, body, "connection refused")
	})

	t.Run("collection page is a 503 rather than a 404", func(t *testing.T) {
		rec := get(t, router, "/collections/landscapes")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "Temporarily unavailable")
	})

	t.Run("photo page is a 503", func(t *testing.T) {
		rec := get(t, router, "/photos/alpine-lake")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAPI(t *testing.T) {
	router := newTestRouter(t, newSeededStore(t), "")

	t.Run("lists photos in display order", func(t *testing.T) {
		rec := get(t, router, "/api/photos")

		require.Equal(t, http.StatusOK, rec.Code)
		var photos []models.Photo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &photos))
		require.Len(t, photos, 3)
		assert.Equal(t, "p1", photos[0].ID)
		assert.Equal(t, "p4", photos[1].ID)
		assert.Equal(t, "p2", photos[2].ID)
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"photo by slug", "/api/photos/alpine-lake", http.StatusOK, `"slug":"alpine-lake"`},
		{"missing photo", "/api/photos/missing", http.StatusNotFound, `"error":"photo not found"`},
		{"collections with counts", "/api/collections", http.StatusOK, `"photoCount"`},
		{"collection by slug", "/api/collections/landscapes", http.StatusOK, `"title":"Landscapes"`},
		{"missing collection", "/api/collections/missing", http.StatusNotFound, `"error":"collection not found"`},
		{"collection photos", "/api/collections/landscapes/photos", http.StatusOK, `"slug":"zebra-ridge"`},
		{"photos of a missing collection", "/api/collections/missing/photos", http.StatusNotFound, `"error":"collection not found"`},
		{"categories", "/api/categories", http.StatusOK, `"slug":"black-and-white"`},
		{"category by slug", "/api/categories/black-and-white", http.StatusOK, `"title":"Black and White"`},
		{"missing category", "/api/categories/missing", http.StatusNotFound, `"error":"category not found"`},
		{"category photos", "/api/categories/black-and-white/photos", http.StatusOK, `"slug":"zebra-ridge"`},
		{"version", "/api/version", http.StatusOK, `"store":"sqlite"`},
		{"health", "/api/health", http.StatusOK, `"status":"healthy"`},
		{"unknown api route", "/api/nothing", http.StatusNotFound, `"error":"Not found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	t.Run("cross-origin requests are allowed", func(t *testing.T) {
		rec := get(t, router, "/api/photos", func(r *http.Request) {
			r.Header.Set("Origin", "https://example.com")
		})

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAPIWithUnavailableStore(t *testing.T) {
	router := newTestRouter(t, &failingStore{err: errors.New("timeout")}, adminHash(t))

	targets := []string{
		"/api/photos",
		"/api/photos/alpine-lake",
		"/api/collections",
		"/api/collections/landscapes",
		"/api/collections/landscapes/photos",
		"/api/categories",
		"/api/categories/black-and-white/photos",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := get(t, router, target)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, `{"error":"content store unavailable"}`, rec.Body.String())
		})
	}

	t.Run("health reports degraded", func(t *testing.T) {
		rec := get(t, router, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	})

	t.Run("admin JSON is a 503", func(t *testing.T) {
		rec := get(t, router, "/api/admin/collections/col-land/photos", withAdmin(testAdminUser, testAdminPassword))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAdmin(t *testing.T) {
	router := newTestRouter(t, newSeededStore(t), adminHash(t))

	t.Run("requires credentials", func(t *testing.T) {
		rec := get(t, router, "/admin/")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		rec := get(t, router, "/admin/collections/col-land/photos", withAdmin(testAdminUser, "nope"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("index shows counts", func(t *testing.T) {
		rec := get(t, router, "/admin/", withAdmin(testAdminUser, testAdminPassword))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/admin/collections/col-land/photos?title=Landscapes")
	})

	t.Run("collection photos include photos without images, ordered by display order then title", func(t *testing.T) {
		rec := get(t, router, "/admin/collections/col-land/photos?title=Landscapes", withAdmin(testAdminUser, testAdminPassword))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `Photos in "Landscapes" (3)`)
		assert.Contains(t, body, "Price: $49.5")

		zebra := strings.Index(body, "Zebra Ridge")
		alpine := strings.Index(body, "Alpine Lake")
		draft := strings.Index(body, "Draft Sketch")
		require.True(t, zebra >= 0 && alpine >= 0 && draft >= 0)
		assert.Less(t, zebra, alpine)
		assert.Less(t, alpine, draft)
	})

	t.Run("title falls back to the stored collection", func(t *testing.T) {
		rec := get(t, router, "/admin/collections/col-land/photos", withAdmin(testAdminUser, testAdminPassword))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Landscapes | Gallery Admin")
	})

	t.Run("empty collection", func(t *testing.T) {
		rec := get(t, router, "/admin/collections/col-empty/photos?title=Empty", withAdmin(testAdminUser, testAdminPassword))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No photos in this collection yet.")
	})

	t.Run("JSON view", func(t *testing.T) {
		rec := get(t, router, "/api/admin/collections/col-land/photos?title=Landscapes", withAdmin(testAdminUser, testAdminPassword))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.AdminCollectionPhotosResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "col-land", resp.CollectionID)
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, "p3", resp.Photos[2].ID)
	})
}

func TestAdminDisabledWithoutPasswordHash(t *testing.T) {
	router := newTestRouter(t, newSeededStore(t), "")

	rec := get(t, router, "/admin/", withAdmin(testAdminUser, testAdminPassword))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, router, "/api/admin/collections/col-land/photos", withAdmin(testAdminUser, testAdminPassword))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwagger(t *testing.T) {
	router := newTestRouter(t, newSeededStore(t), "")

	rec := get(t, router, "/swagger/doc.json")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, doc["paths"], "/api/photos")
}
