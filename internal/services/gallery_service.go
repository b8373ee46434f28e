package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/repository"
)

// Status tells a genuinely empty result apart from one degraded by a store failure
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a gallery query.
// Value is always usable: an empty slice or nil when the store failed.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// Unavailable returns true when the store failed and Value was degraded
func (r Result[T]) Unavailable() bool {
	return r.Status == StatusUnavailable
}

func listResult[T any](items []T) Result[[]T] {
	if len(items) == 0 {
		return Result[[]T]{Value: items, Status: StatusEmpty}
	}
	return Result[[]T]{Value: items, Status: StatusOK}
}

func itemResult[T any](item *T) Result[*T] {
	if item == nil {
		return Result[*T]{Status: StatusEmpty}
	}
	return Result[*T]{Value: item, Status: StatusOK}
}

func unavailable[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Status: StatusUnavailable, Err: err}
}

// GalleryService is the read-only query layer over the content store.
// Store failures never escape it: they are logged and degraded to empty values.
type GalleryService struct {
	store        repository.Store
	queryTimeout time.Duration
	logger       *observability.Logger
	metrics      *observability.StoreMetrics
}

// NewGalleryService creates a new GalleryService
func NewGalleryService(store repository.Store, queryTimeout time.Duration, logger *observability.Logger) *GalleryService {
	if logger == nil {
		logger = observability.GetLogger()
	}
	return &GalleryService{
		store:        store,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// WithMetrics attaches store metrics instruments
func (s *GalleryService) WithMetrics(metrics *observability.StoreMetrics) *GalleryService {
	s.metrics = metrics
	return s
}

// Driver returns the name of the backing store
func (s *GalleryService) Driver() string {
	return s.store.Driver()
}

// Ping checks the store within the query timeout
func (s *GalleryService) Ping(ctx context.Context) error {
	_, err := runQuery(ctx, s, "Ping", nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Ping(ctx)
	})
	return err
}

// runQuery wraps one store call with the query timeout, a client span,
// metrics and failure logging.
func runQuery[T any](ctx context.Context, s *GalleryService, op string, params map[string]interface{}, fn func(context.Context) (T, error)) (T, error) {
	attrs := make([]attribute.KeyValue, 0, len(params))
	for k, v := range params {
		attrs = append(attrs, attribute.String("store.param."+k, fmt.Sprint(v)))
	}
	ctx, span := observability.StartStoreSpan(ctx, s.store.Driver(), op, attrs...)
	defer span.End()

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	value, err := fn(ctx)
	s.metrics.RecordQuery(ctx, s.store.Driver(), op, time.Since(start), err)

	if err != nil {
		observability.RecordError(span, err)
		s.logger.WithContext(ctx).
			WithField("operation", op).
			WithFields(params).
			WithError(err).
			Errorf("Store query %s failed", op)
		var zero T
		return zero, err
	}

	observability.SetSuccess(span)
	return value, nil
}

// prepareListing drops photos without an image and rewrites the rest to the optimized URL
func prepareListing(photos []*models.Photo) []*models.Photo {
	out := make([]*models.Photo, 0, len(photos))
	for _, p := range photos {
		if p == nil || !p.HasImage() {
			continue
		}
		p.ImageURL = optimizeURL(p.ImageURL)
		out = append(out, p)
	}
	sortPhotosForListing(out)
	return out
}

func (s *GalleryService) listPhotos(ctx context.Context, op string, params map[string]interface{}, fn func(context.Context) ([]*models.Photo, error)) Result[[]*models.Photo] {
	photos, err := runQuery(ctx, s, op, params, fn)
	if err != nil {
		return unavailable([]*models.Photo{}, err)
	}
	return listResult(prepareListing(photos))
}

// ListPhotos returns every photo that has an image, in gallery order
func (s *GalleryService) ListPhotos(ctx context.Context) Result[[]*models.Photo] {
	return s.listPhotos(ctx, "ListPhotos", nil, s.store.Photos().GetAll)
}

// GetPhotoBySlug returns the photo with the given slug
func (s *GalleryService) GetPhotoBySlug(ctx context.Context, slug string) Result[*models.Photo] {
	if slug == "" {
		return itemResult[models.Photo](nil)
	}

	photo, err := runQuery(ctx, s, "GetPhotoBySlug", map[string]interface{}{"slug": slug},
		func(ctx context.Context) (*models.Photo, error) {
			return s.store.Photos().GetBySlug(ctx, slug)
		})
	if err != nil {
		return unavailable[*models.Photo](nil, err)
	}
	if photo != nil {
		photo.ImageURL = optimizeURL(photo.ImageURL)
	}
	return itemResult(photo)
}

// ListCollections returns every collection with its live photo count
func (s *GalleryService) ListCollections(ctx context.Context) Result[[]*models.Collection] {
	collections, err := runQuery(ctx, s, "ListCollections", nil, s.store.Collections().GetAll)
	if err != nil {
		return unavailable([]*models.Collection{}, err)
	}

	out := make([]*models.Collection, 0, len(collections))
	for _, c := range collections {
		if c == nil {
			continue
		}
		c.CoverImageURL = optimizeURL(c.CoverImageURL)
		out = append(out, c)
	}
	sortCollections(out)
	return listResult(out)
}

// GetCollectionBySlug returns the collection with the given slug
func (s *GalleryService) GetCollectionBySlug(ctx context.Context, slug string) Result[*models.Collection] {
	if slug == "" {
		return itemResult[models.Collection](nil)
	}

	collection, err := runQuery(ctx, s, "GetCollectionBySlug", map[string]interface{}{"slug": slug},
		func(ctx context.Context) (*models.Collection, error) {
			return s.store.Collections().GetBySlug(ctx, slug)
		})
	if err != nil {
		return unavailable[*models.Collection](nil, err)
	}
	if collection != nil {
		collection.CoverImageURL = optimizeURL(collection.CoverImageURL)
	}
	return itemResult(collection)
}

// ListPhotosByCollection returns the photos referencing a collection, in gallery order
func (s *GalleryService) ListPhotosByCollection(ctx context.Context, collectionID string) Result[[]*models.Photo] {
	return s.listPhotos(ctx, "ListPhotosByCollection", map[string]interface{}{"collectionId": collectionID},
		func(ctx context.Context) ([]*models.Photo, error) {
			return s.store.Photos().GetByCollectionID(ctx, collectionID)
		})
}

// ListCategories returns every category with its live photo count
func (s *GalleryService) ListCategories(ctx context.Context) Result[[]*models.Category] {
	categories, err := runQuery(ctx, s, "ListCategories", nil, s.store.Categories().GetAll)
	if err != nil {
		return unavailable([]*models.Category{}, err)
	}

	out := make([]*models.Category, 0, len(categories))
	for _, c := range categories {
		if c != nil {
			out = append(out, c)
		}
	}
	sortCategories(out)
	return listResult(out)
}

// GetCategoryBySlug returns the category with the given slug
func (s *GalleryService) GetCategoryBySlug(ctx context.Context, slug string) Result[*models.Category] {
	if slug == "" {
		return itemResult[models.Category](nil)
	}

	category, err := runQuery(ctx, s, "GetCategoryBySlug", map[string]interface{}{"slug": slug},
		func(ctx context.Context) (*models.Category, error) {
			return s.store.Categories().GetBySlug(ctx, slug)
		})
	if err != nil {
		return unavailable[*models.Category](nil, err)
	}
	return itemResult(category)
}

// ListPhotosByCategory returns the photos referencing a category, in gallery order
func (s *GalleryService) ListPhotosByCategory(ctx context.Context, categoryID string) Result[[]*models.Photo] {
	return s.listPhotos(ctx, "ListPhotosByCategory", map[string]interface{}{"categoryId": categoryID},
		func(ctx context.Context) ([]*models.Photo, error) {
			return s.store.Photos().GetByCategoryID(ctx, categoryID)
		})
}

// ListCollectionPhotosForAdmin returns every photo referencing a collection,
// including those without an image, ordered by displayOrder then title.
func (s *GalleryService) ListCollectionPhotosForAdmin(ctx context.Context, collectionID string) Result[[]*models.Photo] {
	photos, err := runQuery(ctx, s, "ListCollectionPhotosForAdmin", map[string]interface{}{"collectionId": collectionID},
		func(ctx context.Context) ([]*models.Photo, error) {
			return s.store.Photos().GetForCollectionAdmin(ctx, collectionID)
		})
	if err != nil {
		return unavailable([]*models.Photo{}, err)
	}

	out := make([]*models.Photo, 0, len(photos))
	for _, p := range photos {
		if p == nil {
			continue
		}
		p.ImageURL = optimizeURL(p.ImageURL)
		out = append(out, p)
	}
	sortPhotosForAdmin(out)
	return listResult(out)
}
