package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"github.com/photogallery/server/internal/models"
)

const sanityRequestTimeout = 30 * time.Second

// SanityStore queries the hosted CMS over its HTTP query API
type SanityStore struct {
	httpClient *http.Client
	queryURL   string
	photos     *sanityPhotoRepo
}

// NewSanityStore creates a client for the project and dataset in opts
func NewSanityStore(opts Options) (*SanityStore, error) {
	if opts.ProjectID == "" || opts.Dataset == "" {
		return nil, fmt.Errorf("project id and dataset are required")
	}

	apiVersion := strings.TrimPrefix(opts.APIVersion, "v")
	if apiVersion == "" {
		apiVersion = "2023-05-03"
	}

	base := opts.BaseURL
	if base == "" {
		host := "api"
		if opts.UseCDN {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", opts.ProjectID, host)
	}

	httpClient := &http.Client{Timeout: sanityRequestTimeout}
	if opts.Token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = sanityRequestTimeout
	}

	s := &SanityStore{
		httpClient: httpClient,
		queryURL:   fmt.Sprintf("%s/v%s/data/query/%s", strings.TrimRight(base, "/"), apiVersion, url.PathEscape(opts.Dataset)),
	}
	s.photos = &sanityPhotoRepo{store: s}
	return s, nil
}

func (s *SanityStore) Photos() PhotoRepo           { return s.photos }
func (s *SanityStore) Collections() CollectionRepo { return &sanityCollectionRepo{store: s} }
func (s *SanityStore) Categories() CategoryRepo    { return &sanityCategoryRepo{store: s} }
func (s *SanityStore) Driver() string              { return DriverSanity }

// Ping runs a trivial query against the dataset
func (s *SanityStore) Ping(ctx context.Context) error {
	var n int
	return s.fetch(ctx, `count(*[_type == "collection"][0...1])`, nil, &n)
}

// Close releases idle connections
func (s *SanityStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

type sanityResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error,omitempty"`
}

// fetch runs a GROQ query and decodes its result into out.
// A null result leaves out untouched.
func (s *SanityStore) fetch(ctx context.Context, query string, params map[string]string, out interface{}) error {
	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		values.Set("$"+name, string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.queryURL+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query content store: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var decoded sanityResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("content store error: status=%d", resp.StatusCode)
		}
		return fmt.Errorf("malformed content store response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return fmt.Errorf("content store error: status=%d: %s", resp.StatusCode, decoded.Error.Description)
		}
		return fmt.Errorf("content store error: status=%d", resp.StatusCode)
	}

	if len(decoded.Result) == 0 || string(decoded.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("malformed query result: %w", err)
	}
	return nil
}

// Document shapes as projected by the GROQ queries

type sanityCollectionRef struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type sanityPhoto struct {
	ID             string                 `json:"_id"`
	CreatedAt      time.Time              `json:"_createdAt"`
	Title          string                 `json:"title"`
	Slug           string                 `json:"slug"`
	Description    *string                `json:"description"`
	Price          *decimal.Decimal       `json:"price"`
	ImageURL       *string                `json:"imageUrl"`
	Collections    []*sanityCollectionRef `json:"collections"`
	DateTaken      *time.Time             `json:"dateTaken"`
	CameraSettings *models.CameraSettings `json:"cameraSettings"`
	DisplayOrder   *float64               `json:"displayOrder"`
}

func (d *sanityPhoto) toModel() *models.Photo {
	p := &models.Photo{
		ID:             d.ID,
		Title:          d.Title,
		Slug:           d.Slug,
		Description:    d.Description,
		Price:          d.Price,
		DateTaken:      d.DateTaken,
		CameraSettings: d.CameraSettings,
		DisplayOrder:   d.DisplayOrder,
		CreatedAt:      d.CreatedAt,
	}
	if d.ImageURL != nil {
		p.ImageURL = *d.ImageURL
	}
	if p.CameraSettings.IsEmpty() {
		p.CameraSettings = nil
	}
	// Dangling references dereference to null
	for _, ref := range d.Collections {
		if ref == nil {
			continue
		}
		p.Collections = append(p.Collections, models.CollectionRef{ID: ref.ID, Title: ref.Title, Slug: ref.Slug})
		p.CollectionIDs = append(p.CollectionIDs, ref.ID)
	}
	return p
}

type sanityCollection struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Description   *string  `json:"description"`
	CoverImageURL *string  `json:"coverImageUrl"`
	PhotoCount    int      `json:"photoCount"`
	DisplayOrder  *float64 `json:"displayOrder"`
}

func (d *sanityCollection) toModel() *models.Collection {
	c := &models.Collection{
		ID:           d.ID,
		Title:        d.Title,
		Slug:         d.Slug,
		Description:  d.Description,
		PhotoCount:   d.PhotoCount,
		DisplayOrder: d.DisplayOrder,
	}
	if d.CoverImageURL != nil {
		c.CoverImageURL = *d.CoverImageURL
	}
	return c
}

type sanityCategory struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	PhotoCount  int     `json:"photoCount"`
}

// sanityPhotoRepo implements PhotoRepo over GROQ
type sanityPhotoRepo struct {
	store *SanityStore
}

func (r *sanityPhotoRepo) GetAll(ctx context.Context) ([]*models.Photo, error) {
	return r.list(ctx, queryAllPhotos, nil)
}

func (r *sanityPhotoRepo) GetBySlug(ctx context.Context, slug string) (*models.Photo, error) {
	var doc *sanityPhoto
	if err := r.store.fetch(ctx, queryPhotoBySlug, map[string]string{"slug": slug}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return doc.toModel(), nil
}

func (r *sanityPhotoRepo) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	return r.list(ctx, queryPhotosByCollection, map[string]string{"collectionId": collectionID})
}

func (r *sanityPhotoRepo) GetByCategoryID(ctx context.Context, categoryID string) ([]*models.Photo, error) {
	return r.list(ctx, queryPhotosByCategory, map[string]string{"categoryId": categoryID})
}

func (r *sanityPhotoRepo) GetForCollectionAdmin(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	return r.list(ctx, queryCollectionPhotosAdmin, map[string]string{"collectionId": collectionID})
}

func (r *sanityPhotoRepo) list(ctx context.Context, query string, params map[string]string) ([]*models.Photo, error) {
	var docs []*sanityPhoto
	if err := r.store.fetch(ctx, query, params, &docs); err != nil {
		return nil, err
	}

	photos := make([]*models.Photo, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			photos = append(photos, d.toModel())
		}
	}
	return photos, nil
}

// sanityCollectionRepo implements CollectionRepo over GROQ
type sanityCollectionRepo struct {
	store *SanityStore
}

func (r *sanityCollectionRepo) GetAll(ctx context.Context) ([]*models.Collection, error) {
	var docs []*sanityCollection
	if err := r.store.fetch(ctx, queryAllCollections, nil, &docs); err != nil {
		return nil, err
	}

	collections := make([]*models.Collection, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			collections = append(collections, d.toModel())
		}
	}
	return collections, nil
}

func (r *sanityCollectionRepo) GetBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	var doc *sanityCollection
	if err := r.store.fetch(ctx, queryCollectionBySlug, map[string]string{"slug": slug}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return doc.toModel(), nil
}

// sanityCategoryRepo implements CategoryRepo over GROQ
type sanityCategoryRepo struct {
	store *SanityStore
}

func (r *sanityCategoryRepo) GetAll(ctx context.Context) ([]*models.Category, error) {
	var docs []*sanityCategory
	if err := r.store.fetch(ctx, queryAllCategories, nil, &docs); err != nil {
		return nil, err
	}

	categories := make([]*models.Category, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			categories = append(categories, &models.Category{
				ID: d.ID, Title: d.Title, Slug: d.Slug, Description: d.Description, PhotoCount: d.PhotoCount,
			})
		}
	}
	return categories, nil
}

func (r *sanityCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var doc *sanityCategory
	if err := r.store.fetch(ctx, queryCategoryBySlug, map[string]string{"slug": slug}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &models.Category{
		ID: doc.ID, Title: doc.Title, Slug: doc.Slug, Description: doc.Description, PhotoCount: doc.PhotoCount,
	}, nil
}
