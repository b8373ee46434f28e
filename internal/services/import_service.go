package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/repository"
)

// Document types found in a CMS export
const (
	docTypePhoto      = "photo"
	docTypeCollection = "collection"
	docTypeCategory   = "category"
	docTypeImageAsset = "sanity.imageAsset"

	draftPrefix      = "drafts."
	fileAssetPrefix  = "image@file://"
	maxExportLineLen = 16 << 20
)

type exportRef struct {
	Ref string `json:"_ref"`
}

type exportSlug struct {
	Current string `json:"current"`
}

type exportImage struct {
	Asset       *exportRef `json:"asset"`
	SanityAsset string     `json:"_sanityAsset"`
}

// exportDocument is the union of the document shapes in an NDJSON export
type exportDocument struct {
	ID        string     `json:"_id"`
	Type      string     `json:"_type"`
	CreatedAt *time.Time `json:"_createdAt"`

	Title          string                 `json:"title"`
	Slug           *exportSlug            `json:"slug"`
	Description    *string                `json:"description"`
	Price          *decimal.Decimal       `json:"price"`
	Image          *exportImage           `json:"image"`
	Collections    []exportRef            `json:"collections"`
	Categories     []exportRef            `json:"categories"`
	CoverImage     *exportRef             `json:"coverImage"`
	DateTaken      *time.Time             `json:"dateTaken"`
	CameraSettings *models.CameraSettings `json:"cameraSettings"`
	DisplayOrder   *float64               `json:"displayOrder"`

	// sanity.imageAsset
	URL              string `json:"url"`
	Path             string `json:"path"`
	OriginalFilename string `json:"originalFilename"`
}

// slug returns the export's slug, normalized when hand-edited into an
// invalid shape, or one generated from the title.
func (d *exportDocument) slug() string {
	if d.Slug != nil && d.Slug.Current != "" {
		if models.IsValidSlug(d.Slug.Current) {
			return d.Slug.Current
		}
		if slug := models.GenerateSlug(d.Slug.Current); slug != "" {
			return slug
		}
	}
	return models.GenerateSlug(d.Title)
}

// ImportStats summarizes an import run
type ImportStats struct {
	Categories  int
	Collections int
	Photos      int
	Assets      int
	Skipped     int
}

// ImportService loads a CMS NDJSON export into a local backend
type ImportService struct {
	seeder  repository.Seeder
	storage *AssetStorage
	exif    *EXIFService
	logger  *observability.Logger
}

// NewImportService creates a new ImportService.
// With a nil storage, image references are kept as remote asset URLs.
func NewImportService(seeder repository.Seeder, storage *AssetStorage, exifService *EXIFService, logger *observability.Logger) *ImportService {
	if logger == nil {
		logger = observability.GetLogger()
	}
	if exifService == nil {
		exifService = NewEXIFService()
	}
	return &ImportService{
		seeder:  seeder,
		storage: storage,
		exif:    exifService,
		logger:  logger,
	}
}

// Import reads an export from r and seeds categories, then collections, then photos.
// assetsDir is the export's root directory, used to resolve file-backed image assets.
// Parse errors abort before anything is written.
func (s *ImportService) Import(ctx context.Context, r io.Reader, assetsDir string) (*ImportStats, error) {
	stats := &ImportStats{}

	docs, err := s.parse(r, stats)
	if err != nil {
		return stats, err
	}

	assets := make(map[string]*exportDocument)
	known := map[string]map[string]bool{
		docTypeCollection: {},
		docTypeCategory:   {},
	}
	for _, d := range docs {
		switch d.Type {
		case docTypeImageAsset:
			assets[d.ID] = d
		case docTypeCollection, docTypeCategory:
			known[d.Type][d.ID] = true
		}
	}

	for _, d := range docs {
		if d.Type != docTypeCategory {
			continue
		}
		category := &models.Category{ID: d.ID, Title: d.Title, Slug: d.slug(), Description: d.Description}
		if !s.valid(d, category.Validate(), stats) {
			continue
		}
		if err := s.seeder.SeedCategory(ctx, category); err != nil {
			return stats, err
		}
		stats.Categories++
	}

	for _, d := range docs {
		if d.Type != docTypeCollection {
			continue
		}
		collection := &models.Collection{
			ID:           d.ID,
			Title:        d.Title,
			Slug:         d.slug(),
			Description:  d.Description,
			DisplayOrder: d.DisplayOrder,
			CreatedAt:    d.CreatedAt,
		}
		if d.CoverImage != nil && d.CoverImage.Ref != "" {
			cover := strings.TrimPrefix(d.CoverImage.Ref, draftPrefix)
			collection.CoverPhotoID = &cover
		}
		if !s.valid(d, collection.Validate(), stats) {
			continue
		}
		if err := s.seeder.SeedCollection(ctx, collection); err != nil {
			return stats, err
		}
		stats.Collections++
	}

	for _, d := range docs {
		if d.Type != docTypePhoto {
			continue
		}
		photo := &models.Photo{
			ID:             d.ID,
			Title:          d.Title,
			Slug:           d.slug(),
			Description:    d.Description,
			Price:          d.Price,
			DateTaken:      d.DateTaken,
			CameraSettings: d.CameraSettings,
			DisplayOrder:   d.DisplayOrder,
			CollectionIDs:  s.resolveRefs(d, d.Collections, known[docTypeCollection]),
			CategoryIDs:    s.resolveRefs(d, d.Categories, known[docTypeCategory]),
		}
		if d.CreatedAt != nil {
			photo.CreatedAt = *d.CreatedAt
		}
		if !s.valid(d, photo.Validate(), stats) {
			continue
		}

		stored, err := s.attachImage(photo, d.Image, assets, assetsDir)
		if err != nil {
			s.logger.WithField("photo_id", photo.ID).WithError(err).Warn("Image asset could not be imported")
		}
		if stored {
			stats.Assets++
		}
		if photo.CameraSettings.IsEmpty() {
			photo.CameraSettings = nil
		}

		if err := s.seeder.SeedPhoto(ctx, photo); err != nil {
			return stats, err
		}
		stats.Photos++
	}

	s.logger.WithFields(map[string]interface{}{
		"categories":  stats.Categories,
		"collections": stats.Collections,
		"photos":      stats.Photos,
		"assets":      stats.Assets,
		"skipped":     stats.Skipped,
	}).Info("Import complete")

	return stats, nil
}

func (s *ImportService) parse(r io.Reader, stats *ImportStats) ([]*exportDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxExportLineLen)

	var docs []*exportDocument
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var d exportDocument
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		switch d.Type {
		case docTypePhoto, docTypeCollection, docTypeCategory, docTypeImageAsset:
		default:
			stats.Skipped++
			continue
		}
		if strings.HasPrefix(d.ID, draftPrefix) {
			stats.Skipped++
			continue
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		docs = append(docs, &d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return docs, nil
}

func (s *ImportService) valid(d *exportDocument, err error, stats *ImportStats) bool {
	if err == nil {
		return true
	}
	s.logger.WithFields(map[string]interface{}{
		"id":   d.ID,
		"type": d.Type,
	}).WithError(err).Warn("Skipping invalid document")
	stats.Skipped++
	return false
}

// resolveRefs keeps the references that point at documents in the export.
// Dangling references would be projected as null by the CMS.
func (s *ImportService) resolveRefs(d *exportDocument, refs []exportRef, known map[string]bool) []string {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		id := strings.TrimPrefix(ref.Ref, draftPrefix)
		if id == "" || seen[id] {
			continue
		}
		if !known[id] {
			s.logger.WithFields(map[string]interface{}{"id": d.ID, "ref": id}).Debug("Dropping dangling reference")
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// attachImage sets the photo's ImagePath. File-backed assets are copied into
// storage and their EXIF fills the gaps in DateTaken and CameraSettings.
// Returns true when a file was stored.
func (s *ImportService) attachImage(photo *models.Photo, img *exportImage, assets map[string]*exportDocument, assetsDir string) (bool, error) {
	if img == nil {
		return false, nil
	}

	localPath := ""
	if strings.HasPrefix(img.SanityAsset, fileAssetPrefix) {
		localPath = strings.TrimPrefix(img.SanityAsset, fileAssetPrefix)
	}

	if localPath == "" && img.Asset != nil {
		asset, ok := assets[img.Asset.Ref]
		if !ok {
			return false, fmt.Errorf("asset %s not found in export", img.Asset.Ref)
		}
		photo.ImagePath = asset.URL
		return false, nil
	}

	if localPath == "" {
		return false, nil
	}
	if s.storage == nil || assetsDir == "" {
		return false, fmt.Errorf("file asset %s needs an assets directory", localPath)
	}

	f, err := os.Open(filepath.Join(assetsDir, filepath.FromSlash(localPath)))
	if err != nil {
		return false, err
	}
	defer f.Close()

	meta := s.exif.ExtractFromReader(f)
	if photo.DateTaken == nil {
		photo.DateTaken = meta.DateTaken
	}
	if photo.CameraSettings.IsEmpty() {
		photo.CameraSettings = meta.CameraSettings()
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}

	folderDate := photo.CreatedAt
	if photo.DateTaken != nil {
		folderDate = *photo.DateTaken
	}
	stored, err := s.storage.Store(f, photo.ID+strings.ToLower(filepath.Ext(localPath)), folderDate)
	if err != nil {
		return false, err
	}
	photo.ImagePath = stored
	return true, nil
}
