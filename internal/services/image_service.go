package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/observability"
)

// Transformation limits
const (
	MaxImageDimension  = 4000
	DefaultJPEGQuality = 80
)

// Fit modes
const (
	FitMax  = "max"
	FitCrop = "crop"
)

// ImageOptions is the parsed transformation block of an image URL
type ImageOptions struct {
	Width      int
	Height     int
	Quality    int
	Fit        string
	AutoFormat bool
}

// IsZero returns true when no transformation was requested
func (o ImageOptions) IsZero() bool {
	return o == ImageOptions{}
}

// ParseImageOptions reads w, h, q, fit and auto from a query string.
// Unknown parameters are ignored.
func ParseImageOptions(q url.Values) (ImageOptions, error) {
	var opts ImageOptions
	var err error

	if opts.Width, err = intParam(q, "w", 1, MaxImageDimension); err != nil {
		return opts, err
	}
	if opts.Height, err = intParam(q, "h", 1, MaxImageDimension); err != nil {
		return opts, err
	}
	if opts.Quality, err = intParam(q, "q", 1, 100); err != nil {
		return opts, err
	}

	switch fit := q.Get("fit"); fit {
	case "", FitMax, FitCrop:
		opts.Fit = fit
	default:
		return opts, fmt.Errorf("unsupported fit %q", fit)
	}

	for _, mode := range strings.Split(q.Get("auto"), ",") {
		if strings.TrimSpace(mode) == "format" {
			opts.AutoFormat = true
		}
	}
	return opts, nil
}

func intParam(q url.Values, name string, min, max int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, min, max)
	}
	return v, nil
}

// TransformedImage is an encoded rendition ready to be served
type TransformedImage struct {
	Data        []byte
	ContentType string
}

// ImageService renders locally stored assets with the requested transformation
type ImageService struct {
	storage *AssetStorage
	exif    *EXIFService
	metrics *observability.ImageMetrics
}

// NewImageService creates a new ImageService
func NewImageService(storage *AssetStorage, exifService *EXIFService, metrics *observability.ImageMetrics) *ImageService {
	return &ImageService{
		storage: storage,
		exif:    exifService,
		metrics: metrics,
	}
}

// Storage returns the underlying asset storage
func (s *ImageService) Storage() *AssetStorage {
	return s.storage
}

// Transform decodes the stored asset, corrects its orientation, resizes it
// and encodes the result.
func (s *ImageService) Transform(ctx context.Context, storedPath string, opts ImageOptions) (*TransformedImage, error) {
	if !IsSupportedFormat(storedPath) {
		return nil, models.ErrUnsupportedFormat
	}

	f, _, err := s.storage.Open(storedPath)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}

	start := time.Now()
	out, err := s.render(data, storedPath, opts)
	format := "unknown"
	if out != nil {
		format = out.ContentType
	}
	s.metrics.RecordTransform(ctx, format, time.Since(start), err == nil)
	return out, err
}

func (s *ImageService) render(data []byte, storedPath string, opts ImageOptions) (*TransformedImage, error) {
	var img image.Image
	var format string
	var err error

	if IsHEIC(storedPath) {
		img, err = decodeHEIC(data)
		format = "heic"
	} else {
		img, format, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	orientation := s.exif.ExtractFromBytes(data).Orientation
	img = applyOrientation(img, orientation)
	img = resize(img, opts)

	var buf bytes.Buffer
	if format == "png" && (!opts.AutoFormat || !isOpaque(img)) {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return &TransformedImage{Data: buf.Bytes(), ContentType: "image/png"}, nil
	}

	quality := opts.Quality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &TransformedImage{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

// resize applies the requested dimensions. Crop with both dimensions fills the
// box from the center; everything else keeps the aspect ratio and never upscales.
func resize(img image.Image, opts ImageOptions) image.Image {
	if opts.Width == 0 && opts.Height == 0 {
		return img
	}

	if opts.Fit == FitCrop && opts.Width > 0 && opts.Height > 0 {
		return imaging.Fill(img, opts.Width, opts.Height, imaging.Center, imaging.Lanczos)
	}

	bounds := img.Bounds()
	maxW, maxH := opts.Width, opts.Height
	if maxW == 0 {
		maxW = bounds.Dx()
	}
	if maxH == 0 {
		maxH = bounds.Dy()
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// applyOrientation corrects image orientation based on EXIF data
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		// Transpose
		return imaging.Rotate270(imaging.FlipH(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		// Transverse
		return imaging.Rotate90(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// decodeHEIC decodes a HEIC/HEIF image using goheif (pure Go)
func decodeHEIC(data []byte) (image.Image, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode HEIC image: %w", err)
	}
	return img, nil
}
