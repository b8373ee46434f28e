package services

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/photogallery/server/internal/models"
)

// EXIFData contains the metadata the gallery reads from an image
type EXIFData struct {
	CameraMake   *string
	CameraModel  *string
	LensModel    *string
	Aperture     *string
	ShutterSpeed *string
	ISO          *int
	Orientation  int
	DateTaken    *time.Time
}

// CameraSettings converts the capture details into the photo projection shape.
// Returns nil when nothing was recorded.
func (d *EXIFData) CameraSettings() *models.CameraSettings {
	if d == nil {
		return nil
	}

	settings := &models.CameraSettings{
		Camera:       cameraName(d.CameraMake, d.CameraModel),
		Lens:         d.LensModel,
		Aperture:     d.Aperture,
		ShutterSpeed: d.ShutterSpeed,
	}
	if d.ISO != nil {
		iso := strconv.Itoa(*d.ISO)
		settings.ISO = &iso
	}
	if settings.IsEmpty() {
		return nil
	}
	return settings
}

// cameraName joins make and model, skipping the make when the model already starts with it
func cameraName(maker, model *string) *string {
	switch {
	case model == nil && maker == nil:
		return nil
	case model == nil:
		return maker
	case maker == nil || strings.HasPrefix(strings.ToLower(*model), strings.ToLower(*maker)):
		return model
	}
	name := *maker + " " + *model
	return &name
}

// EXIFService extracts EXIF metadata from images
type EXIFService struct{}

// NewEXIFService creates a new EXIFService
func NewEXIFService() *EXIFService {
	return &EXIFService{}
}

// ExtractFromBytes extracts EXIF data from image bytes
func (s *EXIFService) ExtractFromBytes(data []byte) *EXIFData {
	return s.ExtractFromReader(bytes.NewReader(data))
}

// ExtractFromReader extracts EXIF data from an io.Reader.
// Images without EXIF yield empty data with the default orientation.
func (s *EXIFService) ExtractFromReader(r io.Reader) *EXIFData {
	result := &EXIFData{Orientation: 1}

	x, err := exif.Decode(r)
	if err != nil {
		return result
	}

	result.CameraMake = stringTag(x, exif.Make)
	result.CameraModel = stringTag(x, exif.Model)
	result.LensModel = stringTag(x, exif.LensModel)

	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			val := fmt.Sprintf("f/%.1f", float64(num)/float64(denom))
			result.Aperture = &val
		}
	}

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			val := formatExposure(num, denom)
			result.ShutterSpeed = &val
		}
	}

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if val, err := tag.Int(0); err == nil {
			result.ISO = &val
		}
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if val, err := tag.Int(0); err == nil && val >= 1 && val <= 8 {
			result.Orientation = val
		}
	}

	if tm, err := x.DateTime(); err == nil {
		result.DateTaken = &tm
	}

	return result
}

func stringTag(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	val, err := tag.StringVal()
	val = strings.TrimSpace(strings.TrimRight(val, "\x00"))
	if err != nil || val == "" {
		return nil
	}
	return &val
}

// formatExposure renders an exposure time the way cameras display it
func formatExposure(num, denom int64) string {
	switch {
	case denom == 1:
		return fmt.Sprintf("%ds", num)
	case num == 1:
		return fmt.Sprintf("1/%ds", denom)
	case num > denom:
		return strconv.FormatFloat(float64(num)/float64(denom), 'f', 1, 64) + "s"
	case num > 0 && denom%num == 0:
		return fmt.Sprintf("1/%ds", denom/num)
	default:
		return fmt.Sprintf("%d/%ds", num, denom)
	}
}

func init() {
	exif.RegisterParsers()
}
