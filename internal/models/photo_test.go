package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPhoto() *Photo {
	return &Photo{
		ID:    "photo-1",
		Title: "Harbour at dusk",
		Slug:  "harbour-at-dusk",
	}
}

func TestPhotoValidate(t *testing.T) {
	t.Run("accepts a minimal photo", func(t *testing.T) {
		require.NoError(t, validPhoto().Validate())
	})

	t.Run("accepts a positive price", func(t *testing.T) {
		p := validPhoto()
		price := decimal.RequireFromString("49.90")
		p.Price = &price

		assert.NoError(t, p.Validate())
	})

	tests := []struct {
		name   string
		mutate func(p *Photo)
		field  string
	}{
		{"rejects missing title", func(p *Photo) { p.Title = "" }, "title"},
		{"rejects missing slug", func(p *Photo) { p.Slug = "" }, "slug"},
		{"rejects uppercase slug", func(p *Photo) { p.Slug = "Harbour" }, "slug"},
		{"rejects slug with spaces", func(p *Photo) { p.Slug = "harbour at dusk" }, "slug"},
		{"rejects slug longer than 96", func(p *Photo) { p.Slug = strings.Repeat("a", MaxSlugLength+1) }, "slug"},
		{"rejects zero price", func(p *Photo) { z := decimal.Zero; p.Price = &z }, "price"},
		{"rejects negative price", func(p *Photo) { n := decimal.NewFromInt(-5); p.Price = &n }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPhoto()
			tt.mutate(p)

			err := p.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Harbour at Dusk", "harbour-at-dusk"},
		{"  Black & White  ", "black-white"},
		{"2024: Iceland!", "2024-iceland"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateSlug(tt.title))
		})
	}

	t.Run("truncates to the maximum slug length", func(t *testing.T) {
		slug := GenerateSlug(strings.Repeat("word ", 40))

		assert.LessOrEqual(t, len(slug), MaxSlugLength)
		assert.True(t, IsValidSlug(slug))
	})
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrPhotoNotFound))
	assert.True(t, IsNotFound(ErrCollectionNotFound))
	assert.True(t, IsNotFound(ErrCategoryNotFound))
	assert.False(t, IsNotFound(ErrStoreUnavailable))
}
