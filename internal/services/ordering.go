package services

import (
	"cmp"
	"slices"

	"github.com/photogallery/server/internal/models"
)

// compareDisplayOrder orders ascending with absent values last
func compareDisplayOrder(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// sortPhotosForListing orders by displayOrder, then newest first
func sortPhotosForListing(photos []*models.Photo) {
	slices.SortStableFunc(photos, func(a, b *models.Photo) int {
		if c := compareDisplayOrder(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// sortPhotosForAdmin orders by displayOrder, then title
func sortPhotosForAdmin(photos []*models.Photo) {
	slices.SortStableFunc(photos, func(a, b *models.Photo) int {
		if c := compareDisplayOrder(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
}

func sortCollections(collections []*models.Collection) {
	slices.SortStableFunc(collections, func(a, b *models.Collection) int {
		if c := compareDisplayOrder(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
}

func sortCategories(categories []*models.Category) {
	slices.SortStableFunc(categories, func(a, b *models.Category) int {
		return cmp.Compare(a.Title, b.Title)
	})
}
