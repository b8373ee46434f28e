package services

// GalleryColumns is the number of columns the gallery pages render
const GalleryColumns = 3

// Columns distributes items round-robin into exactly k columns.
// Item i lands in column i mod k and keeps its relative order there.
// Columns with nothing in them are empty, never nil. k below 1 is treated as 1.
func Columns[T any](items []T, k int) [][]T {
	if k < 1 {
		k = 1
	}

	columns := make([][]T, k)
	for i := range columns {
		columns[i] = make([]T, 0, (len(items)+k-1)/k)
	}
	for i, item := range items {
		columns[i%k] = append(columns[i%k], item)
	}
	return columns
}
