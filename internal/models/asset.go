package models

// AssetError reports a problem with a locally stored image asset
type AssetError struct {
	Message string
}

func (e AssetError) Error() string {
	return e.Message
}

var (
	ErrAssetNotFound     = AssetError{"asset not found"}
	ErrPathTraversal     = AssetError{"path traversal detected"}
	ErrInvalidExtension  = AssetError{"file extension not allowed"}
	ErrFileTooLarge      = AssetError{"file exceeds maximum size"}
	ErrUnsupportedFormat = AssetError{"image format not supported"}
)
