package models

import "time"

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// VersionResponse describes the running build
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
	Store     string `json:"store"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// AdminCollectionPhotosResponse is the JSON twin of the admin collection-photos view
type AdminCollectionPhotosResponse struct {
	CollectionID string   `json:"collectionId"`
	Title        string   `json:"title,omitempty"`
	Count        int      `json:"count"`
	Photos       []*Photo `json:"photos"`
}
