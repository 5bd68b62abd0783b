package models

import "io"

// RemoteFile represents a child returned by the Drive listing API
type RemoteFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	// TargetID is set only for shortcuts
	TargetID       string `json:"target_id,omitempty"`
	TargetMimeType string `json:"target_mime_type,omitempty"`
}

// Page is one page of a folder listing
type Page struct {
	Files         []RemoteFile
	NextPageToken string
}

// DriveItem is a single exportable leaf produced by the authenticated walk.
// Path is the destination directory relative to the export root and never
// includes the item's own name.
type DriveItem struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Mime     string   `json:"mime"`
	Category Category `json:"category"`
}

// Export is the content produced by an exporter for one remote item.
// The caller must close Body.
type Export struct {
	Name string
	Body io.ReadCloser
}
