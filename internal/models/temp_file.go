package models

import "time"

// TempFile represents an uploaded file held on local disk for one request.
type TempFile struct {
	FileName   string    `json:"file_name"`
	StoredPath string    `json:"stored_path"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}
