package models

import "time"

// FileInfo represents metadata about a stored original document. Documents
// are addressed by filename so the review UI can fetch them from a
// predictable location.
type FileInfo struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
