package models

// UploadStage is the lifecycle position of one file in a batch upload.
type UploadStage string

const (
	StageQueued     UploadStage = "queued"
	StageUploading  UploadStage = "uploading"
	StageProcessing UploadStage = "processing"
	StageComplete   UploadStage = "complete"
	StageError      UploadStage = "error"
)

// Terminal reports whether the stage can no longer change.
func (s UploadStage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// FileUploadState is the tracked progress of one file within a batch.
// Progress is 0-100 and non-decreasing while the stage is not terminal;
// 100 is reserved for the terminal stages. Message is set only on error.
type FileUploadState struct {
	Name     string      `json:"name"`
	Stage    UploadStage `json:"stage"`
	Progress int         `json:"progress"`
	Message  string      `json:"message,omitempty"`
}

// FileByteRange is the cumulative byte span a file occupies within the
// concatenated multipart upload stream. Computed once per upload attempt and
// immutable for that attempt.
type FileByteRange struct {
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}
