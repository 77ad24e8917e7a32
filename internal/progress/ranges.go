package progress

import "github.com/invoice-workbench/backend/internal/models"

// FileMeta is the name and byte size of one file selected for a batch.
type FileMeta struct {
	Name string
	Size int64
}

// LayoutRanges lays the files out as cumulative byte offsets in selection
// order: file i occupies [prevEnd, prevEnd+size_i). All files travel as one
// multipart payload, so only the aggregate byte count is observable; the
// ranges let per-file progress be derived from it.
func LayoutRanges(files []FileMeta) []models.FileByteRange {
	ranges := make([]models.FileByteRange, len(files))
	var offset int64
	for i, f := range files {
		ranges[i] = models.FileByteRange{
			Name:  f.Name,
			Start: offset,
			End:   offset + f.Size,
		}
		offset += f.Size
	}
	return ranges
}

// TotalBytes returns the end offset of the last range.
func TotalBytes(ranges []models.FileByteRange) int64 {
	if len(ranges) == 0 {
		return 0
	}
	return ranges[len(ranges)-1].End
}
