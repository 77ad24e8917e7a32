package progress

import "github.com/invoice-workbench/backend/internal/models"

// Upload transfer alone is capped at 80% to leave visible headroom for the
// server-side processing phase; a fully transmitted file sits at 90% until
// the batch call resolves. 100 is reserved for the terminal stages, so
// nothing mid-flight ever shows above 99.
const (
	uploadCeiling     = 80
	processingFloor   = 90
	preResolutionGate = 99
)

// Advance derives the next per-file states from the ranges, the cumulative
// bytes transferred, and the previous states. It is a pure function: each
// next value depends only on its previous snapshot plus the new byte count,
// which keeps updates loss-free under rapid successive events. Files in a
// terminal stage are held fixed.
func Advance(ranges []models.FileByteRange, bytesLoaded int64, prev []models.FileUploadState) []models.FileUploadState {
	next := make([]models.FileUploadState, len(prev))
	copy(next, prev)

	for i := range ranges {
		if i >= len(next) {
			break
		}
		st := next[i]
		if st.Stage.Terminal() {
			continue
		}

		span := ranges[i].End - ranges[i].Start
		if span < 1 {
			span = 1 // zero-byte files still get a span
		}
		loaded := bytesLoaded - ranges[i].Start
		if loaded < 0 {
			loaded = 0
		}
		if loaded > span {
			loaded = span
		}
		ratio := float64(loaded) / float64(span)

		if ratio >= 1 {
			// Fully transmitted; presumed server-side processing, but
			// unconfirmed, so capped below complete.
			st.Stage = models.StageProcessing
			if st.Progress < processingFloor {
				st.Progress = processingFloor
			}
		} else {
			st.Stage = models.StageUploading
			if p := int(ratio * uploadCeiling); p > st.Progress {
				st.Progress = p
			}
		}

		if st.Progress > preResolutionGate {
			st.Progress = preResolutionGate
		}
		if st.Progress < 0 {
			st.Progress = 0
		}
		next[i] = st
	}
	return next
}
