package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoice-workbench/backend/internal/models"
)

func TestLayoutRanges(t *testing.T) {
	ranges := LayoutRanges([]FileMeta{
		{Name: "a.pdf", Size: 100},
		{Name: "b.pdf", Size: 300},
	})

	assert.Equal(t, int64(0), ranges[0].Start)
	assert.Equal(t, int64(100), ranges[0].End)
	assert.Equal(t, int64(100), ranges[1].Start)
	assert.Equal(t, int64(400), ranges[1].End)
	assert.Equal(t, int64(400), TotalBytes(ranges))
}

func TestLayoutRangesEmpty(t *testing.T) {
	assert.Empty(t, LayoutRanges(nil))
	assert.Equal(t, int64(0), TotalBytes(nil))
}

func TestAdvanceSplitsSharedCounter(t *testing.T) {
	tr := NewTracker([]FileMeta{
		{Name: "a.pdf", Size: 100},
		{Name: "b.pdf", Size: 300},
	})

	// 250 bytes in: the first file is fully transmitted, the second is at
	// 150/300.
	tr.Observe(250)
	states := tr.Snapshot()

	assert.Equal(t, models.StageProcessing, states[0].Stage)
	assert.Equal(t, 90, states[0].Progress)
	assert.Equal(t, models.StageUploading, states[1].Stage)
	assert.Equal(t, 40, states[1].Progress)
}

func TestAdvanceProgressNeverDecreases(t *testing.T) {
	tr := NewTracker([]FileMeta{{Name: "a.pdf", Size: 100}})

	tr.Observe(80)
	first := tr.Snapshot()[0].Progress
	assert.Equal(t, 64, first)

	// A lower byte count must not pull progress backwards.
	tr.Observe(40)
	assert.Equal(t, first, tr.Snapshot()[0].Progress)

	tr.Observe(100)
	assert.Equal(t, 90, tr.Snapshot()[0].Progress)
}

func TestAdvanceCapsBelowTerminal(t *testing.T) {
	tr := NewTracker([]FileMeta{{Name: "a.pdf", Size: 10}})

	// However long the upload sits fully transmitted, it never reaches 100
	// without batch resolution.
	for i := 0; i < 50; i++ {
		tr.Observe(10)
	}
	st := tr.Snapshot()[0]
	assert.Equal(t, models.StageProcessing, st.Stage)
	assert.LessOrEqual(t, st.Progress, 99)
}

func TestAdvanceZeroByteFile(t *testing.T) {
	tr := NewTracker([]FileMeta{
		{Name: "empty.pdf", Size: 0},
		{Name: "b.pdf", Size: 100},
	})

	// A zero-byte file occupies an empty range; any bytes past its start
	// count it as fully transmitted.
	tr.Observe(50)
	states := tr.Snapshot()
	assert.Equal(t, models.StageProcessing, states[0].Stage)
	assert.Equal(t, 90, states[0].Progress)
	assert.Equal(t, models.StageUploading, states[1].Stage)
}

func TestCompleteResolvesAllFiles(t *testing.T) {
	tr := NewTracker([]FileMeta{
		{Name: "a.pdf", Size: 100},
		{Name: "b.pdf", Size: 100},
	})
	tr.Observe(120)
	tr.Complete()

	for _, st := range tr.Snapshot() {
		assert.Equal(t, models.StageComplete, st.Stage)
		assert.Equal(t, 100, st.Progress)
		assert.Empty(t, st.Message)
	}
	assert.True(t, tr.Resolved())

	// Late byte events are ignored after resolution.
	tr.Observe(10)
	assert.Equal(t, models.StageComplete, tr.Snapshot()[0].Stage)
}

func TestFailMarksAllFilesUniformly(t *testing.T) {
	tr := NewTracker([]FileMeta{
		{Name: "a.pdf", Size: 100},
		{Name: "b.pdf", Size: 100},
	})
	tr.Observe(150)
	tr.Fail("Server error: 502")

	for _, st := range tr.Snapshot() {
		assert.Equal(t, models.StageError, st.Stage)
		assert.Equal(t, 100, st.Progress)
		assert.Equal(t, "Server error: 502", st.Message)
	}
	assert.True(t, tr.Resolved())
}

func TestNewTrackerStartsQueued(t *testing.T) {
	tr := NewTracker([]FileMeta{{Name: "a.pdf", Size: 100}})
	st := tr.Snapshot()[0]
	assert.Equal(t, models.StageQueued, st.Stage)
	assert.Equal(t, 0, st.Progress)
	assert.False(t, tr.Resolved())
}
