package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"invoice.pdf", "invoice.pdf", false},
		{"  invoice.pdf ", "invoice.pdf", false},
		{"sub/dir/invoice.pdf", "invoice.pdf", false},
		{"../../etc/passwd", "passwd", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
	}

	for _, tt := range tests {
		got, err := SafeName(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	info, err := store.Save("invoice.pdf", strings.NewReader("pdf bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "invoice.pdf", info.Name)
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	content, gotInfo, err := store.Open("invoice.pdf")
	assert.NoError(t, err)
	defer content.Close()
	data, _ := io.ReadAll(content)
	assert.Equal(t, "pdf bytes", string(data))
	assert.Equal(t, info.Name, gotInfo.Name)
}

func TestLocalStoreSaveSanitizesName(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	info, err := store.Save("../escape/invoice.pdf", strings.NewReader("x"))
	assert.NoError(t, err)
	assert.Equal(t, "invoice.pdf", info.Name)

	_, _, err = store.Open("invoice.pdf")
	assert.NoError(t, err)
}

func TestLocalStoreReplaceSameName(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	store.Save("a.pdf", strings.NewReader("v1"))
	info, err := store.Save("a.pdf", strings.NewReader("longer v2"))
	assert.NoError(t, err)
	assert.Equal(t, int64(9), info.Size)

	list, err := store.List(0)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLocalStoreListLimit(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	store.Save("a.pdf", strings.NewReader("a"))
	store.Save("b.pdf", strings.NewReader("b"))
	store.Save("c.pdf", strings.NewReader("c"))

	list, err := store.List(2)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLocalStoreDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	store.Save("a.pdf", strings.NewReader("a"))
	assert.NoError(t, store.Delete("a.pdf"))

	_, _, err = store.Open("a.pdf")
	assert.Error(t, err)
	assert.Error(t, store.Delete("a.pdf"))
}

func TestLocalStoreReindexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	first, err := NewLocalStore(dir)
	assert.NoError(t, err)
	first.Save("a.pdf", strings.NewReader("kept"))

	second, err := NewLocalStore(dir)
	assert.NoError(t, err)
	content, info, err := second.Open("a.pdf")
	assert.NoError(t, err)
	defer content.Close()
	assert.Equal(t, int64(4), info.Size)
}
