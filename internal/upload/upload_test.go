package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/roomboard/internal/apperr"
)

func TestClassifyAndAllowList(t *testing.T) {
	tests := []struct {
		name     string
		allowed  bool
		category string
	}{
		{"photo.png", true, CategoryImage},
		{"PHOTO.JPEG", true, CategoryImage},
		{"clip.webm", true, CategoryVideo},
		{"song.flac", true, CategoryAudio},
		{"report.pdf", true, CategoryDocument},
		{"archive.zip", false, CategoryDocument},
		{"noext", false, CategoryDocument},
		{"trailingdot.", false, CategoryDocument},
		{"", false, CategoryDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.allowed, IsAllowed(tt.name))
			require.Equal(t, tt.category, Classify(tt.name))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.png":            "photo.png",
		"my holiday pic.jpg":   "my_holiday_pic.jpg",
		"résumé.pdf":           "resume.pdf",
		"../../etc/passwd.txt": "etc_passwd.txt",
		"..\\secret.doc":       "secret.doc",
		"  spaced  .mp3":       "spaced_.mp3",
		"a$b%c.png":            "abc.png",
		"report..final.pdf":    "report.final.pdf",
		"a...b....txt":         "a.b.txt",
	}
	for in, want := range tests {
		require.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestDisplayNameKeepsExtension(t *testing.T) {
	require.Equal(t, "file.png", displayName("日本語.png"))
	require.Equal(t, "file.png", displayName("..png"))
	require.Equal(t, "Notes.TXT", displayName("Notes.TXT"))
}

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	ing, err := NewIngestor(filepath.Join(t.TempDir(), "uploads"), "/uploads/", zerolog.Nop())
	require.NoError(t, err)
	return ing
}

func TestIngestStoresFile(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 64)
	res, err := ing.Ingest(context.Background(), strings.NewReader(png), "my photo.png")
	req.NoError(err)

	req.Equal("my_photo.png", res.Attachment.Name)
	req.Equal(CategoryImage, res.Attachment.Type)
	req.True(strings.HasSuffix(res.StoredName, "_my_photo.png"))
	req.Equal("/uploads/"+res.StoredName, res.Attachment.URL)
	req.Equal("image/png", res.ContentType)
	req.Equal(int64(len(png)), res.Size)

	data, err := os.ReadFile(filepath.Join(ing.Dir(), res.StoredName))
	req.NoError(err)
	req.Equal(png, string(data))
}

func TestDiscard(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	res, err := ing.Ingest(context.Background(), strings.NewReader("draft"), "notes.txt")
	req.NoError(err)

	ing.Discard(res)
	_, err = os.Stat(filepath.Join(ing.Dir(), res.StoredName))
	req.True(errors.Is(err, os.ErrNotExist))

	// A second discard is a no-op
	ing.Discard(res)
}

func TestIngestUniqueNames(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	a, err := ing.Ingest(context.Background(), strings.NewReader("one"), "notes.txt")
	req.NoError(err)
	b, err := ing.Ingest(context.Background(), strings.NewReader("two"), "notes.txt")
	req.NoError(err)
	req.NotEqual(a.StoredName, b.StoredName)
}

func TestIngestRejects(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	_, err := ing.Ingest(context.Background(), strings.NewReader("x"), "")
	req.ErrorIs(err, apperr.ErrValidation)
	req.EqualError(err, "No file selected")

	_, err = ing.Ingest(context.Background(), strings.NewReader("x"), "archive.zip")
	req.ErrorIs(err, apperr.ErrValidation)
	req.EqualError(err, "File type not allowed")

	entries, err := os.ReadDir(ing.Dir())
	req.NoError(err)
	req.Empty(entries)
}

type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestIngestRemovesPartialFile(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	_, err := ing.Ingest(context.Background(), &failingReader{}, "notes.txt")
	req.ErrorIs(err, apperr.ErrStorage)

	entries, err := os.ReadDir(ing.Dir())
	req.NoError(err)
	req.Empty(entries)
}

func TestIngestCancelledContext(t *testing.T) {
	req := require.New(t)
	ing := newTestIngestor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Ingest(ctx, strings.NewReader(strings.Repeat("a", sniffLen*2)), "notes.txt")
	req.ErrorIs(err, apperr.ErrStorage)

	entries, err := os.ReadDir(ing.Dir())
	req.NoError(err)
	req.Empty(entries)
}
