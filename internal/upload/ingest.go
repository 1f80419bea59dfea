package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/models"
)

// sniffLen is how many leading bytes are inspected for content detection.
const sniffLen = 3072

// Result describes a stored upload.
type Result struct {
	Attachment  models.Attachment
	StoredName  string // <token>_<sanitized name>
	ContentType string // Detected from content, not from the extension
	Size        int64
}

// Ingestor writes uploads under Dir and exposes them below URLPrefix.
type Ingestor struct {
	dir       string
	urlPrefix string
	logger    zerolog.Logger
}

// NewIngestor creates the upload directory if needed.
func NewIngestor(dir, urlPrefix string, logger zerolog.Logger) (*Ingestor, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Ingestor{dir: dir, urlPrefix: urlPrefix, logger: logger}, nil
}

// Dir returns the directory uploads are written to.
func (i *Ingestor) Dir() string {
	return i.dir
}

// Ingest validates originalName, then stores r under a unique name.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader, originalName string) (*Result, error) {
	if originalName == "" {
		return nil, apperr.Validation("No file selected")
	}
	if !IsAllowed(originalName) {
		return nil, apperr.Validation("File type not allowed")
	}

	name := displayName(originalName)
	stored := uuid.NewString() + "_" + name
	fullPath := filepath.Join(i.dir, stored)

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperr.Storage(err)
	}
	head = head[:n]

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	size, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), &ctxReader{ctx: ctx, r: r}))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, apperr.Storage(err)
	}

	contentType := mimetype.Detect(head).String()

	i.logger.Info().
		Str("file", stored).
		Str("category", Classify(name)).
		Str("content_type", contentType).
		Int64("size", size).
		Msg("upload stored")

	return &Result{
		Attachment: models.Attachment{
			URL:  path.Join(i.urlPrefix, stored),
			Name: name,
			Type: Classify(name),
		},
		StoredName:  stored,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Discard removes a stored upload that could not be attached to a message.
func (i *Ingestor) Discard(res *Result) {
	if err := os.Remove(filepath.Join(i.dir, res.StoredName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn().Err(err).Str("file", res.StoredName).Msg("failed to discard upload")
	}
}

// ctxReader stops a copy once the request context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
