package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LukasBrandt/ShopCore/internal/pkg/imageprocessor"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

// MaxUploadBytes bounds a single uploaded file, enforced before any
// transcoding work runs.
const MaxUploadBytes = 10 << 20 // 10 MiB

var (
	// ErrInvalidInput marks rejected uploads: wrong content type,
	// missing file, disallowed extension. Surfaced to the caller
	// immediately, no retry.
	ErrInvalidInput = errors.New("upload: invalid input")

	// ErrTooLarge marks uploads above MaxUploadBytes.
	ErrTooLarge = errors.New("upload: file too large")
)

// Transcoder is the slice of imageprocessor the service needs. An
// interface so tests can substitute a fake without the WebP encoder.
type Transcoder interface {
	Transcode(src []byte) (*imageprocessor.Result, error)
}

// Service ingests uploaded files for an entity: transcode, write the
// derivatives through the storage layout, return their public paths.
// It writes files only; persisting image records stays with the HTTP
// handler, which keeps the pipeline testable without a database.
type Service struct {
	layout *storage.Layout
	tc     Transcoder
}

// NewService creates an ingestion service.
func NewService(layout *storage.Layout, tc Transcoder) *Service {
	return &Service{layout: layout, tc: tc}
}

// FileResult describes one successfully ingested upload. Paths are
// ordered primary first, then thumbnails smallest to largest.
type FileResult struct {
	Filename    string   `json:"filename"`
	Paths       []string `json:"paths"`
	Size        int64    `json:"size"`
	ContentType string   `json:"content_type"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
}

// FileError records a per-file ingestion failure.
type FileError struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// Ingest processes a single uploaded file for an entity and returns
// the created derivative's public paths.
func (s *Service) Ingest(kind string, entityID uint, fh *multipart.FileHeader) (*FileResult, error) {
	if fh.Size > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	declared := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(declared, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", ErrInvalidInput, declared)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading upload %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, fh.Filename)
	}

	// Sniff defense on top of the declared type check
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := ValidateImageBySniff(fh.Filename, head)
	if err != nil {
		return nil, err
	}

	res, err := s.tc.Transcode(data)
	if err != nil {
		return nil, err
	}

	// All derivatives share one basename; thumbnails append their
	// profile label so they are recognizable by name alone.
	uploadName := s.layout.NewUploadName(".webp")
	base := strings.TrimSuffix(uploadName, ".webp")

	paths := make([]string, 0, len(res.Thumbnails)+1)
	abs, err := s.layout.SaveFile(bytes.NewReader(res.Primary), kind, entityID, uploadName)
	if err != nil {
		return nil, err
	}
	public, err := s.layout.PublicPath(abs)
	if err != nil {
		return nil, err
	}
	paths = append(paths, public)

	for _, thumb := range res.Thumbnails {
		name := fmt.Sprintf("%s-%s.webp", base, thumb.Label)
		abs, err := s.layout.SaveFile(bytes.NewReader(thumb.Data), kind, entityID, name)
		if err != nil {
			return nil, err
		}
		public, err := s.layout.PublicPath(abs)
		if err != nil {
			return nil, err
		}
		paths = append(paths, public)
	}

	return &FileResult{
		Filename:    fh.Filename,
		Paths:       paths,
		Size:        fh.Size,
		ContentType: detected,
		Width:       res.Width,
		Height:      res.Height,
	}, nil
}

// IngestAll processes a batch of uploads, isolating failures per file.
// Already-produced files for other uploads are never rolled back; an
// orphaned file is cleaned up later by reconciliation, a lost upload
// is not.
func (s *Service) IngestAll(kind string, entityID uint, files []*multipart.FileHeader) ([]FileResult, []FileError) {
	var results []FileResult
	var failures []FileError

	for _, fh := range files {
		res, err := s.Ingest(kind, entityID, fh)
		if err != nil {
			log.Error(fmt.Sprintf("[Upload] Failed to ingest %s for %s/%d: %v", fh.Filename, kind, entityID, err))
			failures = append(failures, FileError{Filename: fh.Filename, Reason: err.Error(), Err: err})
			continue
		}
		results = append(results, *res)
	}

	return results, failures
}
