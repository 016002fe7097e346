package upload_test

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"regexp"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukasBrandt/ShopCore/internal/pkg/imageprocessor"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
	"github.com/LukasBrandt/ShopCore/internal/pkg/upload"
)

// stubTranscoder keeps the tests independent of the WebP encoder.
// Inputs carrying the corrupt marker fail the way a truncated upload
// would: decodable-looking header, undecodable body.
type stubTranscoder struct {
	calls int
}

var corruptMarker = []byte("CORRUPT-BODY")

func (s *stubTranscoder) Transcode(src []byte) (*imageprocessor.Result, error) {
	s.calls++
	if bytes.Contains(src, corruptMarker) {
		return nil, fmt.Errorf("%w: truncated stream", imageprocessor.ErrDecode)
	}
	return &imageprocessor.Result{
		Primary: []byte("primary-webp"),
		Width:   640,
		Height:  480,
		Thumbnails: []imageprocessor.Thumbnail{
			{Label: "200x200", Data: []byte("small-webp")},
			{Label: "800x800", Data: []byte("large-webp")},
		},
	}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(4, 4, color.NRGBA{A: 255})))
	return buf.Bytes()
}

// fileHeader builds a real multipart.FileHeader the way Fiber hands it
// to the service.
func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["images"][0]
}

func newService(t *testing.T) (*upload.Service, *storage.Layout, *stubTranscoder) {
	t.Helper()
	layout := storage.NewLayout(t.TempDir())
	tc := &stubTranscoder{}
	return upload.NewService(layout, tc), layout, tc
}

func TestIngestWritesDerivativesInOrder(t *testing.T) {
	svc, layout, _ := newService(t)

	result, err := svc.Ingest(storage.KindProducts, 7, fileHeader(t, "photo.png", "image/png", pngBytes(t)))
	require.NoError(t, err)

	// primary, then thumbnails smallest to largest
	require.Len(t, result.Paths, 3)
	base := regexp.MustCompile(`^/uploads/products/7/(\d{13}-[0-9a-f]{12})\.webp$`)
	m := base.FindStringSubmatch(result.Paths[0])
	require.NotNil(t, m, "primary path %s", result.Paths[0])
	assert.Equal(t, fmt.Sprintf("/uploads/products/7/%s-200x200.webp", m[1]), result.Paths[1])
	assert.Equal(t, fmt.Sprintf("/uploads/products/7/%s-800x800.webp", m[1]), result.Paths[2])

	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 480, result.Height)

	files, err := layout.ListFiles(storage.KindProducts, 7, map[string]bool{".webp": true})
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestIngestRejectsNonImageContentType(t *testing.T) {
	svc, _, tc := newService(t)

	_, err := svc.Ingest(storage.KindProducts, 7, fileHeader(t, "notes.txt", "text/plain", []byte("hello")))
	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrInvalidInput)
	// Rejected before any transcoding work
	assert.Zero(t, tc.calls)
}

func TestIngestRejectsMismatchedExtension(t *testing.T) {
	svc, _, _ := newService(t)

	// Declared image type but an extension outside the allow-list
	_, err := svc.Ingest(storage.KindProducts, 7, fileHeader(t, "payload.svg", "image/png", pngBytes(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrInvalidInput)
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	svc, _, tc := newService(t)

	big := make([]byte, upload.MaxUploadBytes+1)
	copy(big, pngBytes(t))
	_, err := svc.Ingest(storage.KindProducts, 7, fileHeader(t, "huge.png", "image/png", big))
	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrTooLarge)
	assert.Zero(t, tc.calls)
}

func TestIngestAllIsolatesPerFileFailures(t *testing.T) {
	svc, layout, _ := newService(t)

	corrupt := append(pngBytes(t), corruptMarker...)
	files := []*multipart.FileHeader{
		fileHeader(t, "one.png", "image/png", pngBytes(t)),
		fileHeader(t, "two.png", "image/png", corrupt),
		fileHeader(t, "three.png", "image/png", pngBytes(t)),
	}

	results, failures := svc.IngestAll(storage.KindProducts, 9, files)

	// Files one and three made it through, file two is reported and
	// nothing was rolled back.
	require.Len(t, results, 2)
	assert.Equal(t, "one.png", results[0].Filename)
	assert.Equal(t, "three.png", results[1].Filename)

	require.Len(t, failures, 1)
	assert.Equal(t, "two.png", failures[0].Filename)
	assert.ErrorIs(t, failures[0].Err, imageprocessor.ErrDecode)

	written, err := layout.ListFiles(storage.KindProducts, 9, map[string]bool{".webp": true})
	require.NoError(t, err)
	assert.Len(t, written, 6)
}
