package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Thumbnail sizes
const (
	SmallThumbnailSize = 200
	LargeThumbnailSize = 800
)

// MaxSourceBytes bounds the source image we are willing to decode.
// Oversized input is rejected up front instead of letting the decoder
// chew on it.
const MaxSourceBytes = 10 << 20 // 10 MiB

// WebPQuality is the lossy quality used for every derivative. The
// re-encode is idempotent in effect only, not bit-for-bit.
const WebPQuality = 85

var (
	// ErrDecode marks source bytes that no registered decoder accepts.
	// Callers isolate this per file and continue with siblings.
	ErrDecode = errors.New("imageprocessor: undecodable image data")

	// ErrSourceTooLarge marks input above MaxSourceBytes.
	ErrSourceTooLarge = errors.New("imageprocessor: source image too large")
)

// FitPolicy controls how a source image maps onto a profile's bounding box.
type FitPolicy int

const (
	// FitCover crops the image so it fills the box exactly.
	FitCover FitPolicy = iota
	// FitInside scales the image to fit within the box, preserving
	// aspect ratio and never upscaling.
	FitInside
)

// Profile describes one thumbnail derivative. The label is embedded in
// the derivative's filename (<base>-<label>.webp) so the reconcile tool
// can recognize thumbnails by name.
type Profile struct {
	Label  string
	Width  int
	Height int
	Fit    FitPolicy
}

// DefaultProfiles is the fixed ingestion thumbnail set: a small square
// crop and a larger bounded scale.
func DefaultProfiles() []Profile {
	return []Profile{
		{Label: "200x200", Width: SmallThumbnailSize, Height: SmallThumbnailSize, Fit: FitCover},
		{Label: "800x800", Width: LargeThumbnailSize, Height: LargeThumbnailSize, Fit: FitInside},
	}
}

// Thumbnail is one encoded derivative.
type Thumbnail struct {
	Label string
	Data  []byte
}

// Result holds the canonical-format primary derivative plus thumbnails,
// ordered smallest to largest.
type Result struct {
	Primary    []byte
	Width      int
	Height     int
	Thumbnails []Thumbnail
}

// Transcoder converts arbitrary raster input into WebP derivatives.
// Pure in-memory transformation, no side effects.
type Transcoder struct {
	profiles []Profile
}

// NewTranscoder creates a transcoder with the given thumbnail profiles.
func NewTranscoder(profiles []Profile) *Transcoder {
	return &Transcoder{profiles: profiles}
}

// Transcode decodes src, re-encodes it as lossy WebP and derives one
// thumbnail per profile.
func (t *Transcoder) Transcode(src []byte) (*Result, error) {
	if int64(len(src)) > MaxSourceBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrSourceTooLarge, len(src))
	}

	// AutoOrientation applies the EXIF orientation during decode so the
	// derivatives never carry a rotation flag.
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	primary, err := encodeWebP(img)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Primary: primary,
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
	}

	for _, profile := range t.profiles {
		data, err := encodeWebP(FitImage(img, profile))
		if err != nil {
			return nil, fmt.Errorf("thumbnail %s: %w", profile.Label, err)
		}
		result.Thumbnails = append(result.Thumbnails, Thumbnail{Label: profile.Label, Data: data})
	}

	return result, nil
}

// FitImage applies a profile's fit policy to an already decoded image.
func FitImage(img image.Image, p Profile) image.Image {
	switch p.Fit {
	case FitCover:
		return imaging.Fill(img, p.Width, p.Height, imaging.Center, imaging.Lanczos)
	default:
		bounds := img.Bounds()
		if bounds.Dx() <= p.Width && bounds.Dy() <= p.Height {
			// Already inside the box; never upscale.
			return img
		}
		return imaging.Fit(img, p.Width, p.Height, imaging.Lanczos)
	}
}

// encodeWebP encodes an image as lossy WebP in memory.
func encodeWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("error creating encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("error encoding WebP image: %w", err)
	}

	return buf.Bytes(), nil
}
