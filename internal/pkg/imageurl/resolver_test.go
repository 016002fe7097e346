package imageurl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LukasBrandt/ShopCore/internal/pkg/imageurl"
)

const apiBase = "http://h:3001"

func TestResolveStoredShapes(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   string
	}{
		{
			name:   "empty value falls back to placeholder",
			stored: "",
			want:   imageurl.PlaceholderPath,
		},
		{
			name:   "absolute URL passes through unchanged",
			stored: "https://x/y.jpg",
			want:   "https://x/y.jpg",
		},
		{
			name:   "current mount prefix",
			stored: "/uploads/products/1/0.webp",
			want:   "http://h:3001/uploads/products/1/0.webp",
		},
		{
			name:   "legacy mount prefix",
			stored: "/image/catalog/foo/bar.jpg",
			want:   "http://h:3001/image/catalog/foo/bar.jpg",
		},
		{
			name:   "legacy fragment behind relative noise",
			stored: "../../image/catalog/foo/bar.jpg",
			want:   "http://h:3001/image/catalog/foo/bar.jpg",
		},
		{
			name:   "bare filename relative to upload mount",
			stored: "bare.jpg",
			want:   "http://h:3001/uploads/bare.jpg",
		},
		{
			name:   "unknown absolute path falls through with base",
			stored: "/assets/old/pic.png",
			want:   "http://h:3001/assets/old/pic.png",
		},
		{
			name:   "whitespace only is treated as empty",
			stored: "   ",
			want:   imageurl.PlaceholderPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imageurl.Resolve(tt.stored, apiBase))
		})
	}
}

func TestResolveTrimsBaseSlash(t *testing.T) {
	got := imageurl.Resolve("/uploads/products/2/0.webp", "http://h:3001/")
	assert.Equal(t, "http://h:3001/uploads/products/2/0.webp", got)
}

func TestResolveRuleOrderOverlap(t *testing.T) {
	// A value that both starts with a known prefix and contains the
	// legacy fragment must take the earlier (prefix) rule. Both rules
	// happen to agree on the output; what matters is that evaluation
	// does not re-root the already well-formed prefix.
	got := imageurl.Resolve("/uploads/image/catalog/p.jpg", apiBase)
	assert.Equal(t, "http://h:3001/uploads/image/catalog/p.jpg", got)
}

func TestResolveIsTotal(t *testing.T) {
	// No input may panic or produce an unusable empty result.
	inputs := []string{
		"", " ", ".", "..", "://", "::::", "%%%",
		"//double/slash.jpg", "..\\windows\\style.jpg",
		"image/catalog", "image/catalog/",
		"ftp://host/file.gif",
	}
	for _, input := range inputs {
		got := imageurl.Resolve(input, apiBase)
		assert.NotEmpty(t, got, "input %q", input)
	}
}
