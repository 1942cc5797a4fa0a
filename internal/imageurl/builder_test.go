package imageurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRef(t *testing.T) {
	asset, ok := ParseRef("image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg")
	assert.True(t, ok)
	assert.Equal(t, Asset{ID: "Tb9Ew8CXIwaY6R1kjMvI0uRR", Width: 2000, Height: 3000, Format: "jpg"}, asset)

	for _, bad := range []string{"", "file-abc-pdf", "image-abc-jpg", "image-abc-10x-png"} {
		_, ok := ParseRef(bad)
		assert.False(t, ok, bad)
	}
}

func TestBuilderURL(t *testing.T) {
	b := New("94ennmup", "production")

	assert.Equal(t,
		"https://cdn.sanity.io/images/94ennmup/production/abc123-1920x1080.jpg",
		b.URL("image-abc123-1920x1080-jpg", Params{}))

	// 参数按键名排序
	assert.Equal(t,
		"https://cdn.sanity.io/images/94ennmup/production/abc123-1920x1080.jpg?auto=format&fit=crop&h=750&q=85&w=600",
		b.URL("image-abc123-1920x1080-jpg", Params{Width: 600, Height: 750, Quality: 85, Fit: "crop", Auto: true}))

	assert.Empty(t, b.URL("not-a-ref", Params{Width: 100}))

	var nilBuilder *Builder
	assert.Empty(t, nilBuilder.URL("image-abc123-1920x1080-jpg", Params{}))
}

func TestBuilderBaseURL(t *testing.T) {
	b := New("p", "d", WithBaseURL("http://localhost:9999"))
	assert.Equal(t, "http://localhost:9999/images/p/d/x-1x1.png", b.URL("image-x-1x1-png", Params{}))
}
