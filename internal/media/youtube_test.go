package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYouTubeID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":          "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s":        "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ":            "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                         "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=abc":                  "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":            "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":           "dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ?feature=xyz": "dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://vimeo.com/123456":                             "",
		"https://www.youtube.com/watch?v=short":                "",
		"https://www.youtube.com/channel/UC123":                "",
		"not a url":                                            "",
		"":                                                     "",
	}

	for in, want := range tests {
		assert.Equal(t, want, YouTubeID(in), in)
	}
}

func TestYouTubeURLs(t *testing.T) {
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", YouTubeThumbnail("dQw4w9WgXcQ"))
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", YouTubeEmbedURL("dQw4w9WgXcQ"))
}
