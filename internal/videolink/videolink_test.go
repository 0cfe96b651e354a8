package videolink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbed(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=abc123&t=5", "https://www.youtube.com/embed/abc123?modestbranding=1&rel=0"},
		{"youtube short", "https://youtu.be/xyz789", "https://www.youtube.com/embed/xyz789?modestbranding=1&rel=0"},
		{"youtube short with query", "https://youtu.be/xyz789?t=30", "https://www.youtube.com/embed/xyz789?modestbranding=1&rel=0"},
		{"youtube already embedded", "https://www.youtube.com/embed/qwe?autoplay=1", "https://www.youtube.com/embed/qwe?modestbranding=1&rel=0"},
		{"youtube without marker", "https://youtube.com/somepage", "https://youtube.com/somepage"},
		{"youtube empty id", "https://www.youtube.com/watch?v=&list=1", "https://www.youtube.com/watch?v=&list=1"},
		{"vimeo", "https://vimeo.com/55555", "https://player.vimeo.com/video/55555"},
		{"vimeo with fragment", "https://vimeo.com/55555#t=10", "https://player.vimeo.com/video/55555"},
		{"vimeo bare host", "vimeo.com", "vimeo.com"},
		{"drive", "https://drive.google.com/d/FILE123/view", "https://drive.google.com/file/d/FILE123/preview"},
		{"drive file path", "https://drive.google.com/file/d/FILE123/view?usp=sharing", "https://drive.google.com/file/d/FILE123/preview"},
		{"docs", "https://docs.google.com/d/DOC9/edit", "https://drive.google.com/file/d/DOC9/preview"},
		{"drive without id", "https://drive.google.com/open?id=1", "https://drive.google.com/open?id=1"},
		{"unknown host", "https://example.com/video.mp4", "https://example.com/video.mp4"},
		{"trims", "  https://example.com/v.mp4 \n", "https://example.com/v.mp4"},
		{"case sensitive", "https://YOUTUBE.COM/watch?v=abc", "https://YOUTUBE.COM/watch?v=abc"},
		{"empty", "", ""},
		{"blank", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Embed(tc.in))
		})
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "https://vimeo.com/123", Canonical("vimeo.com/123"))
	assert.Equal(t, "http://example.com/a", Canonical(" http://example.com/a "))
	assert.Equal(t, "https://example.com/a", Canonical("https://example.com/a"))
	assert.Equal(t, "", Canonical(""))
	assert.Equal(t, "", Canonical(" \t"))
}

func TestYouTubeID(t *testing.T) {
	assert.Equal(t, "abc123", YouTubeID("https://www.youtube.com/watch?v=abc123&t=5"))
	assert.Equal(t, "xyz", YouTubeID("youtu.be/xyz?si=1"))
	assert.Equal(t, "e1", YouTubeID("https://www.youtube.com/embed/e1"))
	assert.Equal(t, "", YouTubeID("https://vimeo.com/1"))
	assert.Equal(t, "", YouTubeID(""))
}

func TestProvider(t *testing.T) {
	assert.Equal(t, "youtube", Provider("https://youtu.be/x"))
	assert.Equal(t, "vimeo", Provider("vimeo.com/1"))
	assert.Equal(t, "drive", Provider("https://docs.google.com/d/x/"))
	assert.Equal(t, "", Provider("https://example.com"))
	assert.Equal(t, "", Provider(""))
}
