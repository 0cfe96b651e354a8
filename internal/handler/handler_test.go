package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrmuseum/museum-api/internal/model"
)

type fakeStore struct{}

func (fakeStore) Put(context.Context, string, string, []byte) error   { return nil }
func (fakeStore) Get(context.Context, string) ([]byte, string, error) { return nil, "", nil }
func (fakeStore) URL(key string) string                              { return "/m/" + key }

func ptr(s string) *string { return &s }

func TestNewPage(t *testing.T) {
	p := newPage[int](nil, 1, 10, 0)
	assert.Equal(t, []int{}, p.Items)
	assert.Equal(t, 1, p.TotalPages)

	p = newPage([]int{1, 2}, 3, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 3, p.Page)
}

func TestPublicContentHonoursToggles(t *testing.T) {
	ct := &model.ExhibitContent{
		ContentType: model.ContentMultiple, Title: "t", IsActive: true,
		ImageKey: ptr("img.png"), AudioKey: ptr("a.mp3"), VideoURL: ptr("vimeo.com/76979871"),
		History: "h", Science: "s", Trivia: "tr",
		ShowImage: true, ShowVideo: true, ShowHistory: true,
	}
	out := toPublicContent(fakeStore{}, ct)
	require.NotNil(t, out)
	require.NotNil(t, out.ImageURL)
	assert.Equal(t, "/m/img.png", *out.ImageURL)
	assert.Nil(t, out.AudioURL)
	assert.Equal(t, "https://player.vimeo.com/video/76979871", out.VideoEmbedURL)
	assert.Equal(t, "https://vimeo.com/76979871", out.VideoURL)
	assert.Equal(t, "h", out.History)
	assert.Empty(t, out.Science)
	assert.Empty(t, out.Trivia)

	ct.ShowVideo = false
	out = toPublicContent(fakeStore{}, ct)
	assert.Empty(t, out.VideoEmbedURL)

	ct.IsActive = false
	assert.Nil(t, toPublicContent(fakeStore{}, ct))
	assert.Nil(t, toPublicContent(fakeStore{}, nil))
}

func TestValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&registerReq{Username: "ab", Email: "x", FirstName: "A", Password: "secret1", ConfirmPassword: "other"})
	require.Error(t, err)
	fields := fieldErrors(err)
	assert.Equal(t, "must be at least 3", fields["username"])
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "does not match", fields["confirm_password"])
	assert.NotContains(t, fields, "password")

	assert.NoError(t, v.Validate(&commentReq{Rating: 5, Text: "ok"}))
	err = v.Validate(&commentReq{Rating: 0, Text: ""})
	require.Error(t, err)
	assert.Equal(t, "is required", fieldErrors(err)["rating"])
}

func TestContentReqFieldsKeepsStoredToggles(t *testing.T) {
	off := false
	req := contentReq{ContentType: "text", Title: " T ", ShowAudio: &off, VideoURL: ptr("  ")}

	f := req.fields(nil)
	assert.True(t, f.IsActive)
	assert.True(t, f.ShowImage)
	assert.False(t, f.ShowAudio)
	assert.Equal(t, "T", f.Title)
	assert.Nil(t, f.VideoURL)

	cur := &model.ExhibitContent{IsActive: false, ShowImage: false, ShowTrivia: true}
	f = req.fields(cur)
	assert.False(t, f.IsActive)
	assert.False(t, f.ShowImage)
	assert.True(t, f.ShowTrivia)
	assert.False(t, f.ShowAudio)
}
