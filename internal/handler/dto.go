package handler

import (
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
	"github.com/qrmuseum/museum-api/internal/videolink"
)

// Response shapes. Models carry no json tags, so every field that leaves
// the API is listed here.

type museumResp struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	LogoURL       *string `json:"logo_url"`
	BackgroundURL *string `json:"background_url"`
}

type exhibitResp struct {
	ID             uint64    `json:"id"`
	UUID           string    `json:"uuid"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	SequenceNumber int       `json:"sequence_number"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// adminExhibitResp adds the QR fields only admins need.
type adminExhibitResp struct {
	exhibitResp
	Locator  string  `json:"locator"`
	QRURL    *string `json:"qr_image_url"`
	ScanText string  `json:"scan_content"`
}

// publicContentResp is the visitor view of exhibit content: hidden parts
// are left out and the video link is resolved.
type publicContentResp struct {
	ContentType   string  `json:"content_type"`
	Title         string  `json:"title"`
	Body          string  `json:"body"`
	ImageURL      *string `json:"image_url,omitempty"`
	VideoFileURL  *string `json:"video_file_url,omitempty"`
	VideoEmbedURL string  `json:"video_embed_url,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`
	YouTubeID     string  `json:"youtube_id,omitempty"`
	VideoProvider string  `json:"video_provider,omitempty"`
	AudioURL      *string `json:"audio_url,omitempty"`
	FileURL       *string `json:"file_url,omitempty"`
	History       string  `json:"history,omitempty"`
	Science       string  `json:"science,omitempty"`
	Trivia        string  `json:"trivia,omitempty"`
}

type adminContentResp struct {
	ID          uint64    `json:"id"`
	ExhibitID   uint64    `json:"exhibit_id"`
	ContentType string    `json:"content_type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ImageURL    *string   `json:"image_url"`
	VideoURL    *string   `json:"video_url"`
	VideoFile   *string   `json:"video_file_url"`
	VideoEmbed  string    `json:"video_embed_url"`
	AudioURL    *string   `json:"audio_url"`
	FileURL     *string   `json:"file_url"`
	History     string    `json:"history"`
	Science     string    `json:"science"`
	Trivia      string    `json:"trivia"`
	IsActive    bool      `json:"is_active"`
	ShowImage   bool      `json:"show_image"`
	ShowVideo   bool      `json:"show_video"`
	ShowAudio   bool      `json:"show_audio"`
	ShowFile    bool      `json:"show_file"`
	ShowHistory bool      `json:"show_history"`
	ShowScience bool      `json:"show_science"`
	ShowTrivia  bool      `json:"show_trivia"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type visitorResp struct {
	Nickname     string  `json:"nickname"`
	AvatarURL    *string `json:"avatar_url"`
	Points       int     `json:"points"`
	Level        int     `json:"level"`
	VisitCount   int     `json:"visit_count"`
	CommentCount int     `json:"comment_count"`
}

type commentResp struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	ExhibitTitle string    `json:"exhibit_title,omitempty"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

type userResp struct {
	ID        uint64       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	Role      string       `json:"role"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	Profile   *visitorResp `json:"profile,omitempty"`
}

type visitedResp struct {
	ExhibitID   uint64    `json:"exhibit_id"`
	ExhibitUUID string    `json:"exhibit_uuid"`
	Title       string    `json:"title"`
	VisitedAt   time.Time `json:"visited_at"`
}

// mediaURL maps an optional storage key to its public URL.
func mediaURL(st storage.Store, key *string) *string {
	if key == nil || *key == "" || st == nil {
		return nil
	}
	u := st.URL(*key)
	return &u
}

func toMuseum(st storage.Store, m *model.MuseumSettings) museumResp {
	return museumResp{
		Name:          m.Name,
		Description:   m.Description,
		Location:      m.Location,
		LogoURL:       mediaURL(st, m.LogoKey),
		BackgroundURL: mediaURL(st, m.BackgroundKey),
	}
}

func toExhibit(e *model.Exhibit) exhibitResp {
	return exhibitResp{
		ID: e.ID, UUID: e.UUID, Title: e.Title, Description: e.Description,
		Location: e.Location, SequenceNumber: e.SequenceNumber, IsActive: e.IsActive,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func toPublicContent(st storage.Store, ct *model.ExhibitContent) *publicContentResp {
	if ct == nil || !ct.IsActive {
		return nil
	}
	out := &publicContentResp{ContentType: ct.ContentType, Title: ct.Title, Body: ct.Body}
	if ct.ShowImage {
		out.ImageURL = mediaURL(st, ct.ImageKey)
	}
	if ct.ShowVideo {
		out.VideoFileURL = mediaURL(st, ct.VideoKey)
		if ct.VideoURL != nil {
			out.VideoEmbedURL = videolink.Embed(*ct.VideoURL)
			out.VideoURL = videolink.Canonical(*ct.VideoURL)
			out.YouTubeID = videolink.YouTubeID(*ct.VideoURL)
			out.VideoProvider = videolink.Provider(*ct.VideoURL)
		}
	}
	if ct.ShowAudio {
		out.AudioURL = mediaURL(st, ct.AudioKey)
	}
	if ct.ShowFile {
		out.FileURL = mediaURL(st, ct.FileKey)
	}
	if ct.ShowHistory {
		out.History = ct.History
	}
	if ct.ShowScience {
		out.Science = ct.Science
	}
	if ct.ShowTrivia {
		out.Trivia = ct.Trivia
	}
	return out
}

func toAdminContent(st storage.Store, ct *model.ExhibitContent) adminContentResp {
	out := adminContentResp{
		ID: ct.ID, ExhibitID: ct.ExhibitID, ContentType: ct.ContentType, Title: ct.Title, Body: ct.Body,
		ImageURL: mediaURL(st, ct.ImageKey), VideoURL: ct.VideoURL, VideoFile: mediaURL(st, ct.VideoKey),
		AudioURL: mediaURL(st, ct.AudioKey), FileURL: mediaURL(st, ct.FileKey),
		History: ct.History, Science: ct.Science, Trivia: ct.Trivia, IsActive: ct.IsActive,
		ShowImage: ct.ShowImage, ShowVideo: ct.ShowVideo, ShowAudio: ct.ShowAudio, ShowFile: ct.ShowFile,
		ShowHistory: ct.ShowHistory, ShowScience: ct.ShowScience, ShowTrivia: ct.ShowTrivia,
		UpdatedAt: ct.UpdatedAt,
	}
	if ct.VideoURL != nil {
		out.VideoEmbed = videolink.Embed(*ct.VideoURL)
	}
	return out
}

func toVisitor(st storage.Store, v *model.Visitor) *visitorResp {
	if v == nil {
		return nil
	}
	return &visitorResp{
		Nickname: v.Nickname, AvatarURL: mediaURL(st, v.AvatarKey), Points: v.Points,
		Level: v.Level, VisitCount: v.VisitCount, CommentCount: v.CommentCount,
	}
}

func toComment(cm *model.Comment) commentResp {
	return commentResp{
		ID: cm.ID, UserID: cm.UserID, Username: cm.Username, ExhibitTitle: cm.ExhibitTitle,
		Rating: cm.Rating, Text: cm.Body, IsApproved: cm.IsApproved, CreatedAt: cm.CreatedAt,
	}
}

func toComments(list []*model.Comment) []commentResp {
	out := make([]commentResp, 0, len(list))
	for _, cm := range list {
		out = append(out, toComment(cm))
	}
	return out
}

func toUser(st storage.Store, u repository.UserWithProfile) userResp {
	return userResp{
		ID: u.User.ID, Username: u.User.Username, Email: u.User.Email, FirstName: u.User.FirstName,
		Role: u.User.Role, IsActive: u.User.IsActive, CreatedAt: u.User.CreatedAt,
		Profile: toVisitor(st, u.Visitor),
	}
}

func toVisited(list []model.VisitedExhibit) []visitedResp {
	out := make([]visitedResp, 0, len(list))
	for _, v := range list {
		out = append(out, visitedResp{ExhibitID: v.ExhibitID, ExhibitUUID: v.ExhibitUUID, Title: v.Title, VisitedAt: v.VisitedAt})
	}
	return out
}
