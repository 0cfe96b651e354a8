package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/qrmuseum/museum-api/internal/model"
)

// ContentRepo stores the one-per-exhibit multimedia payload.
type ContentRepo struct {
	db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

// ContentFields are the admin-editable columns of exhibit content. Media
// keys are managed separately through SetMedia.
type ContentFields struct {
	ContentType string
	Title       string
	Body        string
	VideoURL    *string
	History     string
	Science     string
	Trivia      string
	IsActive    bool
	ShowImage   bool
	ShowVideo   bool
	ShowAudio   bool
	ShowFile    bool
	ShowHistory bool
	ShowScience bool
	ShowTrivia  bool
}

// Media slots accepted by SetMedia.
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaAudio = "audio"
	MediaFile  = "file"
)

var mediaColumn = map[string]string{
	MediaImage: "image_key",
	MediaVideo: "video_key",
	MediaAudio: "audio_key",
	MediaFile:  "file_key",
}

const contentColumns = `id,exhibit_id,content_type,title,body,image_key,video_key,video_url,audio_key,file_key,
	history,science,trivia,is_active,show_image,show_video,show_audio,show_file,show_history,show_science,show_trivia,
	created_at,updated_at`

func scanContent(row interface{ Scan(...any) error }) (*model.ExhibitContent, error) {
	var (
		c                                  model.ExhibitContent
		image, video, vurl, audio, fileKey sql.NullString
	)
	if err := row.Scan(&c.ID, &c.ExhibitID, &c.ContentType, &c.Title, &c.Body,
		&image, &video, &vurl, &audio, &fileKey,
		&c.History, &c.Science, &c.Trivia, &c.IsActive,
		&c.ShowImage, &c.ShowVideo, &c.ShowAudio, &c.ShowFile, &c.ShowHistory, &c.ShowScience, &c.ShowTrivia,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ImageKey = nullString(image)
	c.VideoKey = nullString(video)
	c.VideoURL = nullString(vurl)
	c.AudioKey = nullString(audio)
	c.FileKey = nullString(fileKey)
	return &c, nil
}

// GetByExhibit returns the content attached to an exhibit or
// ErrContentNotFound.
func (r *ContentRepo) GetByExhibit(ctx context.Context, exhibitID uint64) (*model.ExhibitContent, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM exhibit_contents WHERE exhibit_id=?", exhibitID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	return c, err
}

// Upsert creates the content row for an exhibit or updates the existing
// one. The boolean reports whether a row was created.
func (r *ContentRepo) Upsert(ctx context.Context, exhibitID uint64, f ContentFields) (*model.ExhibitContent, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM exhibit_contents WHERE exhibit_id=?", exhibitID).Scan(&id)
	created := errors.Is(err, sql.ErrNoRows)
	switch {
	case created:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exhibit_contents (exhibit_id, content_type, title, body, video_url, history, science, trivia,
			   is_active, show_image, show_video, show_audio, show_file, show_history, show_science, show_trivia,
			   created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			exhibitID, f.ContentType, f.Title, f.Body, f.VideoURL, f.History, f.Science, f.Trivia,
			f.IsActive, f.ShowImage, f.ShowVideo, f.ShowAudio, f.ShowFile, f.ShowHistory, f.ShowScience, f.ShowTrivia,
			now, now)
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE exhibit_contents SET content_type=?, title=?, body=?, video_url=?, history=?, science=?, trivia=?,
			   is_active=?, show_image=?, show_video=?, show_audio=?, show_file=?, show_history=?, show_science=?,
			   show_trivia=?, updated_at=?
			 WHERE id=?`,
			f.ContentType, f.Title, f.Body, f.VideoURL, f.History, f.Science, f.Trivia,
			f.IsActive, f.ShowImage, f.ShowVideo, f.ShowAudio, f.ShowFile, f.ShowHistory, f.ShowScience, f.ShowTrivia,
			now, id)
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, false, ErrConflict
		}
		return nil, false, err
	}

	c, err := scanContent(tx.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM exhibit_contents WHERE exhibit_id=?", exhibitID))
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return c, created, nil
}

// SetMedia stores a blob key in one of the media slots.
func (r *ContentRepo) SetMedia(ctx context.Context, exhibitID uint64, kind, key string) error {
	col, ok := mediaColumn[kind]
	if !ok {
		return fmt.Errorf("unknown media kind %q", kind)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE exhibit_contents SET "+col+"=?, updated_at=? WHERE exhibit_id=?",
		key, time.Now().UTC(), exhibitID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContentNotFound
	}
	return nil
}
