package model

import "time"

// Exhibit is a physical artwork or object identified by a QR code.
//
// UUID and Locator are assigned once at creation. Locator is the
// `qr://{uuid}` string encoded on the printed code; QRImageKey points at
// the rendered PNG in blob storage.
type Exhibit struct {
	ID             uint64    // exhibits.id
	UUID           string    // exhibits.uuid
	Title          string    // exhibits.title
	Description    string    // exhibits.description
	Location       string    // exhibits.location
	SequenceNumber int       // exhibits.sequence_number
	Locator        string    // exhibits.locator
	QRImageKey     *string   // exhibits.qr_image_key (nullable)
	IsActive       bool      // exhibits.is_active
	CreatedAt      time.Time // exhibits.created_at
	UpdatedAt      time.Time // exhibits.updated_at
}

// Content types accepted for ExhibitContent.ContentType.
const (
	ContentText     = "text"
	ContentImage    = "image"
	ContentVideo    = "video"
	ContentAudio    = "audio"
	ContentMultiple = "multiple"
)

// ExhibitContent is the multimedia payload unlocked by scanning an exhibit.
// At most one row exists per exhibit. Media fields hold storage keys; the
// Show* toggles decide which parts are returned to visitors.
type ExhibitContent struct {
	ID          uint64  // exhibit_contents.id
	ExhibitID   uint64  // exhibit_contents.exhibit_id (unique)
	ContentType string  // exhibit_contents.content_type
	Title       string  // exhibit_contents.title
	Body        string  // exhibit_contents.body
	ImageKey    *string // exhibit_contents.image_key
	VideoKey    *string // exhibit_contents.video_key
	VideoURL    *string // exhibit_contents.video_url (external link)
	AudioKey    *string // exhibit_contents.audio_key
	FileKey     *string // exhibit_contents.file_key
	History     string  // exhibit_contents.history
	Science     string  // exhibit_contents.science
	Trivia      string  // exhibit_contents.trivia
	IsActive    bool    // exhibit_contents.is_active

	ShowImage   bool
	ShowVideo   bool
	ShowAudio   bool
	ShowFile    bool
	ShowHistory bool
	ShowScience bool
	ShowTrivia  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
