package telegram

// Update represents an incoming update from the Bot API
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message represents a chat message
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Voice     *Voice      `json:"voice,omitempty"`
	Audio     *Audio      `json:"audio,omitempty"`
	Sticker   *Sticker    `json:"sticker,omitempty"`
	Video     *Video      `json:"video,omitempty"`
	VideoNote *VideoNote  `json:"video_note,omitempty"`
}

// User represents the sender of a message
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Chat represents the conversation a message belongs to
type Chat struct {
	ID int64 `json:"id"`
}

// PhotoSize represents one size variant of a photo
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Document represents a file attachment
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

// Voice represents a voice note
type Voice struct {
	FileID string `json:"file_id"`
}

// Audio represents an audio file
type Audio struct {
	FileID string `json:"file_id"`
}

// Sticker represents a sticker
type Sticker struct {
	FileID string `json:"file_id"`
}

// Video represents a video file
type Video struct {
	FileID string `json:"file_id"`
}

// VideoNote represents a round video message
type VideoNote struct {
	FileID string `json:"file_id"`
}

// HasContent reports whether the message carries anything that can be
// relayed to another chat
func (m *Message) HasContent() bool {
	if m == nil {
		return false
	}
	return m.Text != "" ||
		len(m.Photo) > 0 ||
		m.Document != nil ||
		m.Voice != nil ||
		m.Audio != nil ||
		m.Sticker != nil ||
		m.Video != nil ||
		m.VideoNote != nil
}
