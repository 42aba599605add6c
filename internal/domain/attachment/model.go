package attachment

import "time"

// Image вложение заметки. SignedURL не хранится, выдается при каждом ответе.
type Image struct {
	ID               string     `json:"id"`
	GroupID          string     `json:"-"`
	NoteID           string     `json:"noteId,omitempty"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"originalFilename"`
	StoragePath      string     `json:"storagePath"`
	PublicRef        string     `json:"-"`
	ContentType      string     `json:"contentType"`
	Size             int64      `json:"fileSize"`
	DeviceID         string     `json:"deviceId"`
	Fingerprint      string     `json:"fingerprint"`
	IsDeleted        bool       `json:"-"`
	DeletedAt        *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	SignedURL        string     `json:"publicUrl"`
}

type Config struct {
	MaxBytes     int64
	URLTTL       time.Duration
	UploadURLTTL time.Duration
}
