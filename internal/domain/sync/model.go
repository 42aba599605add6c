package sync

import (
	"time"
)

// EventType тип события журнала синхронизации
type EventType string

const (
	EventCreate      EventType = "create"
	EventUpdate      EventType = "update"
	EventPatch       EventType = "patch"
	EventImageUpload EventType = "image_upload"
	EventImageDelete EventType = "image_delete"
)

// Pushable типы, которые клиент может прислать в /sync/push
func (t EventType) Pushable() bool {
	switch t {
	case EventCreate, EventUpdate, EventPatch:
		return true
	}
	return false
}

// Note заметка группы синхронизации
type Note struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"-"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Version      int       `json:"version"`
	LocalID      string    `json:"localId,omitempty"`
	FolderPath   string    `json:"folderPath,omitempty"`
	FileName     string    `json:"fileName,omitempty"`
	RelativePath string    `json:"relativePath,omitempty"`
	DeviceID     string    `json:"deviceId"`
	Fingerprint  string    `json:"fingerprint"`
	HasImages    bool      `json:"hasImages"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Event запись журнала, Seq назначается сервером
type Event struct {
	Seq         int64
	GroupID     string
	NoteID      string
	Type        EventType
	DeviceID    string
	Fingerprint string
	CreatedAt   time.Time
}

// Change снимок заметки и событие, которое к нему привело
type Change struct {
	Note      Note
	EventType EventType
	EventTime time.Time
	Seq       int64
}

// ItemStatus логический результат элемента пакета
type ItemStatus string

const (
	StatusCreated     ItemStatus = "created"
	StatusUpdated     ItemStatus = "updated"
	StatusPatched     ItemStatus = "patched"
	StatusNotFound    ItemStatus = "not_found"
	StatusPatchFailed ItemStatus = "patch_failed"
)

// Config параметры движка синхронизации
type Config struct {
	MaxBatch int
}
