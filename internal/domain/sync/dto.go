package sync

import "time"

// PushItem элемент пакета. Клиентские временные метки не принимаются.
type PushItem struct {
	LocalID      string
	ServerID     string
	Title        string
	Content      string
	EventType    EventType
	Patch        string
	FolderPath   *string
	FileName     *string
	RelativePath *string
	HasImages    *bool
}

type ItemResult struct {
	LocalID   string
	ServerID  string
	Status    ItemStatus
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
	// Hunks флаги применения каждого фрагмента патча
	Hunks  []bool
	Reason string
}

type PushResult struct {
	Results   []ItemResult
	Timestamp time.Time
}

// NoteUpdate полная замена содержимого. nil поля папки не меняются.
type NoteUpdate struct {
	ID           string
	Title        string
	Content      string
	FolderPath   *string
	FileName     *string
	RelativePath *string
}

type ChangeQuery struct {
	GroupID            string
	ExcludeDeviceID    string
	ExcludeFingerprint string
	Since              *time.Time
}
