package sync

import (
	"time"

	"notesync/internal/domain/sync"
)

type notesOutput struct {
	Body notesResponse
}

type notesResponse struct {
	Notes     []sync.Note `json:"notes"`
	Timestamp time.Time   `json:"timestamp"`
}

type changesInput struct {
	Since string `query:"since" doc:"RFC3339 время последней синхронизации"`
}

type changesOutput struct {
	Body changesResponse
}

type changesResponse struct {
	Changes   []change  `json:"changes"`
	Timestamp time.Time `json:"timestamp"`
}

// change снимок заметки с полями события
type change struct {
	sync.Note
	EventType sync.EventType `json:"eventType"`
	EventTime time.Time      `json:"eventTime"`
	Seq       int64          `json:"seq"`
}

type pushInput struct {
	Body pushRequest
}

type pushRequest struct {
	Notes []pushItem `json:"notes" minItems:"1"`
}

type pushItem struct {
	LocalID      string  `json:"localId,omitempty"`
	ServerID     string  `json:"serverId,omitempty"`
	Title        string  `json:"title,omitempty"`
	Content      string  `json:"content,omitempty"`
	EventType    string  `json:"eventType" doc:"create, update или patch"`
	Patch        string  `json:"patch,omitempty" doc:"Патч в формате diff-match-patch"`
	FolderPath   *string `json:"folderPath,omitempty"`
	FileName     *string `json:"fileName,omitempty"`
	RelativePath *string `json:"relativePath,omitempty"`
	HasImages    *bool   `json:"hasImages,omitempty"`

	// принимаются для совместимости со старыми клиентами и игнорируются
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	ImageURLs []string   `json:"imageUrls,omitempty"`
}

type pushOutput struct {
	Body pushResponse
}

type pushResponse struct {
	Success   bool         `json:"success"`
	Results   []itemResult `json:"results"`
	Timestamp time.Time    `json:"timestamp"`
}

type itemResult struct {
	LocalID   string     `json:"localId,omitempty"`
	ServerID  string     `json:"serverId,omitempty"`
	Status    string     `json:"status"`
	Version   int        `json:"version,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Hunks     []bool     `json:"hunks,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

func toDomainItems(items []pushItem) []sync.PushItem {
	out := make([]sync.PushItem, 0, len(items))
	for _, it := range items {
		out = append(out, sync.PushItem{
			LocalID:      it.LocalID,
			ServerID:     it.ServerID,
			Title:        it.Title,
			Content:      it.Content,
			EventType:    sync.EventType(it.EventType),
			Patch:        it.Patch,
			FolderPath:   it.FolderPath,
			FileName:     it.FileName,
			RelativePath: it.RelativePath,
			HasImages:    it.HasImages,
		})
	}
	return out
}

func fromResults(results []sync.ItemResult) []itemResult {
	out := make([]itemResult, 0, len(results))
	for _, r := range results {
		res := itemResult{
			LocalID:  r.LocalID,
			ServerID: r.ServerID,
			Status:   string(r.Status),
			Version:  r.Version,
			Hunks:    r.Hunks,
			Reason:   r.Reason,
		}
		if !r.CreatedAt.IsZero() {
			createdAt := r.CreatedAt
			res.CreatedAt = &createdAt
		}
		if !r.UpdatedAt.IsZero() {
			updatedAt := r.UpdatedAt
			res.UpdatedAt = &updatedAt
		}
		out = append(out, res)
	}
	return out
}

func fromChanges(changes []sync.Change) []change {
	out := make([]change, 0, len(changes))
	for _, c := range changes {
		out = append(out, change{
			Note:      c.Note,
			EventType: c.EventType,
			EventTime: c.EventTime,
			Seq:       c.Seq,
		})
	}
	return out
}
