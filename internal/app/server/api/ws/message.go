package ws

import "time"

const TypeChangesAvailable = "changes_available"

// Message уведомление клиенту. Данных заметок не содержит, клиент сам делает pull.
type Message struct {
	Type      string    `json:"type"`
	GroupID   string    `json:"groupId"`
	Timestamp time.Time `json:"timestamp"`
}
