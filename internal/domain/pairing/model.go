package pairing

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

func (a Action) Valid() bool {
	return a == ActionAccept || a == ActionReject
}

// Request запрос на сопряжение. Из pending переходит ровно один раз.
type Request struct {
	ID          string
	FromDevice  string
	FromUserID  string
	ToUser      string
	Status      Status
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// Incoming входящий запрос вместе с данными отправителя
type Incoming struct {
	ID             string    `json:"id"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	FromUsername   string    `json:"fromUsername"`
	FromShareID    string    `json:"fromShareId"`
	FromDeviceName string    `json:"fromDeviceName"`
}

// PairedDevice устройство другого пользователя, связанное с одним из наших
type PairedDevice struct {
	DeviceName    string    `json:"deviceName"`
	DeviceID      string    `json:"deviceId"`
	LastSeen      time.Time `json:"lastSeen"`
	Username      string    `json:"username"`
	ShareID       string    `json:"shareId"`
	PairedAt      time.Time `json:"pairedAt"`
	SharedGroupID string    `json:"sharedGroupId"`
}

// SharedGroupName имя группы, которая появляется при принятии запроса
func SharedGroupName(groupID string) string {
	return "group_" + strings.ReplaceAll(groupID, "-", "")
}
