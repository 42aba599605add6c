package identity

import "time"

// Identity устройство, доказывающее владение ключом
type Identity struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"deviceId"`
	PublicKey   string    `json:"-"`
	Fingerprint string    `json:"fingerprint"`
	DisplayName string    `json:"displayName"`
	GroupID     string    `json:"groupId"`
	UserID      string    `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUsedAt  time.Time `json:"lastUsedAt"`
}

// Principal аутентифицированный вызывающий. GroupID берется только отсюда.
type Principal struct {
	IdentityID  string
	DeviceID    string
	Fingerprint string
	GroupID     string
	UserID      string
	DisplayName string
}

func (p Principal) HasUser() bool {
	return p.UserID != ""
}

// Authored сообщает, что событие с такими device/fingerprint создано этим вызывающим
func (p Principal) Authored(deviceID, fingerprint string) bool {
	return p.DeviceID == deviceID && p.Fingerprint == fingerprint
}

func (i *Identity) Principal() Principal {
	return Principal{
		IdentityID:  i.ID,
		DeviceID:    i.DeviceID,
		Fingerprint: i.Fingerprint,
		GroupID:     i.GroupID,
		UserID:      i.UserID,
		DisplayName: i.DisplayName,
	}
}

// GroupName имя изолированной группы, создаваемой при первой регистрации ключа
func GroupName(fingerprint string) string {
	return "group_" + fingerprint
}
