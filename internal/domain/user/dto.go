package user

import "time"

type RegisterRequest struct {
	Username   string `json:"username" validate:"required,username"`
	DeviceName string `json:"deviceName" validate:"required,max=100"`
	PublicKey  string `json:"publicKey" validate:"required"`
	DeviceID   string `json:"deviceId" validate:"required,max=100"`
}

type Registration struct {
	UserID      string
	Username    string
	ShareID     string
	SyncGroupID string
	DeviceID    string
	Fingerprint string
	NewUser     bool
}

// Profile публичные данные пользователя по share id
type Profile struct {
	Username    string
	ShareID     string
	MemberSince time.Time
}
