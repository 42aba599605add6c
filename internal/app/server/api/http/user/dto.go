package user

import "time"

type registerInput struct {
	Body registerRequest
}

type registerRequest struct {
	Username   string `json:"username" doc:"3-50 символов: буквы, цифры, '_' и '-'"`
	DeviceName string `json:"deviceName" doc:"Имя устройства"`
	PublicKey  string `json:"publicKey" doc:"Публичный ключ устройства"`
	DeviceID   string `json:"deviceId" doc:"ID устройства"`
}

type registerOutput struct {
	Body registerResponse
}

type registerResponse struct {
	Message     string      `json:"message"`
	ShareID     string      `json:"shareId" example:"alice#k3x9"`
	SyncGroupID string      `json:"syncGroupId"`
	DeviceID    string      `json:"deviceId"`
	Fingerprint string      `json:"fingerprint"`
	User        userSummary `json:"user"`
}

type userSummary struct {
	Username string `json:"username"`
	ShareID  string `json:"shareId"`
}

type lookupInput struct {
	ShareID string `path:"shareId" example:"alice#k3x9" doc:"Share ID пользователя"`
}

type lookupOutput struct {
	Body lookupResponse
}

type lookupResponse struct {
	Username    string    `json:"username"`
	ShareID     string    `json:"shareId"`
	MemberSince time.Time `json:"memberSince"`
}

type devicesOutput struct {
	Body devicesResponse
}

type devicesResponse struct {
	Devices []deviceItem `json:"devices"`
}

type deviceItem struct {
	DeviceName  string    `json:"deviceName"`
	DeviceID    string    `json:"deviceId"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
	LastSeen    time.Time `json:"lastSeen"`
}
