package auth

type registerInput struct {
	Body registerRequest
}

type registerRequest struct {
	PublicKey  string `json:"publicKey" minLength:"1" doc:"PEM, JSON {n,e} или OpenSSH authorized_keys"`
	DeviceID   string `json:"deviceId" minLength:"1" maxLength:"255" doc:"ID устройства"`
	DeviceName string `json:"deviceName,omitempty" maxLength:"255" doc:"Отображаемое имя устройства"`
}

type registerOutput struct {
	Body registerResponse
}

type registerResponse struct {
	Message     string `json:"message"`
	Fingerprint string `json:"fingerprint" example:"3f2a9c0e1b7d4a66"`
	GroupID     string `json:"groupId"`
	DeviceID    string `json:"deviceId"`
}

type challengeInput struct {
	Body challengeRequest
}

type challengeRequest struct {
	Fingerprint string `json:"fingerprint" minLength:"1"`
	DeviceID    string `json:"deviceId" minLength:"1"`
}

type challengeOutput struct {
	Body challengeResponse
}

type challengeResponse struct {
	Challenge string `json:"challenge" doc:"32 случайных байта в hex"`
	GroupID   string `json:"groupId"`
}

type verifyInput struct {
	Body verifyRequest
}

type verifyRequest struct {
	Fingerprint string `json:"fingerprint" minLength:"1"`
	DeviceID    string `json:"deviceId" minLength:"1"`
	Challenge   string `json:"challenge" minLength:"1"`
	Signature   string `json:"signature" minLength:"1" doc:"Подпись challenge в base64"`
}

type verifyOutput struct {
	Body verifyResponse
}

type verifyResponse struct {
	Success bool   `json:"success"`
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}
