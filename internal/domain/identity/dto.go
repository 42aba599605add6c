package identity

type RegisterInput struct {
	DeviceID    string
	PublicKey   string
	DisplayName string
}

// Credentials заголовки подписи запроса
type Credentials struct {
	Fingerprint string
	DeviceID    string
	Challenge   string
	Signature   string
}

func (c Credentials) Complete() bool {
	return c.Fingerprint != "" && c.DeviceID != "" && c.Challenge != "" && c.Signature != ""
}

type ChallengeResult struct {
	Challenge string
	GroupID   string
}
