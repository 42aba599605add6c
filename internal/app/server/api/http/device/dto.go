package device

import (
	"time"

	"notesync/internal/domain/pairing"
)

type pairRequestInput struct {
	Body pairRequestBody
}

type pairRequestBody struct {
	TargetShareID string `json:"targetShareId" doc:"Share ID пользователя, с которым нужно сопрячь устройства"`
}

type pairRequestOutput struct {
	Body pairRequestResponse
}

type pairRequestResponse struct {
	Message    string    `json:"message"`
	RequestID  string    `json:"requestId"`
	TargetUser string    `json:"targetUser"`
	SentAt     time.Time `json:"sentAt"`
}

type requestsOutput struct {
	Body requestsResponse
}

type requestsResponse struct {
	Requests []pairing.Incoming `json:"requests"`
}

type respondInput struct {
	RequestID string `path:"requestId" doc:"ID запроса на сопряжение"`
	Body      respondBody
}

type respondBody struct {
	Action string `json:"action" enum:"accept,reject" doc:"accept или reject"`
}

type respondOutput struct {
	Body respondResponse
}

type respondResponse struct {
	Message       string  `json:"message"`
	Action        string  `json:"action"`
	SharedGroupID *string `json:"sharedGroupId"`
}

type pairedOutput struct {
	Body pairedResponse
}

type pairedResponse struct {
	PairedDevices []pairing.PairedDevice `json:"pairedDevices"`
}
