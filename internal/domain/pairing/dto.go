package pairing

import "time"

type Sent struct {
	RequestID  string
	TargetUser string
	SentAt     time.Time
}

type Response struct {
	RequestID     string
	Action        Action
	SharedGroupID string
}
