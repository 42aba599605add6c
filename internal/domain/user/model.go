package user

import "time"

type User struct {
	ID        string
	Username  string
	ShareID   string
	CreatedAt time.Time
}
