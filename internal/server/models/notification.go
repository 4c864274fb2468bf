package models

import "time"

// Notification is one entry in a user's feed, written when somebody shares
// a file with them.
type Notification struct {
	ID        int64
	UserID    string
	Message   string
	CreatedAt time.Time
}
