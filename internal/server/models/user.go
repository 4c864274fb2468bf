package models

import "time"

// User is a row in the users directory. The credential gate owns writes to
// this table; the vault only reads it to resolve grantee usernames.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}
