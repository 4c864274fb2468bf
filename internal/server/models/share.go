package models

import "time"

// ShareGrant authorizes a non-owner to read a file, optionally until
// ExpiresAt. Grants are append-only: there is no update or delete, and an
// expired grant simply stops matching the unexpired predicate.
type ShareGrant struct {
	FileID        int64
	GranteeUserID string
	// ExpiresAt is nil for an open-ended grant.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// SharedFile is a listing row for files shared with a user: grant data
// joined with file and owner display fields.
type SharedFile struct {
	FileID           int64
	OriginalFilename string
	UploadedAt       time.Time
	OwnerName        string
	ExpiresAt        *time.Time
}
