// Package models defines server-side data models persisted in the database.
package models

import "time"

// File describes catalog metadata for one uploaded file. The encrypted
// content itself lives in object storage under StoredBlobID.
type File struct {
	// ID is the database-assigned identifier.
	ID int64
	// OwnerID is the uploading user. Ownership never changes.
	OwnerID string
	// OriginalFilename is the sanitized display name (no path components).
	OriginalFilename string
	// StoredBlobID is the opaque object-storage key of the ciphertext.
	// Random per upload, unique, never reused, never derived from content.
	StoredBlobID string
	// UploadedAt is set by the database on insert.
	UploadedAt time.Time
	// Archived marks a soft-archived file. The transition is one-way.
	Archived bool
}
