package repomanager

import (
	"context"
	"database/sql"

	"github.com/mpetrovs/filevault/internal/dbx"
	"github.com/mpetrovs/filevault/internal/server/repositories/catalog"
	"github.com/mpetrovs/filevault/internal/server/repositories/notifications"
	"github.com/mpetrovs/filevault/internal/server/repositories/shares"
	"github.com/mpetrovs/filevault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Catalog(db dbx.DBTX) catalog.Repository
	Shares(db dbx.DBTX) shares.Repository
	Users(db dbx.DBTX) users.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}
