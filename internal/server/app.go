// Package server initializes and runs the vault server: it opens the
// database, runs migrations, connects object storage, derives the content
// cipher key and starts the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mpetrovs/filevault/internal/cryptox"
	"github.com/mpetrovs/filevault/internal/logging"
	"github.com/mpetrovs/filevault/internal/server/blob"
	"github.com/mpetrovs/filevault/internal/server/config"
	"github.com/mpetrovs/filevault/internal/server/httpapi"
	"github.com/mpetrovs/filevault/internal/server/repositories/repomanager"
	"github.com/mpetrovs/filevault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	vault  *services.VaultService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	// Refusing to start beats silently encrypting with a guessable key.
	cipher, err := cryptox.NewCipher(c.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("content cipher init: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := blob.NewS3Store(ctx, blob.S3Config{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store init: %w", err)
	}

	vault := services.NewVaultService(db, rm, blobs, cipher, logger)

	return &App{config: c, logger: logger, vault: vault}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	maxUploadBytes := app.config.MaxUploadSizeMB << 20

	s, err := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.vault, app.config.SecretKey, maxUploadBytes)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
