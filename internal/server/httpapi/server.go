// Package httpapi exposes the vault engine over HTTP. Every route except
// the health check requires a bearer token from the credential gate; the
// handlers translate between wire formats and the engine, and map the
// engine's sentinel errors to status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/mpetrovs/filevault/internal/logging"
	"github.com/mpetrovs/filevault/internal/server/models"
	"github.com/mpetrovs/filevault/internal/server/services"
)

// Vault is the engine surface the transport needs.
type Vault interface {
	Upload(ctx context.Context, id services.Identity, filename string, content []byte) (int64, error)
	Download(ctx context.Context, id services.Identity, fileID int64) (string, []byte, error)
	Archive(ctx context.Context, id services.Identity, fileID int64) error
	Share(ctx context.Context, id services.Identity, fileID int64, granteeUsername string, expiresAt *time.Time) error
	ListMine(ctx context.Context, id services.Identity, includeArchived bool) ([]*models.File, error)
	ListSharedWithMe(ctx context.Context, id services.Identity) ([]*models.SharedFile, error)
	Notifications(ctx context.Context, id services.Identity) ([]*models.Notification, error)
}

type Server struct {
	address        string
	vault          Vault
	logger         logging.Logger
	jwtSecret      []byte
	maxUploadBytes int64
}

func NewServer(a string, l logging.Logger, v Vault, secretKey string, maxUploadBytes int64) (*Server, error) {
	return &Server{
		address:        a,
		logger:         l.With("module", "http_server"),
		vault:          v,
		jwtSecret:      []byte(secretKey),
		maxUploadBytes: maxUploadBytes,
	}, nil
}

// Handler builds the route table. Method patterns require Go 1.22 ServeMux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.Handle("POST /files", s.withAuth(s.handleUpload))
	mux.Handle("GET /files/mine", s.withAuth(s.handleListMine))
	mux.Handle("GET /files/shared", s.withAuth(s.handleListShared))
	mux.Handle("GET /files/{id}/content", s.withAuth(s.handleDownload))
	mux.Handle("POST /files/{id}/archive", s.withAuth(s.handleArchive))
	mux.Handle("POST /shares", s.withAuth(s.handleShare))
	mux.Handle("GET /notifications", s.withAuth(s.handleNotifications))

	return mux
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
