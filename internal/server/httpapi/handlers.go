package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/mpetrovs/filevault/internal/common"
)

type uploadResponse struct {
	FileID int64 `json:"file_id"`
}

type fileResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type sharedFileResponse struct {
	ID        int64      `json:"id"`
	Filename  string     `json:"filename"`
	Owner     string     `json:"owner"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type shareRequest struct {
	FileID          int64      `json:"file_id"`
	GranteeUsername string     `json:"grantee_username"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(ctx, w, fmt.Errorf("reading form file: %w", common.ErrorValidation))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(ctx, w, fmt.Errorf("file exceeds %d bytes: %w", tooLarge.Limit, common.ErrorValidation))
			return
		}
		s.writeError(ctx, w, err)
		return
	}

	fileID, err := s.vault.Upload(ctx, identityFrom(r), header.Filename, content)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, uploadResponse{FileID: fileID})
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	files, err := s.vault.ListMine(ctx, identityFrom(r), includeArchived)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, fileResponse{ID: f.ID, Filename: f.OriginalFilename, UploadedAt: f.UploadedAt})
	}
	s.writeJSON(ctx, w, resp)
}

func (s *Server) handleListShared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shared, err := s.vault.ListSharedWithMe(ctx, identityFrom(r))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	resp := make([]sharedFileResponse, 0, len(shared))
	for _, f := range shared {
		resp = append(resp, sharedFileResponse{ID: f.FileID, Filename: f.OriginalFilename, Owner: f.OwnerName, ExpiresAt: f.ExpiresAt})
	}
	s.writeJSON(ctx, w, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fileID, err := parseFileID(r.PathValue("id"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	filename, content, err := s.vault.Download(ctx, identityFrom(r), fileID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Write(content)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fileID, err := parseFileID(r.PathValue("id"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	if err := s.vault.Archive(ctx, identityFrom(r), fileID); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(ctx, w, fmt.Errorf("decoding request: %w", common.ErrorValidation))
		return
	}

	if err := s.vault.Share(ctx, identityFrom(r), req.FileID, req.GranteeUsername, req.ExpiresAt); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.vault.Notifications(ctx, identityFrom(r))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, notificationResponse{ID: n.ID, Message: n.Message, CreatedAt: n.CreatedAt})
	}
	s.writeJSON(ctx, w, resp)
}

func parseFileID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("file id %q: %w", raw, common.ErrorValidation)
	}
	return id, nil
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "encoding response", "error", err)
	}
}

// writeError maps engine sentinels to status codes. Unrecognized errors
// become 500 and are logged; their text never reaches the client.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, common.ErrorAccessDenied):
		http.Error(w, "access denied", http.StatusForbidden)
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, common.ErrorAlreadyShared):
		http.Error(w, "already shared", http.StatusConflict)
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
