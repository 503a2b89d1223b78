// Package handler exposes the sync engine over HTTP: imports from server
// side paths and from uploaded PDFs.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	billhandler "github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/handler"
	"github.com/FACorreiaa/utility-bill-sync/pkg/httpx"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
	"github.com/FACorreiaa/utility-bill-sync/pkg/storage"
)

// DefaultMaxUploadBytes caps a multipart request.
const DefaultMaxUploadBytes = 64 << 20

// Syncer is the provider sync engine the handler drives.
type Syncer interface {
	Provider() string
	SyncFromDocuments(ctx context.Context, paths []string) (*billing.SyncSummary, error)
}

// ImportHandler handles import requests for one provider.
type ImportHandler struct {
	syncer     Syncer
	defaultDir string
	spool      storage.Storage
	maxUpload  int64
	logger     *slog.Logger
}

// NewImportHandler creates an import handler. defaultDir is scanned when a
// request names no paths.
func NewImportHandler(syncer Syncer, defaultDir string, spool storage.Storage, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ImportHandler{
		syncer:     syncer,
		defaultDir: defaultDir,
		spool:      spool,
		maxUpload:  maxUploadBytes,
		logger:     logger.With("provider", syncer.Provider()),
	}
}

// Routes mounts POST /imports and POST /imports/files.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/imports", h.SyncFromPaths)
	r.Post("/imports/files", h.SyncFromUploads)
}

// SyncRequest is the body of POST /imports.
type SyncRequest struct {
	PDFPaths  []string `json:"pdf_paths"`
	Recursive *bool    `json:"recursive"`
}

// SyncFromPaths syncs the PDFs named by the request, or the provider's
// configured directory when none are named.
func (h *ImportHandler) SyncFromPaths(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, err)
		return
	}
	recursive := req.Recursive == nil || *req.Recursive

	var requested []string
	for _, p := range req.PDFPaths {
		if strings.TrimSpace(p) != "" {
			requested = append(requested, p)
		}
	}

	var (
		paths []string
		err   error
	)
	if len(requested) > 0 {
		paths, err = ExpandPDFPaths(requested, recursive)
		log.Info("expanded paths", "input_count", len(req.PDFPaths), "filtered_count", len(requested), "pdf_count", len(paths))
	} else {
		paths, err = DirectoryPDFs(h.defaultDir)
		log.Info("using default documents directory", "dir", h.defaultDir, "pdf_count", len(paths))
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(paths) == 0 {
		h.fail(w, r, ErrNoDocuments)
		return
	}

	h.sync(w, r, paths)
}

// SyncFromUploads spools the multipart "files" parts that look like PDFs,
// syncs them and removes the spooled copies.
func (h *ImportHandler) SyncFromUploads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	mr, err := r.MultipartReader()
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: expected multipart/form-data", ErrNoValidUploads))
		return
	}

	batch := uuid.New()
	defer func() {
		// Best effort.
		if err := h.spool.Discard(context.WithoutCancel(ctx), batch); err != nil {
			log.Warn("failed to remove uploaded files", "batch", batch, "error", err)
		}
	}()

	var (
		paths    []string
		rejected []string
		received int
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %w", ErrNoValidUploads, err))
			return
		}
		if part.FormName() != "files" || part.FileName() == "" {
			part.Close()
			continue
		}
		received++

		name := part.FileName()
		contentType := part.Header.Get("Content-Type")
		if !acceptUpload(name, contentType) {
			rejected = append(rejected, name)
			part.Close()
			continue
		}
		if !isPDF(name) {
			name += ".pdf"
		}

		info, err := h.spool.Upload(ctx, batch, name, contentType, part)
		part.Close()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		paths = append(paths, info.Path)
	}

	if len(paths) == 0 {
		if len(rejected) > 0 {
			h.fail(w, r, fmt.Errorf("%w: rejected %s", ErrNoValidUploads, strings.Join(rejected, ", ")))
			return
		}
		h.fail(w, r, ErrNoValidUploads)
		return
	}
	log.Info("received uploaded PDFs", "uploaded_count", received, "accepted_count", len(paths), "rejected", rejected)

	h.sync(w, r, paths)
}

func (h *ImportHandler) sync(w http.ResponseWriter, r *http.Request, paths []string) {
	summary, err := h.syncer.SyncFromDocuments(r.Context(), paths)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *ImportHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), h.logger)

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, ErrNoDocuments), errors.Is(err, ErrInvalidPath),
		errors.Is(err, ErrNoValidUploads), errors.Is(err, ErrDirectoryNotFound):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, msg := billhandler.StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("sync failed", slog.Any("error", err))
	}
	httpx.WriteError(w, status, msg)
}

// acceptUpload reports whether a part looks like a PDF by content type or
// by file name.
func acceptUpload(filename, contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if mediaType == "application/pdf" || mediaType == "application/octet-stream" {
			return true
		}
	}
	return isPDF(filename)
}
