package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxUploadBytes matches the platform's 20MB ceiling for file media.
const maxUploadBytes = 20 << 20

// ============================================================
// POST /v1/media?type=file
// ============================================================

// uploadMediaHandler stages the "media" form file in a temporary directory
// under its original base name, uploads it and removes the directory.
func uploadMediaHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/media")
		defer span.End()

		mediaType, ok := domain.ParseMediaType(r.URL.Query().Get("type"))
		if !ok {
			writeError(w, http.StatusBadRequest, "type must be one of image, voice, video, file")
			return
		}
		span.SetAttributes(attribute.String("wecom.media_type", string(mediaType)))

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		src, header, err := r.FormFile("media")
		if err != nil {
			writeError(w, http.StatusBadRequest, "form field \"media\" is required")
			return
		}
		defer src.Close()

		dir, err := os.MkdirTemp("", "wecom-media-*")
		if err != nil {
			logger.Error("media: create staging dir", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		defer os.RemoveAll(dir)

		name := filepath.Base(header.Filename)
		if name == "." || name == string(filepath.Separator) {
			name = "upload"
		}
		staged := filepath.Join(dir, name)

		if err := stage(staged, src); err != nil {
			logger.Error("media: stage upload", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		upload, err := notifier.UploadMedia(ctx, staged, mediaType)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, upload)
	}
}

func stage(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
