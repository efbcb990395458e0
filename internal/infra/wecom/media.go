package wecom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"go.uber.org/zap"
)

const pathMediaUpload = "/cgi-bin/media/upload"

// UploadMedia uploads a local file as temporary media and returns its media id.
// A missing file yields *domain.ErrFileNotFound without any HTTP call.
func (c *Client) UploadMedia(ctx context.Context, filePath string, mediaType domain.MediaType) (*domain.MediaUpload, error) {
	mediaType, ok := domain.ParseMediaType(string(mediaType))
	if !ok {
		return nil, &domain.ErrValidation{Field: "type", Message: "unsupported media type"}
	}

	stat, err := os.Stat(filePath)
	if err != nil || stat.IsDir() {
		return nil, &domain.ErrFileNotFound{Path: filePath}
	}

	body, contentType, err := multipartBody(filePath)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("type", string(mediaType))

	var resp domain.MediaUpload
	err = c.authorized(ctx, pathMediaUpload, q, func(q url.Values) error {
		return c.do(ctx, http.MethodPost, pathMediaUpload, q, body, contentType, &resp)
	})
	if err != nil {
		c.logger.Error("wecom: media upload failed",
			zap.String("file", filePath),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("wecom: media uploaded",
		zap.String("file", filePath),
		zap.String("media_id", resp.MediaID),
	)
	return &resp, nil
}

// multipartBody reads the file into a "media" form part. The file is closed
// before returning on every path.
func multipartBody(filePath string) ([]byte, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", &domain.ErrFileNotFound{Path: filePath}
		}
		return nil, "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", filepath.Base(filePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
