// Upload HTTP handler: accepts a multipart file and stores it in object
// storage, returning the public URL.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/storage"
)

// Files larger than this are rejected before reaching object storage.
const maxUploadBytes = 10 << 20 // 10 MiB

// UploadHandlers serves file uploads. uploader may be nil when object
// storage is not configured.
type UploadHandlers struct {
	uploader storage.Uploader
}

// NewUploadHandlers constructs the upload handler.
func NewUploadHandlers(u storage.Uploader) *UploadHandlers {
	return &UploadHandlers{uploader: u}
}

// UploadResponse carries the public URL of a stored file.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload godoc
// @ID          uploadFile
// @Summary     Upload a file to object storage
// @Description Accepts a multipart form field named "file" and returns its public URL.
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Authorization  header    string  true "Bearer token"
// @Param       file           formData  file    true "File to upload"
//
// @Success     201  {object} handlers.UploadResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     503  {object} handlers.ErrorResponse "Storage not configured"
// @Router      /upload [post]
func (h *UploadHandlers) Upload(c *gin.Context) {
	if middleware.IdentityFrom(c).ID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if h.uploader == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUploadFailed, "object storage is not configured")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' required")
		return
	}
	if fh.Size > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "file exceeds upload limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil || int64(len(data)) > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "file exceeds upload limit")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.uploader.Upload(c.Request.Context(), data, contentType, fh.Filename)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, UploadResponse{URL: url})
}
