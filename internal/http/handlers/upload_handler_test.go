package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
)

type fakeUploader struct {
	data        []byte
	contentType string
	filename    string
	url         string
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, contentType, filename string) (string, error) {
	f.data, f.contentType, f.filename = data, contentType, filename
	return f.url, f.err
}

func newUploadRouter(h *UploadHandlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", middleware.Auth(nil), h.Upload)
	return r
}

func doUpload(t *testing.T, r http.Handler, field, filename string, content []byte, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		r := newUploadRouter(NewUploadHandlers(&fakeUploader{}))
		w := doUpload(t, r, "file", "a.png", []byte("x"), "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("storage unconfigured is 503", func(t *testing.T) {
		r := newUploadRouter(NewUploadHandlers(nil))
		w := doUpload(t, r, "file", "a.png", []byte("x"), "u1")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("missing file field is 400", func(t *testing.T) {
		r := newUploadRouter(NewUploadHandlers(&fakeUploader{}))
		w := doUpload(t, r, "", "", nil, "u1")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("stores file and returns URL", func(t *testing.T) {
		up := &fakeUploader{url: "https://cdn.example.com/uploads/a.png"}
		r := newUploadRouter(NewUploadHandlers(up))
		w := doUpload(t, r, "file", "a.png", []byte("payload"), "u1")
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp UploadResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.URL != up.url {
			t.Fatalf("url = %q", resp.URL)
		}
		if string(up.data) != "payload" || up.filename != "a.png" {
			t.Fatalf("uploader args = %q, %q", up.data, up.filename)
		}
		if up.contentType == "" {
			t.Fatalf("content type not derived")
		}
	})

	t.Run("oversized file is 413", func(t *testing.T) {
		r := newUploadRouter(NewUploadHandlers(&fakeUploader{}))
		big := bytes.Repeat([]byte("a"), maxUploadBytes+1)
		w := doUpload(t, r, "file", "big.bin", big, "u1")
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d", w.Code)
		}
	})
}
