package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeMailer struct {
	welcomeTo, welcomeName string
	resetTo, resetToken    string
	err                    error
}

func (f *fakeMailer) SendWelcome(_ context.Context, to, firstName string) error {
	f.welcomeTo, f.welcomeName = to, firstName
	return f.err
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, resetToken string) error {
	f.resetTo, f.resetToken = to, resetToken
	return f.err
}

func newWebhookRouter(m AccountMailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/identity", NewWebhookHandlers(m).IdentityWebhook)
	return r
}

func TestIdentityWebhook(t *testing.T) {
	t.Run("user created sends welcome", func(t *testing.T) {
		m := &fakeMailer{}
		r := newWebhookRouter(m)
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity",
			`{"event":"user.created","user":{"email":"a@b.io","firstName":"Ada"}}`, "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
		if m.welcomeTo != "a@b.io" || m.welcomeName != "Ada" {
			t.Fatalf("welcome args = %q, %q", m.welcomeTo, m.welcomeName)
		}
	})

	t.Run("password reset forwards token", func(t *testing.T) {
		m := &fakeMailer{}
		r := newWebhookRouter(m)
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity",
			`{"event":"user.password_reset","user":{"email":"a@b.io"},"resetToken":"tok-1"}`, "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
		if m.resetTo != "a@b.io" || m.resetToken != "tok-1" {
			t.Fatalf("reset args = %q, %q", m.resetTo, m.resetToken)
		}
	})

	t.Run("mailer failure still acknowledged", func(t *testing.T) {
		m := &fakeMailer{err: errors.New("smtp down")}
		r := newWebhookRouter(m)
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity",
			`{"event":"user.created","user":{"email":"a@b.io"}}`, "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("unknown event ignored", func(t *testing.T) {
		m := &fakeMailer{}
		r := newWebhookRouter(m)
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity", `{"event":"user.deleted"}`, "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
		if m.welcomeTo != "" || m.resetTo != "" {
			t.Fatalf("unexpected mail sent: %+v", m)
		}
	})

	t.Run("nil mailer acknowledges without side effects", func(t *testing.T) {
		r := newWebhookRouter(nil)
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity",
			`{"event":"user.created","user":{"email":"a@b.io"}}`, "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("missing event is rejected", func(t *testing.T) {
		r := newWebhookRouter(&fakeMailer{})
		w := doJSON(t, r, http.MethodPost, "/webhooks/identity", `{"user":{"email":"a@b.io"}}`, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})
}
