// Identity-provider webhook handler. The identity service calls back on
// account events; this service only reacts with transactional email.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
)

// AccountMailer sends transactional account emails. Send failures are
// logged by the handler, never retried inline.
type AccountMailer interface {
	SendWelcome(ctx context.Context, to, firstName string) error
	SendPasswordReset(ctx context.Context, to, resetToken string) error
}

// WebhookHandlers receives identity-provider callbacks.
type WebhookHandlers struct {
	mailer AccountMailer
}

// NewWebhookHandlers constructs the webhook handler. mailer may be nil,
// in which case events are acknowledged without side effects.
func NewWebhookHandlers(mailer AccountMailer) *WebhookHandlers {
	return &WebhookHandlers{mailer: mailer}
}

// IdentityEvent is the JSON payload posted by the identity provider.
type IdentityEvent struct {
	Event string `json:"event" binding:"required"`
	User  struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
	} `json:"user"`
	ResetToken string `json:"resetToken"`
}

// IdentityWebhook godoc
// @ID          identityWebhook
// @Summary     Receive identity-provider events
// @Description Reacts to account events with transactional email. Unknown events are acknowledged and ignored.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.IdentityEvent true "Event payload"
//
// @Success     202  {string} string "Accepted"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /webhooks/identity [post]
func (h *WebhookHandlers) IdentityWebhook(c *gin.Context) {
	var ev IdentityEvent
	if err := c.ShouldBindJSON(&ev); err != nil || ev.Event == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event payload")
		return
	}

	log := middleware.LoggerFrom(c)
	ctx := c.Request.Context()

	switch ev.Event {
	case "user.created":
		if ev.User.Email != "" && h.mailer != nil {
			if err := h.mailer.SendWelcome(ctx, ev.User.Email, ev.User.FirstName); err != nil {
				log.Warn().Err(err).Str("event", ev.Event).Msg("welcome email failed")
			}
		}
	case "user.password_reset":
		if ev.User.Email != "" && h.mailer != nil {
			if err := h.mailer.SendPasswordReset(ctx, ev.User.Email, ev.ResetToken); err != nil {
				log.Warn().Err(err).Str("event", ev.Event).Msg("password reset email failed")
			}
		}
	default:
		log.Debug().Str("event", ev.Event).Msg("ignoring unhandled identity event")
	}

	c.Status(http.StatusAccepted)
}
