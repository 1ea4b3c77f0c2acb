package handler

import (
	"context"
	stdErrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ftfc/crm/errors"
	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/usecase/calendly"
)

const maxWebhookBody = 1 << 20

// SecurityEventReceiver applies Google RISC tokens
type SecurityEventReceiver interface {
	Receive(ctx context.Context, rawToken string) (*entities.SecurityEvent, error)
}

// CalendlyProcessor handles verified Calendly webhook bodies
type CalendlyProcessor interface {
	Handle(ctx context.Context, body []byte) (*entities.ScheduledMeeting, error)
}

// Webhooks receives Google RISC and Calendly callbacks
type Webhooks struct {
	risc       SecurityEventReceiver
	calendly   CalendlyProcessor
	signingKey string
	tolerance  time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewWebhooks creates a webhook handler
func NewWebhooks(risc SecurityEventReceiver, cal CalendlyProcessor, signingKey string, tolerance time.Duration, logger *zap.Logger) *Webhooks {
	return &Webhooks{
		risc:       risc,
		calendly:   cal,
		signingKey: signingKey,
		tolerance:  tolerance,
		now:        time.Now,
		logger:     logger,
	}
}

// RISC handles POST /v1/webhooks/risc
// @Summary      Receive Google security event
// @Description  Verifies and applies a RISC Security Event Token sent by Google
// @Tags         Webhooks
// @Accept       application/secevent+jwt
// @Success      202  "Event accepted"
// @Failure      400  {object}  map[string]string  "Invalid token"
// @Failure      500  {object}  map[string]string  "Failed to apply event"
// @Router       /webhooks/risc [post]
func (h *Webhooks) RISC(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	_, err = h.risc.Receive(c.Request().Context(), strings.TrimSpace(string(body)))
	switch {
	case err == nil, stdErrors.Is(err, entities.ErrDuplicateEvent):
		return c.NoContent(http.StatusAccepted)
	case stdErrors.Is(err, entities.ErrInvalidSecurityEvent):
		h.logger.Warn("Rejected security event token", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{"err": "invalid_request", "description": err.Error()})
	default:
		return HandleError(h.logger, c, errors.ErrWebhookFailed("risc", err))
	}
}

// Calendly handles POST /v1/webhooks/calendly
// @Summary      Receive Calendly webhook
// @Description  Verifies the Calendly-Webhook-Signature header and records invitee bookings and cancellations
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        Calendly-Webhook-Signature  header    string  true  "t=<unix>,v1=<hex hmac>"
// @Success      200                         {object}  map[string]interface{}  "Webhook processed"
// @Failure      400                         {object}  map[string]interface{}  "Invalid payload"
// @Failure      401                         {object}  map[string]interface{}  "Invalid signature"
// @Router       /webhooks/calendly [post]
func (h *Webhooks) Calendly(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	header := c.Request().Header.Get(calendly.SignatureHeader)
	if err := calendly.VerifySignature(h.signingKey, header, body, h.tolerance, h.now()); err != nil {
		return HandleError(h.logger, c, err)
	}

	meeting, err := h.calendly.Handle(c.Request().Context(), body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrWebhookFailed("calendly", err))
	}

	data := map[string]interface{}{"received": true}
	if meeting != nil {
		data["meetingId"] = meeting.ID
		data["status"] = meeting.Status
	}
	return HandleSuccess(h.logger, c, data)
}

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
}
