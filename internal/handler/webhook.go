package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"storefront-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleStripe accepts the signed raw payload and acknowledges quickly;
// the gateway redelivers on anything but a 2xx.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	// A signature failure is the sender's problem; anything else is a
	// transient fault on our side and a 5xx asks the gateway to retry.
	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.webhookService.HandleEvent(ctx, payload, signature); err != nil {
		log.Printf("webhook processing failed: %v", err)
		if errors.Is(err, service.ErrWebhookVerification) {
			return echo.NewHTTPError(http.StatusBadRequest, "webhook rejected")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook processing failed")
	}

	return c.NoContent(http.StatusOK)
}
