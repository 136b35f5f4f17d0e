package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubWebhookService returns a canned handling result.
type stubWebhookService struct {
	err error
}

func (s stubWebhookService) HandleEvent(context.Context, []byte, string) error {
	return s.err
}

func postStripeWebhook(svc service.WebhookService) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, NewWebhookHandler(svc).HandleStripe(c)
}

func TestHandleStripe_OK(t *testing.T) {
	rec, err := postStripeWebhook(stubWebhookService{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStripe_BadSignature(t *testing.T) {
	_, err := postStripeWebhook(stubWebhookService{
		err: fmt.Errorf("%w: signature mismatch", service.ErrWebhookVerification),
	})

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestHandleStripe_TransientFailureAsksForRetry(t *testing.T) {
	_, err := postStripeWebhook(stubWebhookService{
		err: errors.New("store connection reset"),
	})

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}
