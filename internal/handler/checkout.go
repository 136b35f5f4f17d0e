package handler

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/dto"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/reservation"
	"storefront-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	methods         repository.ShippingMethodRepository
}

func NewCheckoutHandler(checkoutService service.CheckoutService, methods repository.ShippingMethodRepository) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		methods:         methods,
	}
}

// httpError maps service sentinels onto stable status codes; everything
// unmatched is a 500.
func httpError(err error) error {
	var stockErr *reservation.ErrInsufficientStock
	switch {
	case errors.As(err, &stockErr):
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error": "insufficient stock",
			"skus":  stockErr.SKUs,
		})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrShippingAddressRequired),
		errors.Is(err, service.ErrShippingMethodRequired),
		errors.Is(err, service.ErrPaymentMethodNotSupported):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, service.ErrShippingMethodNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}

func (h *CheckoutHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.checkoutService.Create(ctx, req.Items)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.checkoutService.Get(ctx, c.Param("token"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, session)
}

func (h *CheckoutHandler) SetAddress(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	session, err := h.checkoutService.SetShippingAddress(ctx, c.Param("token"), &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, session)
}

func (h *CheckoutHandler) SelectShippingMethod(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ShippingMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	session, err := h.checkoutService.SelectShippingMethod(ctx, c.Param("token"), req.ShippingMethodID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, session)
}

func (h *CheckoutHandler) Complete(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.checkoutService.Complete(ctx, c.Param("token"), req.PaymentMethodType)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) ListShippingMethods(c echo.Context) error {
	ctx := c.Request().Context()

	methods, err := h.methods.FindActiveForCountry(ctx, c.QueryParam("country"))
	if err != nil {
		return err
	}

	resp := make([]*dto.ShippingMethodResponse, len(methods))
	for i, m := range methods {
		resp[i] = &dto.ShippingMethodResponse{
			ID:             m.ID,
			Name:           m.Name,
			Price:          m.Price,
			MinOrderAmount: m.MinOrderAmount,
		}
	}

	return c.JSON(http.StatusOK, resp)
}
