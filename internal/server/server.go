package server

import (
	"storefront-checkout/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
}

func NewServer(checkoutHandler *handler.CheckoutHandler, webhookHandler *handler.WebhookHandler) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: checkoutHandler,
		webhookHandler:  webhookHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/shipping-methods", s.checkoutHandler.ListShippingMethods)

	// -------- checkout session lifecycle --------
	checkout := api.Group("/checkout")
	checkout.POST("", s.checkoutHandler.Create)
	checkout.GET("/:token", s.checkoutHandler.Get)
	checkout.PUT("/:token/address", s.checkoutHandler.SetAddress)
	checkout.PUT("/:token/shipping-method", s.checkoutHandler.SelectShippingMethod)
	checkout.POST("/:token/complete", s.checkoutHandler.Complete)

	// -------- gateway webhooks --------
	api.POST("/webhooks/stripe", s.webhookHandler.HandleStripe)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
