package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-checkout/internal/cache"
	"storefront-checkout/internal/client"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/handler"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/reservation"
	"storefront-checkout/internal/server"
	"storefront-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)
	redisClient := client.InitRedisClient(&cfg.Redis)
	store := cache.NewRedisStore(redisClient)
	gateway := client.NewStripeGateway(&cfg.Stripe)

	var mailer client.Mailer
	if cfg.Mail.SMTPAddr != "" {
		mailer = client.NewSMTPMailer(&cfg.Mail)
	} else {
		mailer = client.NewLogMailer()
	}

	productRepo := repository.NewProductRepository(db)
	methodRepo := repository.NewShippingMethodRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	sessionRepo := repository.NewSessionRepository(store, time.Duration(cfg.Checkout.SessionTTL)*time.Second)

	if cfg.Environment.Name == "development" {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Println("seed products:", err)
		}
		if err := methodRepo.Seed(context.Background()); err != nil {
			log.Println("seed shipping methods:", err)
		}
	}

	engine := reservation.NewEngine(db, store, productRepo, time.Duration(cfg.Checkout.StockHoldTTL)*time.Second)

	checkoutService := service.NewCheckoutService(
		db, store,
		sessionRepo,
		productRepo,
		methodRepo,
		orderRepo,
		engine,
		gateway,
		cfg.Checkout,
	)
	webhookService := service.NewWebhookService(gateway, orderRepo, webhookEventRepo, engine, mailer)

	sweeper := service.NewSweeper(
		orderRepo, gateway, engine,
		time.Duration(cfg.Sweeper.Interval)*time.Second,
		time.Duration(cfg.Sweeper.PendingMaxAge)*time.Second,
	)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweeperCtx)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService, methodRepo)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(checkoutHandler, webhookHandler)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	stopSweeper()

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
