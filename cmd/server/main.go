package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/harisalimughal/GoSeller-sub002/internal/config"
	"github.com/harisalimughal/GoSeller-sub002/internal/database"
	"github.com/harisalimughal/GoSeller-sub002/internal/handlers"
	"github.com/harisalimughal/GoSeller-sub002/internal/jobs"
	mW "github.com/harisalimughal/GoSeller-sub002/internal/middleware"
	"github.com/harisalimughal/GoSeller-sub002/internal/services"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	settlementCfg := config.LoadSettlementConfig()

	// Initialize storage
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	walletService := services.NewWalletService(db, redisClient)
	ledgerService := services.NewLedgerService(db, walletService)
	distributionService := services.NewDistributionService(walletService, ledgerService, redisClient, settlementCfg)
	escalationService := services.NewEscalationService(db, services.SystemClock{}, settlementCfg)
	fineService := services.NewFineService(db, walletService, ledgerService, settlementCfg)

	eventsHandler := handlers.NewEventsHandler(distributionService, escalationService)
	walletHandler := handlers.NewWalletHandler(walletService, ledgerService)
	complaintHandler := handlers.NewComplaintHandler(escalationService)

	// Background escalation and fine scheduler
	jobCtx, cancelJob := context.WithCancel(context.Background())
	escalationJob := jobs.NewEscalationJob(escalationService, fineService, settlementCfg)
	go escalationJob.Start(jobCtx)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			// Upstream events
			r.Post("/events/order-completed", eventsHandler.OrderCompleted)
			r.Post("/events/complaint-created", eventsHandler.ComplaintCreated)

			// Wallets and ledger
			r.Get("/owners/{ownerId}/balance", walletHandler.GetBalance)
			r.Get("/owners/{ownerId}/transactions", walletHandler.ListOwnerTransactions)
			r.Get("/wallets/{walletId}/trusty-status", walletHandler.GetTrustyStatus)
			r.Get("/orders/{orderId}/transactions", walletHandler.ListOrderTransactions)
			r.Get("/transactions", walletHandler.ListDayTransactions)
			r.Get("/transactions/{txId}", walletHandler.GetTransaction)
			r.Post("/transactions/{txId}/reverse", walletHandler.ReverseTransaction)

			// Complaints
			r.Get("/complaints/{complaintId}", complaintHandler.GetComplaint)
			r.Post("/complaints/{complaintId}/escalate", complaintHandler.Escalate)
			r.Post("/complaints/{complaintId}/in-progress", complaintHandler.MarkInProgress)
			r.Post("/complaints/{complaintId}/resolve", complaintHandler.Resolve)
			r.Post("/complaints/{complaintId}/close", complaintHandler.Close)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancelJob()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
