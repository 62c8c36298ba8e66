package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"lpstudio/api/database"
	"lpstudio/api/handlers"
	"lpstudio/api/middleware"
	"lpstudio/api/storage"
	"lpstudio/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Local bucket store (always available; the fallback side of every
	// remote-first operation and the home of events/orders/identity) ---
	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = "data/lpstudio.json"
	}
	localStore, err := storage.NewFileStore(storePath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}

	// --- Remote relational backend (clients/lps/lp_leads). Optional:
	// without it every remote call degrades to the local path. ---
	var dbClient *database.DBClient
	if dbc, err := database.NewPostgresDB(); err != nil {
		log.Printf("WARN: remote backend unavailable, running local-only: %v", err)
	} else {
		dbClient = dbc
		defer dbClient.Close()
		if err := dbClient.EnsureSchema(); err != nil {
			log.Fatalf("Failed to ensure remote schema: %v", err)
		}
	}

	// --- Analytics warehouse sink (optional, best-effort forward) ---
	var sink store.EventSink
	if chClient, err := database.NewClickHouseDB(); err != nil {
		log.Printf("WARN: analytics warehouse unavailable, events stay local: %v", err)
	} else {
		defer chClient.Close()
		wh := store.NewWarehouseSink(chClient)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := wh.EnsureSchema(ctx); err != nil {
			log.Printf("WARN: failed to ensure warehouse schema: %v", err)
		} else {
			sink = wh
		}
		cancel()
	}

	// --- Stores ---
	tableClient := store.NewTableClient(dbClient)
	eventLog := store.NewEventLog(localStore, sink)
	identity := store.NewIdentity(localStore)
	orders := store.NewOrderStore(localStore)

	clients := store.NewFallbackRepo(store.TableClients, tableClient, store.NewRepo(localStore, storage.BucketClients))
	pages := store.NewFallbackRepo(store.TablePages, tableClient, store.NewRepo(localStore, storage.BucketPages))
	leads := store.NewFallbackRepo(store.TableLeads, tableClient, store.NewRepo(localStore, storage.BucketLeads))

	// --- Handlers ---
	authHandlers := handlers.NewAuthHandlers()
	analyticsHandlers := handlers.NewAnalyticsHandlers(eventLog, identity)
	entityHandlers := handlers.NewEntityHandlers(clients, pages, leads)
	orderHandlers := handlers.NewOrderHandlers(orders, eventLog)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Published pages call these without a builder login.
	r.GET("/payments/callback", orderHandlers.PaymentCallback)

	api := r.Group("/api")
	{
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)
		api.POST("/track", analyticsHandlers.TrackEvent)
		api.POST("/leads", entityHandlers.CreateLead)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/stats/summary", analyticsHandlers.GetMetricsSummary)
			protected.DELETE("/events", analyticsHandlers.ClearEvents)

			protected.GET("/clients", entityHandlers.ListClients)
			protected.POST("/clients", entityHandlers.CreateClient)
			protected.GET("/clients/:id", entityHandlers.GetClient)
			protected.PUT("/clients/:id", entityHandlers.UpdateClient)
			protected.DELETE("/clients/:id", entityHandlers.DeleteClient)

			protected.GET("/lps", entityHandlers.ListPages)
			protected.POST("/lps", entityHandlers.CreatePage)
			protected.GET("/lps/:id", entityHandlers.GetPage)
			protected.PUT("/lps/:id", entityHandlers.UpdatePage)
			protected.POST("/lps/:id/publish", entityHandlers.PublishPage)
			protected.DELETE("/lps/:id", entityHandlers.DeletePage)

			protected.GET("/leads", entityHandlers.ListLeads)
			protected.DELETE("/leads/:id", entityHandlers.DeleteLead)

			protected.POST("/checkout", orderHandlers.Checkout)
			protected.GET("/orders", orderHandlers.ListOrders)
			protected.GET("/orders/:id", orderHandlers.GetOrder)
			protected.POST("/coupons", orderHandlers.CreateCoupon)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("LP Studio API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
