package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/adapter/handler"
	"github.com/plateful/plateful/internal/adapter/notify"
	"github.com/plateful/plateful/internal/adapter/storage"
	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
	"github.com/plateful/plateful/internal/core/service"
	"github.com/plateful/plateful/internal/port"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpAddr := getenv("HTTP_ADDR", ":8080")
	reservationTTL := getenvDuration("RESERVATION_TTL", 2*time.Minute)
	sweepInterval := getenvDuration("SWEEP_INTERVAL", 30*time.Second)
	notifyWorkers := getenvInt("NOTIFY_WORKERS", 4)
	notifyQueueSize := getenvInt("NOTIFY_QUEUE_SIZE", 1024)

	ledger := inventory.NewStockLedger()
	reservations := inventory.NewReservationManager(ledger, reservationTTL, logger)

	memStore := storage.NewMemoryStore(ledger)
	seedDemoData(memStore)
	logger.Info("seeded demo catalog")

	// Orders persist to MySQL when a DSN is configured, in-memory otherwise.
	var orderStore port.OrderStore = memStore
	var db *sql.DB
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			logger.Fatal("failed to open mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping mysql", zap.Error(err))
		}
		orderStore = storage.NewMySQLAdapter(db)
		logger.Info("connected to mysql")
	}

	var cache port.CacheRepository = storage.NewMemoryCache()
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		cache = storage.NewRedisAdapter(rdb)
		logger.Info("connected to redis")
	}

	dispatcher := notify.NewDispatcher(orderStore, logger, notifyWorkers, notifyQueueSize)
	orderService := service.NewOrderService(memStore, orderStore, reservations, dispatcher, cache, logger)

	go reservations.RunSweeper(ctx, sweepInterval)
	logger.Info("reservation sweeper started",
		zap.Duration("ttl", reservationTTL),
		zap.Duration("interval", sweepInterval),
	)

	httpHandler := handler.NewHTTPHandler(orderService, memStore, reservations, logger)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	cancel()
	dispatcher.Close()

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("stopped")
}

func seedDemoData(store *storage.MemoryStore) {
	ctx := context.Background()
	now := time.Now()

	store.AddRestaurant(domain.Restaurant{
		ID:        "restaurant-a",
		Name:      "Pizza Palace",
		CreatedAt: now,
	})

	items := []domain.MenuItem{
		{
			ID:           "pizza-1",
			RestaurantID: "restaurant-a",
			Name:         "Margherita Pizza",
			Description:  "Classic tomato and mozzarella",
			Price:        12.99,
			Category:     "Pizza",
			Available:    true,
		},
		{
			ID:           "pizza-2",
			RestaurantID: "restaurant-a",
			Name:         "Truffle Special",
			Description:  "Limited daily batch",
			Price:        24.99,
			Category:     "Pizza",
			Available:    true,
			TrackedStock: intPtr(20),
		},
		{
			ID:           "side-1",
			RestaurantID: "restaurant-a",
			Name:         "Garlic Bread",
			Description:  "Crispy garlic bread with herbs",
			Price:        4.99,
			Category:     "Sides",
			Available:    true,
			TrackedStock: intPtr(100),
		},
	}
	for _, item := range items {
		item.CreatedAt = now
		item.UpdatedAt = now
		store.CreateMenuItem(ctx, item)
	}
}

func intPtr(v int) *int {
	return &v
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
