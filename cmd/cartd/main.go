package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/veldrane/cartd/internal/api"
	"github.com/veldrane/cartd/internal/events"
	"github.com/veldrane/cartd/internal/persistence"
	"github.com/veldrane/cartd/internal/remote"
	"github.com/veldrane/cartd/internal/store"
)

type Config struct {
	HTTPPort           string
	PersistenceBackend string
	RedisAddr          string
	RedisPassword      string
	MongoURI           string
	MongoDBName        string
	StorefrontBaseURL  string
	KafkaBrokers       string
	CartKeyPrefix      string
	ShippingThreshold  float64
	ShippingFee        float64
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		PersistenceBackend: getEnv("PERSISTENCE_BACKEND", "redis"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "cartdb"),
		StorefrontBaseURL:  getEnv("STOREFRONT_BASE_URL", "http://localhost:9292"),
		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		CartKeyPrefix:      getEnv("CART_KEY_PREFIX", "cart:"),
		ShippingThreshold:  getEnvFloat("FREE_SHIPPING_THRESHOLD", 299),
		ShippingFee:        getEnvFloat("SHIPPING_FEE", 49),
		RequestTimeout:     15 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s value %q, using default %v", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	backend, cleanup, err := buildBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up persistence backend: %v", err)
	}
	defer cleanup()

	remoteClient := remote.NewClient(cfg.StorefrontBaseURL, 10*time.Second)
	log.Printf("Using storefront cart API at %s", cfg.StorefrontBaseURL)

	var notify func(cartID string) store.Notifier
	if cfg.KafkaBrokers != "" {
		writer := events.NewWriter(strings.Split(cfg.KafkaBrokers, ",")...)
		defer writer.Close()
		notify = func(cartID string) store.Notifier {
			return events.NewNotifier(writer, cartID)
		}
		log.Printf("Publishing cart events to kafka at %s", cfg.KafkaBrokers)
	}

	registry := store.NewRegistry(backend, remoteClient, notify, cfg.CartKeyPrefix)
	resolver := func(ctx context.Context, cartID string) api.CartService {
		return registry.Get(ctx, cartID)
	}
	cartHandler := api.NewCartHandler(resolver, cfg.RequestTimeout, cfg.ShippingThreshold, cfg.ShippingFee)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(api.CartIDMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/v1", cartHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "cartd"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("cartd listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func buildBackend(ctx context.Context, cfg *Config) (persistence.Backend, func(), error) {
	switch cfg.PersistenceBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Printf("Connected to redis at %s", cfg.RedisAddr)
		return persistence.NewRedisBackend(client), func() { client.Close() }, nil

	case "mongo":
		db, err := persistence.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		backend := persistence.NewMongoBackend(db)
		if err := backend.CreateIndexes(ctx); err != nil {
			log.Printf("failed to create mongo indexes: %v", err)
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return backend, func() { db.Client().Disconnect(ctx) }, nil

	case "memory":
		log.Println("Using in-memory persistence, carts will not survive restarts")
		return persistence.NewMemoryBackend(), func() {}, nil

	default:
		return nil, nil, errors.New("unknown persistence backend: " + cfg.PersistenceBackend)
	}
}
