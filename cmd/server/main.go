package main

import (
	"context"
	"database/sql"
	"fmt"
	"fos-allocation-service/internal/adapters/cache"
	"fos-allocation-service/internal/adapters/geocode"
	"fos-allocation-service/internal/adapters/repositories"
	"fos-allocation-service/internal/api"
	"fos-allocation-service/internal/config"
	"fos-allocation-service/internal/platform/db"
	"fos-allocation-service/internal/ports"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, HERE) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	port := config.Get("PORT", "8080")

	ctx := context.Background()
	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		log.Fatal(err)
	}

	geocodeCache, closeCache, err := openGeocodeCache(ctx, sqlDB)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	// The geocoder is optional; /geocode answers 503 without keys.
	var geocoder ports.Geocoder
	apiKeys, err := config.GetStringList("API_KEYS")
	if err != nil {
		log.Fatal(err)
	}
	if len(apiKeys) > 0 {
		here, err := geocode.NewHereGeocoder(apiKeys, config.Get("GEOCODE_BASE_URL", geocode.DefaultHereBaseURL))
		if err != nil {
			log.Fatal(err)
		}
		geocoder = here
		log.Printf("geocoding enabled keys=%d", len(apiKeys))
	} else {
		log.Println("API_KEYS not set; geocoding disabled")
	}

	resolveToken := config.Get("RESOLVE_TOKEN", "")
	if resolveToken == "" {
		log.Println("RESOLVE_TOKEN not set; loan resolution disabled")
	}

	datasets := repositories.NewPostgresDatasetRepository(sqlDB)
	assignments := repositories.NewPostgresAssignmentStore(sqlDB)
	router := api.NewRouter(api.Deps{
		Datasets:        datasets,
		DatasetWriter:   datasets,
		Assignments:     assignments,
		LoanResolver:    assignments,
		ResolveToken:    resolveToken,
		Geocoder:        geocoder,
		GeocodeCache:    geocodeCache,
		DefaultMaxCases: config.GetInt("DEFAULT_MAX_CASES", 0),
	})

	// Geocoding large sheets runs sequential upstream calls, hence the long write timeout.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      config.GetDuration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openGeocodeCache prefers Redis when REDIS_URL is set and falls back to
// the geocode_cache table otherwise.
func openGeocodeCache(ctx context.Context, sqlDB *sql.DB) (ports.GeocodeCache, func(), error) {
	redisURL := config.Get("REDIS_URL", "")
	if redisURL == "" {
		return cache.NewSQLGeocodeCache(sqlDB), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open geocode cache: parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("open geocode cache: ping redis: %w", err)
	}

	ttl := config.GetDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour)
	log.Printf("geocode cache backend=redis ttl=%s", ttl)
	return cache.NewRedisGeocodeCache(client, ttl), func() { _ = client.Close() }, nil
}
