// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/freightops/freightops-backend/internal/auth"
	"github.com/freightops/freightops-backend/internal/common/database"
	"github.com/freightops/freightops-backend/internal/common/logger"
	"github.com/freightops/freightops-backend/internal/config"
	"github.com/freightops/freightops-backend/internal/fleet"
	"github.com/freightops/freightops-backend/internal/matching"
	"github.com/freightops/freightops-backend/internal/notifications"
)

var startTime = time.Now()

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚚 Starting FreightOps Load Matching API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	log.Println("✅ Configuration loaded")

	// 3. Validate configuration
	log.Println("\n✔️  Step 3: Validating configuration...")
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration is valid")

	// 4. Connect to PostgreSQL
	log.Println("\n🗄️  Step 4: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 5. Connect to Redis (optional)
	log.Println("\n📮 Step 5: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis successfully")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, skipping Redis connection")
	}

	// 6. Run database migrations
	log.Println("\n🔨 Step 6: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	sqlxDB := sqlx.NewDb(db, "postgres")

	// 7. Initialize auth middleware
	log.Println("\n🔐 Step 7: Initializing auth middleware...")
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	log.Println("✅ Auth middleware initialized")

	// 8. Initialize notifications module
	log.Println("\n🔔 Step 8: Initializing notifications module...")
	notificationsRepo := notifications.NewPostgresRepository(sqlxDB)

	var emailService notifications.EmailService
	switch cfg.EmailProvider {
	case "sendgrid":
		emailService = notifications.NewSendGridEmailService(cfg.SendGridAPIKey, cfg.EmailFrom)
		log.Println("   ✅ SendGrid email channel enabled")
	default:
		emailService = notifications.NewMockEmailService()
		log.Println("   ⚠️  Mock email channel in use")
	}

	var smsService notifications.SMSService
	switch cfg.SMSProvider {
	case "twilio":
		smsService = notifications.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		log.Println("   ✅ Twilio SMS channel enabled")
	default:
		smsService = notifications.NewMockSMSService()
		log.Println("   ⚠️  Mock SMS channel in use")
	}

	notificationsService := notifications.NewService(
		notificationsRepo,
		emailService,
		smsService,
		logger.New("notifications"),
	)
	log.Println("✅ Notifications module initialized")

	// 9. Initialize matching module
	log.Println("\n🎯 Step 9: Initializing matching module...")
	fleetRepo := fleet.NewPostgresRepository(sqlxDB)
	matchingRepo := matching.NewPostgresRepository(sqlxDB)
	scoringEngine := matching.NewScoringEngine(cfg.Matching, logger.New("scoring"))
	suggestionCache := matching.NewCache(redisClient, cfg.Matching.CacheTTL)

	matchingService := matching.NewService(
		matchingRepo,
		fleetRepo,
		scoringEngine,
		suggestionCache,
		notificationsService,
		cfg.Matching.CandidateLimit,
		logger.New("matching"),
	)
	matchingHandler := matching.NewHandler(matchingService)
	log.Println("✅ Matching module initialized")

	// 10. Start batch refresh scheduler
	log.Println("\n⏰ Step 10: Starting suggestion refresh scheduler...")
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	scheduler := matching.NewScheduler(matchingService, cfg.Matching.RefreshInterval, logger.New("scheduler"))
	scheduler.Start(schedulerCtx)
	log.Printf("✅ Scheduler running every %s", cfg.Matching.RefreshInterval)

	// 11. Setup routes
	log.Println("\n🛣️  Step 11: Setting up routes...")
	router := mux.NewRouter()

	// Health check and metrics
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	log.Println("   ✅ Matching routes registered")

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	// 12. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("\n========================================")
		log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

// runMigrations creates the matching engine's tables. The operational tables
// (trips, loads, drivers) are owned by the managed store; they are created
// here only so a local environment works out of the box.
func runMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
            id SERIAL PRIMARY KEY,
            company_id INTEGER NOT NULL,
            name VARCHAR(120) NOT NULL,
            email VARCHAR(255),
            phone VARCHAR(32),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS trips (
            id SERIAL PRIMARY KEY,
            owner_id INTEGER NOT NULL,
            company_id INTEGER NOT NULL,
            driver_id INTEGER NOT NULL REFERENCES drivers(id),
            status VARCHAR(20) NOT NULL DEFAULT 'planned',
            origin_city VARCHAR(120),
            origin_state VARCHAR(2),
            capacity_cuft NUMERIC(10,2) NOT NULL DEFAULT 0,
            capacity_used_cuft NUMERIC(10,2) NOT NULL DEFAULT 0,
            departure_date TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS trip_stops (
            id SERIAL PRIMARY KEY,
            trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
            stop_order INTEGER NOT NULL DEFAULT 0,
            city VARCHAR(120),
            state VARCHAR(2),
            lat DOUBLE PRECISION,
            lng DOUBLE PRECISION,
            delivered BOOLEAN DEFAULT FALSE
        )`,

		`CREATE TABLE IF NOT EXISTS loads (
            id SERIAL PRIMARY KEY,
            owner_id INTEGER NOT NULL,
            company_id INTEGER NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'open',
            posting_type VARCHAR(20) NOT NULL DEFAULT 'load_board',
            pickup_city VARCHAR(120),
            pickup_state VARCHAR(2),
            pickup_lat DOUBLE PRECISION,
            pickup_lng DOUBLE PRECISION,
            delivery_city VARCHAR(120),
            delivery_state VARCHAR(2),
            delivery_lat DOUBLE PRECISION,
            delivery_lng DOUBLE PRECISION,
            cubic_feet NUMERIC(10,2) NOT NULL DEFAULT 0,
            total_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
            rate_per_cuft NUMERIC(10,2),
            balance_due NUMERIC(12,2),
            pickup_date TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS load_assignments (
            id SERIAL PRIMARY KEY,
            load_id INTEGER NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
            trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
            assigned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            released_at TIMESTAMP WITH TIME ZONE
        )`,

		`CREATE TABLE IF NOT EXISTS company_preferences (
            company_id INTEGER PRIMARY KEY,
            min_profit_per_mile NUMERIC(8,2),
            max_deadhead_miles NUMERIC(8,2),
            min_match_score NUMERIC(5,2),
            min_capacity_utilization NUMERIC(5,2),
            max_capacity_utilization NUMERIC(5,2),
            preferred_return_states TEXT[],
            excluded_states TEXT[],
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS suggestions (
            id SERIAL PRIMARY KEY,
            owner_id INTEGER NOT NULL,
            trip_id INTEGER NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
            load_id INTEGER NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
            suggestion_type VARCHAR(30) NOT NULL,
            match_score NUMERIC(5,2) NOT NULL,
            profit_estimate NUMERIC(12,2) NOT NULL,
            profit_per_mile NUMERIC(10,2) NOT NULL,
            distance_to_pickup_miles NUMERIC(8,2) NOT NULL,
            capacity_fit_percent NUMERIC(5,2) NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'pending',
            viewed_at TIMESTAMP WITH TIME ZONE,
            actioned_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_trip_load UNIQUE(trip_id, load_id)
        )`,

		`CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            owner_id INTEGER NOT NULL,
            type VARCHAR(40) NOT NULL,
            title VARCHAR(200) NOT NULL,
            message TEXT NOT NULL,
            data JSONB DEFAULT '{}',
            is_read BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_trips_owner ON trips(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_stops_trip ON trip_stops(trip_id, stop_order)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_owner_status ON loads(owner_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_pickup_state ON loads(pickup_state)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_trip ON suggestions(trip_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_owner ON suggestions(owner_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_owner ON notifications(owner_id, is_read)`,
	}

	for i, migration := range migrations {
		log.Printf("   - Running migration %d/%d...", i+1, len(migrations))
		if _, err := db.Exec(migration); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
			log.Printf("   - Migration %d skipped (already exists)", i+1)
		}
	}

	return nil
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("📥 %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
