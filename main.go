package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/handler"
	"github.com/msomdec/squadhub/internal/repository/mongo"
	"github.com/msomdec/squadhub/internal/repository/postgres"
	"github.com/msomdec/squadhub/internal/repository/sqlite"
	"github.com/msomdec/squadhub/internal/service"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	logOpts := &slog.HandlerOptions{Level: parseLogLevel(os.Getenv("LOG_LEVEL"))}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	authDBPath := envOrDefault("AUTH_DATABASE_PATH", "squadhub.db")
	backend := envOrDefault("STORE_BACKEND", "sqlite")
	baseURL := strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", "http://localhost:"+port), "/")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(jwtSecret) < 32 {
		slog.Error("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	bcryptCost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid BCRYPT_COST", "error", err)
			os.Exit(1)
		}
		if parsed < 4 || parsed > 14 {
			slog.Error("BCRYPT_COST must be between 4 and 14", "value", parsed)
			os.Exit(1)
		}
		bcryptCost = parsed
	}

	authDB, err := sqlite.New(authDBPath)
	if err != nil {
		slog.Error("failed to open auth database", "error", err)
		os.Exit(1)
	}
	defer authDB.Close()

	if err := authDB.Migrate(context.Background()); err != nil {
		slog.Error("failed to run auth migrations", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openDocumentStore(context.Background(), backend, authDB, authDBPath)
	if err != nil {
		slog.Error("failed to open document store", "backend", backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("database migrations applied", "backend", backend)

	authService := service.NewAuthService(authDB.Accounts(), authDB.AuthSessions(), authDB.PasswordResets(),
		service.LogMailer{}, jwtSecret, bcryptCost, baseURL)
	profiles := service.NewProfileStore(store)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Backend:      backend,
		Store:        store,
		Auth:         authService,
		Account:      service.NewAccountService(authService, profiles),
		Profiles:     profiles,
		Groups:       service.NewGroupService(store),
		Dashboard:    service.NewDashboardAggregator(store),
		Dispatcher:   service.NewDispatcher(service.NewMembershipController(store)),
		Pages:        service.NewPageRegistry(30*time.Minute, 5*time.Minute),
		Limiter:      service.NewRateLimiter(0.2, 5, 10*time.Minute),
		CookieSecure: cookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrated runs db's migrations and returns its document store with a
// closer.
func migrated(ctx context.Context, db domain.Database, store domain.DocumentStore) (domain.DocumentStore, func(), error) {
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store, func() { db.Close() }, nil
}

// openDocumentStore connects the configured document backend. The sqlite
// backend shares the auth database unless DATABASE_PATH names another file.
func openDocumentStore(ctx context.Context, backend string, authDB *sqlite.DB, authDBPath string) (domain.DocumentStore, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch backend {
	case "sqlite":
		path := envOrDefault("DATABASE_PATH", authDBPath)
		if path == authDBPath {
			return authDB.Documents(), func() {}, nil
		}
		db, err := sqlite.New(path)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, db, db.Documents())

	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		db, err := postgres.New(ctx, connStr)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, db, db.Documents())

	case "mongo":
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			return nil, nil, fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
		db, err := mongo.New(ctx, uri, envOrDefault("MONGO_DATABASE", "squadhub"))
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, db, db.Documents())
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q (want sqlite, postgres or mongo)", backend)
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
