package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/inkwell-blog/inkwell/internal/config"
	"github.com/inkwell-blog/inkwell/internal/handlers"
	"github.com/inkwell-blog/inkwell/internal/logger"
	"github.com/inkwell-blog/inkwell/internal/middleware"
	"github.com/inkwell-blog/inkwell/internal/services/github"
	"github.com/inkwell-blog/inkwell/internal/services/token"
	"github.com/inkwell-blog/inkwell/internal/telemetry"
)

const serviceName = "inkwell"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("repo", cfg.GitHubRepoOwner+"/"+cfg.GitHubRepoName),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Tracing is opt-in; the service runs fine without a collector.
	otelActive := false
	if cfg.OTELEnabled {
		shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{
			ServiceName: serviceName,
			Endpoint:    cfg.OTELEndpoint,
			Insecure:    !cfg.IsProduction(),
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_tracing", zap.Error(err))
		} else {
			otelActive = cfg.OTELEndpoint != ""
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					zapLogger.Error("failed_to_shutdown_tracing", zap.Error(err))
				}
			}()
		}
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		zapLogger.Fatal("failed_to_create_credential_codec", zap.Error(err))
	}

	resolver, err := github.NewResolver(github.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		RepoOwner:    cfg.GitHubRepoOwner,
		RepoName:     cfg.GitHubRepoName,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_github_resolver", zap.Error(err))
	}

	// Rate limiting needs Redis; without REDIS_URL the auth endpoints run
	// unthrottled, which is acceptable for local development only.
	var rateLimitMW func(http.Handler) http.Handler
	healthDeps := map[string]handlers.Pinger{}
	if cfg.RedisURL != "" {
		redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
		healthDeps["redis"] = redisLimiter

		rateLimitMW, err = middleware.RateLimit(redisLimiter, cfg.RateLimitRate)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
		}
	} else {
		zapLogger.Warn("redis_not_configured_rate_limiting_disabled")
	}

	authHandler := handlers.NewAuthHandler(resolver, codec, cfg.IsProduction(), zapLogger)
	postsHandler := handlers.NewPostsHandler(zapLogger)
	setupHandler := handlers.NewSetupHandler(cfg)
	healthChecker := handlers.NewHealthChecker(healthDeps)

	r := mux.NewRouter()

	if otelActive {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))
	// The gate guards page prefixes. API routes enforce their own permission
	// checks against claims the gate injects.
	r.Use(middleware.Gate(codec, middleware.DefaultGateConfig(cfg.IsProduction()), zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"))
	openAPIHandler.RegisterRoutes(r)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	if rateLimitMW != nil {
		authRouter.Use(rateLimitMW)
	}
	authHandler.RegisterRoutes(authRouter)

	postsHandler.RegisterRoutes(r.PathPrefix("/admin/api/posts").Subrouter())
	setupHandler.RegisterRoutes(r.PathPrefix("/setup/api").Subrouter())

	// Preflight falls through to here after the CORS middleware has set the
	// response headers.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
