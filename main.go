package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voyage/config"
	"voyage/design"
	"voyage/export"
	"voyage/images"
	"voyage/middleware"
	"voyage/mq"
	"voyage/proposal"
	"voyage/ratelim"
	"voyage/rdx"
	"voyage/routes"
	"voyage/settings"
	"voyage/store"
)

func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found; using system environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongo, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}

	// export cache and save events: redis when configured, in-process otherwise
	var (
		cache  rdx.Cache
		events mq.Publisher
		redis  *rdx.Redis
	)
	if cfg.RedisAddr != "" {
		redis, err = rdx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		cache = redis
		events = &mq.Emitter{Conn: redis.Conn}
		go mq.StartInvalidationWorker(ctx, redis.Conn, cache)
	} else {
		mem := rdx.NewMemory()
		cache = mem
		events = mq.Local{Cache: mem}
		log.Warn().Msg("REDIS_ADDR not set; export cache is per-process")
	}

	var pdf *export.PDFClient
	if cfg.PDFServiceURL != "" {
		pdf = export.NewPDFClient(cfg.PDFServiceURL)
	} else {
		log.Info().Msg("PDF_SERVICE_URL not set; rendering PDFs locally")
	}

	limiter := ratelim.NewRateLimiter(cfg.ExportRatePerMin)
	go limiter.Janitor(ctx.Done())

	overlays := design.NewRegistry(mongo)
	prefs := &settings.Mongo{Collection: mongo.Profiles.Database().Collection("settings")}
	designs := design.NewHandler(overlays)
	designs.Fonts = prefs
	router := routes.RoutesWrapper(routes.Services{
		Proposal: proposal.NewHandler(proposal.Deps{
			Documents:     mongo,
			Profiles:      mongo,
			Overlays:      overlays,
			Cache:         cache,
			Events:        events,
			PDF:           pdf,
			PublicBaseURL: cfg.PublicBaseURL,
			CacheTTL:      cfg.ExportCacheTTL,
		}),
		Design:   designs,
		Settings: settings.NewHandler(prefs),
		Uploader: &images.Uploader{Dir: cfg.UploadDir, PublicPrefix: cfg.PublicBaseURL + "/static/uploads"},
		Auth:     middleware.NewAuth(cfg.JWTSecret),
		Limiter:  limiter,
	})

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Cache"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
		if redis != nil {
			if err := redis.Close(); err != nil {
				log.Error().Err(err).Msg("redis close")
			}
		}
	})

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received; shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped cleanly")
}
