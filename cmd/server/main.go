// Package main initializes and starts the FloraFacts API server, setting up
// configuration, logging, the database, the model client, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/auth"
	"github.com/atinyakov/FloraFacts/internal/config"
	"github.com/atinyakov/FloraFacts/internal/db"
	"github.com/atinyakov/FloraFacts/internal/identify"
	"github.com/atinyakov/FloraFacts/internal/logger"
	"github.com/atinyakov/FloraFacts/internal/repository"
	"github.com/atinyakov/FloraFacts/internal/server/handler/http"
	"github.com/atinyakov/FloraFacts/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// tokenIssuer is the issuer claim the server accepts.
const tokenIssuer = "florafacts"

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	db.StartSoftDeleteCleaner(ctx, postgresDB,
		time.Duration(options.CleanerInterval),
		time.Duration(options.CleanerRetention),
		zapLogger,
	)

	tokens, err := auth.NewTokens(options.JWTSecret, tokenIssuer)
	if err != nil {
		zapLogger.Fatal("cannot init token verifier", zap.Error(err))
	}

	// A missing API key is not fatal: identification answers with a
	// configuration error while the gallery keeps working.
	var gen identify.Generator
	gemini, err := identify.NewGeminiGenerator(ctx, identify.GeminiConfig{
		APIKey: options.GeminiAPIKey,
		Model:  options.GeminiModel,
	})
	switch {
	case errors.Is(err, identify.ErrNotConfigured):
		zapLogger.Warn("GEMINI_API_KEY is not set, identification is disabled")
	case err != nil:
		zapLogger.Fatal("cannot init model client", zap.Error(err))
	default:
		gen = gemini
	}
	identifier := identify.NewService(identify.NewClient(gen,
		identify.WithTimeout(time.Duration(options.IdentifyTimeout)),
		identify.WithLogger(zapLogger),
	))

	galleryService := service.NewGalleryService(repository.NewPostgresGalleryRepository(postgresDB), zapLogger)
	profileService := service.NewProfileService(repository.NewPostgresProfileRepository(postgresDB), zapLogger)

	validate := validator.New()
	router := http.NewRouter(
		&http.IdentifyHandler{Service: identifier, Validate: validate, Log: zapLogger},
		&http.GalleryHandler{Service: galleryService, Validate: validate, Log: zapLogger},
		&http.ProfileHandler{Service: profileService, Validate: validate, Log: zapLogger},
		tokens,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" && options.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS("", "")
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
		}
		return
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
