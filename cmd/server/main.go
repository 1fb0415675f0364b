package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docview/internal/api"
	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/dgallion1/docview/internal/viewer"
)

func main() {
	cfg := config.Load()
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := tagschema.LoadFile(cfg.SchemaFile)
	if err != nil {
		log.Error("load tag schemas", "error", err)
		os.Exit(1)
	}

	// Initialize the document source.
	var src source.Source
	var closeSource func()
	switch {
	case cfg.S3.Endpoint != "":
		s3, err := source.NewS3(source.S3Config(cfg.S3), cfg.MaxDocumentBytes)
		if err != nil {
			log.Error("init s3 source", "error", err)
			os.Exit(1)
		}
		src = s3
		log.Info("serving documents from s3", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
	case cfg.AssetURL != "":
		h := source.NewHTTP(cfg.AssetURL, cfg.AssetAPIKey, cfg.MaxDocumentBytes)
		src, closeSource = h, h.Close
		log.Info("serving documents from http", "url", cfg.AssetURL)
	default:
		src = source.NewDir(cfg.AssetDir, cfg.MaxDocumentBytes)
		log.Info("serving documents from directory", "dir", cfg.AssetDir)
	}

	// Initialize the render pipeline.
	parsers := parser.Options{
		Markdown:             parser.NewMarkdown(cfg.HighlightStyle),
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	}
	stats := viewer.NewStats(cfg.StatsWindow)
	loader, err := viewer.NewLoader(src, reg, parsers, cfg.CacheSize, stats, log)
	if err != nil {
		log.Error("init loader", "error", err)
		os.Exit(1)
	}

	sessions := viewer.NewManager(loader, cfg.SessionTTL, log)
	sessions.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(loader, stats, sessions, reg, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
		if closeSource != nil {
			closeSource()
		}
	}()

	log.Info("starting docview", "port", cfg.Port, "tags", reg.Names())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
