package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/VOID-NULLED/hackathon-OCR/internal/config"
	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
	"github.com/VOID-NULLED/hackathon-OCR/internal/repository/sqlite"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/analytics"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/camera"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/capture"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/detector"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/dispatch"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/enhance"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/ocr"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/quality"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/snapshot"
)

// App owns every service of the capture pipeline and their shutdown order.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	engine     ocr.Engine
	snapshots  *snapshot.Store
	dispatcher *dispatch.Dispatcher
	aggregator *analytics.Aggregator
	supervisor *capture.Supervisor
}

// NewApp loads configuration and wires the pipeline. Invalid configuration is
// rejected here, before any device or database is touched.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	engine, err := ocr.NewTesseractEngine(cfg.OCRLanguages)
	if err != nil {
		db.Close()
		return nil, err
	}

	frameRepo := sqlite.NewFrameRepository(db)
	analyticsRepo := sqlite.NewAnalyticsRepository(db)

	snapshots := snapshot.NewStore(cfg.ImageDirectory, cfg.ImageBufferLimit, log)
	dispatcher := dispatch.NewDispatcher(frameRepo, cfg, log)
	aggregator := analytics.NewAggregator(frameRepo, analyticsRepo, cfg.AnalyticsWindow, log)

	gate := detector.New(cfg.ConfidenceThreshold, cfg.Cooldown())
	supervisor := capture.NewSupervisor(cfg, camera.NewSource(cfg), enhance.NewEnhancer(),
		engine, quality.NewAnalyzer(), gate, dispatcher, snapshots, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		engine:     engine,
		snapshots:  snapshots,
		dispatcher: dispatcher,
		aggregator: aggregator,
		supervisor: supervisor,
	}, nil
}

// Supervisor exposes the pipeline's start/stop/stats control surface.
func (a *App) Supervisor() *capture.Supervisor {
	return a.supervisor
}

// Aggregator exposes analytics summary reads.
func (a *App) Aggregator() *analytics.Aggregator {
	return a.aggregator
}

// Run starts background services and, when configured, the acquisition loop,
// then blocks until an interrupt arrives.
func (a *App) Run() error {
	go a.snapshots.Run(a.config.ImageBufferFlushInterval)
	a.aggregator.Consume(a.dispatcher.Committed())

	fmt.Printf("🎥 Real-time OCR Capture Pipeline\n")
	fmt.Printf("📷 Source: %s (device %d)\n", a.config.SourceID, a.config.DeviceID)
	fmt.Printf("🎯 Threshold: %.1f%% | Cooldown: %.1fs\n", a.config.ConfidenceThreshold, a.config.CooldownSeconds)
	fmt.Printf("💾 Database: %s\n", a.config.DBPath)

	ctx := context.Background()
	if a.config.AutoStart {
		if err := a.supervisor.Start(ctx); err != nil {
			a.shutdown()
			return err
		}
	} else {
		a.logger.Info("AUTO_START disabled - pipeline waiting for an explicit start")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("Shutdown signal received")
	a.shutdown()
	return nil
}

// shutdown stops services in dependency order: acquisition first, then the
// dispatch queue drains, then analytics consumes the remaining events.
func (a *App) shutdown() {
	a.supervisor.Stop()
	a.dispatcher.Stop()
	a.aggregator.Wait()
	a.snapshots.Stop()
	a.engine.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
}
