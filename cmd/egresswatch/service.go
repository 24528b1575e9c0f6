package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/egresswatch/egresswatch/internal/anomaly"
	"github.com/egresswatch/egresswatch/internal/config"
	"github.com/egresswatch/egresswatch/internal/features"
	"github.com/egresswatch/egresswatch/internal/infrastructure"
	"github.com/egresswatch/egresswatch/internal/keywords"
	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/risk"
	"github.com/egresswatch/egresswatch/internal/rules"
	"github.com/egresswatch/egresswatch/internal/sessions"
	"github.com/egresswatch/egresswatch/internal/whitelist"
	"github.com/egresswatch/egresswatch/internal/workflow"
)

// Service assembles the classification pipeline: infrastructure, domain
// stores, the orchestrator, and the session worker.
type Service struct {
	cfg      *config.Config
	infra    *infrastructure.Infrastructure
	keywords keywords.Store
	loader   *rules.Loader
	worker   *workflow.Worker
	metrics  *metricsServer
	registry *prometheus.Registry
}

func NewService(cfg *config.Config) (*Service, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	conn := infra.Database.Connection()
	sessionStore := sessions.New(conn, infra.Logger)
	recordStore := records.New(conn, infra.Logger)
	ruleStore := rules.New(conn, infra.Logger)
	whitelistStore := whitelist.New(conn, infra.Logger)
	keywordStore := keywords.New(conn, infra.Logger)

	registry := prometheus.NewRegistry()
	metrics := workflow.NewMetrics(registry)

	scorer := anomaly.NewScorer(anomaly.Config{
		Estimators:    cfg.Engine.Estimators,
		SampleSize:    cfg.Engine.SampleSize,
		Seed:          uint64(cfg.Engine.Seed),
		Contamination: cfg.Engine.Contamination,
	}, infra.Logger)

	rt := &workflow.Runtime{
		Sessions:     sessionStore,
		Records:      recordStore,
		Rules:        ruleStore,
		Whitelist:    whitelistStore,
		Engine:       rules.NewEngine(infra.Logger),
		Extractor:    features.NewExtractor(keywordStore, infra.Logger),
		Scorer:       scorer,
		Risk:         risk.NewEngine(cfg.Engine.Weights, cfg.Engine.Thresholds, infra.Logger),
		Metrics:      metrics,
		Logger:       infra.Logger,
		ChunkSize:    cfg.Engine.ChunkSize,
		MaxMLRecords: cfg.Engine.MaxMLRecords,
	}

	orch := workflow.NewOrchestrator(rt)
	worker := workflow.NewWorker(
		orch,
		sessionStore,
		cfg.Worker.PollIntervalDuration(),
		cfg.Worker.MaxConcurrentSessions,
		infra.Logger,
	)

	infra.Logger.Info(
		"service initialized",
		"version", cfg.Version,
		"poll_interval", cfg.Worker.PollInterval,
		"max_concurrent_sessions", cfg.Worker.MaxConcurrentSessions,
	)

	return &Service{
		cfg:      cfg,
		infra:    infra,
		keywords: keywordStore,
		loader:   rules.NewLoader(ruleStore, infra.Logger),
		worker:   worker,
		metrics:  newMetricsServer(&cfg.Metrics, registry, infra.Database, infra.Lifecycle, infra.Logger),
		registry: registry,
	}, nil
}

func (s *Service) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.seedKeywords(); err != nil {
		return err
	}
	if err := s.importRules(); err != nil {
		return err
	}

	s.worker.Start(s.infra.Lifecycle)

	if s.cfg.Metrics.Enabled {
		s.metrics.Start(s.infra.Lifecycle)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Service) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

func (s *Service) seedKeywords() error {
	if s.cfg.Keywords.SeedPath == "" {
		return nil
	}

	ctx := s.infra.Lifecycle.Context()
	if _, err := keywords.Seed(ctx, s.keywords, s.cfg.Keywords.SeedPath, s.infra.Logger); err != nil {
		return fmt.Errorf("seed keywords: %w", err)
	}
	return nil
}

// importRules loads the configured rule pack and, when watching is enabled,
// keeps it in sync with the file on disk for the life of the service.
func (s *Service) importRules() error {
	if s.cfg.Rules.PackPath == "" {
		return nil
	}

	lc := s.infra.Lifecycle
	if _, err := s.loader.Import(lc.Context(), s.cfg.Rules.PackPath); err != nil {
		return fmt.Errorf("import rule pack: %w", err)
	}

	if !s.cfg.Rules.WatchPack {
		return nil
	}

	watcher, err := rules.NewWatcher(s.loader, s.cfg.Rules.PackPath, s.infra.Logger)
	if err != nil {
		return fmt.Errorf("watch rule pack: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Run(lc.Context()); err != nil {
			s.infra.Logger.Error("rule pack watcher stopped", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-done
	})

	return nil
}
