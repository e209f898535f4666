package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wfmassist/internal/clock"
	"wfmassist/internal/config"
	"wfmassist/internal/engine"
	"wfmassist/internal/feed"
	"wfmassist/internal/ingest"
	"wfmassist/internal/logging"
	"wfmassist/internal/state"
	"wfmassist/internal/telemetry"
	"wfmassist/internal/templatefmt"
)

const feedForwardBuffer = 256

// Service composes runtime dependencies and process lifecycle.
// Params: config snapshot and shared runtime components.
// Returns: runnable dashboard service.
type Service struct {
	cfg           config.Config
	logger        *slog.Logger
	closeLog      func()
	registry      *prometheus.Registry
	metrics       *telemetry.Metrics
	dashboard     *Dashboard
	httpSrv       *http.Server
	listener      net.Listener
	natsSub       interface{ Close() error }
	publisher     feed.Publisher
	forwardCancel context.CancelFunc
	forwardWG     sync.WaitGroup
	readyFlag     atomic.Bool
}

// NewService builds service instance from config source.
// Params: config source and clock implementation; nil clock uses RealClock.
// Returns: initialized service or setup error.
func NewService(source config.ConfigSource, clk clock.Clock) (*Service, error) {
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return nil, err
	}
	return NewServiceFromConfig(cfg, clk)
}

// NewServiceFromConfig builds service from an already loaded snapshot.
// Params: validated config and clock implementation.
// Returns: initialized service or setup error.
func NewServiceFromConfig(cfg config.Config, clk clock.Clock) (*Service, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger, closeLog, err := logging.New(cfg.Log, cfg.Service.Name)
	if err != nil {
		return nil, err
	}

	service := &Service{cfg: cfg, logger: logger, closeLog: closeLog}
	if cfg.Metrics.Enabled {
		service.registry = telemetry.NewRegistry()
		service.metrics = telemetry.NewMetrics(service.registry)
	}

	opts, err := DashboardOptions(cfg, clk, logger, service.metrics)
	if err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	service.dashboard = NewDashboard(opts)

	if err := service.buildHTTPServer(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	if err := service.buildNATS(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	return service, nil
}

// DashboardOptions maps config snapshot onto dashboard options.
// Params: config, clock, logger, optional metrics.
// Returns: dashboard options or template compile error.
func DashboardOptions(cfg config.Config, clk clock.Clock, logger *slog.Logger, metrics *telemetry.Metrics) (Options, error) {
	opts := Options{
		Clock: clk,
		Limits: state.Limits{
			BillingSLDrop:        cfg.Simulation.BillingSLDrop,
			BillingSLFloor:       cfg.Simulation.BillingSLFloor,
			BillingVolumeRise:    cfg.Simulation.BillingVolumeRise,
			BillingVolumeCeiling: cfg.Simulation.BillingVolumeCeiling,
			CancellationsRise:    cfg.Simulation.CancellationsRise,
			CancellationsCeiling: cfg.Simulation.CancellationsCeiling,
			AIHandlingRise:       cfg.Simulation.AIHandlingRise,
			AIHandlingCeiling:    cfg.Simulation.AIHandlingCeiling,
			ServiceLevelMax:      100,
			AIHandlingPercentMax: 100,
		},
		Thresholds: engine.Thresholds{
			BillingSLBelow:     cfg.Monitor.BillingSLBelow,
			AIHandlingAbove:    cfg.Monitor.AIHandlingAbove,
			CancellationsAbove: cfg.Monitor.CancellationsAbove,
		},
		Delays: engine.Delays{
			BillingSpike:     time.Duration(cfg.Monitor.DelayMS.BillingSpike) * time.Millisecond,
			AIPerformance:    time.Duration(cfg.Monitor.DelayMS.AIPerformance) * time.Millisecond,
			Churn:            time.Duration(cfg.Monitor.DelayMS.ChurnAlert) * time.Millisecond,
			ReportGeneration: time.Duration(cfg.Monitor.DelayMS.ReportGeneration) * time.Millisecond,
		},
		TypingDelay: time.Duration(cfg.Service.TypingDelayMS) * time.Millisecond,
		ActionDelay: time.Duration(cfg.Service.ActionDelayMS) * time.Millisecond,
		Logger:      logger,
		Metrics:     metrics,
	}
	if body := cfg.Conversation.ReplyTemplate; body != "" {
		tmpl, err := templatefmt.ParseConversationTemplate("conversation.reply_template", body)
		if err != nil {
			return Options{}, fmt.Errorf("conversation.reply_template: %w", err)
		}
		opts.ReplyTemplate = tmpl
	}
	if body := cfg.Conversation.FallbackTemplate; body != "" {
		tmpl, err := templatefmt.ParseConversationTemplate("conversation.fallback_template", body)
		if err != nil {
			return Options{}, fmt.Errorf("conversation.fallback_template: %w", err)
		}
		opts.FallbackTemplate = tmpl
	}
	return opts, nil
}

// Dashboard returns the session owned by service.
func (s *Service) Dashboard() *Dashboard {
	return s.dashboard
}

// Addr returns bound HTTP address once Listen succeeded.
// Params: none.
// Returns: listener address or empty string.
func (s *Service) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds HTTP listener ahead of Run.
// Params: none.
// Returns: bind error; no-op when HTTP is disabled or already bound.
func (s *Service) Listen() error {
	if s.httpSrv == nil || s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpSrv.Addr, err)
	}
	s.listener = listener
	return nil
}

// Run starts service lifecycle and blocks until shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	if s.httpSrv != nil {
		if err := s.Listen(); err != nil {
			_ = s.shutdown()
			return err
		}
		go func() {
			s.logger.Info("http server starting", "listen", s.Addr())
			err := s.httpSrv.Serve(s.listener)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	s.readyFlag.Store(true)
	s.logger.Info("dashboard service ready", "http", s.cfg.HTTP.Enabled, "nats", s.cfg.NATS.Enabled, "metrics", s.cfg.Metrics.Enabled)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		_ = s.shutdown()
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
		return s.shutdown()
	}
}

// shutdown closes runtime resources in dependency order.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("http shutdown failed", "error", err.Error())
			markErr(fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.natsSub != nil {
		if err := s.natsSub.Close(); err != nil {
			s.logger.Error("nats subscriber close failed", "error", err.Error())
			markErr(fmt.Errorf("nats subscriber close: %w", err))
		}
	}
	s.dashboard.Close()
	if err := s.stopForwarder(ctx); err != nil {
		s.logger.Warn("feed forwarder flush abandoned", "error", err.Error())
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("feed publisher close failed", "error", err.Error())
			markErr(fmt.Errorf("feed publisher close: %w", err))
		}
	}
	s.logger.Info("dashboard service stopped")
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// stopForwarder lets the feed forwarder flush buffered events until ctx is
// done, then cancels it and waits for the in-flight publish to return.
// Params: shutdown deadline context.
// Returns: ctx error when the flush was cut short.
func (s *Service) stopForwarder(ctx context.Context) error {
	if s.forwardCancel == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.forwardWG.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.forwardCancel()
	<-done
	s.forwardCancel = nil
	return err
}

// cleanupInitResources closes partially initialized resources on startup failures.
// Params: none.
// Returns: all acquired resources closed best-effort.
func (s *Service) cleanupInitResources() {
	if s.natsSub != nil {
		_ = s.natsSub.Close()
		s.natsSub = nil
	}
	if s.dashboard != nil {
		s.dashboard.Close()
	}
	if s.forwardCancel != nil {
		s.forwardCancel()
		s.forwardWG.Wait()
		s.forwardCancel = nil
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
		s.publisher = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
}

// buildHTTPServer wires router with API, stream, health, and metrics endpoints.
// Params: none.
// Returns: setup error.
func (s *Service) buildHTTPServer() error {
	if !s.cfg.HTTP.Enabled {
		return nil
	}
	opts := ingest.RouterOptions{
		APIPrefix:    s.cfg.HTTP.APIPrefix,
		HealthPath:   s.cfg.HTTP.HealthPath,
		ReadyPath:    s.cfg.HTTP.ReadyPath,
		MaxBodyBytes: s.cfg.HTTP.MaxBodyBytes,
		Ready:        s.readyFlag.Load,
		Logger:       s.logger,
		Metrics:      s.metrics,
	}
	if s.registry != nil {
		opts.MetricsPath = s.cfg.Metrics.Path
		opts.MetricsHandler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
	}
	s.httpSrv = &http.Server{
		Addr:              s.cfg.HTTP.Listen,
		Handler:           ingest.NewRouter(s.dashboard, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// buildNATS starts command subscriber and transcript publisher when enabled.
// Params: none.
// Returns: initialization error.
func (s *Service) buildNATS() error {
	if !s.cfg.NATS.Enabled {
		return nil
	}
	subscriber, err := ingest.NewNATSSubscriber(s.cfg.NATS.URL, s.cfg.NATS.CommandSubject, s.dashboard, s.logger, s.metrics)
	if err != nil {
		return err
	}
	s.natsSub = subscriber

	publisher, err := feed.NewNATSPublisher(s.cfg.NATS.URL, s.cfg.NATS.FeedSubject)
	if err != nil {
		return err
	}
	s.publisher = publisher

	ctx, cancel := context.WithCancel(context.Background())
	s.forwardCancel = cancel
	sub := s.dashboard.Subscribe(feedForwardBuffer)
	s.forwardWG.Add(1)
	go func() {
		defer s.forwardWG.Done()
		feed.Forward(ctx, sub, publisher, s.logger, s.metrics)
	}()
	s.logger.Info("nats surfaces started", "command_subject", s.cfg.NATS.CommandSubject, "feed_subject", s.cfg.NATS.FeedSubject)
	return nil
}
