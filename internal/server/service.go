// Package server hosts the calculator widget and its JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
	"github.com/theirongolddev/wealthtax/internal/widget"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	pageTTL       = 10 * time.Minute
	watchDebounce = 250 * time.Millisecond
)

// Loader produces the comparison table. It must not fail: an unavailable
// source yields an empty table.
type Loader func(ctx context.Context) model.Table

// Config controls the server runtime behavior.
type Config struct {
	Addr        string
	Engine      config.EngineConfig
	DefaultRate float64
	Attrs       widget.Attrs
	// ReloadInterval re-runs the loader periodically; 0 loads once.
	ReloadInterval time.Duration
	// AllowOrigin is sent as Access-Control-Allow-Origin when non-empty.
	AllowOrigin string
	// WatchPath, when set, reloads the table whenever that file changes.
	WatchPath string
}

// Status is served at /v1/status.
type Status struct {
	StartedAt   time.Time `json:"startedAt"`
	LoadedAt    time.Time `json:"loadedAt"`
	Reloads     int64     `json:"reloads"`
	Records     int       `json:"records"`
	Placeholder bool      `json:"placeholder"`
	TotalWealth float64   `json:"totalWealth"`
	MinRate     float64   `json:"minRate"`
	MaxRate     float64   `json:"maxRate"`
	RateStep    float64   `json:"rateStep"`
	DefaultRate float64   `json:"defaultRate"`
}

// Service provides the widget host runtime and HTTP API.
type Service struct {
	cfg     Config
	load    Loader
	engine  revenue.Engine
	log     zerolog.Logger
	metrics *metrics
	pages   *cache.Cache
	router  *mux.Router

	mu        sync.RWMutex
	startedAt time.Time
	loadedAt  time.Time
	reloads   int64
	table     model.Table
}

// New returns a server with the provided config. The table is empty
// until Reload or Run is called.
func New(cfg Config, load Loader, log zerolog.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultConfig().Server.Addr
	}
	if cfg.Engine.RateStep <= 0 {
		cfg.Engine = config.DefaultConfig().Engine
	}
	cfg.DefaultRate = cfg.Engine.ClampRate(cfg.DefaultRate)

	s := &Service{
		cfg:       cfg,
		load:      load,
		engine:    revenue.New(cfg.Engine.TotalWealth),
		log:       log.With().Str("component", "server").Logger(),
		metrics:   newMetrics(),
		pages:     cache.New(pageTTL, 2*pageTTL),
		startedAt: time.Now(),
		table:     model.Table{},
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Reload runs the loader and swaps in its table.
func (s *Service) Reload(ctx context.Context) {
	table := s.load(ctx)
	if table == nil {
		table = model.Table{}
	}

	s.mu.Lock()
	s.table = table
	s.loadedAt = time.Now()
	s.reloads++
	s.mu.Unlock()

	s.pages.Flush()
	s.metrics.records.Set(float64(len(table)))
	result := "ok"
	if len(table) == 0 {
		result = "empty"
	}
	s.metrics.reloads.WithLabelValues(result).Inc()
	s.log.Debug().Int("records", len(table)).Msg("comparison table loaded")
}

// Table returns the current comparison table.
func (s *Service) Table() model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

func (s *Service) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:   s.startedAt,
		LoadedAt:    s.loadedAt,
		Reloads:     s.reloads,
		Records:     len(s.table),
		Placeholder: len(s.table) == 0,
		TotalWealth: s.engine.TotalWealth,
		MinRate:     s.cfg.Engine.MinRate,
		MaxRate:     s.cfg.Engine.MaxRate,
		RateStep:    s.cfg.Engine.RateStep,
		DefaultRate: s.cfg.DefaultRate,
	}
}

// Run serves HTTP and reloads the table until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	changed, watchDone := s.watch(ctx)
	defer func() {
		cancel()
		<-watchDone
	}()

	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Seed the table so the first request is useful.
	s.Reload(ctx)
	s.log.Info().Str("addr", ln.Addr().String()).Msg("serving calculator widget")

	var tick <-chan time.Time
	if s.cfg.ReloadInterval > 0 {
		ticker := time.NewTicker(s.cfg.ReloadInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			err := server.Shutdown(shutdownCtx)
			<-errCh
			return err
		case <-tick:
			s.Reload(ctx)
		case <-changed:
			s.log.Info().Str("path", s.cfg.WatchPath).Msg("data source changed, reloading")
			s.Reload(ctx)
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		}
	}
}

// watch starts the data source watcher when WatchPath is set. The
// returned channel is nil otherwise; done closes once the watcher exits.
func (s *Service) watch(ctx context.Context) (changed <-chan struct{}, done <-chan struct{}) {
	doneCh := make(chan struct{})
	if s.cfg.WatchPath == "" {
		close(doneCh)
		return nil, doneCh
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(doneCh)
		notify := func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		if err := dataset.Watch(ctx, s.cfg.WatchPath, watchDebounce, notify); err != nil {
			s.log.Warn().Err(err).Str("path", s.cfg.WatchPath).Msg("data source watch stopped")
		}
	}()
	return ch, doneCh
}
