package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
)

// HousekeepingService periodically deletes expired authorization codes and
// issued tokens. Reads already ignore expired rows; this only bounds growth.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
		s.Logger.Info("housekeeping service started", "interval", s.Interval)
	})
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup. Repeated
// calls are no-ops.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupResult reports how many rows one pass removed.
type CleanupResult struct {
	Codes  int64
	Tokens int64
}

// RunOnce performs one cleanup pass. Each deletion is independent; a failure
// in one is logged and does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) CleanupResult {
	now := time.Now()
	var result CleanupResult

	codes, err := s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
	} else {
		result.Codes = codes
	}

	tokens, err := s.Store.IssuedTokens().DeleteExpiredIssuedTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired issued tokens", "error", err)
	} else {
		result.Tokens = tokens
	}

	if result.Codes > 0 || result.Tokens > 0 {
		s.Logger.Info("oauth cleanup", "deleted_codes", result.Codes, "deleted_tokens", result.Tokens)
	} else {
		s.Logger.Debug("oauth cleanup found nothing to delete")
	}

	return result
}
