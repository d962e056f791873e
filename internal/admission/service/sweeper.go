package service

import (
	"log/slog"
	"time"

	"github.com/classtrack/gatehouse/pkg/jwtx"
	"github.com/classtrack/gatehouse/pkg/ratelimit"
	"github.com/classtrack/gatehouse/pkg/reputation"
)

// SweeperService periodically cleans the in-memory registries so none of
// them grows without bound: revocation entries past their token's expiry,
// idle replay counters, elapsed rate windows and lapsed reputation records.
type SweeperService struct {
	Revocations *jwtx.RevocationRegistry
	Replay      *jwtx.ReplayMonitor
	Limits      *ratelimit.Set
	Reputation  *reputation.Tracker
	Logger      *slog.Logger
	Interval    time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeperService creates a sweeper with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewSweeperService(
	revocations *jwtx.RevocationRegistry,
	replay *jwtx.ReplayMonitor,
	limits *ratelimit.Set,
	rep *reputation.Tracker,
	logger *slog.Logger,
	interval time.Duration,
) *SweeperService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &SweeperService{
		Revocations: revocations,
		Replay:      replay,
		Limits:      limits,
		Reputation:  rep,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker that periodically sweeps.
// This is non-blocking. Call Stop() to gracefully shut the worker down.
func (s *SweeperService) Start() {
	go s.run()
	s.Logger.Info("sweeper started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress sweep.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("sweeper stopped")
}

// run is the main background worker loop.
func (s *SweeperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs every registry's own sweep. Each sweep only drops entries past
// their own expiry, so concurrent reads from in-flight verifications always
// see a consistent "not yet expired" view.
func (s *SweeperService) sweep() {
	revoked := s.Revocations.Sweep()
	replays := s.Replay.Sweep()
	windows := s.Limits.Sweep()
	records := s.Reputation.Sweep()

	s.Logger.Info("sweep completed",
		"revocations_removed", revoked,
		"replay_counters_removed", replays,
		"rate_windows_removed", windows,
		"reputation_records_removed", records,
	)
}
