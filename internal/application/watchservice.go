package application

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
	"github.com/knguessan/moodlewatch/internal/vault"
)

// WatchService runs the scheduled fan-out: every interval it loads the roster
// of users with a connected platform account, fetches each user's upcoming
// assignments, and notifies them when anything was found. One user's failure
// never aborts the run for the others.
type WatchService struct {
	users    driven.UserStore
	vault    *vault.Vault
	syncSvc  *SyncService
	notifier driven.Notifier
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger

	started atomic.Bool
	runMu   sync.Mutex
}

// NewWatchService creates a WatchService. The limiter paces logins against
// the external site at one user per second sustained; the burst keeps small
// rosters from waiting at all.
func NewWatchService(
	users driven.UserStore,
	v *vault.Vault,
	syncSvc *SyncService,
	notifier driven.Notifier,
	interval time.Duration,
	logger *slog.Logger,
) *WatchService {
	return &WatchService{
		users:    users,
		vault:    v,
		syncSvc:  syncSvc,
		notifier: notifier,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Limit(1), 5),
		logger:   logger,
	}
}

// Start runs an immediate scan, then scans on the configured interval until
// the context is canceled. It is idempotent: a second call while the loop is
// live returns immediately without registering another ticker.
func (s *WatchService) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("watch service already started")
		return
	}
	defer s.started.Store(false)

	s.logger.Info("watch service started", "interval", s.interval)
	s.CheckAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch service stopped")
			return
		case <-ticker.C:
			s.CheckAll(ctx)
		}
	}
}

// CheckAll performs one fan-out pass over the roster. If a previous pass is
// still in flight the tick is skipped, never queued: running two passes
// concurrently would double the external-site load and duplicate
// notifications for the same cycle.
func (s *WatchService) CheckAll(ctx context.Context) {
	if !s.runMu.TryLock() {
		s.logger.Warn("previous scan still running, skipping tick")
		return
	}
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	start := time.Now()

	users, err := s.users.ListWithPlatformAccount(ctx)
	if err != nil {
		s.logger.Error("roster load failed", "run_id", runID, "error", err)
		return
	}

	var notified, failures int
	for _, user := range users {
		if ctx.Err() != nil {
			s.logger.Info("scan interrupted", "run_id", runID)
			return
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		switch s.checkUser(ctx, runID, user) {
		case checkNotified:
			notified++
		case checkFailed:
			failures++
		}
	}

	s.logger.Info("scan complete",
		"run_id", runID,
		"users", len(users),
		"notified", notified,
		"failures", failures,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// SyncUser runs one on-demand pass for a single user, outside the timer.
// The result carries the same ambiguity as FetchAssignments: an empty slice
// can mean "no upcoming assignments" or a failed sync (logged, not surfaced).
func (s *WatchService) SyncUser(ctx context.Context, user model.User) ([]model.Assignment, error) {
	password, err := s.vault.Decrypt(user.EncryptedSecret)
	if err != nil {
		return nil, err
	}
	return s.syncSvc.FetchAssignments(ctx, user.PlatformUsername, password), nil
}

type checkResult int

const (
	checkNothing checkResult = iota
	checkNotified
	checkFailed
)

// checkUser processes a single roster entry: decrypt, login, scrape, notify.
// Failures are logged and absorbed here so the caller can continue the batch.
// The plaintext credential exists only for the duration of this call.
func (s *WatchService) checkUser(ctx context.Context, runID string, user model.User) checkResult {
	password, err := s.vault.Decrypt(user.EncryptedSecret)
	if err != nil {
		s.logger.Error("credential decrypt failed, user skipped until they reconnect",
			"run_id", runID, "email", user.Email, "error", err)
		return checkFailed
	}
	if password == "" {
		return checkNothing
	}

	assignments := s.syncSvc.FetchAssignments(ctx, user.PlatformUsername, password)
	if len(assignments) == 0 {
		s.logger.Info("nothing to report", "run_id", runID, "email", user.Email)
		return checkNothing
	}

	if err := s.notifier.Notify(ctx, user.Email, assignments); err != nil {
		s.logger.Error("notification failed",
			"run_id", runID, "email", user.Email, "count", len(assignments), "error", err)
		return checkFailed
	}

	s.logger.Info("assignments notified",
		"run_id", runID, "email", user.Email, "count", len(assignments))
	return checkNotified
}
