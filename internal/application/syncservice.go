// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

// SyncService composes the platform client into the two single-user
// operations the API and the watch service need. Every call builds a fresh
// session, so concurrent invocations are fully isolated.
type SyncService struct {
	platform driven.PlatformClient
	logger   *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(platform driven.PlatformClient, logger *slog.Logger) *SyncService {
	return &SyncService{platform: platform, logger: logger}
}

// Verify reports whether the credentials authenticate against the platform.
// Every non-success outcome collapses to false so callers cannot distinguish
// a wrong username from a wrong password or an outage.
func (s *SyncService) Verify(ctx context.Context, username, password string) bool {
	if _, err := s.platform.Login(ctx, username, password); err != nil {
		s.logCause("credential verification failed", username, err)
		return false
	}
	return true
}

// FetchAssignments logs in and scrapes the upcoming calendar. On login or
// transport failure it returns an empty slice and logs the cause: callers
// cannot tell "no assignments" from "sync failed" through the return value
// alone. That ambiguity is deliberate — the next scheduled run is the retry
// mechanism, and notification downstream tolerates duplicates.
func (s *SyncService) FetchAssignments(ctx context.Context, username, password string) []model.Assignment {
	sess, err := s.platform.Login(ctx, username, password)
	if err != nil {
		s.logCause("platform login failed", username, err)
		return nil
	}

	records, err := sess.FetchAssignments(ctx)
	if err != nil {
		s.logger.Warn("calendar fetch failed", "username", username, "error", err)
		return nil
	}
	return records
}

// logCause keys the log level to the error class: a changed site layout needs
// operator attention, everything else is routine.
func (s *SyncService) logCause(msg, username string, err error) {
	switch {
	case errors.Is(err, driven.ErrSiteChanged):
		s.logger.Error(msg, "username", username, "error", err, "class", "site_changed")
	case errors.Is(err, driven.ErrAuthenticationFailed):
		s.logger.Warn(msg, "username", username, "class", "bad_credentials")
	default:
		s.logger.Warn(msg, "username", username, "error", err, "class", "transport")
	}
}
