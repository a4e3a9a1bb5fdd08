package email

import (
	"context"
	"log/slog"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier logs notifications instead of delivering them. Used in
// development when SMTP is disabled.
type ConsoleNotifier struct {
	logger *slog.Logger
}

// NewConsoleNotifier creates a ConsoleNotifier.
func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

// Notify logs each assignment that would have been emailed.
func (n *ConsoleNotifier) Notify(_ context.Context, email string, assignments []model.Assignment) error {
	n.logger.Info("assignment notification (smtp disabled)", "to", email, "count", len(assignments))
	for _, a := range assignments {
		n.logger.Info("assignment",
			"to", email,
			"title", a.Title,
			"due", a.DueDate,
			"link", a.Link,
		)
	}
	return nil
}
