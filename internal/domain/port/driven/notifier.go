package driven

import (
	"context"

	"github.com/knguessan/moodlewatch/internal/domain/model"
)

// Notifier is the driven port for outbound assignment notifications.
// Delivery is at-least-once: the caller does not retry a failed delivery
// within a run, and the same assignments may be sent again on the next run.
type Notifier interface {
	Notify(ctx context.Context, email string, assignments []model.Assignment) error
}
