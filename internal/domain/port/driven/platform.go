package driven

import (
	"context"
	"errors"

	"github.com/knguessan/moodlewatch/internal/domain/model"
)

// ErrAuthenticationFailed is returned by Login when the platform rejects the
// credentials. User-correctable; never retried automatically.
var ErrAuthenticationFailed = errors.New("platform rejected credentials")

// ErrSiteChanged is returned when an expected page structure (the login token
// field) is missing from the platform's response: the site's markup or login
// flow changed shape. Not user-correctable; logged at elevated severity.
var ErrSiteChanged = errors.New("platform page structure changed")

// Session is the authenticated state established by one login: a cookie jar
// bound to one user's credentials. It is single-use — never reuse a session
// across users or across scheduled runs.
type Session interface {
	// FetchAssignments retrieves the upcoming-events calendar and extracts
	// assignment records from it. Extraction itself never fails; an
	// unrecognized document yields an empty slice. Any returned error is
	// transport-level (network, timeout, non-2xx).
	FetchAssignments(ctx context.Context) ([]model.Assignment, error)
}

// PlatformClient is the driven port for the external learning platform.
type PlatformClient interface {
	// Login authenticates against the platform and returns a fresh session.
	// Errors classify as ErrAuthenticationFailed (credentials rejected),
	// ErrSiteChanged (login token missing), or transport (anything else).
	Login(ctx context.Context, username, password string) (Session, error)
}
