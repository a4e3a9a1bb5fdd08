// Package driven defines the outbound port interfaces implemented by adapters.
package driven

import (
	"context"
	"errors"

	"github.com/knguessan/moodlewatch/internal/domain/model"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// UserStore is the driven port for roster persistence. The watch service only
// reads the roster; the settings handlers write the platform account fields.
type UserStore interface {
	// Create inserts a new roster entry and returns it with the assigned ID.
	// A duplicate email fails with ErrEmailTaken.
	Create(ctx context.Context, email, fullName string) (*model.User, error)

	// GetByEmail returns the user with the given email, or (nil, nil) when no
	// such user exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// ListWithPlatformAccount returns every user with a connected Moodle
	// account, i.e. a non-empty platform username and stored credential.
	ListWithPlatformAccount(ctx context.Context) ([]model.User, error)

	// SetPlatformAccount stores or replaces the user's platform username and
	// encrypted credential. The value must already be vault ciphertext; this
	// port never sees plaintext secrets.
	SetPlatformAccount(ctx context.Context, email, platformUsername, encryptedSecret string) error

	// ClearPlatformAccount disconnects the user's Moodle account, removing
	// both the username and the stored credential.
	ClearPlatformAccount(ctx context.Context, email string) error
}
