// Package model holds the domain types shared across ports and adapters.
package model

import "time"

// User is one roster entry. PlatformUsername and EncryptedSecret stay empty
// until the user connects their Moodle account; EncryptedSecret is vault
// ciphertext and never holds a plaintext password.
type User struct {
	ID               int64
	Email            string
	FullName         string
	PlatformUsername string
	EncryptedSecret  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPlatformAccount reports whether the user has a connected Moodle account
// with a stored credential.
func (u User) HasPlatformAccount() bool {
	return u.PlatformUsername != "" && u.EncryptedSecret != ""
}

// DisplayName returns the full name when set, otherwise the email address.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
