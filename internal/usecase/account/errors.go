// Package account links provider accounts to users and serves on-demand
// reads and write actions against a linked account.
package account

import "errors"

var (
	// ErrAccountNotFound is returned for an unknown id and for an id that
	// belongs to another user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoProfiles is returned when a callback completed but the provider
	// returned no account to link.
	ErrNoProfiles = errors.New("provider returned no account")

	// ErrNeedsReauth is returned for an account whose credentials a provider
	// rejected. It must be linked again.
	ErrNeedsReauth = errors.New("account needs re-authorization")
)
