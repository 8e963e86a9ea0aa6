// Package tokenstore persists the session's two opaque credentials across
// process restarts.
//
// The surface is a flat key/value contract with no transactional semantics
// across keys: Delete of several names is a batch, and a crash midway may leave
// one of them behind. Values are stored as given; there is no encryption and
// no expiry tracking.
package tokenstore

import (
	"context"
	"strings"

	dErrors "forkful/pkg/domain-errors"
)

// Fixed key names for the session credentials.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// SessionKeys lists both credential keys, in the order they are cleared.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey}

// Store is the token persistence contract.
//
// Error Contract:
//   - Get returns an error wrapping sentinel.ErrNotFound when the name is absent
//   - Delete of names that do not exist is not an error
//   - Infrastructure failures are returned wrapped with context
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, names ...string) error
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "token name is required")
	}
	return nil
}

func validateNames(names []string) error {
	for _, name := range names {
		if err := validateName(name); err != nil {
			return err
		}
	}
	return nil
}
