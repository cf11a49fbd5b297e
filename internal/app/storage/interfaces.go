// Package storage defines the durable client-side key/value state. The only
// value the storefront persists is the bearer token; everything else lives in
// memory for the lifetime of one application instance.
package storage

import (
	"context"
	"errors"
)

// TokenKey is the fixed key the bearer token is stored under.
const TokenKey = "auth_token"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store persists small string values across application restarts.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
