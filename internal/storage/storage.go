// Package storage provides the key-value port the cart and order records persist through,
// together with its in-memory, Redis and MongoDB adapters.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Storage is a key-value store. Get returns ErrNotFound for an absent key.
// Removing an absent key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
