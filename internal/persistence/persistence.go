package persistence

import (
	"context"
	"errors"
)

// Backend is the key-value durability layer behind the cart store. Values
// are opaque strings; the store owns the encoding.
type Backend interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")
