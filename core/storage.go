package core

import "context"

type (
	// Storage is a persistent key-value store.
	// Get returns ErrKeyNotFound when the key has never been set.
	Storage interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
	}

	// StorageCloser is a Storage holding external resources (connections, pools..).
	StorageCloser interface {
		Storage
		Close() error
	}
)
