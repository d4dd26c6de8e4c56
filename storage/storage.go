// Package storage opens the key-value store the error log is persisted to.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/storage/filestore"
	"github.com/trezcool/studydash/storage/inmem"
	"github.com/trezcool/studydash/storage/pgstore"
	"github.com/trezcool/studydash/storage/redisstore"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open returns the Storage selected by conf.Storage.Driver and a function releasing it.
func Open(ctx context.Context, conf *core.Config) (core.Storage, func() error, error) {
	noop := func() error { return nil }

	switch conf.Storage.Driver {
	case DriverMemory, "":
		return inmem.New(), noop, nil
	case DriverFile:
		s, err := filestore.Open(conf.Storage.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case DriverRedis:
		s, err := redisstore.Open(ctx, conf.Storage.Redis)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case DriverPostgres:
		s, err := pgstore.Open(ctx, conf.Storage.Database)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
