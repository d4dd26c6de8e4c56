package logstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
)

// loadSession returns the session id kept in the tab-scoped storage, creating it when absent.
func loadSession(storage core.Storage, key string, now time.Time, logger core.Logger) string {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	data, err := storage.Get(ctx, key)
	if err == nil && len(data) > 0 {
		return string(data)
	}
	if err != nil && errors.Cause(err) != core.ErrKeyNotFound {
		logger.Error("failed to read session id", err)
	}

	id := errlog.NewID("session", now)
	if err = storage.Set(ctx, key, []byte(id)); err != nil {
		logger.Error("failed to save session id", err)
	}
	return id
}
