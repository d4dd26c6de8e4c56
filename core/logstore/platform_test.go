package logstore_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
	"github.com/trezcool/studydash/core/platform"
)

func TestStore_PlatformCapture(t *testing.T) {
	hooks := platform.NewHooks()
	s := logstore.New(quietConfig(10), logstore.Deps{Platform: hooks})

	hooks.Go(func() { panic("kaboom") })
	hooks.Async(func() error { return errors.New("nobody awaited me") })
	hooks.Async(func() error { return nil })
	hooks.Wait()

	entries := s.All()
	require.Len(t, entries, 2)

	var uncaught, rejection errlog.LogEntry
	for _, e := range entries {
		switch e.Source {
		case logstore.SourceGlobalHandler:
			uncaught = e
		case logstore.SourceUnhandledRejection:
			rejection = e
		}
	}

	assert.Equal(t, "kaboom", uncaught.Message)
	assert.Equal(t, errlog.SeverityHigh, uncaught.Severity)
	assert.Equal(t, "uncaught", uncaught.AdditionalData.Type)
	assert.True(t, strings.HasSuffix(uncaught.AdditionalData.Filename, "platform_test.go"), uncaught.AdditionalData.Filename)
	assert.NotZero(t, uncaught.AdditionalData.Line)
	assert.NotEmpty(t, uncaught.Stack)

	assert.Equal(t, "nobody awaited me", rejection.Message)
	assert.Equal(t, errlog.SeverityHigh, rejection.Severity)
	assert.Equal(t, "unhandledrejection", rejection.AdditionalData.Type)

	// a closed store stops listening
	closeStore(t, s)
	hooks.Go(func() { panic("after close") })
	hooks.Wait()
	assert.Len(t, s.All(), 2)
}
