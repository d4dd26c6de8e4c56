// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
)

// Config returns a configuration fit for tests: no persistence to disk, no remote sink.
func Config() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "Studydash",
		Build:           "test",
		WorkDir:         core.Getwd(),
		FrontendBaseURL: "http://localhost:3000",
		LoginPath:       "/login",
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
		},
		Logs: core.LogsConfig{
			MaxLogs:           100,
			EnablePersistence: true,
			RemoteTimeout:     time.Second,
			StorageKey:        "error_logs",
			SessionKey:        "error_session_id",
		},
		Storage: core.StorageConfig{Driver: "memory"},
		Toast:   core.ToastConfig{Duration: 5 * time.Second},
		Mail: core.MailConfig{
			DefaultFromEmail: "Studydash <noreply@studydash.test>",
			SupportEmail:     "support@studydash.test",
		},
	}
}

// NewStore builds a store closed at the end of the test.
func NewStore(t *testing.T, conf logstore.Config, deps logstore.Deps) *logstore.Store {
	t.Helper()
	s := logstore.New(conf, deps)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

// Messages returns the message of every entry, in order.
func Messages(entries []errlog.LogEntry) []string {
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// LogLine is a call recorded by Logger.
type LogLine struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records every call; it is safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	lines []LogLine
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, LogLine{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.record("FATAL", msg, args) }

func (l *Logger) Lines() []LogLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Levels returns the level of every recorded call, in order.
func (l *Logger) Levels() []string {
	lines := l.Lines()
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		out = append(out, ln.Level)
	}
	return out
}

// Sink records the entries it is asked to send; Err is returned by every Send.
type Sink struct {
	Err error

	mu      sync.Mutex
	entries []errlog.LogEntry
	dsts    []logstore.Destination
}

var _ logstore.Sink = (*Sink)(nil)

func (s *Sink) Send(_ context.Context, dst logstore.Destination, entry errlog.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.dsts = append(s.dsts, dst)
	return s.Err
}

func (s *Sink) Sent() ([]errlog.LogEntry, []logstore.Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]errlog.LogEntry{}, s.entries...), append([]logstore.Destination{}, s.dsts...)
}
