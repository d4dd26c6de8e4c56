// Package logstore is the sole authority for the failure history of the process:
// a bounded FIFO buffer of log entries, persisted after every mutation and correlated by session.
package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/platform"
	"github.com/trezcool/studydash/storage/inmem"
)

type (
	// Environment is the snapshot of where a failure happened.
	Environment struct {
		UserAgent string
		URL       string
	}

	EnvFunc func() Environment

	Deps struct {
		Storage        core.Storage // shared persisted copy of the buffer; nil disables persistence
		SessionStorage core.Storage // tab-scoped storage holding the session id; in-memory by default
		Logger         core.Logger  // console; pipeline failures are reported here only
		Sink           Sink
		Platform       platform.Source
		Env            EnvFunc
	}

	Store struct {
		mu      sync.RWMutex
		conf    Config
		entries []errlog.LogEntry
		session string

		logger    core.Logger
		sink      Sink
		env       EnvFunc
		persister *persister
		inflight  sync.WaitGroup
		stopHooks func()
		nowFunc   func() time.Time
	}
)

// New builds the Store, hydrates its buffer from storage and starts listening to the platform.
func New(conf Config, deps Deps) *Store {
	s := &Store{
		conf:    conf.withDefaults(),
		logger:  deps.Logger,
		sink:    deps.Sink,
		env:     deps.Env,
		nowFunc: time.Now,
	}
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.env == nil {
		s.env = DefaultEnv
	}

	sessionStorage := deps.SessionStorage
	if sessionStorage == nil {
		sessionStorage = inmem.New()
	}
	s.session = loadSession(sessionStorage, s.conf.SessionKey, s.nowFunc(), s.logger)

	if deps.Storage != nil {
		s.entries = s.hydrate(deps.Storage)
		s.persister = newPersister(deps.Storage, s.conf.StorageKey, s.logger)
	}
	if s.entries == nil {
		s.entries = make([]errlog.LogEntry, 0, s.conf.MaxLogs)
	}

	if deps.Platform != nil {
		s.stopHooks = deps.Platform.Listen(&platformListener{store: s})
	}
	return s
}

// DefaultEnv describes the running process.
func DefaultEnv() Environment {
	return Environment{
		UserAgent: fmt.Sprintf("studydash (%s; %s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

func (s *Store) hydrate(storage core.Storage) []errlog.LogEntry {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	data, err := storage.Get(ctx, s.conf.StorageKey)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound {
			s.logger.Error("failed to load error logs", err)
		}
		return nil
	}
	var entries []errlog.LogEntry
	if err = json.Unmarshal(data, &entries); err != nil {
		s.logger.Error("failed to parse stored error logs", err)
		return nil
	}
	if len(entries) > s.conf.MaxLogs {
		entries = entries[len(entries)-s.conf.MaxLogs:]
	}
	for i := range entries {
		entries[i].Severity = entries[i].Severity.OrDefault()
	}
	return entries
}

// Capture records err and returns the id of the new entry.
// Severity defaults to medium (also for values outside the taxonomy) and source to "Unknown".
func (s *Store) Capture(err interface{}, ctx errlog.Context) string {
	e := errlog.Normalize(err)
	now := s.nowFunc()

	env := s.env()
	if ctx.URL != "" {
		env.URL = ctx.URL
	}
	if ctx.UserAgent != "" {
		env.UserAgent = ctx.UserAgent
	}
	source := ctx.Source
	if source == "" {
		source = errlog.SourceUnknown
	}

	entry := errlog.LogEntry{
		ID:             errlog.NewID("error", now),
		Timestamp:      now.UTC(),
		Message:        e.Message,
		Stack:          e.Stack,
		Source:         source,
		Severity:       ctx.Severity.OrDefault(),
		SessionID:      s.session,
		UserAgent:      env.UserAgent,
		URL:            env.URL,
		AdditionalData: ctx.Details,
	}

	s.mu.Lock()
	s.push(entry)
	conf := s.conf
	s.persistLocked()
	s.mu.Unlock()

	if conf.EnableConsoleLog {
		s.mirror(entry)
	}
	if conf.EnableRemoteSink && s.sink != nil {
		dst := Destination{Endpoint: conf.RemoteEndpoint, APIKey: conf.APIKey}
		if de, ok := s.sink.(DefaultEndpointer); ok && dst.Endpoint == "" {
			dst.Endpoint = de.DefaultEndpoint()
		}
		if dst.Endpoint != "" {
			s.ship(dst, conf.RemoteTimeout, entry)
		}
	}
	return entry.ID
}

// Append records an entry built elsewhere (e.g. received by the collector API).
// Missing id, timestamp, severity and source are filled in; the entry is never forwarded to the remote sink.
func (s *Store) Append(entry errlog.LogEntry) string {
	now := s.nowFunc()
	if entry.ID == "" {
		entry.ID = errlog.NewID("error", now)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now.UTC()
	}
	if entry.Source == "" {
		entry.Source = errlog.SourceUnknown
	}
	entry.Severity = entry.Severity.OrDefault()

	s.mu.Lock()
	s.push(entry)
	conf := s.conf
	s.persistLocked()
	s.mu.Unlock()

	if conf.EnableConsoleLog {
		s.mirror(entry)
	}
	return entry.ID
}

// push appends entry, evicting the oldest entries beyond capacity.
func (s *Store) push(entry errlog.LogEntry) {
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.conf.MaxLogs; over > 0 {
		kept := make([]errlog.LogEntry, s.conf.MaxLogs, s.conf.MaxLogs+1)
		copy(kept, s.entries[over:])
		s.entries = kept
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil || !s.conf.EnablePersistence {
		return
	}
	data, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Error("failed to serialize error logs", err)
		return
	}
	s.persister.save(data)
}

func (s *Store) mirror(entry errlog.LogEntry) {
	msg := fmt.Sprintf("[%s] %s", entry.Source, entry.Message)
	switch entry.Severity {
	case errlog.SeverityCritical, errlog.SeverityHigh:
		s.logger.Error(msg, entry)
	case errlog.SeverityMedium:
		s.logger.Warn(msg, entry)
	default:
		s.logger.Info(msg, entry)
	}
}

func (s *Store) ship(dst Destination, timeout time.Duration, entry errlog.LogEntry) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.sink.Send(ctx, dst, entry); err != nil {
			s.logger.Error("failed to send error log to remote sink", err)
		}
	}()
}

func (s *Store) filter(keep func(errlog.LogEntry) bool) []errlog.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]errlog.LogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of the buffer, oldest first.
func (s *Store) All() []errlog.LogEntry {
	return s.filter(nil)
}

func (s *Store) BySeverity(sev errlog.Severity) []errlog.LogEntry {
	return s.filter(func(e errlog.LogEntry) bool { return e.Severity == sev })
}

func (s *Store) Unresolved() []errlog.LogEntry {
	return s.filter(func(e errlog.LogEntry) bool { return !e.Resolved })
}

// CurrentSession returns the entries created during this process lifetime.
func (s *Store) CurrentSession() []errlog.LogEntry {
	return s.filter(func(e errlog.LogEntry) bool { return e.SessionID == s.session })
}

func (s *Store) Get(id string) (errlog.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return errlog.LogEntry{}, false
}

// Session returns the id correlating the entries of this process lifetime.
func (s *Store) Session() string {
	return s.session
}

// Resolve marks the entry resolved and reports whether it exists.
// Resolving an already resolved entry is a no-op that still returns true.
func (s *Store) Resolve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Resolved = true
			s.persistLocked()
			return true
		}
	}
	return false
}

// Clear empties the buffer and persists the empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]errlog.LogEntry, 0, s.conf.MaxLogs)
	s.persistLocked()
}

// Export serializes the full buffer.
func (s *Store) Export() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "exporting error logs")
	}
	return string(data), nil
}

func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conf
}

// UpdateConfig merges p onto the current config.
func (s *Store) UpdateConfig(p ConfigPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conf = s.conf.merge(p)
}

// Close detaches the platform listener, waits for in-flight shipments and writes the last snapshot.
func (s *Store) Close(ctx context.Context) error {
	if s.stopHooks != nil {
		s.stopHooks()
	}

	shipped := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(shipped)
	}()
	select {
	case <-shipped:
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.persister != nil {
		return s.persister.close(ctx)
	}
	return nil
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}
