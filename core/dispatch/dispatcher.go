// Package dispatch is the single entry point for reporting failures.
// It decides, per call, whether a failure is logged, toasted and/or escalated to the fallback view,
// without callers knowing which observers exist.
package dispatch

import (
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"

	"github.com/trezcool/studydash/core/errlog"
)

type (
	// ToastOptions is what the toast channel receives.
	ToastOptions struct {
		Title       string
		Description string
		Action      *Action
		Duration    time.Duration
		Variant     errlog.Variant
	}

	ToastFunc    func(opts ToastOptions)
	BoundaryFunc func(err *errlog.Error, errorID string)

	// Store is the log store failures are recorded to.
	Store interface {
		Capture(err interface{}, ctx errlog.Context) string
		All() []errlog.LogEntry
		Clear()
		Export() (string, error)
	}

	Deps struct {
		Translator ut.Translator     // translates validator errors; optional
		Navigate   func(path string) // follows toast actions; optional
		LoginPath  string
	}

	// Dispatcher holds at most one subscriber per channel: registering replaces the previous one,
	// registering nil clears it.
	Dispatcher struct {
		store Store
		deps  Deps

		mu       sync.RWMutex
		toast    ToastFunc
		boundary BoundaryFunc
	}
)

func New(store Store, deps Deps) *Dispatcher {
	if deps.LoginPath == "" {
		deps.LoginPath = "/login"
	}
	return &Dispatcher{store: store, deps: deps}
}

// RegisterToastCallback sets the toast channel subscriber; nil clears the channel.
func (d *Dispatcher) RegisterToastCallback(cb ToastFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toast = cb
}

// RegisterBoundaryCallback sets the boundary channel subscriber; nil clears the channel.
func (d *Dispatcher) RegisterBoundaryCallback(cb BoundaryFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundary = cb
}

func (d *Dispatcher) subscribers() (ToastFunc, BoundaryFunc) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.toast, d.boundary
}

// Handle routes err through the channels and returns the id of the log entry,
// or "" when logging is disabled. It never fails, whoever is subscribed.
func (d *Dispatcher) Handle(err interface{}, opts ...Option) string {
	e := errlog.Normalize(err)

	p := defaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	p.severity = p.severity.OrDefault()

	var id string
	if p.logError {
		id = d.store.Capture(e, errlog.Context{
			Source:   p.source,
			Severity: p.severity,
			Details:  p.details,
		})
	}

	toast, boundary := d.subscribers()
	if p.notify && toast != nil {
		title := p.display.Title
		if title == "" {
			title = defaultTitle(p.severity)
		}
		desc := p.display.Description
		if desc == "" {
			desc = e.Message
		}
		toast(ToastOptions{
			Title:       title,
			Description: desc,
			Action:      p.display.Action,
			Duration:    p.display.Duration,
			Variant:     p.severity.Variant(),
		})
	}
	if p.escalate && boundary != nil {
		boundary(e, id)
	}
	return id
}

func defaultTitle(s errlog.Severity) string {
	switch s {
	case errlog.SeverityCritical:
		return "Critical Error"
	case errlog.SeverityHigh:
		return "Error"
	case errlog.SeverityMedium:
		return "Something went wrong"
	default:
		return "Notice"
	}
}

func (d *Dispatcher) ClearLogs() {
	d.store.Clear()
}

func (d *Dispatcher) ExportLogs() (string, error) {
	return d.store.Export()
}
