package dispatch

import (
	"time"

	"github.com/trezcool/studydash/core/errlog"
)

type (
	// Action is a one-click action offered by a toast.
	Action struct {
		Label   string
		OnClick func()
	}

	// Display is handed to the toast channel as is.
	Display struct {
		Title       string
		Description string
		Action      *Action
		Duration    time.Duration
	}

	// policy is the per-call dispatch config.
	policy struct {
		logError bool
		notify   bool
		escalate bool
		severity errlog.Severity
		source   string
		details  errlog.Details
		display  Display
	}

	// Option tweaks how a single failure is dispatched.
	// Options apply in order: wrapper defaults come first, so caller options always win.
	Option func(*policy)
)

func defaultPolicy() policy {
	return policy{
		logError: true,
		notify:   true,
		escalate: false,
		severity: errlog.SeverityMedium,
	}
}

// LogError sets whether the failure is recorded in the log store (default true).
func LogError(enabled bool) Option {
	return func(p *policy) { p.logError = enabled }
}

// Notify sets whether the toast channel is notified (default true).
func Notify(enabled bool) Option {
	return func(p *policy) { p.notify = enabled }
}

// Escalate sets whether the boundary channel is invoked (default false).
func Escalate(enabled bool) Option {
	return func(p *policy) { p.escalate = enabled }
}

func WithSeverity(s errlog.Severity) Option {
	return func(p *policy) { p.severity = s }
}

func WithSource(source string) Option {
	return func(p *policy) { p.source = source }
}

// WithDetails merges d onto the details gathered so far.
func WithDetails(d errlog.Details) Option {
	return func(p *policy) { p.details = p.details.Merge(d) }
}

func WithTitle(title string) Option {
	return func(p *policy) { p.display.Title = title }
}

func WithDescription(desc string) Option {
	return func(p *policy) { p.display.Description = desc }
}

func WithAction(label string, onClick func()) Option {
	return func(p *policy) { p.display.Action = &Action{Label: label, OnClick: onClick} }
}

func WithDuration(d time.Duration) Option {
	return func(p *policy) { p.display.Duration = d }
}

// WithDisplay overrides the display fields set in d.
func WithDisplay(d Display) Option {
	return func(p *policy) {
		if d.Title != "" {
			p.display.Title = d.Title
		}
		if d.Description != "" {
			p.display.Description = d.Description
		}
		if d.Action != nil {
			p.display.Action = d.Action
		}
		if d.Duration != 0 {
			p.display.Duration = d.Duration
		}
	}
}
