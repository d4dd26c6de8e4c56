package logstore

import (
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/platform"
)

const (
	SourceGlobalHandler      = "Global Error Handler"
	SourceUnhandledRejection = "Unhandled Rejection"
)

// platformListener feeds platform-level failures straight into the Store,
// whatever the Dispatcher policy is.
type platformListener struct {
	store *Store
}

var _ platform.Listener = (*platformListener)(nil)

func (l *platformListener) UncaughtException(ex platform.Exception) {
	e := &errlog.Error{Message: ex.Message, Stack: ex.Stack}
	if err, ok := ex.Value.(error); ok {
		e.Cause = err
	}
	l.store.Capture(e, errlog.Context{
		Source:   SourceGlobalHandler,
		Severity: errlog.SeverityHigh,
		Details: errlog.Details{
			Type:     "uncaught",
			Filename: ex.Filename,
			Line:     ex.Line,
			Column:   ex.Column,
		},
	})
}

func (l *platformListener) UnhandledRejection(reason interface{}) {
	l.store.Capture(reason, errlog.Context{
		Source:   SourceUnhandledRejection,
		Severity: errlog.SeverityHigh,
		Details:  errlog.Details{Type: "unhandledrejection"},
	})
}
