package notify

import (
	"fmt"
	"io"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
)

const (
	BoundarySource = "ErrorBoundary"
	reportTemplate = "error_report"
	exportFilename = "error-logs.json"
)

var errNotFailed = errors.New("nothing to report")

type (
	// LogReader is the part of the log store the fallback reads from.
	LogReader interface {
		Get(id string) (errlog.LogEntry, bool)
		Export() (string, error)
	}

	FallbackDeps struct {
		Logs     LogReader
		Mailer   core.EmailService
		Navigate func(path string)
		OnRetry  func() // re-runs the failed view; optional
		Out      io.Writer
	}

	// Fallback owns the boundary channel while mounted.
	// It holds the failed state of the view it guards; the boundary callback is the only way in.
	Fallback struct {
		deps         FallbackDeps
		supportEmail string
		homePath     string

		mu         sync.Mutex
		dispatcher *dispatch.Dispatcher
		failed     bool
		err        *errlog.Error
		errorID    string
		failedAt   time.Time
	}
)

func NewFallback(conf *core.Config, deps FallbackDeps) *Fallback {
	return &Fallback{
		deps:         deps,
		supportEmail: conf.Mail.SupportEmail,
		homePath:     "/",
	}
}

// Mount subscribes the fallback to the boundary channel of d, replacing any previous subscriber.
func (f *Fallback) Mount(d *dispatch.Dispatcher) {
	f.mu.Lock()
	f.dispatcher = d
	f.mu.Unlock()
	d.RegisterBoundaryCallback(f.Show)
}

// Unmount clears the boundary channel.
func (f *Fallback) Unmount() {
	f.mu.Lock()
	d := f.dispatcher
	f.dispatcher = nil
	f.mu.Unlock()
	if d != nil {
		d.RegisterBoundaryCallback(nil)
	}
}

// Show puts the view in its failed state. A view that already failed keeps its first failure.
func (f *Fallback) Show(err *errlog.Error, errorID string) {
	f.mu.Lock()
	if f.failed {
		f.mu.Unlock()
		return
	}
	f.failed = true
	f.err = err
	f.errorID = errorID
	f.failedAt = time.Now().UTC()
	out := f.deps.Out
	f.mu.Unlock()

	if out != nil {
		_, _ = io.WriteString(out, f.Render()+"\n")
	}
}

// Catch reports a failure raised while rendering the guarded view.
// It escalates through the dispatcher, so the failed state is set by the boundary callback only;
// it is a no-op once the view has failed or when the fallback is not mounted.
func (f *Fallback) Catch(v interface{}) string {
	f.mu.Lock()
	d, failed := f.dispatcher, f.failed
	f.mu.Unlock()
	if failed || d == nil {
		return ""
	}
	return d.Handle(v,
		dispatch.WithSeverity(errlog.SeverityHigh),
		dispatch.WithSource(BoundarySource),
		dispatch.Notify(false),
		dispatch.Escalate(true),
	)
}

// Failed returns the failure the view is showing, if any.
func (f *Fallback) Failed() (err *errlog.Error, errorID string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err, f.errorID, f.failed
}

// Reset clears the failed state.
func (f *Fallback) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = false
	f.err = nil
	f.errorID = ""
	f.failedAt = time.Time{}
}

// Retry clears the failed state and renders the view again.
func (f *Fallback) Retry() {
	f.Reset()
	if f.deps.OnRetry != nil {
		f.deps.OnRetry()
	}
}

// Home clears the failed state and leaves for the home page.
func (f *Fallback) Home() {
	f.Reset()
	if f.deps.Navigate != nil {
		f.deps.Navigate(f.homePath)
	}
}

// Report emails the failure to support along with the exported log.
func (f *Fallback) Report() error {
	f.mu.Lock()
	failed, err, id, at := f.failed, f.err, f.errorID, f.failedAt
	f.mu.Unlock()
	if !failed {
		return errNotFailed
	}
	if f.deps.Mailer == nil {
		return errors.New("no mailer configured")
	}

	to, perr := mail.ParseAddress(f.supportEmail)
	if perr != nil {
		return errors.Wrapf(perr, "parsing support email %q", f.supportEmail)
	}

	entry := errlog.LogEntry{ID: id, Timestamp: at, Message: err.Message, Stack: err.Stack, Source: BoundarySource}
	if f.deps.Logs != nil {
		if e, ok := f.deps.Logs.Get(id); ok {
			entry = e
		}
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{*to},
		Subject:      fmt.Sprintf("Error report %s", reportRef(entry.ID)),
		TemplateName: reportTemplate,
		TemplateData: entry,
	}
	if f.deps.Logs != nil {
		export, xerr := f.deps.Logs.Export()
		if xerr != nil {
			return errors.Wrap(xerr, "exporting logs")
		}
		if aerr := msg.Attach(strings.NewReader(export), exportFilename, "application/json"); aerr != nil {
			return errors.Wrap(aerr, "attaching logs")
		}
	}
	f.deps.Mailer.SendMessages(msg)
	return nil
}

func reportRef(id string) string {
	if id == "" {
		return "(not logged)"
	}
	return id
}

// Render draws the full-page fallback, or "" when the view has not failed.
func (f *Fallback) Render() string {
	err, id, failed := f.Failed()
	if !failed {
		return ""
	}

	lines := []string{
		titleStyle.Foreground(destructive).Render("Something went wrong"),
		"",
		descStyle.Render(err.Message),
	}
	if id != "" {
		lines = append(lines, hintStyle.Render("Error ID: "+id))
	}
	lines = append(lines, "",
		actionStyle.Render("[Retry]")+"  "+actionStyle.Render("[Home]")+"  "+actionStyle.Render("[Report]"),
	)
	return pageStyle().Render(strings.Join(lines, "\n"))
}
