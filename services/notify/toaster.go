// Package notify holds the collaborators of the dispatcher channels:
// the Toaster renders transient notices and the Fallback renders the full-page failure view.
package notify

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
)

const defaultToastDuration = 5 * time.Second

type (
	Toast struct {
		ID          string
		Title       string
		Description string
		Action      *dispatch.Action
		Variant     errlog.Variant
		Duration    time.Duration
		CreatedAt   time.Time
	}

	// Toaster owns the toast channel while mounted.
	// Every toast is dismissed after its duration unless dismissed before.
	Toaster struct {
		out      io.Writer
		duration time.Duration

		mu         sync.Mutex
		dispatcher *dispatch.Dispatcher
		toasts     []Toast
		timers     map[string]*time.Timer
	}
)

func NewToaster(conf *core.Config, out io.Writer) *Toaster {
	d := conf.Toast.Duration
	if d <= 0 {
		d = defaultToastDuration
	}
	return &Toaster{
		out:      out,
		duration: d,
		timers:   make(map[string]*time.Timer),
	}
}

// Mount subscribes the toaster to the toast channel of d, replacing any previous subscriber.
func (t *Toaster) Mount(d *dispatch.Dispatcher) {
	t.mu.Lock()
	t.dispatcher = d
	t.mu.Unlock()
	d.RegisterToastCallback(func(opts dispatch.ToastOptions) { t.Show(opts) })
}

// Unmount clears the toast channel, stops every pending timer and drops the active toasts.
func (t *Toaster) Unmount() {
	t.mu.Lock()
	d := t.dispatcher
	t.dispatcher = nil
	for id, tm := range t.timers {
		tm.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
	t.mu.Unlock()

	if d != nil {
		d.RegisterToastCallback(nil)
	}
}

// Show displays a toast and returns its id.
func (t *Toaster) Show(opts dispatch.ToastOptions) string {
	toast := Toast{
		ID:          uuid.NewString(),
		Title:       opts.Title,
		Description: opts.Description,
		Action:      opts.Action,
		Variant:     opts.Variant,
		Duration:    opts.Duration,
		CreatedAt:   time.Now().UTC(),
	}
	if toast.Duration <= 0 {
		toast.Duration = t.duration
	}
	if toast.Variant == "" {
		toast.Variant = errlog.VariantInfo
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, toast)
	id := toast.ID
	t.timers[id] = time.AfterFunc(toast.Duration, func() { t.Dismiss(id) })
	if t.out != nil {
		_, _ = io.WriteString(t.out, RenderToast(toast)+"\n")
	}
	return id
}

// Dismiss removes the toast; false if it is not active anymore.
func (t *Toaster) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dismissLocked(id)
}

func (t *Toaster) dismissLocked(id string) bool {
	if tm, ok := t.timers[id]; ok {
		tm.Stop()
		delete(t.timers, id)
	}
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Trigger runs the action of the toast and dismisses it.
func (t *Toaster) Trigger(id string) bool {
	t.mu.Lock()
	var action *dispatch.Action
	for _, toast := range t.toasts {
		if toast.ID == id {
			action = toast.Action
			break
		}
	}
	if action == nil {
		t.mu.Unlock()
		return false
	}
	t.dismissLocked(id)
	t.mu.Unlock()

	if action.OnClick != nil {
		action.OnClick()
	}
	return true
}

// Active returns the toasts on screen, oldest first.
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.toasts))
	copy(out, t.toasts)
	return out
}

// RenderToast draws a toast with a border coloured after its variant.
func RenderToast(toast Toast) string {
	lines := []string{titleStyle.Foreground(variantColor(toast.Variant)).Render(toast.Title)}
	if toast.Description != "" {
		lines = append(lines, descStyle.Render(toast.Description))
	}
	if toast.Action != nil {
		lines = append(lines, actionStyle.Render("["+toast.Action.Label+"]"))
	}
	return toastStyle(toast.Variant).Render(strings.Join(lines, "\n"))
}
