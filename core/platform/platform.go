// Package platform captures the failures nobody handled:
// panics in goroutines (uncaught exceptions) and errors returned by goroutines
// whose result nobody awaits (unhandled rejections).
package platform

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

type (
	// Exception is an uncaught panic, with the location it was raised from when known.
	Exception struct {
		Value    interface{}
		Message  string
		Stack    string
		Filename string
		Line     int
		Column   int
	}

	// Listener is notified of every platform-level failure.
	Listener interface {
		UncaughtException(ex Exception)
		UnhandledRejection(reason interface{})
	}

	// Source is anything able to report platform-level failures.
	// Listen returns a function detaching the listener.
	Source interface {
		Listen(l Listener) (stop func())
	}
)

// Hooks is the Source of the Go runtime: goroutines started through it are
// guarded against panics, and errors they return are reported as unhandled rejections.
type Hooks struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	wg        sync.WaitGroup
}

var _ Source = (*Hooks)(nil)

func NewHooks() *Hooks {
	return &Hooks{listeners: make(map[int]Listener)}
}

func (h *Hooks) Listen(l Listener) (stop func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *Hooks) snapshot() []Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ls := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		ls = append(ls, l)
	}
	return ls
}

// Go runs fn in its own goroutine; a panic is reported instead of crashing the process.
func (h *Hooks) Go(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.Recover()
		fn()
	}()
}

// Async runs fn in its own goroutine without awaiting its result:
// a returned error is reported as an unhandled rejection.
func (h *Hooks) Async(fn func() error) {
	h.Go(func() {
		if err := fn(); err != nil {
			h.Reject(err)
		}
	})
}

// Wait blocks until every goroutine started by Go or Async has returned.
func (h *Hooks) Wait() {
	h.wg.Wait()
}

// Recover reports a panic in progress. It must be deferred directly:
//
//	defer hooks.Recover()
func (h *Hooks) Recover() {
	if r := recover(); r != nil {
		h.report(r)
	}
}

// Panic reports v as an uncaught exception; used by callers that already recovered it.
func (h *Hooks) Panic(v interface{}) {
	h.report(v)
}

// Reject reports reason as an unhandled rejection.
func (h *Hooks) Reject(reason interface{}) {
	for _, l := range h.snapshot() {
		l.UnhandledRejection(reason)
	}
}

func (h *Hooks) report(v interface{}) {
	ex := Exception{
		Value:   v,
		Message: panicMessage(v),
		Stack:   string(debug.Stack()),
	}
	ex.Filename, ex.Line = panicSite()
	for _, l := range h.snapshot() {
		l.UncaughtException(ex)
	}
}

func panicMessage(v interface{}) string {
	switch val := v.(type) {
	case error:
		return val.Error()
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// panicSite returns the location of the frame that called panic, when reporting from a deferred recover.
func panicSite() (file string, line int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File, frame.Line
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			break
		}
	}
	return "", 0
}
