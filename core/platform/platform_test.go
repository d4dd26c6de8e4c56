package platform

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu         sync.Mutex
	exceptions []Exception
	rejections []interface{}
}

func (r *recorder) UncaughtException(ex Exception) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, ex)
}

func (r *recorder) UnhandledRejection(reason interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, reason)
}

func TestHooks_Go(t *testing.T) {
	h := NewHooks()
	rec := &recorder{}
	stop := h.Listen(rec)
	defer stop()

	h.Go(func() { panic(errors.New("kaboom")) })
	h.Go(func() {})
	h.Wait()

	require.Len(t, rec.exceptions, 1)
	ex := rec.exceptions[0]
	assert.Equal(t, "kaboom", ex.Message)
	assert.EqualError(t, ex.Value.(error), "kaboom")
	assert.Contains(t, ex.Stack, "goroutine")
	assert.True(t, strings.HasSuffix(ex.Filename, "platform_test.go"), ex.Filename)
	assert.NotZero(t, ex.Line)
}

func TestHooks_Async(t *testing.T) {
	h := NewHooks()
	rec := &recorder{}
	defer h.Listen(rec)()

	h.Async(func() error { return errors.New("nobody awaited me") })
	h.Async(func() error { return nil })
	h.Wait()

	require.Len(t, rec.rejections, 1)
	assert.EqualError(t, rec.rejections[0].(error), "nobody awaited me")
	assert.Empty(t, rec.exceptions)
}

func TestHooks_Recover(t *testing.T) {
	h := NewHooks()
	rec := &recorder{}
	defer h.Listen(rec)()

	func() {
		defer h.Recover()
		panic("in place")
	}()
	h.Panic(42)
	h.Reject("reason")

	require.Len(t, rec.exceptions, 2)
	assert.Equal(t, "in place", rec.exceptions[0].Message)
	assert.Equal(t, "42", rec.exceptions[1].Message)
	assert.Equal(t, []interface{}{"reason"}, rec.rejections)
}

func TestHooks_Listen(t *testing.T) {
	h := NewHooks()
	a, b := &recorder{}, &recorder{}
	stopA := h.Listen(a)
	stopB := h.Listen(b)

	h.Reject("first")
	stopA()
	stopA() // idempotent
	h.Reject("second")
	stopB()
	h.Reject("third")

	assert.Equal(t, []interface{}{"first"}, a.rejections)
	assert.Equal(t, []interface{}{"first", "second"}, b.rejections)
}
