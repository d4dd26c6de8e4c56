package logstore

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/studydash/core"
)

const writeTimeout = 5 * time.Second

// persister writes full snapshots of the buffer in the background.
// Snapshots are coalesced: a pending one is replaced by a newer one, last writer wins.
type persister struct {
	storage core.Storage
	key     string
	logger  core.Logger

	writeMu    sync.Mutex // serializes writes so that a newer snapshot is never overwritten
	mu         sync.Mutex
	pending    []byte
	hasPending bool
	closed     bool

	signal    chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newPersister(storage core.Storage, key string, logger core.Logger) *persister {
	p := &persister{
		storage: storage,
		key:     key,
		logger:  logger,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) save(data []byte) {
	p.mu.Lock()
	p.pending = data
	p.hasPending = true
	closed := p.closed
	p.mu.Unlock()

	if closed {
		p.flush()
		return
	}
	select {
	case p.signal <- struct{}{}:
	default: // a write is already scheduled and will pick the newest snapshot
	}
}

func (p *persister) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.signal:
			p.flush()
		case <-p.done:
			p.flush()
			return
		}
	}
}

func (p *persister) flush() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	if !p.hasPending {
		p.mu.Unlock()
		return
	}
	data := p.pending
	p.pending, p.hasPending = nil, false
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.storage.Set(ctx, p.key, data); err != nil {
		p.logger.Error("failed to persist error logs", err)
	}
}

// close writes the last pending snapshot and stops the writer.
func (p *persister) close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
	})
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
