package embedworker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Backend performs the actual embedding call (HTTP, subprocess,
// whatever transport wraps the protocol in protocol.go). The pool
// owns correlation/cancellation; Backend just does the work for one
// request.
type Backend interface {
	Init(ctx context.Context) (InitDonePayload, error)
	EmbedChunks(ctx context.Context, payload EmbedChunksPayload) (EmbedChunksResultPayload, error)
}

// poolSize implements the §5 CPU-concurrency heuristic: min 1, cap 4,
// cores-2.
func poolSize() int {
	n := runtime.NumCPU() - 2
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

type pendingRequest struct {
	resultCh chan EmbedChunksResultPayload
	errCh    chan error
}

// Pool dispatches embed-chunks requests to a bounded worker set,
// correlating each by a monotonically increasing request id. On
// Close, every outstanding request is rejected with ErrCancelled.
type Pool struct {
	backend   Backend
	sem       chan struct{}
	nextID    int64
	mu        sync.Mutex
	pending   map[int64]*pendingRequest
	closed    bool
	closeOnce sync.Once
}

// New starts a pool sized per the §5 heuristic, wrapping backend.
func New(backend Backend) *Pool {
	return &Pool{
		backend: backend,
		sem:     make(chan struct{}, poolSize()),
		pending: make(map[int64]*pendingRequest),
	}
}

// Init issues the init handshake synchronously.
func (p *Pool) Init(ctx context.Context) (InitDonePayload, error) {
	return p.backend.Init(ctx)
}

// EmbedChunks issues an embed-chunks request and awaits its result,
// dispatching across the bounded worker pool. It is safe to call
// concurrently; the pool's semaphore throttles actual concurrency.
func (p *Pool) EmbedChunks(ctx context.Context, payload EmbedChunksPayload) (EmbedChunksResultPayload, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return EmbedChunksResultPayload{}, codegraph.ErrCancelled
	}
	id := atomic.AddInt64(&p.nextID, 1)
	req := &pendingRequest{
		resultCh: make(chan EmbedChunksResultPayload, 1),
		errCh:    make(chan error, 1),
	}
	p.pending[id] = req
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return EmbedChunksResultPayload{}, fmt.Errorf("%w: %v", codegraph.ErrCancelled, ctx.Err())
	}
	go func() {
		defer func() { <-p.sem }()
		result, err := p.backend.EmbedChunks(ctx, payload)
		if err != nil {
			req.errCh <- fmt.Errorf("%w: %v", codegraph.ErrWorkerFailure, err)
			return
		}
		req.resultCh <- result
	}()

	select {
	case result := <-req.resultCh:
		return result, nil
	case err := <-req.errCh:
		return EmbedChunksResultPayload{}, err
	case <-ctx.Done():
		return EmbedChunksResultPayload{}, fmt.Errorf("%w: %v", codegraph.ErrCancelled, ctx.Err())
	}
}

// Close rejects every outstanding request with a cancellation error
// and marks the pool unusable for new requests, per §5's disposal
// contract.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		pending := p.pending
		p.pending = make(map[int64]*pendingRequest)
		p.mu.Unlock()
		for _, req := range pending {
			select {
			case req.errCh <- codegraph.ErrCancelled:
			default:
			}
		}
	})
}
