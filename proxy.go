package winloop

import (
	"context"
	"sync"

	"github.com/1broseidon/winloop/internal/goid"
)

type proxyRequest struct {
	run   func(*EventLoop)
	abort func(error)
}

// Proxy posts work onto the loop goroutine from any goroutine. It never
// touches loop state itself: requests are queued, the backend is woken, and
// the loop runs them after its timers.
type Proxy struct {
	mu     sync.Mutex
	queue  []proxyRequest
	closed bool
	wake   func()
	owner  uint64
}

func newProxy(wake func(), owner uint64) *Proxy {
	return &Proxy{wake: wake, owner: owner}
}

// Post queues fn. It returns ErrLoopClosed after the loop was closed.
func (p *Proxy) Post(fn func(*EventLoop)) error {
	return p.enqueue(proxyRequest{run: fn})
}

// Call runs fn on the loop goroutine and waits for its result or for ctx.
// If ctx ends first, fn may still run later. Calling it from the loop
// goroutine would deadlock and returns ErrReentrantLoop instead.
func (p *Proxy) Call(ctx context.Context, fn func(*EventLoop) error) error {
	if goid.Current() == p.owner {
		return ErrReentrantLoop
	}
	done := make(chan error, 1)
	req := proxyRequest{
		run:   func(l *EventLoop) { done <- fn(l) },
		abort: func(err error) { done <- err },
	}
	if err := p.enqueue(req); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Proxy) enqueue(req proxyRequest) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrLoopClosed
	}
	p.queue = append(p.queue, req)
	p.mu.Unlock()
	p.wake()
	return nil
}

func (p *Proxy) pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) > 0
}

func (p *Proxy) take() []proxyRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := p.queue
	p.queue = nil
	return q
}

func (p *Proxy) close() {
	p.mu.Lock()
	q := p.queue
	p.queue = nil
	p.closed = true
	p.mu.Unlock()
	for _, req := range q {
		if req.abort != nil {
			req.abort(ErrLoopClosed)
		}
	}
}

// runProxy runs the requests queued before this point. Requests posted by
// a request wait for the next iteration.
func (l *EventLoop) runProxy() {
	reqs := l.proxy.take()
	l.proxyWork += len(reqs)
	for _, req := range reqs {
		completed := false
		l.guard(0, "proxy", func() {
			req.run(l)
			completed = true
		})
		if !completed && req.abort != nil {
			req.abort(l.out.Errors[len(l.out.Errors)-1])
		}
	}
}
