// service/queue.go
package service

import (
	"context"
	"errors"
	"sync"

	"ballot-backend/models"
)

var (
	// ErrPoolSaturated is returned when every worker is busy and the queue is
	// full. The request was not derived; the caller may retry later.
	ErrPoolSaturated = errors.New("derivation pool saturated")

	// ErrPoolClosed is returned once the pool has been stopped.
	ErrPoolClosed = errors.New("derivation pool closed")
)

// KeyDeriver computes the storage key for an identity.
// *encryption.CryptoService implements it.
type KeyDeriver interface {
	DeriveKey(identity string) models.DerivedKey
}

// DerivationPool runs key derivations on a fixed number of workers. Each
// derivation holds tens of MiB of memory, so the worker count bounds the
// memory the process spends on derivation and the queue bounds how many
// requests may wait for a worker.
type DerivationPool struct {
	deriver      KeyDeriver
	workers      int
	requestCh    chan *derivationRequest
	processingWg sync.WaitGroup
	shutdownCh   chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once
}

type derivationRequest struct {
	ctx      context.Context
	identity string
	resultCh chan<- derivationResult
}

type derivationResult struct {
	key models.DerivedKey
	err error
}

// NewDerivationPool creates a pool with the given number of workers and
// queue slots. Values below the minimum are raised to 1 worker and 0 slots.
func NewDerivationPool(deriver KeyDeriver, workers, queueSize int) *DerivationPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &DerivationPool{
		deriver:    deriver,
		workers:    workers,
		requestCh:  make(chan *derivationRequest, queueSize),
		shutdownCh: make(chan struct{}),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (p *DerivationPool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.processingWg.Add(1)
			go p.worker()
		}
	})
}

// Stop shuts the workers down and waits for in-flight derivations to finish.
// Requests still queued are answered with ErrPoolClosed.
func (p *DerivationPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.shutdownCh)
		p.processingWg.Wait()
	})
}

// Workers returns the number of derivation workers.
func (p *DerivationPool) Workers() int {
	return p.workers
}

// Pending returns how many requests are waiting for a worker.
func (p *DerivationPool) Pending() int {
	return len(p.requestCh)
}

// Derive queues a derivation for identity and waits for its result. It never
// blocks on admission: a full queue yields ErrPoolSaturated immediately. If
// ctx ends first, Derive stops waiting and returns ctx.Err(); a derivation
// already running is not interrupted.
func (p *DerivationPool) Derive(ctx context.Context, identity string) (models.DerivedKey, error) {
	select {
	case <-p.shutdownCh:
		return models.DerivedKey{}, ErrPoolClosed
	default:
	}

	resultCh := make(chan derivationResult, 1)
	select {
	case p.requestCh <- &derivationRequest{ctx: ctx, identity: identity, resultCh: resultCh}:
	default:
		return models.DerivedKey{}, ErrPoolSaturated
	}

	select {
	case res := <-resultCh:
		return res.key, res.err
	case <-ctx.Done():
		return models.DerivedKey{}, ctx.Err()
	case <-p.shutdownCh:
		// A worker may have finished the request just before shutdown.
		select {
		case res := <-resultCh:
			return res.key, res.err
		default:
			return models.DerivedKey{}, ErrPoolClosed
		}
	}
}

func (p *DerivationPool) worker() {
	defer p.processingWg.Done()

	for {
		select {
		case <-p.shutdownCh:
			return
		case req := <-p.requestCh:
			// Skip work nobody is waiting for.
			if err := req.ctx.Err(); err != nil {
				req.resultCh <- derivationResult{err: err}
				continue
			}
			req.resultCh <- derivationResult{key: p.deriver.DeriveKey(req.identity)}
		}
	}
}
