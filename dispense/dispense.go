// Package dispense hands out draws from a seeded session and fans finished
// batches out over AMQP.
package dispense

import (
	"context"
	"io"
	"sync"

	"github.com/kataras/golog"
	"github.com/pkg/errors"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/util/rng"
)

var (
	ErrStopped = errors.New("dispenser is stopped")

	// ErrNotPublished is returned by Draw when the batch was drawn, and so
	// consumed its part of the sequence, but could not be published.
	ErrNotPublished = errors.New("batch was drawn but not published")
)

// SessionRecorder assigns ids to new sessions, usually *store.Store.
type SessionRecorder interface {
	NewSession(ctx context.Context, seed uint64) (uint, error)
}

// PublisherFactory opens a publisher for one worker, or for synchronous draws.
// If the publisher is an io.Closer it is closed when it is no longer used.
type PublisherFactory func() (common.Publisher, error)

type session struct {
	id        uint
	seed      uint64
	nextOrder uint
}

type Dispenser struct {
	recorder   SessionRecorder
	publishers PublisherFactory
	exchange   string
	maxCount   int

	// guards session, a batch is drawn in one critical section so its order
	// matches its position in the sequence
	mu      sync.Mutex
	session session
	gen     *rng.LockedXorShift128P

	// publisher for synchronous draws, opened on first use
	syncMu  sync.Mutex
	syncPub common.Publisher

	queueMu  sync.RWMutex
	stopped  bool
	workerWG *sync.WaitGroup
	incoming chan []common.DrawRequest
}

// NewDispenser creates a dispenser with an unrecorded session 0 seeded with
// seed. recorder may be nil, in which case session ids are counted locally.
func NewDispenser(seed uint64, maxCount int, recorder SessionRecorder, publishers PublisherFactory, exchange string) *Dispenser {
	return &Dispenser{
		recorder:   recorder,
		publishers: publishers,
		exchange:   exchange,
		maxCount:   maxCount,

		session: session{seed: seed},
		gen:     rng.NewLockedXorShift128P(seed),

		workerWG: &sync.WaitGroup{},
		incoming: make(chan []common.DrawRequest, 128),
	}
}

// Reset starts a new session from seed.
func (d *Dispenser) Reset(ctx context.Context, seed uint64) (uint, error) {
	var id uint

	if d.recorder != nil {
		var err error
		if id, err = d.recorder.NewSession(ctx, seed); err != nil {
			return 0, errors.Wrap(err, "recording session")
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recorder == nil {
		id = d.session.id + 1
	}

	d.session = session{id: id, seed: seed}
	d.gen.Reseed(seed)

	golog.Infof("started session %d with seed %016x", id, seed)
	golog.Debugf("session %d state: %s", id, d.gen)

	return id, nil
}

// Session returns the current session id and seed.
func (d *Dispenser) Session() (uint, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.session.id, d.session.seed
}

func (d *Dispenser) MaxCount() int {
	return d.maxCount
}

// Draw serves req synchronously from the current session and publishes the
// batch like a submitted one, so stored sessions stay contiguous. If publishing
// fails the batch is still returned along with an ErrNotPublished error.
func (d *Dispenser) Draw(req common.DrawRequest) (common.DrawBatch, error) {
	batch, err := d.draw(req)
	if err != nil {
		return batch, err
	}

	if err = d.publishSync(batch); err != nil {
		golog.Errorf("batch %d of session %d was not published: %s", batch.Order, batch.SessionID, err)
		return batch, errors.Wrapf(ErrNotPublished, "batch %d of session %d: %s", batch.Order, batch.SessionID, err)
	}

	return batch, nil
}

func (d *Dispenser) draw(req common.DrawRequest) (common.DrawBatch, error) {
	if err := req.Validate(d.maxCount); err != nil {
		return common.DrawBatch{}, err
	}

	values := make([]int, req.Count)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen.Fill(values, req.Min, req.Max)

	batch := common.DrawBatch{
		SessionID: d.session.id,
		Seed:      d.session.seed,
		Order:     d.session.nextOrder,
		Request:   req,
		Values:    values,
	}
	d.session.nextOrder++

	return batch, nil
}

func (d *Dispenser) publishSync(batch common.DrawBatch) error {
	if d.publishers == nil {
		return nil
	}

	d.syncMu.Lock()
	defer d.syncMu.Unlock()

	if d.syncPub == nil {
		pub, err := d.publishers()
		if err != nil {
			return errors.Wrap(err, "opening a publisher")
		}
		d.syncPub = pub
	}

	if err := common.PublishBatch(d.syncPub, d.exchange, batch); err != nil {
		// a failed amqp channel is closed by the broker, open a new one next time
		d.closeSyncPublisher()
		return err
	}

	return nil
}

// closeSyncPublisher must be called with syncMu held.
func (d *Dispenser) closeSyncPublisher() {
	if closer, ok := d.syncPub.(io.Closer); ok {
		_ = closer.Close()
	}
	d.syncPub = nil
}

// Submit queues requests for the workers. Requests are validated up front so
// a bad batch is rejected as a whole.
func (d *Dispenser) Submit(ctx context.Context, requests []common.DrawRequest) error {
	for k, req := range requests {
		if err := req.Validate(d.maxCount); err != nil {
			return errors.Wrapf(err, "request at index %d is invalid", k)
		}
	}

	d.queueMu.RLock()
	defer d.queueMu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.incoming <- requests:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start starts numWorkers workers publishing submitted batches. With more than
// one worker, batches may be published out of order.
func (d *Dispenser) Start(numWorkers uint) {
	d.workerWG.Add(int(numWorkers))

	for i := uint(0); i < numWorkers; i++ {
		go d.task(i)
	}
}

// Stop refuses further submissions and waits for queued ones to be published.
// Synchronous draws keep working afterwards.
func (d *Dispenser) Stop() {
	d.queueMu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.incoming)
	}
	d.queueMu.Unlock()

	d.workerWG.Wait()

	d.syncMu.Lock()
	d.closeSyncPublisher()
	d.syncMu.Unlock()
}

func (d *Dispenser) processRequests(requests []common.DrawRequest, pub common.Publisher) error {
	golog.Debugf("%d new draw requests", len(requests))

	for _, req := range requests {
		batch, err := d.draw(req)
		if err != nil {
			return err
		}

		if err = common.PublishBatch(pub, d.exchange, batch); err != nil {
			return errors.Wrapf(err, "publishing batch %d of session %d", batch.Order, batch.SessionID)
		}
	}

	return nil
}

func (d *Dispenser) task(worker uint) {
	defer d.workerWG.Done()

	pub, err := d.publishers()
	if err != nil {
		golog.Errorf("worker %d failed to open a publisher: %s", worker, err)

		// keep draining so Submit and Stop never block on a dead worker
		for range d.incoming {
		}
		return
	}

	if closer, ok := pub.(io.Closer); ok {
		defer closer.Close()
	}

	for requests := range d.incoming {
		if err := d.processRequests(requests, pub); err != nil {
			golog.Errorf("error while processing a batch of %d requests: %s", len(requests), err)
		}
	}
}
