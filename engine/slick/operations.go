package slick

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/store"
	"github.com/slickfs/gateway/event"
	"github.com/slickfs/gateway/log"
)

var errCanceled = errors.New("operation canceled")

// operations runs the add operations on a bounded number of workers and keeps
// their records.
type operations struct {
	engine  *slick
	records store.Store
	pubsub  *event.PubSub

	jobs     map[int64]context.CancelFunc
	jobsLock sync.Mutex

	slots chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guards closed and the wg.Add of new jobs against close
	closeLock sync.Mutex
	closed    bool

	// minimum interval between two writes of the record of a running operation
	persistInterval time.Duration

	logger log.Logger
}

func newOperations(e *slick, records store.Store, workers int, logger log.Logger) (*operations, error) {
	o := &operations{
		engine:          e,
		records:         records,
		pubsub:          event.NewPubSub(),
		jobs:            map[int64]context.CancelFunc{},
		slots:           make(chan struct{}, workers),
		persistInterval: time.Second,
		logger:          logger,
	}

	o.ctx, o.cancel = context.WithCancel(context.Background())

	// Operations that didn't finish before the last shutdown won't resume.
	interrupted := []engine.Operation{}

	err := records.Each(func(op engine.Operation) error {
		if !op.State.IsFinal() {
			interrupted = append(interrupted, op)
		}

		return nil
	})
	if err != nil {
		return nil, engine.Internal(err, "can't read operations")
	}

	for _, op := range interrupted {
		op.State = engine.StateError
		op.Message = "operation interrupted"
		op.UpdatedAt = time.Now()

		if err := records.Put(op); err != nil {
			return nil, engine.Internal(err, "can't write operation %d", op.ID)
		}

		logger.Warn().WithField("id", op.ID).Log("Operation has been interrupted")
	}

	return o, nil
}

func (o *operations) close() error {
	o.closeLock.Lock()
	if o.closed {
		o.closeLock.Unlock()
		return nil
	}
	o.closed = true
	o.cancel()
	o.closeLock.Unlock()

	o.wg.Wait()
	o.pubsub.Close()

	return o.records.Close()
}

func (o *operations) Each(ctx context.Context, fn func(op engine.Operation) error) error {
	err := o.records.Each(func(op engine.Operation) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		return fn(op)
	})
	if err != nil {
		var e *engine.Error
		if errors.As(err, &e) {
			return err
		}

		return engine.Internal(err, "can't read operations")
	}

	return nil
}

func (o *operations) Get(ctx context.Context, id int64) (engine.Operation, error) {
	op, ok, err := o.records.Get(id)
	if err != nil {
		return engine.Operation{}, engine.Internal(err, "can't read operation %d", id)
	}

	if !ok {
		return engine.Operation{}, engine.NotFound("operation %d not found", id)
	}

	return op, nil
}

func (o *operations) Cancel(ctx context.Context, id int64) error {
	o.jobsLock.Lock()
	cancel, ok := o.jobs[id]
	o.jobsLock.Unlock()

	if ok {
		cancel()
		o.logger.Info().WithField("id", id).Log("Cancellation requested")
		return nil
	}

	_, found, err := o.records.Get(id)
	if err != nil {
		return engine.Internal(err, "can't read operation %d", id)
	}

	if !found {
		return engine.InvalidData("unknown operation %d", id)
	}

	return engine.InvalidData("operation %d already finished", id)
}

func (o *operations) Listen(id int64) engine.Listener {
	return o.pubsub.Subscribe(event.OperationTopic(id))
}

func (o *operations) ListenAll() engine.Listener {
	return o.pubsub.Subscribe("")
}

// Subscribers returns the number of active listeners.
func (o *operations) Subscribers() int {
	return o.pubsub.Subscribers()
}

func (o *operations) put(op *engine.Operation) {
	op.UpdatedAt = time.Now()

	if err := o.records.Put(*op); err != nil {
		o.logger.Error().WithError(err).WithField("id", op.ID).Log("Failed to write operation")
	}
}

func (o *operations) publish(e event.Event) {
	if err := o.pubsub.Publish(e); err != nil {
		o.logger.Debug().WithError(err).Log("Event not published")
	}
}

func (e *slick) Add(ctx context.Context, name, p string, sources []string, options engine.AddOptions) (int64, error) {
	mode := options.Conflict
	if len(mode) == 0 {
		mode = engine.ConflictSkip
	}

	if !mode.IsValid() {
		return 0, engine.InvalidData("unknown conflict mode %s", mode)
	}

	e.lock.RLock()
	_, err := e.volume(name)
	e.lock.RUnlock()

	if err != nil {
		return 0, err
	}

	o := e.ops

	o.closeLock.Lock()
	defer o.closeLock.Unlock()

	if o.closed {
		return 0, engine.Internal(context.Canceled, "engine is closed")
	}

	id, err := o.records.NextID()
	if err != nil {
		return 0, engine.Internal(err, "can't create operation")
	}

	now := time.Now()

	op := engine.Operation{
		ID:          id,
		Type:        "add",
		State:       engine.StateQueued,
		Volume:      name,
		Destination: cleanPath(p),
		Sources:     append([]string(nil), sources...),
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := o.records.Put(op); err != nil {
		return 0, engine.Internal(err, "can't create operation")
	}

	jobCtx, cancel := context.WithCancel(o.ctx)

	o.jobsLock.Lock()
	o.jobs[id] = cancel
	o.jobsLock.Unlock()

	o.wg.Add(1)

	go o.run(jobCtx, op)

	o.logger.Info().WithFields(log.Fields{
		"id":          id,
		"volume":      name,
		"destination": op.Destination,
		"sources":     len(sources),
		"mode":        mode,
	}).Log("Operation queued")

	return id, nil
}

func (o *operations) run(ctx context.Context, op engine.Operation) {
	defer o.wg.Done()

	err := o.execute(ctx, &op)

	o.jobsLock.Lock()
	cancel := o.jobs[op.ID]
	delete(o.jobs, op.ID)
	o.jobsLock.Unlock()

	if cancel != nil {
		cancel()
	}

	o.finish(&op, err)
}

// execute waits for a free worker and adds the sources of the operation.
func (o *operations) execute(ctx context.Context, op *engine.Operation) error {
	select {
	case o.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	defer func() { <-o.slots }()

	op.State = engine.StateRunning
	o.put(op)

	o.logger.Debug().WithField("id", op.ID).Log("Operation started")

	lastPersist := time.Now()

	return o.engine.add(ctx, op.Volume, op.Destination, op.Sources, op.Mode, func(total, current int64) {
		op.Total = total
		op.Current = current

		if time.Since(lastPersist) >= o.persistInterval {
			o.put(op)
			lastPersist = time.Now()
		}

		o.publish(event.NewOperationProgressEvent(op.ID, total, current))
	})
}

// finish writes the final state of the operation and publishes its terminal
// event. The record is written first such that a listener that reads the
// record after it subscribed doesn't miss the end of the operation.
func (o *operations) finish(op *engine.Operation, err error) {
	logger := o.logger.WithField("id", op.ID)

	if err == nil {
		op.State = engine.StateCompleted
		o.put(op)
		o.publish(event.NewOperationCompletedEvent(op.ID))

		logger.Info().Log("Operation completed")

		return
	}

	if errors.Is(err, context.Canceled) {
		err = errCanceled
	}

	op.State = engine.StateError
	op.Message = engine.Message(err)
	o.put(op)
	o.publish(event.NewOperationErrorEvent(op.ID, errors.New(op.Message)))

	logger.Warn().WithError(err).Log("Operation failed")
}
