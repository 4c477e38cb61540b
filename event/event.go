package event

import (
	"fmt"
	"sync"

	"github.com/lithammer/shortuuid/v4"
)

type Event interface {
	Clone() Event

	// Topic returns the topic the event is published on.
	Topic() string

	// Final returns whether this is the last event ever published on its topic.
	Final() bool
}

type CancelFunc func()

// PubSub broadcasts events to all subscribers of the event's topic. Every
// subscriber gets its own copy of each event, from the time of subscription on.
type PubSub struct {
	closed bool

	subscriber     map[string]*Subscription
	subscriberLock sync.Mutex
}

func NewPubSub() *PubSub {
	w := &PubSub{
		subscriber: make(map[string]*Subscription),
	}

	return w
}

// Publish hands a copy of the event to every subscriber of its topic and to
// every subscriber of all topics. It never blocks on slow subscribers.
func (w *PubSub) Publish(e Event) error {
	w.subscriberLock.Lock()
	defer w.subscriberLock.Unlock()

	if w.closed {
		return fmt.Errorf("pubsub is closed")
	}

	topic := e.Topic()

	for _, s := range w.subscriber {
		if len(s.topic) != 0 && s.topic != topic {
			continue
		}

		s.push(e.Clone())
	}

	return nil
}

func (w *PubSub) Close() {
	w.subscriberLock.Lock()
	defer w.subscriberLock.Unlock()

	w.closed = true

	for _, s := range w.subscriber {
		s.close()
	}

	w.subscriber = make(map[string]*Subscription)
}

// Subscribe returns a subscription for the topic. An empty topic subscribes to
// all topics.
func (w *PubSub) Subscribe(topic string) *Subscription {
	s := &Subscription{
		topic:  topic,
		notify: make(chan struct{}, 1),
	}

	w.subscriberLock.Lock()
	for {
		s.id = shortuuid.New()
		if _, ok := w.subscriber[s.id]; !ok {
			w.subscriber[s.id] = s
			break
		}
	}

	if w.closed {
		delete(w.subscriber, s.id)
		s.close()
	}
	w.subscriberLock.Unlock()

	s.unsubscribe = func() {
		w.subscriberLock.Lock()
		delete(w.subscriber, s.id)
		w.subscriberLock.Unlock()
	}

	return s
}

// Subscribers returns the number of current subscriptions.
func (w *PubSub) Subscribers() int {
	w.subscriberLock.Lock()
	defer w.subscriberLock.Unlock()

	return len(w.subscriber)
}

// Subscription is the receiving end of a PubSub. Events are queued in the
// order they have been published. The queue is unbounded, no event is lost
// while the subscription is open.
type Subscription struct {
	id    string
	topic string

	queue  []Event
	closed bool
	lock   sync.Mutex

	notify      chan struct{}
	unsubscribe func()
	once        sync.Once
}

func (s *Subscription) push(e Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.queue = append(s.queue, e)

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.notify)
}

// Notify returns a channel that receives a value whenever events have been
// queued. The channel is closed when the PubSub is closed.
func (s *Subscription) Notify() <-chan struct{} {
	return s.notify
}

// Events returns and removes all queued events.
func (s *Subscription) Events() []Event {
	s.lock.Lock()
	defer s.lock.Unlock()

	events := s.queue
	s.queue = nil

	return events
}

// Close unsubscribes. Queued events are discarded.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}

		s.lock.Lock()
		s.queue = nil
		s.lock.Unlock()
	})
}
