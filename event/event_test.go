package event

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPubSubTopic(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	s1 := p.Subscribe(OperationTopic(1))
	defer s1.Close()

	s2 := p.Subscribe(OperationTopic(2))
	defer s2.Close()

	all := p.Subscribe("")
	defer all.Close()

	require.Equal(t, 3, p.Subscribers())

	require.NoError(t, p.Publish(NewOperationProgressEvent(1, 10, 5)))
	require.NoError(t, p.Publish(NewOperationCompletedEvent(1)))
	require.NoError(t, p.Publish(NewOperationErrorEvent(2, fmt.Errorf("failed"))))

	<-s1.Notify()
	events := s1.Events()
	require.Equal(t, 2, len(events))
	require.Equal(t, OperationProgress, events[0].(*OperationEvent).Type)
	require.Equal(t, int64(5), events[0].(*OperationEvent).Current)
	require.Equal(t, OperationCompleted, events[1].(*OperationEvent).Type)

	<-s2.Notify()
	events = s2.Events()
	require.Equal(t, 1, len(events))
	require.Equal(t, "failed", events[0].(*OperationEvent).Message)
	require.True(t, events[0].Final())

	<-all.Notify()
	require.Equal(t, 3, len(all.Events()))
}

func TestPubSubIndependentCopies(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	s1 := p.Subscribe(OperationTopic(1))
	s2 := p.Subscribe(OperationTopic(1))

	p.Publish(NewOperationProgressEvent(1, 10, 5))

	e1 := s1.Events()[0].(*OperationEvent)
	e2 := s2.Events()[0].(*OperationEvent)

	e1.Current = 7

	require.Equal(t, int64(5), e2.Current)
}

func TestPubSubNoReplay(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	p.Publish(NewOperationCompletedEvent(1))

	s := p.Subscribe(OperationTopic(1))
	defer s.Close()

	require.Equal(t, 0, len(s.Events()))
}

func TestPubSubUnsubscribe(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	s := p.Subscribe(OperationTopic(1))
	s.Close()
	s.Close()

	require.Equal(t, 0, p.Subscribers())

	p.Publish(NewOperationCompletedEvent(1))

	require.Equal(t, 0, len(s.Events()))
}

func TestPubSubSlowSubscriberGetsEverything(t *testing.T) {
	p := NewPubSub()
	defer p.Close()

	s := p.Subscribe(OperationTopic(1))
	defer s.Close()

	n := 5000

	for i := 0; i < n; i++ {
		require.NoError(t, p.Publish(NewOperationProgressEvent(1, int64(n), int64(i))))
	}

	require.NoError(t, p.Publish(NewOperationCompletedEvent(1)))

	events := s.Events()
	require.Equal(t, n+1, len(events))

	for i, e := range events[:n] {
		evt, ok := e.(*OperationEvent)
		require.True(t, ok)
		require.Equal(t, int64(i), evt.Current)
	}

	require.True(t, events[n].Final())
}

func TestPubSubClose(t *testing.T) {
	p := NewPubSub()

	s := p.Subscribe(OperationTopic(1))

	p.Close()

	_, ok := <-s.Notify()
	require.False(t, ok)

	require.Error(t, p.Publish(NewOperationCompletedEvent(1)))

	late := p.Subscribe(OperationTopic(1))
	_, ok = <-late.Notify()
	require.False(t, ok)
}
