package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectFanOut(t *testing.T) {
	s := NewSubject[int]()
	defer s.Close()

	ch1, cancel1 := s.Subscribe()
	ch2, cancel2 := s.Subscribe()
	defer cancel1()
	defer cancel2()

	s.Publish(42)

	select {
	case v := <-ch1:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 did not receive")
	}
	select {
	case v := <-ch2:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 did not receive")
	}
}

func TestSubjectCancelStopsDelivery(t *testing.T) {
	s := NewSubject[int]()
	defer s.Close()

	ch, cancel := s.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// publishing after cancel must not panic
	s.Publish(1)
}

func TestSubjectCloseTerminatesSubscribers(t *testing.T) {
	s := NewSubject[string]()
	ch, _ := s.Subscribe()

	s.Close()
	_, open := <-ch
	assert.False(t, open)

	// post-close operations are no-ops
	s.Publish("late")
	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestSubjectPublishNeverBlocks(t *testing.T) {
	s := NewSubject[int]()
	defer s.Close()

	_, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			s.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestSubscriptionsClear(t *testing.T) {
	var g Subscriptions
	var calls int
	g.Add(func() { calls++ })
	g.Add(func() { calls++ })

	g.Clear()
	require.Equal(t, 2, calls)

	// second clear runs nothing
	g.Clear()
	require.Equal(t, 2, calls)
}
