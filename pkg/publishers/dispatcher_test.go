package publishers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowSink struct {
	mu     sync.Mutex
	delay  time.Duration
	block  chan struct{}
	events []Event
	errs   []error
}

func (s *slowSink) Publish(ctx context.Context, evt Event) error {
	var err error
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			err = ctx.Err()
		}
	} else if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	s.errs = append(s.errs, err)
	return err
}

func (s *slowSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcherPublishDoesNotWaitForSink(t *testing.T) {
	sink := &slowSink{delay: 100 * time.Millisecond}
	d := NewDispatcher(sink, DispatcherConfig{QueueSize: 64, Workers: 4}, nil)

	start := time.Now()
	for i := 0; i < 30; i++ {
		require.NoError(t, d.Publish(context.Background(), sampleEvent()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 30, sink.count())
}

func TestDispatcherDropsWhenQueueIsFull(t *testing.T) {
	sink := &slowSink{block: make(chan struct{})}
	d := NewDispatcher(sink, DispatcherConfig{QueueSize: 1, Workers: 1, Timeout: time.Minute}, nil)

	var full error
	for i := 0; i < 10 && full == nil; i++ {
		full = d.Publish(context.Background(), sampleEvent())
	}
	assert.ErrorIs(t, full, ErrQueueFull)

	close(sink.block)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcherAppliesDeliveryTimeout(t *testing.T) {
	sink := &slowSink{block: make(chan struct{})}
	d := NewDispatcher(sink, DispatcherConfig{Workers: 1, Timeout: 20 * time.Millisecond}, nil)

	require.NoError(t, d.Publish(context.Background(), sampleEvent()))
	require.NoError(t, d.Close(context.Background()))

	require.Len(t, sink.errs, 1)
	assert.True(t, errors.Is(sink.errs[0], context.DeadlineExceeded))
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(&slowSink{}, DispatcherConfig{}, nil)
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.ErrorIs(t, d.Publish(context.Background(), sampleEvent()), ErrDispatcherClosed)
}

func TestDispatcherCloseHonoursContext(t *testing.T) {
	sink := &slowSink{block: make(chan struct{})}
	defer close(sink.block)
	d := NewDispatcher(sink, DispatcherConfig{Workers: 1, Timeout: time.Minute}, nil)
	require.NoError(t, d.Publish(context.Background(), sampleEvent()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}
