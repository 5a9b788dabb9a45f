package logpipe

import (
	"sync"
	"time"
)

// QueueCoordinator decouples event production from sink I/O. Producers
// enqueue events onto a bounded channel; a single consumer goroutine drains
// the channel and delivers each event to the wrapped handler, preserving
// per-handler order. A second goroutine flushes the handler on a fixed
// interval so buffered sinks do not sit on data indefinitely.
//
// Enqueue blocks when the queue is full. Nothing is dropped: backpressure
// propagates to the producer instead.
type QueueCoordinator struct {
	handler *Handler
	ch      chan Event

	flushInterval time.Duration

	quitConsume  chan struct{}
	quitFlush    chan struct{}
	consumerDone chan struct{}
	flushDone    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewQueueCoordinator wraps handler with an asynchronous delivery queue of
// the given capacity. Call Start before enqueuing.
func NewQueueCoordinator(handler *Handler, queueSize int, flushInterval time.Duration) *QueueCoordinator {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &QueueCoordinator{
		handler:       handler,
		ch:            make(chan Event, queueSize),
		flushInterval: flushInterval,
		quitConsume:   make(chan struct{}),
		quitFlush:     make(chan struct{}),
		consumerDone:  make(chan struct{}),
		flushDone:     make(chan struct{}),
	}
}

// Handler returns the wrapped handler.
func (q *QueueCoordinator) Handler() *Handler { return q.handler }

// Start launches the consumer and flush goroutines. Safe to call once.
func (q *QueueCoordinator) Start() {
	q.startOnce.Do(func() {
		go q.consume()
		if q.flushInterval > 0 {
			go q.flushLoop()
		} else {
			close(q.flushDone)
		}
	})
}

// Enqueue submits one event for asynchronous delivery, blocking while the
// queue is full. Events gated out by the handler's level or filters should
// not reach the queue; callers check acceptance before enqueuing so the
// queue carries only deliverable work. After the consumer has stopped,
// delivery falls back to the synchronous path so late events are not lost.
func (q *QueueCoordinator) Enqueue(e Event) {
	select {
	case q.ch <- e:
	case <-q.consumerDone:
		q.handler.Handle(e)
	}
}

func (q *QueueCoordinator) consume() {
	defer close(q.consumerDone)
	for {
		select {
		case e := <-q.ch:
			q.handler.Handle(e)
		case <-q.quitConsume:
			// Drain whatever producers managed to enqueue before the
			// stop signal, then exit.
			for {
				select {
				case e := <-q.ch:
					q.handler.Handle(e)
				default:
					return
				}
			}
		}
	}
}

func (q *QueueCoordinator) flushLoop() {
	defer close(q.flushDone)
	ticker := time.NewTicker(q.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			q.handler.Flush()
		case <-q.quitFlush:
			return
		}
	}
}

// Stop signals both goroutines, waits up to timeout for the consumer to
// drain the queue, then flushes and closes the wrapped handler. It reports
// false if the deadline expired before the goroutines finished.
func (q *QueueCoordinator) Stop(timeout time.Duration) bool {
	clean := true
	q.stopOnce.Do(func() {
		deadline := time.Now().Add(timeout)
		close(q.quitFlush)
		close(q.quitConsume)
		clean = awaitDone(q.consumerDone, deadline) && awaitDone(q.flushDone, deadline)
		// A producer can slip an event in between the consumer's final
		// drain and its exit. Sweep the channel once more here.
		q.sweep()
		q.handler.Flush()
		q.handler.Close()
	})
	return clean
}

func (q *QueueCoordinator) sweep() {
	for {
		select {
		case e := <-q.ch:
			q.handler.Handle(e)
		default:
			return
		}
	}
}

func awaitDone(done <-chan struct{}, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
