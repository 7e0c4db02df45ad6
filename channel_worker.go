package eventstream

import (
	"context"
	"sync"
)

// channelWorker processes one channel's messages in order on a dedicated
// goroutine. The callback can be swapped (last subscribe wins) without
// restarting the worker, and a panicking callback is recovered per message so
// it never terminates the stream.
type channelWorker struct {
	channel string
	queue   chan Message
	stopped chan struct{}

	mu sync.RWMutex
	fn MessageFunc

	closeOnce sync.Once
}

func newChannelWorker(channel string, queueSize int, fn MessageFunc) *channelWorker {
	return &channelWorker{
		channel: channel,
		queue:   make(chan Message, queueSize),
		stopped: make(chan struct{}),
		fn:      fn,
	}
}

// setCallback replaces the callback for subsequent messages.
func (w *channelWorker) setCallback(fn MessageFunc) {
	w.mu.Lock()
	w.fn = fn
	w.mu.Unlock()
}

// run drains the queue until the worker is closed. Each message is handled
// with its own background context: in-flight handling is owned by the
// handler's retry policy, not by the subscription lifecycle.
func (w *channelWorker) run(logger Logger) {
	for {
		select {
		case <-w.stopped:
			return
		case msg := <-w.queue:
			w.handle(context.Background(), msg, logger)
		}
	}
}

func (w *channelWorker) handle(ctx context.Context, msg Message, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Callback panic on channel %s: %v", w.channel, r)
		}
	}()

	w.mu.RLock()
	fn := w.fn
	w.mu.RUnlock()
	fn(ctx, msg)
}

func (w *channelWorker) close() {
	w.closeOnce.Do(func() {
		close(w.stopped)
	})
}
