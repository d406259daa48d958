// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Dispatcher queues messages and delivers them on a background worker.
//
// # Behavior
//
// Dispatch never blocks the caller: when the buffer is full the message is
// dropped and counted. Delivery failures are logged and swallowed. Close
// drains whatever is still queued before returning.
type Dispatcher struct {
	mailer    Mailer
	logger    *slog.Logger
	queue     chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the background worker and returns the dispatcher.
//
// # Parameters
//   - mailer: the synchronous transport to deliver through.
//   - bufferSize: queue capacity; values below 1 are clamped to 1.
//   - logger: structured logger for delivery failures.
func NewDispatcher(mailer Mailer, bufferSize int, logger *slog.Logger) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = 1
	}

	dispatcher := &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, bufferSize),
		done:   make(chan struct{}),
	}

	dispatcher.wg.Add(1)
	go dispatcher.run()

	return dispatcher
}

// run is the worker loop. On shutdown it drains the remaining queue.
func (dispatcher *Dispatcher) run() {
	defer dispatcher.wg.Done()

	for {
		select {
		case message := <-dispatcher.queue:
			dispatcher.deliver(message)
		case <-dispatcher.done:
			for {
				select {
				case message := <-dispatcher.queue:
					dispatcher.deliver(message)
				default:
					return
				}
			}
		}
	}
}

// deliver sends one message, logging but never propagating failures.
func (dispatcher *Dispatcher) deliver(message Message) {
	if err := dispatcher.mailer.Send(context.Background(), message); err != nil {
		dispatcher.logger.Error("mail delivery failed",
			slog.String("to", message.To),
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
	}
}

// Dispatch enqueues a message without blocking. A full queue drops the
// message and increments the drop counter.
func (dispatcher *Dispatcher) Dispatch(message Message) {
	if dispatcher == nil || dispatcher.closed.Load() {
		return
	}

	select {
	case dispatcher.queue <- message:
	case <-dispatcher.done:
	default:
		dispatcher.dropped.Add(1)
		dispatcher.logger.Warn("mail queue full, message dropped",
			slog.String("to", message.To),
			slog.String("subject", message.Subject),
		)
	}
}

// Close stops accepting new messages, drains the queue, and waits for the
// worker to exit. Safe to call multiple times.
func (dispatcher *Dispatcher) Close() {
	if dispatcher == nil {
		return
	}
	dispatcher.closeOnce.Do(func() {
		dispatcher.closed.Store(true)
		close(dispatcher.done)
		dispatcher.wg.Wait()
	})
}

// Dropped reports how many messages were discarded due to a full queue.
func (dispatcher *Dispatcher) Dropped() uint64 {
	if dispatcher == nil {
		return 0
	}
	return dispatcher.dropped.Load()
}
