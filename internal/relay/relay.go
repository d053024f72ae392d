// Package relay implements the in-memory mailbox engine: per-recipient
// queues, sticky long-poll wake signals, alias resolution and the
// whole-store size guard.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/relay/internal/metrics"
	"github.com/eldtechnologies/relay/internal/models"
)

// ErrInvalidRecipient is returned by Send when the recipient is missing or
// not a string.
var ErrInvalidRecipient = errors.New("recipient must be a string")

// Options configures a Relay.
type Options struct {
	LongPoll    bool
	WaitTimeout time.Duration
	Aliases     map[string]string
	CheckSize   bool
	MaxSize     int64
}

// Relay dispatches sends and receives against the shared store. Every access
// to inboxes and signals happens under mu; the size check and the mutation
// that follows it are one critical section.
type Relay struct {
	mu       sync.Mutex
	inboxes  *inboxStore
	signals  *waitRegistry
	guard    *sizeGuard
	resolver *Resolver

	longPoll    bool
	waitTimeout time.Duration
	logger      zerolog.Logger
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Inboxes        int   `json:"inboxes"`
	Pending        int   `json:"pending"`
	Signals        int   `json:"signals"`
	Waiters        int64 `json:"waiters"`
	EstimatedBytes int64 `json:"estimated_bytes"`
}

// New creates a Relay.
func New(opts Options, logger zerolog.Logger) *Relay {
	r := &Relay{
		inboxes:     newInboxStore(),
		resolver:    NewResolver(opts.Aliases),
		longPoll:    opts.LongPoll,
		waitTimeout: opts.WaitTimeout,
		logger:      logger,
	}
	r.signals = newWaitRegistry(&r.mu)
	r.guard = &sizeGuard{
		enabled: opts.CheckSize,
		limit:   opts.MaxSize,
		logger:  logger,
	}
	return r
}

// Send queues msg for recipient. The recipient field is stripped from the
// stored copy and aliases are resolved before queueing.
func (r *Relay) Send(recipient any, msg models.Message) error {
	name, ok := recipient.(string)
	if !ok {
		metrics.SendFailures.WithLabelValues("recipient").Inc()
		return fmt.Errorf("%w: got %T", ErrInvalidRecipient, recipient)
	}
	resolved := r.resolver.Resolve(name)
	stored := msg.WithoutRecipient()

	r.mu.Lock()
	r.guard.enforce(r.inboxes, r.signals)
	r.inboxes.append(resolved, stored)
	queued := r.inboxes.len(resolved)
	r.mu.Unlock()

	if r.longPoll {
		r.signals.signal(resolved)
	}

	metrics.MessagesSent.Inc()
	r.logger.Debug().
		Str("recipient", resolved).
		Int("queued", queued).
		Msg("message queued")
	return nil
}

// Receive drains every message queued for name. With long polling enabled it
// first waits for a send or the configured timeout, whichever comes first.
// The result is never nil.
func (r *Relay) Receive(ctx context.Context, name string) []models.Message {
	if name == "" {
		return []models.Message{}
	}

	if r.longPoll {
		r.signals.wait(ctx, name, r.waitTimeout)
		if ctx.Err() != nil {
			r.rearm(name)
			metrics.Receives.WithLabelValues("cancelled").Inc()
			return []models.Message{}
		}
	}

	r.mu.Lock()
	r.guard.enforce(r.inboxes, r.signals)
	msgs := r.inboxes.drain(name)
	r.mu.Unlock()

	if len(msgs) == 0 {
		metrics.Receives.WithLabelValues("empty").Inc()
	} else {
		metrics.Receives.WithLabelValues("delivered").Inc()
		metrics.MessagesDelivered.Add(float64(len(msgs)))
		r.logger.Debug().
			Str("recipient", name).
			Int("count", len(msgs)).
			Msg("inbox drained")
	}
	return msgs
}

// rearm restores the wake flag for a receiver that gave up while messages are
// still queued, so the next receiver does not sit out a full timeout.
func (r *Relay) rearm(name string) {
	r.mu.Lock()
	pending := r.inboxes.len(name)
	r.mu.Unlock()
	if pending > 0 {
		r.signals.signal(name)
	}
}

// Stats returns a snapshot of the store.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Inboxes:        r.inboxes.count(),
		Pending:        r.inboxes.pending(),
		Signals:        r.signals.count(),
		Waiters:        r.signals.waiting.Load(),
		EstimatedBytes: footprint(r.inboxes, r.signals),
	}
}
