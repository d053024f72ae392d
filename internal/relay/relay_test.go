package relay

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eldtechnologies/relay/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRelay(opts Options) *Relay {
	return New(opts, zerolog.Nop())
}

func msg(recipient any, text string) models.Message {
	return models.Message{"recipient": recipient, "text": text}
}

func TestRelay_SendThenReceive(t *testing.T) {
	r := newTestRelay(Options{})

	require.NoError(t, r.Send("bob", msg("bob", "hi")))

	got := r.Receive(context.Background(), "bob")
	assert.Equal(t, []models.Message{{"text": "hi"}}, got)

	// drained
	got = r.Receive(context.Background(), "bob")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRelay_FIFOWithinRecipient(t *testing.T) {
	r := newTestRelay(Options{})

	require.NoError(t, r.Send("bob", msg("bob", "first")))
	require.NoError(t, r.Send("bob", msg("bob", "second")))
	require.NoError(t, r.Send("carol", msg("carol", "other")))

	got := r.Receive(context.Background(), "bob")
	assert.Equal(t, []models.Message{{"text": "first"}, {"text": "second"}}, got)
}

func TestRelay_SendDoesNotMutateCallerMessage(t *testing.T) {
	r := newTestRelay(Options{})
	m := msg("bob", "hi")

	require.NoError(t, r.Send("bob", m))
	assert.Equal(t, "bob", m["recipient"])
}

func TestRelay_UnknownNameTimesOut(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 50 * time.Millisecond})

	start := time.Now()
	got := r.Receive(context.Background(), "never-seen")

	assert.Empty(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRelay_EmptyNameReturnsImmediately(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 5 * time.Second})

	start := time.Now()
	got := r.Receive(context.Background(), "")

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelay_AliasResolution(t *testing.T) {
	r := newTestRelay(Options{Aliases: map[string]string{"pub": "internal"}})

	require.NoError(t, r.Send("pub", msg("pub", "hello")))

	assert.Empty(t, r.Receive(context.Background(), "pub"))
	assert.Equal(t, []models.Message{{"text": "hello"}}, r.Receive(context.Background(), "internal"))
}

func TestRelay_InvalidRecipient(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 10 * time.Millisecond})

	tests := []struct {
		name      string
		recipient any
	}{
		{"number", 123},
		{"missing", nil},
		{"object", map[string]any{"name": "bob"}},
		{"list", []any{"bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Send(tt.recipient, models.Message{"text": "x"})
			assert.ErrorIs(t, err, ErrInvalidRecipient)
		})
	}

	stats := r.Stats()
	assert.Zero(t, stats.Inboxes)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.Signals)
}

func TestRelay_LongPollWakesOnSend(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 5 * time.Second})

	done := make(chan []models.Message, 1)
	go func() {
		done <- r.Receive(context.Background(), "bob")
	}()

	require.Eventually(t, func() bool { return r.Stats().Waiters == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Send("bob", msg("bob", "wake")))

	select {
	case got := <-done:
		assert.Equal(t, []models.Message{{"text": "wake"}}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("receiver was not woken by send")
	}
}

func TestRelay_SignalIsSticky(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 5 * time.Second})

	// Send lands before anyone waits; the flag must still be set.
	require.NoError(t, r.Send("bob", msg("bob", "early")))

	start := time.Now()
	got := r.Receive(context.Background(), "bob")

	assert.Equal(t, []models.Message{{"text": "early"}}, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelay_SignalsCoalesce(t *testing.T) {
	timeout := 100 * time.Millisecond
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: timeout})

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, r.Send("bob", msg("bob", text)))
	}

	got := r.Receive(context.Background(), "bob")
	assert.Len(t, got, 3)

	// The three sends left a single wake-up, already consumed.
	start := time.Now()
	assert.Empty(t, r.Receive(context.Background(), "bob"))
	assert.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestRelay_ConcurrentWaitersDeliverOnce(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 300 * time.Millisecond})

	var wg sync.WaitGroup
	results := make([][]models.Message, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Receive(context.Background(), "bob")
		}(i)
	}

	require.Eventually(t, func() bool { return r.Stats().Waiters == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Send("bob", msg("bob", "once")))
	wg.Wait()

	delivered := 0
	for _, got := range results {
		if len(got) > 0 {
			delivered++
			assert.Equal(t, []models.Message{{"text": "once"}}, got)
		}
	}
	assert.Equal(t, 1, delivered)
}

func TestRelay_CancelledWaitReturnsWithoutDraining(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 5 * time.Second})

	// Queue a message without a pending wake-up.
	r.mu.Lock()
	r.inboxes.append("bob", models.Message{"text": "kept"})
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, r.Receive(ctx, "bob"))

	// The message survived and the flag was re-armed for the next receiver.
	start := time.Now()
	got := r.Receive(context.Background(), "bob")
	assert.Equal(t, []models.Message{{"text": "kept"}}, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelay_CancelUnblocksWaiter(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: 10 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Receive(ctx, "bob")
	}()

	require.Eventually(t, func() bool { return r.Stats().Waiters == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled receiver did not return")
	}
	assert.Zero(t, r.Stats().Waiters)
}

func TestRelay_SizeGuardEvictsEverything(t *testing.T) {
	r := newTestRelay(Options{CheckSize: true, MaxSize: 600})

	require.NoError(t, r.Send("alice", msg("alice", strings.Repeat("x", 1000))))
	assert.Equal(t, 1, r.Stats().Pending)

	// The next access finds the store over the limit and clears it first.
	require.NoError(t, r.Send("bob", msg("bob", "hi")))

	assert.Empty(t, r.Receive(context.Background(), "alice"))
	assert.Equal(t, []models.Message{{"text": "hi"}}, r.Receive(context.Background(), "bob"))
}

func TestRelay_SizeGuardClearsSignals(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: time.Millisecond, CheckSize: true, MaxSize: 600})

	require.NoError(t, r.Send("alice", msg("alice", strings.Repeat("x", 1000))))
	require.Equal(t, 1, r.Stats().Signals)

	// Receive for another name triggers the eviction.
	assert.Empty(t, r.Receive(context.Background(), "carol"))

	stats := r.Stats()
	assert.Zero(t, stats.Inboxes)
	assert.Zero(t, stats.Signals)
}

func TestRelay_SizeGuardDisabled(t *testing.T) {
	r := newTestRelay(Options{CheckSize: false, MaxSize: 1})

	require.NoError(t, r.Send("alice", msg("alice", strings.Repeat("x", 1000))))
	require.NoError(t, r.Send("bob", msg("bob", "hi")))

	assert.Len(t, r.Receive(context.Background(), "alice"), 1)
	assert.Len(t, r.Receive(context.Background(), "bob"), 1)
}

func TestRelay_Stats(t *testing.T) {
	r := newTestRelay(Options{LongPoll: true, WaitTimeout: time.Millisecond})

	require.NoError(t, r.Send("alice", msg("alice", "1")))
	require.NoError(t, r.Send("alice", msg("alice", "2")))
	require.NoError(t, r.Send("bob", msg("bob", "3")))

	stats := r.Stats()
	assert.Equal(t, 2, stats.Inboxes)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 2, stats.Signals)
	assert.Positive(t, stats.EstimatedBytes)
}
