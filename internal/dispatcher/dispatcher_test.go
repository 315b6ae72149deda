package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-signal-bot/types"
)

type fakeClock struct{}

func (fakeClock) Now() int64         { return 1_000_000 }
func (fakeClock) NowTime() time.Time { return time.Unix(1_000_000, 0) }

type fakeLister struct {
	users []types.User
}

func (f *fakeLister) ActiveUsers() ([]types.User, error) { return f.users, nil }

type fakeGenerator struct {
	sig   *types.Signal
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context) (*types.Signal, error) {
	f.calls++
	return f.sig, f.err
}

type fakeSender struct {
	mu sync.Mutex
	// failures maps telegram id to errors returned before succeeding.
	failures map[int64][]error
	sent     map[int64][]string
	attempts map[int64]int
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		failures: map[int64][]error{},
		sent:     map[int64][]string{},
		attempts: map[int64]int{},
	}
}

func (f *fakeSender) Send(_ context.Context, telegramID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[telegramID]++
	if errs := f.failures[telegramID]; len(errs) > 0 {
		f.failures[telegramID] = errs[1:]
		return errs[0]
	}
	f.sent[telegramID] = append(f.sent[telegramID], text)
	return nil
}

func (f *fakeSender) totalSent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, msgs := range f.sent {
		n += len(msgs)
	}
	return n
}

type fakeDeliveryStore struct {
	mu       sync.Mutex
	recorded []int64
}

func (f *fakeDeliveryStore) RecordPermanentFailure(telegramID, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, telegramID)
	return nil
}

func users(ids ...int64) []types.User {
	out := make([]types.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.User{TelegramID: id, Active: true})
	}
	return out
}

func testSignal() *types.Signal {
	return &types.Signal{
		Symbol:     "XAUUSD",
		Direction:  types.DirectionBuy,
		Mode:       types.ModeAuto,
		Entry:      2000,
		StopLoss:   1990,
		TakeProfit: 2010,
		Confidence: 80,
		Timestamp:  "2024-05-01 09:00:00",
	}
}

func newTestDispatcher(lister *fakeLister, gen *fakeGenerator, sender *fakeSender, delivery types.DeliveryStore) *Dispatcher {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	d := New(lister, gen, sender, delivery, fakeClock{}, log)
	d.backoff = []time.Duration{0, 0, 0}
	return d
}

func TestTickEmptyRecipientSetSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{sig: testSignal()}
	sender := newFakeSender()
	d := newTestDispatcher(&fakeLister{}, gen, sender, nil)

	d.Tick(context.Background())

	assert.Zero(t, gen.calls)
	assert.Zero(t, sender.totalSent())
}

func TestTickMarketUnavailableSkipsAllSends(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: status 502", types.ErrMarketUnavailable)}
	sender := newFakeSender()
	d := newTestDispatcher(&fakeLister{users: users(1, 2, 3)}, gen, sender, nil)

	d.Tick(context.Background())

	assert.Equal(t, 1, gen.calls)
	assert.Zero(t, sender.totalSent())
}

func TestTickFansOutOneSignal(t *testing.T) {
	gen := &fakeGenerator{sig: testSignal()}
	sender := newFakeSender()
	d := newTestDispatcher(&fakeLister{users: users(1, 2, 3)}, gen, sender, nil)

	d.Tick(context.Background())

	// One generation, every recipient gets the same payload.
	assert.Equal(t, 1, gen.calls)
	require.Equal(t, 3, sender.totalSent())
	assert.Equal(t, sender.sent[1], sender.sent[2])
	assert.Equal(t, sender.sent[2], sender.sent[3])
	assert.Contains(t, sender.sent[1][0], "XAUUSD")
	assert.Contains(t, sender.sent[1][0], "Signal #80%")
}

func TestDeliverRetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{sig: testSignal()}
	sender := newFakeSender()
	sender.failures[1] = []error{errors.New("blip"), errors.New("blip")}
	d := newTestDispatcher(&fakeLister{users: users(1)}, gen, sender, nil)

	d.Tick(context.Background())

	assert.Equal(t, 3, sender.attempts[1])
	assert.Equal(t, 1, sender.totalSent())
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	gen := &fakeGenerator{sig: testSignal()}
	sender := newFakeSender()
	sender.failures[1] = []error{
		errors.New("blip"), errors.New("blip"), errors.New("blip"), errors.New("blip"),
	}
	d := newTestDispatcher(&fakeLister{users: users(1)}, gen, sender, nil)

	d.Tick(context.Background())

	assert.Equal(t, 4, sender.attempts[1])
	assert.Zero(t, sender.totalSent())
}

func TestDeliverPermanentFailureRecordedNotRetried(t *testing.T) {
	gen := &fakeGenerator{sig: testSignal()}
	sender := newFakeSender()
	sender.failures[1] = []error{fmt.Errorf("%w: forbidden", types.ErrSendPermanent)}
	delivery := &fakeDeliveryStore{}
	d := newTestDispatcher(&fakeLister{users: users(1, 2)}, gen, sender, delivery)

	d.Tick(context.Background())

	// Blocked recipient is skipped after one attempt; the other still gets
	// the signal.
	assert.Equal(t, 1, sender.attempts[1])
	assert.Empty(t, sender.sent[1])
	assert.Len(t, sender.sent[2], 1)
	assert.Equal(t, []int64{1}, delivery.recorded)
}
