package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("session", EventLogin, map[string]string{"email": "admin@bookit.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventLogin, ev.EventType)
	assert.Equal(t, 1, ev.Version)
	assert.JSONEq(t, `{"email":"admin@bookit.com"}`, string(ev.Payload))
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
}

func TestMemoryBus_DeliversMatchingEvents(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var (
		mu  sync.Mutex
		got []string
	)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventLogout}}, func(_ context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	for _, typ := range []string{EventLogin, EventLogout, EventOnboardingCompleted} {
		ev, err := NewEnvelope("test", typ, struct{}{})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{EventLogout}, got)
	assert.Equal(t, uint64(3), bus.Metrics().Published)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	calls := make(chan struct{}, 4)
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
		calls <- struct{}{}
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope("test", EventLogin, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())

	assert.Len(t, calls, 0)
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	// без dispatchLoop буфер не разгружается
	mb := &memoryBus{subscribers: make(map[int]subscriber), buffer: make(chan *Envelope, 1)}

	low, _ := NewEnvelope("test", EventLogin, nil)
	require.NoError(t, mb.Publish(context.Background(), low))
	require.NoError(t, mb.Publish(context.Background(), low))
	assert.Equal(t, uint64(1), mb.Metrics().Dropped)

	high, _ := NewEnvelope("test", EventLogin, nil)
	high.Priority = 9
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mb.Publish(ctx, high), context.DeadlineExceeded)
	assert.Equal(t, 1, mb.Metrics().InFlight)
}

func TestMemoryBus_BlockedPublishDoesNotStallSubscribers(t *testing.T) {
	mb := &memoryBus{subscribers: make(map[int]subscriber), buffer: make(chan *Envelope, 1), done: make(chan struct{})}
	low, _ := NewEnvelope("test", EventLogin, nil)
	require.NoError(t, mb.Publish(context.Background(), low))

	high, _ := NewEnvelope("test", EventLogout, nil)
	high.Priority = 9
	published := make(chan error, 1)
	go func() { published <- mb.Publish(context.Background(), high) }()
	time.Sleep(10 * time.Millisecond)

	// High-priority Publish ждёт места в буфере, подписка при этом проходит
	subscribed := make(chan struct{})
	var mu sync.Mutex
	var got []string
	go func() {
		_, err := mb.Subscribe(context.Background(), Filter{}, func(_ context.Context, ev *Envelope) {
			mu.Lock()
			got = append(got, ev.EventType)
			mu.Unlock()
		})
		assert.NoError(t, err)
		close(subscribed)
	}()
	select {
	case <-subscribed:
	case <-time.After(time.Second):
		t.Fatal("Subscribe заблокирован публикацией")
	}

	go mb.dispatchLoop()
	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish не завершился после разгрузки буфера")
	}
	require.NoError(t, mb.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{EventLogin, EventLogout}, got)
}

func TestMemoryBus_ClosedRejectsPublish(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, _ := NewEnvelope("test", EventLogin, nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMatchFilter(t *testing.T) {
	ev := &Envelope{EventType: EventLogin, Source: "session"}

	assert.True(t, matchFilter(ev, Filter{}))
	assert.True(t, matchFilter(ev, Filter{Types: []string{EventLogout, EventLogin}}))
	assert.False(t, matchFilter(ev, Filter{Types: []string{EventLogout}}))
	assert.False(t, matchFilter(ev, Filter{Sources: []string{"onboarding"}}))
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "bookit.onboarding.completed", subjectFor(EventOnboardingCompleted))
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	for i := 0; i < 3; i++ {
		ev, _ := NewEnvelope("test", EventLogin, i)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	prev := me.collect(Stats{})
	assert.Equal(t, float64(3), testutil.ToFloat64(me.published))

	// повторный сбор без новых событий не меняет счётчик
	me.collect(prev)
	assert.Equal(t, float64(3), testutil.ToFloat64(me.published))
}

func TestEnvelope_JSONShape(t *testing.T) {
	ev := &Envelope{ID: "1", EventType: EventLogin, Payload: []byte(`{}`)}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"session.login"`)
}
