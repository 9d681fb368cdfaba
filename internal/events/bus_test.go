package events

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink-health/assesscore/internal/model"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(model.Event{Type: model.EvaluationCompleted, Payload: map[string]any{"actorId": "a1"}})

	for _, ch := range []<-chan model.Event{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, model.EvaluationCompleted, evt.Type)
			assert.NotEqual(t, uuid.Nil, evt.ID)
			assert.False(t, evt.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus(2)
	defer bus.Close()

	_, cancel := bus.Subscribe() // nobody reads
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(model.Event{Type: "test.event"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}
	assert.Equal(t, int64(8), bus.Dropped())
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	cancel()
	cancel() // safe to repeat

	_, open := <-ch
	assert.False(t, open)

	bus.Publish(model.Event{Type: "test.event"})
	assert.Equal(t, int64(0), bus.Dropped())
}

func TestBus_CloseRejectsFurtherPublishes(t *testing.T) {
	bus := NewBus(4)
	ch, _ := bus.Subscribe()

	bus.Close()
	bus.Publish(model.Event{Type: "test.event"})

	_, open := <-ch
	assert.False(t, open)
}

func TestJournal_AppendAndRecent(t *testing.T) {
	ctx := context.Background()
	j, err := NewJournal(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Migrate(ctx))

	evt := model.Event{
		ID:        uuid.New(),
		Type:      model.EvaluationCompleted,
		Payload:   map[string]any{"actorId": "a1", "riskLevel": "moderate"},
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, j.Append(ctx, evt))
	require.NoError(t, j.Append(ctx, evt)) // duplicate ID ignored

	got, err := j.Recent(ctx, EventFilter{Type: model.EvaluationCompleted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, evt.ID, got[0].ID)
	assert.Equal(t, "a1", got[0].Payload["actorId"])
	assert.Equal(t, "moderate", got[0].Payload["riskLevel"])
}

func TestJournal_RecentFilters(t *testing.T) {
	ctx := context.Background()
	j, err := NewJournal(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Migrate(ctx))

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		evt := model.Event{
			ID:        uuid.New(),
			Type:      model.EvaluationCompleted,
			Payload:   map[string]any{"n": float64(i)},
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, j.Append(ctx, evt))
	}
	require.NoError(t, j.Append(ctx, model.Event{
		ID: uuid.New(), Type: "other.event", Payload: map[string]any{}, Timestamp: base,
	}))

	got, err := j.Recent(ctx, EventFilter{Type: model.EvaluationCompleted, Since: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = j.Recent(ctx, EventFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestJournal_RunConsumesBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j, err := NewJournal(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Migrate(ctx))

	bus := NewBus(8)
	defer bus.Close()
	ch, unsub := bus.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		j.Run(ctx, ch)
		close(done)
	}()

	bus.Publish(model.Event{Type: model.EvaluationCompleted, Payload: map[string]any{"actorId": "a9"}})

	require.Eventually(t, func() bool {
		got, err := j.Recent(ctx, EventFilter{})
		return err == nil && len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	unsub()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("journal run did not stop after unsubscribe")
	}
}
