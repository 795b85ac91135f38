package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []Event
	err    error
}

func (m *memStore) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	if m.err != nil {
		return Event{}, m.err
	}
	ev := Event{
		ID:          "ev-1",
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
	m.events = append(m.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []Event
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, "order-1", map[string]any{"total": 1500})
	require.NoError(t, err)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.Len(t, store.events, 1)
	require.Len(t, notifier.seen, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	require.EqualValues(t, 1500, payload["total"])
}

func TestEmitRejectsMissingTopic(t *testing.T) {
	bus := &Bus{Store: &memStore{}}
	_, err := bus.Emit(context.Background(), "  ", "agg", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := &Bus{Store: &memStore{}}
	_, err := bus.Emit(context.Background(), TopicContactReceived, "agg", []byte("{not json"))
	require.Error(t, err)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	store := &memStore{}
	failing := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{failing, ok}}

	ev, err := bus.Emit(context.Background(), TopicOrderPaid, "order-2", nil)
	require.Error(t, err)
	// The event is still persisted and every notifier still runs.
	require.Equal(t, "ev-1", ev.ID)
	require.Len(t, store.events, 1)
	require.Len(t, ok.seen, 1)
}

func TestEmitStoreFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	bus := &Bus{Store: &memStore{err: errors.New("db down")}, Notifiers: []Notifier{notifier}}

	_, err := bus.Emit(context.Background(), TopicOrderCreated, "order-3", nil)
	require.Error(t, err)
	require.Empty(t, notifier.seen)
}
