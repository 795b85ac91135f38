package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mosehq/backend-mose/internal/common"
	"github.com/mosehq/backend-mose/internal/events"
)

func event(topic string, payload map[string]any) events.Event {
	data, _ := json.Marshal(payload)
	return events.Event{ID: "ev-1", Topic: topic, AggregateID: "agg-1", Payload: data, OccurredAt: time.Now()}
}

func TestNotifySendsToRecipient(t *testing.T) {
	inbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: inbox, Enabled: true}

	err := n.Notify(context.Background(), event(events.TopicOrderPaid, map[string]any{
		"email":   "buyer@example.com",
		"orderId": "order-1",
	}))
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(inbox.Outbox) != 1 {
		t.Fatalf("expected 1 email, got %d", len(inbox.Outbox))
	}
	if inbox.Outbox[0].To != "buyer@example.com" {
		t.Fatalf("to = %q", inbox.Outbox[0].To)
	}
	if inbox.Outbox[0].Subject != "Payment confirmed" {
		t.Fatalf("subject = %q", inbox.Outbox[0].Subject)
	}
}

func TestNotifySkipsWithoutRecipient(t *testing.T) {
	inbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: inbox, Enabled: true}

	if err := n.Notify(context.Background(), event(events.TopicOrderCreated, map[string]any{"orderId": "order-2"})); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(inbox.Outbox) != 0 {
		t.Fatal("no recipient means no email")
	}
}

func TestNotifyHonorsTopicToggle(t *testing.T) {
	inbox := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         inbox,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicContactReceived: false},
	}

	err := n.Notify(context.Background(), event(events.TopicContactReceived, map[string]any{"email": "x@example.com"}))
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(inbox.Outbox) != 0 {
		t.Fatal("toggled-off topic should not send")
	}
}

func TestNotifyDisabled(t *testing.T) {
	inbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: inbox, Enabled: false}

	err := n.Notify(context.Background(), event(events.TopicOrderPaid, map[string]any{"email": "x@example.com"}))
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(inbox.Outbox) != 0 {
		t.Fatal("disabled notifier should not send")
	}
}
