package contact

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mosehq/backend-mose/internal/events"
)

type memStore struct {
	messages     []Message
	testimonials []Testimonial
}

func (m *memStore) SaveMessage(_ context.Context, msg Message) (Message, error) {
	msg.ID = "msg-1"
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memStore) SaveTestimonial(_ context.Context, t Testimonial) (Testimonial, error) {
	t.ID = "t-1"
	m.testimonials = append(m.testimonials, t)
	return t, nil
}

func (m *memStore) ListTestimonials(_ context.Context, approvedOnly bool, _ int) ([]Testimonial, error) {
	out := []Testimonial{}
	for _, t := range m.testimonials {
		if approvedOnly && !t.Approved {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type memEvents struct {
	topics []string
}

func (m *memEvents) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	m.topics = append(m.topics, topic)
	return events.Event{ID: "ev-1", Topic: topic, AggregateID: aggregateID, Payload: payload}, nil
}

func TestSubmitMessage(t *testing.T) {
	store := &memStore{}
	evStore := &memEvents{}
	svc := NewService(store, &events.Bus{Store: evStore}, zerolog.Nop())

	saved, err := svc.SubmitMessage(context.Background(), Message{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Subject: "Order question",
		Message: "When will my order arrive?",
	})
	require.NoError(t, err)
	require.Equal(t, "msg-1", saved.ID)
	require.Equal(t, []string{events.TopicContactReceived}, evStore.topics)
}

func TestSubmitMessageValidation(t *testing.T) {
	svc := NewService(&memStore{}, nil, zerolog.Nop())

	_, err := svc.SubmitMessage(context.Background(), Message{
		Name:    "A",
		Email:   "not-an-email",
		Subject: "",
		Message: "hi",
	})
	require.Error(t, err)
}

func TestSubmitTestimonialHeldForApproval(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, zerolog.Nop())

	saved, err := svc.SubmitTestimonial(context.Background(), Testimonial{
		Name:    "Grace Hopper",
		Role:    "Engineer",
		Message: "Great products and fast delivery.",
		Rating:  5,
	})
	require.NoError(t, err)
	require.False(t, saved.Approved)

	// Unapproved testimonials do not show publicly.
	public, err := svc.Testimonials(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, public)
}

func TestSubmitTestimonialRatingBounds(t *testing.T) {
	svc := NewService(&memStore{}, nil, zerolog.Nop())

	_, err := svc.SubmitTestimonial(context.Background(), Testimonial{
		Name:    "Grace Hopper",
		Message: "Great products.",
		Rating:  6,
	})
	require.Error(t, err)
}
