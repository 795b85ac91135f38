package contact

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mosehq/backend-mose/internal/events"
)

// Message is an inbound contact form submission.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,min=2,max=120"`
	Email     string    `json:"email" validate:"required,email"`
	Subject   string    `json:"subject" validate:"required,min=2,max=200"`
	Message   string    `json:"message" validate:"required,min=5,max=5000"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Testimonial is a customer review of the storefront.
type Testimonial struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,min=2,max=120"`
	Role      string    `json:"role" validate:"max=120"`
	Message   string    `json:"message" validate:"required,min=5,max=2000"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Approved  bool      `json:"approved,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Store abstracts contact persistence.
type Store interface {
	SaveMessage(ctx context.Context, m Message) (Message, error)
	SaveTestimonial(ctx context.Context, t Testimonial) (Testimonial, error)
	ListTestimonials(ctx context.Context, approvedOnly bool, limit int) ([]Testimonial, error)
}

// Service validates and stores contact submissions, emitting domain events.
type Service struct {
	Store    Store
	Validate *validator.Validate
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// NewService wires a contact service with its validator.
func NewService(store Store, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		Store:    store,
		Validate: validator.New(),
		Bus:      bus,
		Logger:   logger,
	}
}

// SubmitMessage validates and stores a contact message.
func (s *Service) SubmitMessage(ctx context.Context, m Message) (Message, error) {
	if err := s.Validate.Struct(m); err != nil {
		return Message{}, err
	}
	saved, err := s.Store.SaveMessage(ctx, m)
	if err != nil {
		return Message{}, err
	}
	s.emit(ctx, events.TopicContactReceived, saved.ID, map[string]any{
		"email":   saved.Email,
		"subject": saved.Subject,
		"message": "We received your message and will get back to you soon.",
	})
	return saved, nil
}

// SubmitTestimonial validates and stores a testimonial. New testimonials are
// held for approval before they appear publicly.
func (s *Service) SubmitTestimonial(ctx context.Context, t Testimonial) (Testimonial, error) {
	if err := s.Validate.Struct(t); err != nil {
		return Testimonial{}, err
	}
	t.Approved = false
	saved, err := s.Store.SaveTestimonial(ctx, t)
	if err != nil {
		return Testimonial{}, err
	}
	s.emit(ctx, events.TopicTestimonialSubmitted, saved.ID, map[string]any{
		"name":   saved.Name,
		"rating": saved.Rating,
	})
	return saved, nil
}

// Testimonials lists approved testimonials for public display.
func (s *Service) Testimonials(ctx context.Context, limit int) ([]Testimonial, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Store.ListTestimonials(ctx, true, limit)
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("contact_event_failed")
	}
}
