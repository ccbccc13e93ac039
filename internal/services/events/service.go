package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/models"
)

// Publisher is the outbound message sink (NATS in production).
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Service forwards count events to the configured subject without blocking
// the frame loop. Events are immutable copies, so the single publish worker
// never touches track state.
type Service struct {
	cfg       *config.Config
	publisher Publisher

	queue chan models.CountEvent
	wg    sync.WaitGroup
	once  sync.Once
}

func NewService(cfg *config.Config, publisher Publisher) *Service {
	return &Service{
		cfg:       cfg,
		publisher: publisher,
		queue:     make(chan models.CountEvent, 64),
	}
}

// Start launches the publish worker.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Service) run() {
	defer s.wg.Done()
	for event := range s.queue {
		if err := s.publisher.Publish(s.cfg.NatsSubject, event); err != nil {
			log.Warn().
				Err(err).
				Int64("track_id", event.TrackID).
				Str("line", event.LineID).
				Msg("Failed to publish count event")
		}
	}
}

// Submit enqueues an event for publishing. The frame loop is never blocked:
// when the queue is full the event is dropped with a warning, counting state
// is unaffected.
func (s *Service) Submit(event models.CountEvent) {
	select {
	case s.queue <- event:
	default:
		log.Warn().
			Int64("track_id", event.TrackID).
			Str("line", event.LineID).
			Msg("Count event queue full, dropping publish")
	}
}

// Shutdown stops accepting events and waits for the queue to drain or the
// context to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.queue) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
