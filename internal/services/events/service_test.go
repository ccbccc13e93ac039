package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/models"
)

type capturingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *capturingPublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func TestService_PublishesSubmittedEvents(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewService(&config.Config{NatsSubject: "counts.events"}, pub)
	svc.Start()

	svc.Submit(models.CountEvent{TrackID: 1, LineID: "main", Total: 1})
	svc.Submit(models.CountEvent{TrackID: 2, LineID: "main", Total: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	require.Equal(t, 2, pub.count())
	assert.Equal(t, "counts.events", pub.subjects[0])
	event, ok := pub.payloads[1].(models.CountEvent)
	require.True(t, ok)
	assert.Equal(t, int64(2), event.TrackID)
}

func TestService_ShutdownIdempotent(t *testing.T) {
	svc := NewService(&config.Config{NatsSubject: "counts.events"}, &capturingPublisher{})
	svc.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
	require.NoError(t, svc.Shutdown(ctx))
}
