// Package notify carries transcription job state changes to observers.
// It is an explicit publish/subscribe channel keyed by transcript id,
// independent of the persistence layer: the engine publishes after every
// ledger write, and observers subscribe without polling the database.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/backend/internal/models"
)

// Event is one job state change. It carries the full updated row so an
// observer never sees a torn write (e.g. completed with progress < 1).
type Event struct {
	TranscriptID uuid.UUID         `json:"transcript_id"`
	Status       string            `json:"status"`
	Progress     float64           `json:"progress"`
	Transcript   models.Transcript `json:"transcript"`
	At           time.Time         `json:"at"`
}

// NewEvent builds an event from a transcript snapshot.
func NewEvent(t models.Transcript) Event {
	return Event{
		TranscriptID: t.ID,
		Status:       t.Status,
		Progress:     t.Progress,
		Transcript:   t,
		At:           time.Now().UTC(),
	}
}

// Publisher emits job events. Delivery is at-least-once.
type Publisher interface {
	PublishJobEvent(ctx context.Context, event Event) error
}

// Subscriber receives job events for one transcript. The returned cancel
// function stops delivery and releases the subscription.
type Subscriber interface {
	SubscribeJob(transcriptID uuid.UUID, handler func(Event)) (cancel func(), err error)
}
