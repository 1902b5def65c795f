package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/meetscribe/backend/internal/models"
)

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	id := uuid.New()

	var got1, got2 []Event
	if _, err := b.SubscribeJob(id, func(e Event) { got1 = append(got1, e) }); err != nil {
		t.Fatal(err)
	}
	if _, err := b.SubscribeJob(id, func(e Event) { got2 = append(got2, e) }); err != nil {
		t.Fatal(err)
	}

	ev := NewEvent(models.Transcript{ID: id, Status: models.TranscriptStatusProcessing, Progress: 0.3})
	if err := b.PublishJobEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if len(got1) != 1 || len(got2) != 1 {
		t.Fatalf("deliveries = %d, %d; want 1, 1", len(got1), len(got2))
	}
	if got1[0].Progress != 0.3 || got1[0].Transcript.ID != id {
		t.Errorf("event = %+v", got1[0])
	}
}

func TestBrokerScopesByTranscript(t *testing.T) {
	b := NewBroker()
	a, other := uuid.New(), uuid.New()

	var got []Event
	if _, err := b.SubscribeJob(a, func(e Event) { got = append(got, e) }); err != nil {
		t.Fatal(err)
	}

	if err := b.PublishJobEvent(context.Background(), NewEvent(models.Transcript{ID: other})); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("received %d events for another transcript", len(got))
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	id := uuid.New()

	var got []Event
	cancel, err := b.SubscribeJob(id, func(e Event) { got = append(got, e) })
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := b.PublishJobEvent(context.Background(), NewEvent(models.Transcript{ID: id})); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("received %d events after cancel", len(got))
	}
}
