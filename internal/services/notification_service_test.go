package services

import (
	"context"
	"testing"

	"github.com/HSL-KM/class-registration-service/internal/events"
	"github.com/HSL-KM/class-registration-service/internal/models"
)

func TestNotificationServiceEnvelope(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewNotificationService(publisher, logger)

	class := openClass("123456", 10)
	if err := svc.SendRegistrationConfirmation(ctx, "a@library.test", class, "A"); err != nil {
		t.Fatalf("SendRegistrationConfirmation = %v, want nil", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	event := published[0]
	if event.Source != events.EventSource {
		t.Errorf("source = %s, want %s", event.Source, events.EventSource)
	}
	if event.Version != events.EventVersion {
		t.Errorf("version = %s, want %s", event.Version, events.EventVersion)
	}
	if event.Type != events.EventRegistrationConfirmed {
		t.Errorf("type = %s, want %s", event.Type, events.EventRegistrationConfirmed)
	}
	if event.ID == "" || event.Timestamp.IsZero() {
		t.Error("event id and timestamp must be set")
	}

	payload, ok := event.Data.(events.RegistrationConfirmedEvent)
	if !ok {
		t.Fatalf("payload type = %T, want RegistrationConfirmedEvent", event.Data)
	}
	if payload.RecipientEmail != "a@library.test" || payload.Class.ClassID != "123456" {
		t.Errorf("payload = %+v, want recipient and class id set", payload)
	}
}

func TestNotificationServiceNilPublisher(t *testing.T) {
	ctx := context.Background()
	svc := NewNotificationService(nil, testLogger())

	// A missing broker must never fail the calling operation.
	if err := svc.SendRegistrationConfirmation(ctx, "a@library.test", openClass("123456", 10), "A"); err != nil {
		t.Fatalf("SendRegistrationConfirmation without publisher = %v, want nil", err)
	}
}

func TestNotificationServiceRequestResolved(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewNotificationService(publisher, logger)

	reason := "duplicate of an existing class"
	name := "Requester"
	request := &models.ClassRequest{
		ID:               7,
		Title:            "Advanced PubMed",
		RequestedByEmail: "r@library.test",
		RequestedByName:  &name,
		Status:           models.RequestRejected,
		RejectionReason:  &reason,
	}

	if err := svc.SendClassRequestResolved(ctx, request, false); err != nil {
		t.Fatalf("SendClassRequestResolved = %v, want nil", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.EventClassRequestRejected {
		t.Errorf("type = %s, want %s", published[0].Type, events.EventClassRequestRejected)
	}
	payload := published[0].Data.(events.ClassRequestNoticeEvent)
	if payload.Reason != reason || payload.Recipient != "r@library.test" {
		t.Errorf("payload = %+v, want reason and recipient set", payload)
	}
}
