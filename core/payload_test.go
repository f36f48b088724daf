package core

import (
	"testing"
	"time"
)

func TestEncodeDecodeEventPayload(t *testing.T) {
	payload := BatchFinishedPayload{
		BatchID:       "batch_1",
		OwnerID:       "user_1",
		DocumentCount: 10,
		FailedCount:   1,
		FinishedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	encoded, err := EncodeEventPayload(payload)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	decoded, err := DecodeEventPayload(EventBatchFinished, encoded)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	typed, ok := decoded.(BatchFinishedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", decoded)
	}
	if typed.BatchID != "batch_1" || typed.DocumentCount != 10 {
		t.Fatalf("round trip mismatch: %+v", typed)
	}
}

func TestEncodeEventPayloadRequiresPayload(t *testing.T) {
	if _, err := EncodeEventPayload(nil); err == nil {
		t.Fatalf("expected nil payload rejection")
	}
}

func TestDecodeEventPayloadRejectsUnknownEvent(t *testing.T) {
	if _, err := DecodeEventPayload("document.exploded", []byte(`{}`)); err == nil {
		t.Fatalf("expected unknown event rejection")
	}
}

func TestNewEvent(t *testing.T) {
	payload := DocumentFailedPayload{
		DocumentID: "doc_1",
		OwnerID:    "user_1",
		Reason:     "parse error",
		FailedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	event, err := NewEvent(" user_1 ", payload, time.Time{})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if event.OwnerID != "user_1" {
		t.Fatalf("owner not trimmed: %q", event.OwnerID)
	}
	if event.Type != EventDocumentFailed {
		t.Fatalf("unexpected event type %s", event.Type)
	}
	if event.OccurredAt.IsZero() {
		t.Fatalf("occurred at not defaulted")
	}

	if _, err := NewEvent("", payload, time.Time{}); err == nil {
		t.Fatalf("expected missing owner rejection")
	}
}
