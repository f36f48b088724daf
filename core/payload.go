package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventPayload is the closed set of event body variants. Each event type has
// exactly one payload shape; the discriminator lives outside the body, so the
// serialized bytes are delivered to subscribers exactly as produced.
type EventPayload interface {
	EventType() EventType
}

type DocumentProcessedPayload struct {
	DocumentID  string         `json:"document_id"`
	BatchID     string         `json:"batch_id,omitempty"`
	OwnerID     string         `json:"owner_id"`
	FileName    string         `json:"file_name,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

func (DocumentProcessedPayload) EventType() EventType { return EventDocumentProcessed }

type DocumentFailedPayload struct {
	DocumentID string    `json:"document_id"`
	BatchID    string    `json:"batch_id,omitempty"`
	OwnerID    string    `json:"owner_id"`
	FileName   string    `json:"file_name,omitempty"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failed_at"`
}

func (DocumentFailedPayload) EventType() EventType { return EventDocumentFailed }

type BatchFinishedPayload struct {
	BatchID       string    `json:"batch_id"`
	OwnerID       string    `json:"owner_id"`
	DocumentCount int       `json:"document_count"`
	FailedCount   int       `json:"failed_count"`
	OutputFormats []string  `json:"output_formats,omitempty"`
	FinishedAt    time.Time `json:"finished_at"`
}

func (BatchFinishedPayload) EventType() EventType { return EventBatchFinished }

// EncodeEventPayload serializes a payload variant to the bytes stored on the
// delivery record and posted to subscribers.
func EncodeEventPayload(payload EventPayload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("core: event payload is required")
	}
	if _, err := ParseEventType(string(payload.EventType())); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode event payload: %w", err)
	}
	return encoded, nil
}

// DecodeEventPayload parses stored payload bytes back into the typed variant
// for the given event type. Used by the management surface only; the delivery
// path never reshapes payload bytes.
func DecodeEventPayload(event EventType, data []byte) (EventPayload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("core: event payload is empty")
	}
	normalized, err := ParseEventType(string(event))
	if err != nil {
		return nil, err
	}
	switch normalized {
	case EventDocumentProcessed:
		decoded := DocumentProcessedPayload{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("core: decode %s payload: %w", normalized, err)
		}
		return decoded, nil
	case EventDocumentFailed:
		decoded := DocumentFailedPayload{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("core: decode %s payload: %w", normalized, err)
		}
		return decoded, nil
	case EventBatchFinished:
		decoded := BatchFinishedPayload{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("core: decode %s payload: %w", normalized, err)
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, event)
}

// Event pairs an owner with a typed payload at fan-out time.
type Event struct {
	OwnerID    string
	Type       EventType
	Payload    []byte
	OccurredAt time.Time
}

func NewEvent(ownerID string, payload EventPayload, occurredAt time.Time) (Event, error) {
	trimmed := strings.TrimSpace(ownerID)
	if trimmed == "" {
		return Event{}, fmt.Errorf("core: event owner id is required")
	}
	encoded, err := EncodeEventPayload(payload)
	if err != nil {
		return Event{}, err
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return Event{
		OwnerID:    trimmed,
		Type:       payload.EventType(),
		Payload:    encoded,
		OccurredAt: occurredAt.UTC(),
	}, nil
}
