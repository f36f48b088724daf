package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPayload(ownerID string) DocumentProcessedPayload {
	return DocumentProcessedPayload{
		DocumentID:  "doc_1",
		OwnerID:     ownerID,
		FileName:    "invoice.pdf",
		ProcessedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyDeliversOnFirstAttempt(t *testing.T) {
	ctx := context.Background()
	svc, webhookStore, deliveryStore, client := newTestService(t)
	webhook := seedWebhook(t, webhookStore, Webhook{
		OwnerID: "user_1",
		URL:     "https://subscriber.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	client.outcomes = []Outcome{{Success: true, StatusCode: 200}}

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("notify: %v", err)
	}

	records := deliveryStore.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 delivery record, got %d", len(records))
	}
	record := records[0]
	if record.Status != DeliveryStatusSuccess {
		t.Fatalf("expected success, got %s", record.Status)
	}
	if record.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", record.RetryCount)
	}
	if record.WebhookID == nil || *record.WebhookID != webhook.ID {
		t.Fatalf("record not linked to webhook")
	}
	if client.callCount() != 1 {
		t.Fatalf("expected 1 delivery call, got %d", client.callCount())
	}
}

func TestNotifyFailureSchedulesRetry(t *testing.T) {
	ctx := context.Background()
	svc, webhookStore, deliveryStore, client := newTestService(t)
	seedWebhook(t, webhookStore, Webhook{
		OwnerID: "user_1",
		URL:     "https://subscriber.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	client.outcomes = []Outcome{{Success: false, StatusCode: 503}}

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("notify: %v", err)
	}

	records := deliveryStore.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 delivery record, got %d", len(records))
	}
	record := records[0]
	if record.Status != DeliveryStatusRetryPending {
		t.Fatalf("expected retry_pending, got %s", record.Status)
	}
	if record.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", record.RetryCount)
	}
	if record.NextAttemptAt == nil {
		t.Fatalf("expected next attempt scheduled")
	}
	if record.LastError == "" {
		t.Fatalf("expected last error recorded")
	}
}

func TestNotifyFansOutToMatchingWebhooksOnly(t *testing.T) {
	ctx := context.Background()
	svc, webhookStore, deliveryStore, client := newTestService(t)
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_match",
		OwnerID: "user_1",
		URL:     "https://one.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_other_event",
		OwnerID: "user_1",
		URL:     "https://two.example.com/hooks",
		Events:  []EventType{EventBatchFinished},
	})
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_inactive",
		OwnerID: "user_1",
		URL:     "https://three.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
		Status:  WebhookStatusInactive,
	})
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_other_owner",
		OwnerID: "user_2",
		URL:     "https://four.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if client.callCount() != 1 {
		t.Fatalf("expected exactly 1 delivery call, got %d", client.callCount())
	}
	records := deliveryStore.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 delivery record, got %d", len(records))
	}
	if records[0].WebhookID == nil || *records[0].WebhookID != "wh_match" {
		t.Fatalf("delivery recorded against wrong webhook")
	}
}

func TestNotifySwallowsResolutionErrors(t *testing.T) {
	ctx := context.Background()
	webhookStore := &failingWebhookStore{
		memoryWebhookStore: newMemoryWebhookStore(),
		findErr:            errors.New("store timeout"),
	}
	deliveryStore := newMemoryDeliveryStore()
	client := &stubDeliveryClient{}
	svc, err := NewService(Config{},
		WithWebhookStore(webhookStore),
		WithDeliveryStore(deliveryStore),
		WithDeliveryClient(client),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("resolution failures must not surface: %v", err)
	}
	if client.callCount() != 0 {
		t.Fatalf("no deliveries expected, got %d", client.callCount())
	}
	if len(deliveryStore.records()) != 0 {
		t.Fatalf("no records expected")
	}
}

func TestNotifyRejectsMismatchedPayload(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	err := svc.Notify(ctx, "user_1", EventBatchFinished, testPayload("user_1"))
	if err == nil {
		t.Fatalf("expected payload mismatch error")
	}
}

func TestNotifyPersistsRecordBeforeAttempt(t *testing.T) {
	ctx := context.Background()
	svc, webhookStore, deliveryStore, client := newTestService(t)
	seedWebhook(t, webhookStore, Webhook{
		OwnerID: "user_1",
		URL:     "https://subscriber.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	client.outcomes = []Outcome{{Success: false, Err: errors.New("dial tcp: connection refused")}}

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("notify: %v", err)
	}

	records := deliveryStore.records()
	if len(records) != 1 {
		t.Fatalf("expected durable record even for failed attempt, got %d", len(records))
	}
	if records[0].LastError != "dial tcp: connection refused" {
		t.Fatalf("unexpected last error %q", records[0].LastError)
	}
}

func TestNotifyIsolatesPerWebhookFailures(t *testing.T) {
	ctx := context.Background()
	svc, webhookStore, deliveryStore, client := newTestService(t)
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_a",
		OwnerID: "user_1",
		URL:     "https://a.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	seedWebhook(t, webhookStore, Webhook{
		ID:      "wh_b",
		OwnerID: "user_1",
		URL:     "https://b.example.com/hooks",
		Events:  []EventType{EventDocumentProcessed},
	})
	client.outcomes = []Outcome{
		{Success: false, StatusCode: 500},
		{Success: true, StatusCode: 204},
	}

	if err := svc.Notify(ctx, "user_1", EventDocumentProcessed, testPayload("user_1")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if client.callCount() != 2 {
		t.Fatalf("expected 2 delivery calls, got %d", client.callCount())
	}
	statuses := map[DeliveryStatus]int{}
	for _, record := range deliveryStore.records() {
		statuses[record.Status]++
	}
	if statuses[DeliveryStatusSuccess] != 1 || statuses[DeliveryStatusRetryPending] != 1 {
		t.Fatalf("unexpected status distribution: %v", statuses)
	}
}
