package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseEventType(t *testing.T) {
	event, err := ParseEventType(" Document.Processed ")
	if err != nil {
		t.Fatalf("parse event type: %v", err)
	}
	if event != EventDocumentProcessed {
		t.Fatalf("expected %q got %q", EventDocumentProcessed, event)
	}

	if _, err := ParseEventType("document.exploded"); !errors.Is(err, ErrInvalidEventType) {
		t.Fatalf("expected ErrInvalidEventType, got %v", err)
	}
}

func TestParseAuthTypeDefaultsToNone(t *testing.T) {
	authType, err := ParseAuthType("")
	if err != nil {
		t.Fatalf("parse auth type: %v", err)
	}
	if authType != AuthTypeNone {
		t.Fatalf("expected none, got %q", authType)
	}
}

func TestWebhookValidate(t *testing.T) {
	valid := Webhook{
		OwnerID:    "user_1",
		URL:        "https://subscriber.example.com/hooks",
		Events:     []EventType{EventDocumentProcessed},
		Status:     WebhookStatusActive,
		AuthType:   AuthTypeNone,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid webhook rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(w *Webhook)
	}{
		{"missing owner", func(w *Webhook) { w.OwnerID = "" }},
		{"missing url", func(w *Webhook) { w.URL = "" }},
		{"bad scheme", func(w *Webhook) { w.URL = "ftp://example.com" }},
		{"no events", func(w *Webhook) { w.Events = nil }},
		{"unknown event", func(w *Webhook) { w.Events = []EventType{"document.exploded"} }},
		{"zero retries", func(w *Webhook) { w.MaxRetries = 0 }},
		{"zero timeout", func(w *Webhook) { w.Timeout = 0 }},
		{"auth without config", func(w *Webhook) { w.AuthType = AuthTypeBasic }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			webhook := valid
			tc.mutate(&webhook)
			if err := webhook.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestWebhookSubscribedTo(t *testing.T) {
	webhook := Webhook{Events: []EventType{EventDocumentProcessed, EventBatchFinished}}
	if !webhook.SubscribedTo(EventBatchFinished) {
		t.Fatalf("expected subscription to %s", EventBatchFinished)
	}
	if webhook.SubscribedTo(EventDocumentFailed) {
		t.Fatalf("unexpected subscription to %s", EventDocumentFailed)
	}
}

func TestMarkSuccessTerminatesRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := DeliveryRecord{Status: DeliveryStatusPending, RetryCount: 0}

	if err := record.MarkSuccess(now); err != nil {
		t.Fatalf("mark success: %v", err)
	}
	if record.Status != DeliveryStatusSuccess {
		t.Fatalf("expected success, got %s", record.Status)
	}
	if record.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", record.RetryCount)
	}
	if record.NextAttemptAt != nil {
		t.Fatalf("terminal record should have no next attempt")
	}
	if record.LastAttemptAt == nil || !record.LastAttemptAt.Equal(now) {
		t.Fatalf("last attempt not stamped")
	}
}

func TestMarkFailureSchedulesRetry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := now.Add(2 * time.Second)
	record := DeliveryRecord{Status: DeliveryStatusPending}

	if err := record.MarkFailure("connection refused", 3, next, now); err != nil {
		t.Fatalf("mark failure: %v", err)
	}
	if record.Status != DeliveryStatusRetryPending {
		t.Fatalf("expected retry_pending, got %s", record.Status)
	}
	if record.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", record.RetryCount)
	}
	if record.NextAttemptAt == nil || !record.NextAttemptAt.Equal(next) {
		t.Fatalf("next attempt not scheduled")
	}
	if record.LastError != "connection refused" {
		t.Fatalf("unexpected last error %q", record.LastError)
	}
}

func TestMarkFailureExhaustsBudget(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := DeliveryRecord{Status: DeliveryStatusRetrying, RetryCount: 2}

	if err := record.MarkFailure("endpoint returned status 500", 3, now.Add(time.Minute), now); err != nil {
		t.Fatalf("mark failure: %v", err)
	}
	if record.Status != DeliveryStatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.RetryCount != 3 {
		t.Fatalf("expected retry count 3, got %d", record.RetryCount)
	}
	if record.NextAttemptAt != nil {
		t.Fatalf("failed record should have no next attempt")
	}
}

func TestTerminalRecordsAreImmutable(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []DeliveryStatus{DeliveryStatusSuccess, DeliveryStatusFailed} {
		record := DeliveryRecord{Status: status, RetryCount: 2}
		if err := record.MarkSuccess(now); !errors.Is(err, ErrDeliveryTerminal) {
			t.Fatalf("%s: expected ErrDeliveryTerminal from MarkSuccess, got %v", status, err)
		}
		if err := record.MarkFailure("boom", 5, now, now); !errors.Is(err, ErrDeliveryTerminal) {
			t.Fatalf("%s: expected ErrDeliveryTerminal from MarkFailure, got %v", status, err)
		}
		if err := record.MarkAbandoned("gone", now); !errors.Is(err, ErrDeliveryTerminal) {
			t.Fatalf("%s: expected ErrDeliveryTerminal from MarkAbandoned, got %v", status, err)
		}
		if record.RetryCount != 2 {
			t.Fatalf("%s: retry count mutated on terminal record", status)
		}
	}
}

func TestMarkAbandonedSkipsRetryCount(t *testing.T) {
	now := time.Now().UTC()
	record := DeliveryRecord{Status: DeliveryStatusRetrying, RetryCount: 1}

	if err := record.MarkAbandoned("webhook no longer exists", now); err != nil {
		t.Fatalf("mark abandoned: %v", err)
	}
	if record.Status != DeliveryStatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.RetryCount != 1 {
		t.Fatalf("abandon must not consume retry budget, got %d", record.RetryCount)
	}
}

func TestDeliveryRecordDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name   string
		record DeliveryRecord
		due    bool
	}{
		{"pending no schedule", DeliveryRecord{Status: DeliveryStatusPending}, true},
		{"retry pending past", DeliveryRecord{Status: DeliveryStatusRetryPending, NextAttemptAt: &past}, true},
		{"retry pending future", DeliveryRecord{Status: DeliveryStatusRetryPending, NextAttemptAt: &future}, false},
		{"retrying", DeliveryRecord{Status: DeliveryStatusRetrying}, false},
		{"success", DeliveryRecord{Status: DeliveryStatusSuccess}, false},
		{"failed", DeliveryRecord{Status: DeliveryStatusFailed}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.record.Due(now); got != tc.due {
				t.Fatalf("expected due=%v got %v", tc.due, got)
			}
		})
	}
}

func TestOutcomeErrorMessage(t *testing.T) {
	if msg := (Outcome{Success: true, StatusCode: 200}).ErrorMessage(); msg != "" {
		t.Fatalf("successful outcome has error %q", msg)
	}
	if msg := (Outcome{StatusCode: 503}).ErrorMessage(); !strings.Contains(msg, "503") {
		t.Fatalf("expected status in message, got %q", msg)
	}
	if msg := (Outcome{Err: errors.New("dial tcp: timeout")}).ErrorMessage(); msg != "dial tcp: timeout" {
		t.Fatalf("unexpected message %q", msg)
	}
}
