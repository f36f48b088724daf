package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryWebhookStore struct {
	mu   sync.Mutex
	byID map[string]Webhook
}

func newMemoryWebhookStore() *memoryWebhookStore {
	return &memoryWebhookStore{byID: map[string]Webhook{}}
}

func (s *memoryWebhookStore) Create(_ context.Context, webhook Webhook) (Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(webhook.ID) == "" {
		return Webhook{}, fmt.Errorf("webhook id is required")
	}
	if _, exists := s.byID[webhook.ID]; exists {
		return Webhook{}, fmt.Errorf("duplicate webhook")
	}
	s.byID[webhook.ID] = webhook
	return webhook, nil
}

func (s *memoryWebhookStore) Update(_ context.Context, webhook Webhook) (Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[webhook.ID]
	if !ok || existing.DeletedAt != nil {
		return Webhook{}, ErrWebhookNotFound
	}
	s.byID[webhook.ID] = webhook
	return webhook, nil
}

func (s *memoryWebhookStore) Get(_ context.Context, id string) (Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	webhook, ok := s.byID[id]
	if !ok || webhook.DeletedAt != nil {
		return Webhook{}, ErrWebhookNotFound
	}
	return webhook, nil
}

func (s *memoryWebhookStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	webhook, ok := s.byID[id]
	if !ok || webhook.DeletedAt != nil {
		return ErrWebhookNotFound
	}
	now := time.Now().UTC()
	webhook.DeletedAt = &now
	s.byID[id] = webhook
	return nil
}

func (s *memoryWebhookStore) List(_ context.Context, filter ListWebhooksFilter) ([]Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Webhook{}
	for _, webhook := range s.byID {
		if webhook.DeletedAt != nil {
			continue
		}
		if filter.OwnerID != "" && webhook.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && webhook.Status != filter.Status {
			continue
		}
		out = append(out, webhook)
	}
	return out, nil
}

func (s *memoryWebhookStore) FindActiveByEventAndOwner(_ context.Context, event EventType, ownerID string) ([]Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Webhook{}
	for _, webhook := range s.byID {
		if !webhook.IsActive() || webhook.OwnerID != ownerID {
			continue
		}
		if !webhook.SubscribedTo(event) {
			continue
		}
		out = append(out, webhook)
	}
	return out, nil
}

type failingWebhookStore struct {
	*memoryWebhookStore
	findErr error
}

func (s *failingWebhookStore) FindActiveByEventAndOwner(ctx context.Context, event EventType, ownerID string) ([]Webhook, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.memoryWebhookStore.FindActiveByEventAndOwner(ctx, event, ownerID)
}

type memoryDeliveryStore struct {
	mu   sync.Mutex
	byID map[string]DeliveryRecord
}

func newMemoryDeliveryStore() *memoryDeliveryStore {
	return &memoryDeliveryStore{byID: map[string]DeliveryRecord{}}
}

func (s *memoryDeliveryStore) Create(_ context.Context, record DeliveryRecord) (DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(record.ID) == "" {
		return DeliveryRecord{}, fmt.Errorf("delivery id is required")
	}
	if _, exists := s.byID[record.ID]; exists {
		return DeliveryRecord{}, fmt.Errorf("duplicate delivery record")
	}
	s.byID[record.ID] = record
	return record, nil
}

func (s *memoryDeliveryStore) Get(_ context.Context, id string) (DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[id]
	if !ok {
		return DeliveryRecord{}, ErrDeliveryNotFound
	}
	return record, nil
}

func (s *memoryDeliveryStore) Update(_ context.Context, record DeliveryRecord, expected DeliveryStatus) (DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[record.ID]
	if !ok {
		return DeliveryRecord{}, ErrDeliveryNotFound
	}
	if current.Status != expected {
		return DeliveryRecord{}, fmt.Errorf("%w: %s", ErrDeliveryConflict, record.ID)
	}
	s.byID[record.ID] = record
	return record, nil
}

const memoryClaimLease = 5 * time.Minute

func (s *memoryDeliveryStore) ClaimDue(_ context.Context, now time.Time, limit int) ([]DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaseCutoff := now.Add(-memoryClaimLease)
	out := []DeliveryRecord{}
	for id, record := range s.byID {
		if len(out) >= limit {
			break
		}
		stale := record.Status == DeliveryStatusRetrying && !record.UpdatedAt.After(leaseCutoff)
		if !record.Due(now) && !stale {
			continue
		}
		record.Status = DeliveryStatusRetrying
		record.UpdatedAt = now
		s.byID[id] = record
		out = append(out, record)
	}
	return out, nil
}

func (s *memoryDeliveryStore) ListByWebhook(_ context.Context, filter ListDeliveriesFilter) ([]DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []DeliveryRecord{}
	for _, record := range s.byID {
		if record.WebhookID == nil || *record.WebhookID != filter.WebhookID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *memoryDeliveryStore) records() []DeliveryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeliveryRecord, 0, len(s.byID))
	for _, record := range s.byID {
		out = append(out, record)
	}
	return out
}

type stubDeliveryClient struct {
	mu       sync.Mutex
	outcomes []Outcome
	calls    []Webhook
	payloads [][]byte
}

func (c *stubDeliveryClient) Deliver(_ context.Context, webhook Webhook, payload []byte) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, webhook)
	c.payloads = append(c.payloads, append([]byte(nil), payload...))
	if len(c.outcomes) == 0 {
		return Outcome{Success: true, StatusCode: 200}
	}
	outcome := c.outcomes[0]
	if len(c.outcomes) > 1 {
		c.outcomes = c.outcomes[1:]
	}
	return outcome
}

func (c *stubDeliveryClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type testSecretProvider struct{}

func (testSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("test secret provider: plaintext is required")
	}
	encoded := base64.StdEncoding.EncodeToString(plaintext)
	return []byte("enc:" + encoded), nil
}

func (testSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	value := strings.TrimSpace(string(ciphertext))
	if value == "" || !strings.HasPrefix(value, "enc:") {
		return nil, fmt.Errorf("test secret provider: invalid ciphertext")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "enc:"))
	if err != nil {
		return nil, fmt.Errorf("test secret provider: decode ciphertext: %w", err)
	}
	return decoded, nil
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

func newTestService(t *testing.T, options ...Option) (*Service, *memoryWebhookStore, *memoryDeliveryStore, *stubDeliveryClient) {
	t.Helper()
	webhookStore := newMemoryWebhookStore()
	deliveryStore := newMemoryDeliveryStore()
	client := &stubDeliveryClient{}
	base := []Option{
		WithWebhookStore(webhookStore),
		WithDeliveryStore(deliveryStore),
		WithDeliveryClient(client),
		WithSecretProvider(testSecretProvider{}),
	}
	svc, err := NewService(Config{}, append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, webhookStore, deliveryStore, client
}

func seedWebhook(t *testing.T, store *memoryWebhookStore, webhook Webhook) Webhook {
	t.Helper()
	if webhook.ID == "" {
		webhook.ID = fmt.Sprintf("wh_%d", len(store.byID)+1)
	}
	if webhook.Status == "" {
		webhook.Status = WebhookStatusActive
	}
	if webhook.MaxRetries == 0 {
		webhook.MaxRetries = DefaultMaxRetries
	}
	if webhook.Timeout == 0 {
		webhook.Timeout = DefaultDeliveryTimeout
	}
	created, err := store.Create(context.Background(), webhook)
	if err != nil {
		t.Fatalf("seed webhook: %v", err)
	}
	return created
}
