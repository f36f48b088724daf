package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-webhooks/core"
	"github.com/uptrace/bun"
)

// WebhookStore persists subscriber configuration on bun. Deletes are soft so
// historical delivery records keep resolving to their webhook row.
type WebhookStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookRecord]
}

func NewWebhookStore(db *bun.DB) (*WebhookStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookRecord](db, webhookHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook repository wiring: %w", err)
		}
	}
	return &WebhookStore{db: db, repo: repo}, nil
}

func (s *WebhookStore) Create(ctx context.Context, webhook core.Webhook) (core.Webhook, error) {
	if s == nil || s.repo == nil {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	if strings.TrimSpace(webhook.ID) == "" {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook id is required")
	}
	record := newWebhookRecord(webhook, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Webhook{}, err
	}
	return created.toDomain(), nil
}

func (s *WebhookStore) Update(ctx context.Context, webhook core.Webhook) (core.Webhook, error) {
	if s == nil || s.repo == nil {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	id := strings.TrimSpace(webhook.ID)
	if id == "" {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook id is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return core.Webhook{}, err
	}
	record := newWebhookRecord(webhook, time.Now().UTC())
	record.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Webhook{}, err
	}
	return updated.toDomain(), nil
}

func (s *WebhookStore) Get(ctx context.Context, id string) (core.Webhook, error) {
	if s == nil || s.db == nil {
		return core.Webhook{}, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Webhook{}, core.ErrWebhookNotFound
	}
	record := &webhookRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Webhook{}, fmt.Errorf("%w: %s", core.ErrWebhookNotFound, id)
		}
		return core.Webhook{}, err
	}
	return record.toDomain(), nil
}

func (s *WebhookStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ErrWebhookNotFound
	}
	// The soft_delete model tag turns this into an UPDATE of deleted_at.
	res, err := s.db.NewDelete().
		Model((*webhookRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrWebhookNotFound, id)
	}
	return nil
}

func (s *WebhookStore) List(ctx context.Context, filter core.ListWebhooksFilter) ([]core.Webhook, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(perPage, offset),
	}
	if ownerID := strings.TrimSpace(filter.OwnerID); ownerID != "" {
		selectors = append(selectors, repository.SelectBy("owner_id", "=", ownerID))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}

	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Webhook, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *WebhookStore) FindActiveByEventAndOwner(ctx context.Context, event core.EventType, ownerID string) ([]core.Webhook, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook store is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("sqlstore: owner id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("owner_id", "=", ownerID),
		repository.SelectBy("status", "=", string(core.WebhookStatusActive)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}

	// Event membership lives in a JSON column; the subscription check happens
	// here so the query stays portable across dialects.
	out := make([]core.Webhook, 0, len(records))
	for _, record := range records {
		webhook := record.toDomain()
		if webhook.SubscribedTo(event) {
			out = append(out, webhook)
		}
	}
	return out, nil
}

var _ core.WebhookStore = (*WebhookStore)(nil)
