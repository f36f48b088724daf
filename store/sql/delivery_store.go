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

// DefaultClaimLease bounds how long a claimed row may sit in retrying before
// a sweep is allowed to reclaim it. Must exceed the longest plausible attempt
// (webhook timeout plus settle write).
const DefaultClaimLease = 5 * time.Minute

// DeliveryStore is the durable attempt ledger. ClaimDue flips due rows to the
// retrying status inside one transaction so concurrent sweeps never hand the
// same record to two workers, and reclaims rows whose claim lease has lapsed
// so a crashed worker cannot strand a delivery in retrying forever.
type DeliveryStore struct {
	db         *bun.DB
	repo       repository.Repository[*deliveryRecord]
	claimLease time.Duration
}

type DeliveryStoreOption func(*DeliveryStore)

func WithClaimLease(lease time.Duration) DeliveryStoreOption {
	return func(s *DeliveryStore) {
		if lease > 0 {
			s.claimLease = lease
		}
	}
}

func NewDeliveryStore(db *bun.DB, opts ...DeliveryStoreOption) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*deliveryRecord](db, deliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid delivery repository wiring: %w", err)
		}
	}
	store := &DeliveryStore{db: db, repo: repo, claimLease: DefaultClaimLease}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *DeliveryStore) Create(ctx context.Context, record core.DeliveryRecord) (core.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery record id is required")
	}
	row := newDeliveryRecord(record, time.Now().UTC())
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	return created.toDomain(), nil
}

func (s *DeliveryStore) Get(ctx context.Context, id string) (core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.DeliveryRecord{}, core.ErrDeliveryNotFound
	}
	row := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(row).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.DeliveryRecord{}, fmt.Errorf("%w: %s", core.ErrDeliveryNotFound, id)
		}
		return core.DeliveryRecord{}, err
	}
	return row.toDomain(), nil
}

// Update writes the record only while the stored row still holds the expected
// status. A mismatch means another claimant settled the row first; the caller
// gets ErrDeliveryConflict instead of silently clobbering that result.
func (s *DeliveryStore) Update(ctx context.Context, record core.DeliveryRecord, expected core.DeliveryStatus) (core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery record id is required")
	}
	row := newDeliveryRecord(record, time.Now().UTC())
	row.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(row).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", string(expected)).
		Exec(ctx)
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return core.DeliveryRecord{}, getErr
		}
		return core.DeliveryRecord{}, fmt.Errorf(
			"%w: %s holds %s, expected %s", core.ErrDeliveryConflict, id, current.Status, expected)
	}
	return row.toDomain(), nil
}

func (s *DeliveryStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	lease := s.claimLease
	if lease <= 0 {
		lease = DefaultClaimLease
	}
	claimedAt := now.UTC()
	leaseCutoff := claimedAt.Add(-lease)
	var rows []deliveryRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM webhook_deliveries
	WHERE (
		status IN (?, ?)
		AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	) OR (
		status = ?
		AND updated_at <= ?
	)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE webhook_deliveries
SET status = ?, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status IN (?, ?, ?)
RETURNING
	id,
	webhook_id,
	event_type,
	payload,
	status,
	retry_count,
	last_error,
	last_attempt_at,
	next_attempt_at,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			string(core.DeliveryStatusPending),
			string(core.DeliveryStatusRetryPending),
			claimedAt,
			string(core.DeliveryStatusRetrying),
			leaseCutoff,
			limit,
			string(core.DeliveryStatusRetrying),
			claimedAt,
			string(core.DeliveryStatusPending),
			string(core.DeliveryStatusRetryPending),
			string(core.DeliveryStatusRetrying),
		).Scan(ctx, &rows)
	})
	if err != nil {
		return nil, err
	}

	out := make([]core.DeliveryRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *DeliveryStore) ListByWebhook(ctx context.Context, filter core.ListDeliveriesFilter) ([]core.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	webhookID := strings.TrimSpace(filter.WebhookID)
	if webhookID == "" {
		return nil, fmt.Errorf("sqlstore: webhook id is required")
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
		repository.SelectBy("webhook_id", "=", webhookID),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}

	rows, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.DeliveryRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

var _ core.DeliveryStore = (*DeliveryStore)(nil)
