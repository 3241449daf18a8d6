package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AuditStore struct {
	db *sqlx.DB
}

// Audit actions recorded by the reconciliation and close cores.
const (
	ActionSync            = "sync"
	ActionCloseOperativo  = "cierre_operativo"
	ActionReopenOperativo = "reapertura_operativa"
	ActionCloseContable   = "cierre_contable"
	ActionReopenContable  = "reapertura_contable"
)

// Insert appends one audit entry. Entries are never updated or deleted.
func (as *AuditStore) Insert(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO audit_log (
		id,
		entity_type,
		entity_id,
		actor,
		action,
		description,
		before_snapshot,
		after_snapshot,
		metadata,
		created_at
	) VALUES (
		:id,
		:entity_type,
		:entity_id,
		:actor,
		:action,
		:description,
		:before_snapshot,
		:after_snapshot,
		:metadata,
		:created_at
	)`

	_, err := as.db.NamedExecContext(ctx, query, entry)
	return err
}

func (as *AuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]AuditEntry, error) {
	query := `SELECT id, entity_type, entity_id, actor, action, description, before_snapshot, after_snapshot, metadata, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	entries := []AuditEntry{}
	if err := as.db.SelectContext(ctx, &entries, query, entityType, entityID, limit); err != nil {
		return nil, err
	}
	return entries, nil
}
