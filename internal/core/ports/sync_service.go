package ports

import (
	"context"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// SyncService is the per-user, per-record-type encrypted record store.
type SyncService interface {
	Upsert(ctx context.Context, p domain.Partition, records []map[string]any) error
	// Fetch returns fully rehydrated records. A nil filter matches everything.
	Fetch(ctx context.Context, p domain.Partition, filter domain.Filter) ([]map[string]any, error)
	Delete(ctx context.Context, p domain.Partition, ids []string) error
}

// AuditSink accepts sync audit events without blocking the request on
// persistence.
type AuditSink interface {
	Enqueue(event domain.SyncEvent)
}

// AuditRepository persists sync audit events.
type AuditRepository interface {
	InsertSyncEvent(ctx context.Context, event *domain.SyncEvent) error
}
