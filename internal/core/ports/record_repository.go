package ports

import (
	"context"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// RecordRepository is the keyed-document store behind the Sync Store. Every
// call is scoped to one partition and is atomic per document.
type RecordRepository interface {
	// Insert stores a new document. Returns domain.ErrRecordExists when a
	// document with the same ID is already in the partition.
	Insert(ctx context.Context, p domain.Partition, rec *domain.StoredRecord) error

	// Update overwrites the mutable fields (data, app, start, end) of the
	// document with rec.ID, creating it if it has disappeared meanwhile.
	Update(ctx context.Context, p domain.Partition, rec *domain.StoredRecord) error

	// Find returns the documents matching a normalized filter.
	Find(ctx context.Context, p domain.Partition, filter map[string]any) ([]*domain.StoredRecord, error)

	// Delete removes the document with id. A missing id is not an error.
	Delete(ctx context.Context, p domain.Partition, id string) error
}
