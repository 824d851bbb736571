package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

const collectionSyncEvents = "sync_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{col: db.Collection(collectionSyncEvents)}
}

// InsertSyncEvent persists a sync event to the sync_events audit collection.
func (r *AuditRepository) InsertSyncEvent(ctx context.Context, event *domain.SyncEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"user_id":      event.UserID,
		"record_type":  event.RecordType,
		"op":           string(event.Op),
		"count":        event.Count,
		"at":           event.At.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.From != "" {
		doc["from"] = event.From
		doc["to"] = event.To
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}
