package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// DefaultUserDBPrefix prefixes the per-user record database name.
const DefaultUserDBPrefix = "hcgateway_"

// RecordRepository implements ports.RecordRepository with one database per
// user and one collection per record type.
type RecordRepository struct {
	client *mongo.Client
	prefix string
}

var _ ports.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(client *mongo.Client, dbPrefix string) *RecordRepository {
	if dbPrefix == "" {
		dbPrefix = DefaultUserDBPrefix
	}
	return &RecordRepository{client: client, prefix: dbPrefix}
}

type recordDoc struct {
	ID    string  `bson:"_id"`
	RecID string  `bson:"id"`
	Data  string  `bson:"data"`
	App   string  `bson:"app"`
	Start string  `bson:"start"`
	End   *string `bson:"end"` // null for instants
}

func newRecordDoc(rec *domain.StoredRecord) recordDoc {
	doc := recordDoc{ID: rec.ID, RecID: rec.ID, Data: rec.Data, App: rec.App, Start: rec.Start}
	if rec.End != "" {
		end := rec.End
		doc.End = &end
	}
	return doc
}

func (d recordDoc) toDomain() *domain.StoredRecord {
	rec := &domain.StoredRecord{ID: d.ID, Data: d.Data, App: d.App, Start: d.Start}
	if d.End != nil {
		rec.End = *d.End
	}
	return rec
}

func (r *RecordRepository) collection(p domain.Partition) *mongo.Collection {
	return r.client.Database(r.prefix + p.UserID).Collection(p.Collection())
}

func (r *RecordRepository) Insert(ctx context.Context, p domain.Partition, rec *domain.StoredRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection(p).InsertOne(ctx, newRecordDoc(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRecordExists
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of rec.ID. Upsert semantics cover a
// delete that raced the preceding insert attempt.
func (r *RecordRepository) Update(ctx context.Context, p domain.Partition, rec *domain.StoredRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newRecordDoc(rec)
	update := bson.M{"$set": bson.M{
		"id":    doc.RecID,
		"data":  doc.Data,
		"app":   doc.App,
		"start": doc.Start,
		"end":   doc.End,
	}}
	_, err := r.collection(p).UpdateOne(ctx, bson.M{"_id": rec.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Find runs an already-normalized filter against the partition, ordered by
// start time.
func (r *RecordRepository) Find(ctx context.Context, p domain.Partition, filter map[string]any) ([]*domain.StoredRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if filter == nil {
		filter = map[string]any{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := r.collection(p).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	out := make([]*domain.StoredRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *RecordRepository) Delete(ctx context.Context, p domain.Partition, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection(p).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
