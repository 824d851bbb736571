package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

var stepsPartition = domain.Partition{UserID: "u1", RecordType: "Steps"}

func TestRecordRepository_Collection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("per user database and lower-first collection", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "")
		col := repo.collection(domain.Partition{UserID: "u1", RecordType: "HeartRate"})
		assert.Equal(mt, "hcgateway_u1", col.Database().Name())
		assert.Equal(mt, "heartRate", col.Name())
	})
}

func TestRecordRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(context.Background(), stepsPartition, &domain.StoredRecord{
			ID: "a", Data: "ct", App: "com.fitbit", Start: "2024-01-01T00:00:00Z",
		})
		assert.NoError(mt, err)
	})

	mt.Run("existing id", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Insert(context.Background(), stepsPartition, &domain.StoredRecord{ID: "a"})
		assert.ErrorIs(mt, err, domain.ErrRecordExists)
	})
}

func TestRecordRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Update(context.Background(), stepsPartition, &domain.StoredRecord{ID: "a", Data: "ct2"})
		assert.NoError(mt, err)
	})
}

func TestRecordRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes interval and instant records", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hcgateway_u1.steps", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "a"},
				{Key: "id", Value: "a"},
				{Key: "data", Value: "ct-a"},
				{Key: "app", Value: "com.fitbit"},
				{Key: "start", Value: "2024-01-01T00:00:00Z"},
				{Key: "end", Value: "2024-01-01T01:00:00Z"},
			},
			bson.D{
				{Key: "_id", Value: "b"},
				{Key: "id", Value: "b"},
				{Key: "data", Value: "ct-b"},
				{Key: "app", Value: "com.scale"},
				{Key: "start", Value: "2024-01-02T00:00:00Z"},
				{Key: "end", Value: nil},
			},
		))

		got, err := repo.Find(context.Background(), stepsPartition, map[string]any{
			"start": map[string]any{"$gte": "2024-01-01T00:00:00Z"},
		})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, &domain.StoredRecord{
			ID: "a", Data: "ct-a", App: "com.fitbit",
			Start: "2024-01-01T00:00:00Z", End: "2024-01-01T01:00:00Z",
		}, got[0])
		assert.Equal(mt, "", got[1].End)
	})

	mt.Run("store error", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		_, err := repo.Find(context.Background(), stepsPartition, nil)
		assert.Error(mt, err)
	})
}

func TestRecordRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing id is not an error", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.Client, "hcgateway_")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.NoError(mt, repo.Delete(context.Background(), stepsPartition, "missing"))
	})
}
