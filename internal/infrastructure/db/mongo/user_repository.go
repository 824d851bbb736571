package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID        string     `bson:"_id"`
	Username  string     `bson:"username"`
	Password  string     `bson:"password"`
	Token     string     `bson:"token,omitempty"`
	Refresh   string     `bson:"refresh,omitempty"`
	Expiry    *time.Time `bson:"expiry,omitempty"`
	FCMToken  string     `bson:"fcmToken,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.Password,
		DeviceToken:  d.FCMToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Token != "" {
		s := &domain.Session{Token: d.Token, Refresh: d.Refresh}
		if d.Expiry != nil {
			s.Expiry = d.Expiry.UTC()
		}
		u.Session = s
	}
	return u
}

// Create inserts a new user with a generated ID.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		ID:        primitive.NewObjectID().Hex(),
		Username:  user.Username,
		Password:  user.PasswordHash,
		FCMToken:  user.DeviceToken,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
	if s := user.Session; s != nil {
		expiry := s.Expiry.UTC()
		doc.Token, doc.Refresh, doc.Expiry = s.Token, s.Refresh, &expiry
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *UserRepository) FindByRefresh(ctx context.Context, refresh string) (*domain.User, error) {
	if refresh == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"refresh": refresh})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// SetSession replaces the user's token triple.
func (r *UserRepository) SetSession(ctx context.Context, userID string, session *domain.Session) error {
	return r.update(ctx, userID, bson.M{
		"$set": bson.M{
			"token":     session.Token,
			"refresh":   session.Refresh,
			"expiry":    session.Expiry.UTC(),
			"updatedAt": time.Now().UTC(),
		},
	})
}

// ClearSession removes the token triple so neither token resolves any more.
func (r *UserRepository) ClearSession(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{
		"$unset": bson.M{"token": "", "refresh": "", "expiry": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) SetDeviceToken(ctx context.Context, userID, deviceToken string) error {
	return r.update(ctx, userID, bson.M{
		"$set": bson.M{"fcmToken": deviceToken, "updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) update(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the username uniqueness constraint and the token
// lookup indexes.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "refresh", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
