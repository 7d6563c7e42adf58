package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-gateway/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountDocument struct {
	ID          int64     `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

// Mongo stores accounts in the accounts collection keyed by id.
type Mongo struct {
	collection *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{collection: db.Collection("accounts")}
}

func (m *Mongo) Exists(ctx context.Context, id int64) (bool, error) {
	err := m.collection.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, domain.StorageFailure("check account", err)
	}
	return true, nil
}

func (m *Mongo) Save(ctx context.Context, a domain.Account) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := accountDocument{
		ID:          a.ID,
		Email:       strings.ToLower(a.Email),
		DisplayName: a.DisplayName,
		CreatedAt:   createdAt,
	}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": a.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return domain.StorageFailure("save account", err)
	}
	return nil
}
