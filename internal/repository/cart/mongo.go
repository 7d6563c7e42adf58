package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-gateway/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	Key        string         `bson:"_id"`
	ID         int64          `bson:"id"`
	AccountID  *int64         `bson:"account_id,omitempty"`
	Currency   string         `bson:"currency"`
	CreatedAt  time.Time      `bson:"created_at"`
	ModifiedAt time.Time      `bson:"modified_at"`
	Items      []itemDocument `bson:"items"`
	Version    int64          `bson:"version"`
}

type itemDocument struct {
	ID             int64      `bson:"id"`
	Key            string     `bson:"key"`
	ProductID      string     `bson:"product_id"`
	PricingModelID string     `bson:"pricing_model_id"`
	AddedAt        time.Time  `bson:"added_at"`
	RemovedAt      *time.Time `bson:"removed_at,omitempty"`
}

type counterDocument struct {
	Seq int64 `bson:"seq"`
}

// Mongo stores one document per cart. Writers are not locked out; instead each
// write is conditional on the version it read and a lost race surfaces as
// domain.ErrConcurrentUpdate.
type Mongo struct {
	carts    *mongo.Collection
	counters *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		carts:    db.Collection("carts"),
		counters: db.Collection("counters"),
	}
}

func (m *Mongo) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "account_id", Value: 1}},
		},
	}
	if _, err := m.carts.Indexes().CreateMany(ctx, indexes); err != nil {
		return domain.StorageFailure("create indexes", err)
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	id, err := m.nextID(ctx, "carts")
	if err != nil {
		return nil, err
	}
	cart := &domain.Cart{
		ID:         id,
		Key:        uuid.New(),
		AccountID:  in.AccountID,
		Currency:   in.Currency,
		CreatedAt:  in.CreatedAt,
		ModifiedAt: in.CreatedAt,
		Items:      []domain.CartItem{},
	}
	doc := toDocument(cart, 0)
	if _, err := m.carts.InsertOne(ctx, doc); err != nil {
		return nil, domain.StorageFailure("insert cart", err)
	}
	return fromDocument(doc)
}

func (m *Mongo) GetByKey(ctx context.Context, key uuid.UUID) (*domain.Cart, error) {
	doc, err := m.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (m *Mongo) Update(ctx context.Context, key uuid.UUID, fn MutateFunc) (*domain.Cart, error) {
	stored, err := m.load(ctx, key)
	if err != nil {
		return nil, err
	}
	cart, err := fromDocument(stored)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ID != 0 {
			continue
		}
		if cart.Items[i].ID, err = m.nextID(ctx, "cart_items"); err != nil {
			return nil, err
		}
	}

	doc := toDocument(cart, stored.Version+1)
	filter := bson.M{"_id": stored.Key, "version": stored.Version}
	res, err := m.carts.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return nil, domain.StorageFailure("replace cart", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("cart %s: %w", key, domain.ErrConcurrentUpdate)
	}
	return fromDocument(doc)
}

func (m *Mongo) load(ctx context.Context, key uuid.UUID) (*cartDocument, error) {
	var doc cartDocument
	err := m.carts.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(key)
		}
		return nil, domain.StorageFailure("load cart", err)
	}
	return &doc, nil
}

func (m *Mongo) nextID(ctx context.Context, name string) (int64, error) {
	var counter counterDocument
	err := m.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, domain.StorageFailure("next "+name+" id", err)
	}
	return counter.Seq, nil
}

// BSON dates carry millisecond precision; timestamps are truncated on the way in
// so the returned cart matches what a later read yields.
func toDocument(cart *domain.Cart, version int64) *cartDocument {
	doc := &cartDocument{
		Key:        cart.Key.String(),
		ID:         cart.ID,
		AccountID:  cart.AccountID,
		Currency:   cart.Currency,
		CreatedAt:  cart.CreatedAt.UTC().Truncate(time.Millisecond),
		ModifiedAt: cart.ModifiedAt.UTC().Truncate(time.Millisecond),
		Items:      make([]itemDocument, 0, len(cart.Items)),
		Version:    version,
	}
	for _, item := range cart.Items {
		it := itemDocument{
			ID:             item.ID,
			Key:            item.Key.String(),
			ProductID:      item.ProductID,
			PricingModelID: item.PricingModelID.String(),
			AddedAt:        item.AddedAt.UTC().Truncate(time.Millisecond),
		}
		if item.RemovedAt != nil {
			removedAt := item.RemovedAt.UTC().Truncate(time.Millisecond)
			it.RemovedAt = &removedAt
		}
		doc.Items = append(doc.Items, it)
	}
	return doc
}

func fromDocument(doc *cartDocument) (*domain.Cart, error) {
	key, err := uuid.Parse(doc.Key)
	if err != nil {
		return nil, domain.StorageFailure("parse cart key", err)
	}
	cart := &domain.Cart{
		ID:         doc.ID,
		Key:        key,
		AccountID:  doc.AccountID,
		Currency:   doc.Currency,
		CreatedAt:  doc.CreatedAt.UTC(),
		ModifiedAt: doc.ModifiedAt.UTC(),
		Items:      make([]domain.CartItem, 0, len(doc.Items)),
	}
	for _, it := range doc.Items {
		item := domain.CartItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			AddedAt:   it.AddedAt.UTC(),
		}
		if item.Key, err = uuid.Parse(it.Key); err != nil {
			return nil, domain.StorageFailure("parse item key", err)
		}
		if item.PricingModelID, err = uuid.Parse(it.PricingModelID); err != nil {
			return nil, domain.StorageFailure("parse pricing model id", err)
		}
		if it.RemovedAt != nil {
			removedAt := it.RemovedAt.UTC()
			item.RemovedAt = &removedAt
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}
