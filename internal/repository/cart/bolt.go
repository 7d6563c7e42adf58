package cart

import (
	"context"
	"encoding/json"
	"time"

	"marketplace-gateway/internal/domain"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"
)

var (
	cartsBucket = []byte("carts")
	itemsBucket = []byte("cart_items")
)

// Bolt stores each cart as one JSON document keyed by the cart key. Bolt allows
// a single read-write transaction at a time, which serialises Update.
type Bolt struct {
	db *bolt.DB
}

// NewBolt wraps an open database and makes sure the buckets exist.
func NewBolt(db *bolt.DB) (*Bolt, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{cartsBucket, itemsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.StorageFailure("create bolt buckets", err)
	}
	return &Bolt{db: db}, nil
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, domain.StorageFailure("open bolt", err)
	}
	return db, nil
}

func (b *Bolt) Create(_ context.Context, in CreateCartInput) (*domain.Cart, error) {
	cart := &domain.Cart{
		Key:        uuid.New(),
		AccountID:  in.AccountID,
		Currency:   in.Currency,
		CreatedAt:  in.CreatedAt,
		ModifiedAt: in.CreatedAt,
		Items:      []domain.CartItem{},
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(cartsBucket)
		id, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		cart.ID = int64(id)
		return putCart(bucket, cart)
	})
	if err != nil {
		return nil, domain.StorageFailure("insert cart", err)
	}
	return cart, nil
}

func (b *Bolt) GetByKey(_ context.Context, key uuid.UUID) (*domain.Cart, error) {
	var cart *domain.Cart
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		cart, err = getCart(tx.Bucket(cartsBucket), key)
		return err
	})
	if err != nil {
		return nil, domain.StorageFailure("load cart", err)
	}
	return cart, nil
}

func (b *Bolt) Update(_ context.Context, key uuid.UUID, fn MutateFunc) (*domain.Cart, error) {
	var cart *domain.Cart
	var fnErr error
	err := b.db.Update(func(tx *bolt.Tx) error {
		carts := tx.Bucket(cartsBucket)
		var err error
		cart, err = getCart(carts, key)
		if err != nil {
			return err
		}
		if fnErr = fn(cart); fnErr != nil {
			return fnErr
		}
		items := tx.Bucket(itemsBucket)
		for i := range cart.Items {
			if cart.Items[i].ID != 0 {
				continue
			}
			id, err := items.NextSequence()
			if err != nil {
				return err
			}
			cart.Items[i].ID = int64(id)
		}
		return putCart(carts, cart)
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, domain.StorageFailure("update cart", err)
	}
	return cart, nil
}

func getCart(bucket *bolt.Bucket, key uuid.UUID) (*domain.Cart, error) {
	raw := bucket.Get([]byte(key.String()))
	if raw == nil {
		return nil, notFound(key)
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func putCart(bucket *bolt.Bucket, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(cart.Key.String()), data)
}
