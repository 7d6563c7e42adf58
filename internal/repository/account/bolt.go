package account

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"marketplace-gateway/internal/domain"

	bolt "github.com/boltdb/bolt"
)

var accountsBucket = []byte("accounts")

// Bolt keeps accounts as JSON values keyed by decimal id.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(db *bolt.DB) (*Bolt, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		return nil, domain.StorageFailure("create accounts bucket", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Exists(_ context.Context, id int64) (bool, error) {
	var ok bool
	err := b.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(accountsBucket).Get(accountKey(id)) != nil
		return nil
	})
	if err != nil {
		return false, domain.StorageFailure("check account", err)
	}
	return ok, nil
}

func (b *Bolt) Save(_ context.Context, a domain.Account) error {
	a.Email = strings.ToLower(a.Email)
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).Put(accountKey(a.ID), data)
	})
	if err != nil {
		return domain.StorageFailure("save account", err)
	}
	return nil
}

func accountKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}
