package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

var (
	bucketItems   = []byte("items")
	bucketByEmail = []byte("items_by_email")
)

// Bolt stores items as JSON in a bolt database file. Items are keyed by id
// with a secondary email bucket.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ItemStore = (*Bolt)(nil)

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketItems); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketByEmail)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) Create(_ context.Context, in ItemInput) (*Item, error) {
	var item *Item
	err := b.db.Update(func(tx *bolt.Tx) error {
		var err error
		item, err = b.put(tx, in)
		return err
	})
	return item, err
}

func (b *Bolt) CreateFirst(_ context.Context, in ItemInput) (*Item, error) {
	var item *Item
	err := b.db.Update(func(tx *bolt.Tx) error {
		if k, _ := tx.Bucket(bucketItems).Cursor().First(); k != nil {
			return ErrNotEmpty
		}
		var err error
		item, err = b.put(tx, in)
		return err
	})
	return item, err
}

func (b *Bolt) put(tx *bolt.Tx, in ItemInput) (*Item, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	emails := tx.Bucket(bucketByEmail)
	if emails.Get([]byte(email)) != nil {
		return nil, ErrDuplicateEmail
	}

	item := &Item{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    b.now().UTC(),
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	if err := tx.Bucket(bucketItems).Put([]byte(item.ID), raw); err != nil {
		return nil, err
	}
	if err := emails.Put([]byte(email), []byte(item.ID)); err != nil {
		return nil, err
	}
	return item, nil
}

func (b *Bolt) Get(_ context.Context, id string) (*Item, error) {
	var item *Item
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		item, err = getItem(tx, []byte(id))
		return err
	})
	return item, err
}

func (b *Bolt) FindByEmail(_ context.Context, email string) (*Item, error) {
	var item *Item
	err := b.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketByEmail).Get([]byte(NormalizeEmail(email)))
		if id == nil {
			return ErrNotFound
		}
		var err error
		item, err = getItem(tx, id)
		return err
	})
	return item, err
}

func getItem(tx *bolt.Tx, id []byte) (*Item, error) {
	raw := tx.Bucket(bucketItems).Get(id)
	if raw == nil {
		return nil, ErrNotFound
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	return &item, nil
}

func (b *Bolt) Count(context.Context) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketItems).Stats().KeyN
		return nil
	})
	return n, err
}

func (b *Bolt) Ping(context.Context) error {
	return b.db.View(func(*bolt.Tx) error { return nil })
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
