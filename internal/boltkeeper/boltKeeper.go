// Package boltkeeper persists the cart ledger in an embedded BoltDB file.
// All data lives in a single file, so no external database process is
// required on the device running the storefront.
package boltkeeper

import (
	"context"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"
	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

const (
	bucketName = "storefront"
	cartKey    = "cart-storage"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type BoltKeeper struct {
	db  *bolt.DB
	log Log
}

// NewBoltKeeper opens (or creates) the database file and ensures the bucket
// exists. Returns nil when the path is empty or the file cannot be opened;
// the storage then runs without persistence.
func NewBoltKeeper(path func() string, log Log) *BoltKeeper {
	p := path()
	if p == "" {
		log.Info("cart database path is empty")
		return nil
	}

	db, err := bolt.Open(p, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Error("unable to open cart database", zap.String("path", p), zap.Error(err))
		return nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		log.Error("unable to create cart bucket", zap.Error(err))
		return nil
	}

	return &BoltKeeper{db: db, log: log}
}

// LoadCart restores the persisted cart lines. A missing record yields an
// empty ledger; a corrupt record is logged and likewise recovered into an
// empty ledger rather than surfaced as a failure.
func (kp *BoltKeeper) LoadCart(_ context.Context) ([]models.CartLine, error) {
	var lines []models.CartLine

	err := kp.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(cartKey))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &lines); err != nil {
			kp.log.Error("persisted cart is corrupt, starting empty", zap.Error(err))
			lines = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// SaveCart replaces the persisted record with the given lines.
func (kp *BoltKeeper) SaveCart(_ context.Context, lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	return kp.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(cartKey), data)
	})
}

func (kp *BoltKeeper) Ping(_ context.Context) bool {
	return kp.db != nil
}

func (kp *BoltKeeper) Close() bool {
	if kp.db == nil {
		return false
	}
	if err := kp.db.Close(); err != nil {
		kp.log.Error("error closing cart database", zap.Error(err))
		return false
	}
	kp.log.Info("cart database closed")
	return true
}
