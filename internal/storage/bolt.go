package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const (
	boltDirPerm     = fs.FileMode(0o700)
	boltFilePerm    = fs.FileMode(0o600)
	boltOpenTimeout = 5 * time.Second
)

var sessionsBucket = []byte("sessions")

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("storage: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("storage: CBOR decoder initialization failed: " + err.Error())
	}
}

type boltSession struct {
	UserID       string    `cbor:"1,keyasint"`
	RefreshToken string    `cbor:"2,keyasint"`
	CreatedAt    time.Time `cbor:"3,keyasint"`
}

// BoltStorage is a single-file embedded SessionStore for deployments
// without a database server.
type BoltStorage struct {
	db *bolt.DB
}

func NewBoltStorage(path string) (*BoltStorage, error) {
	const op = "storage.NewBoltStorage"

	if err := os.MkdirAll(filepath.Dir(path), boltDirPerm); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &BoltStorage{db: db}, nil
}

func (b *BoltStorage) SetRefreshToken(_ context.Context, userID, token string) error {
	const op = "storage.SetRefreshToken"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		key := []byte(userID)

		sess := boltSession{UserID: userID, CreatedAt: time.Now().UTC()}
		if raw := bucket.Get(key); raw != nil {
			if err := cborDec.Unmarshal(raw, &sess); err != nil {
				return err
			}
		}
		sess.RefreshToken = token

		data, err := cborEnc.Marshal(sess)
		if err != nil {
			return err
		}

		return bucket.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *BoltStorage) GetRefreshToken(_ context.Context, userID string) (string, error) {
	const op = "storage.GetRefreshToken"

	if userID == "" {
		return "", nil
	}

	var sess boltSession
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(userID))
		if raw == nil {
			return nil
		}
		return cborDec.Unmarshal(raw, &sess)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sess.RefreshToken, nil
}

func (b *BoltStorage) Close() error {
	return b.db.Close()
}
