package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/muselabs/aria/internal/api"
)

var (
	bucketSession = []byte("session")
	keyToken      = []byte("token")
	keyUser       = []byte("user")
)

// CredentialStore persists the session token and serialized user so a
// restart can re-enter the authenticated state without a network round
// trip. Exactly two entries are stored; nothing else is persisted
// client-side.
type CredentialStore struct {
	db *bolt.DB
}

// OpenCredentialStore opens (or creates) the store at path.
func OpenCredentialStore(path string) (*CredentialStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session db: %w", err)
	}
	return &CredentialStore{db: db}, nil
}

// Save writes the token and user, replacing any previous pair.
func (s *CredentialStore) Save(token string, user *api.User) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Put(keyToken, []byte(token)); err != nil {
			return err
		}
		return b.Put(keyUser, encoded)
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load returns the persisted pair. A missing pair is ("", nil, nil), not an
// error.
func (s *CredentialStore) Load() (string, *api.User, error) {
	var token string
	var userData []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if v := b.Get(keyToken); v != nil {
			token = string(v)
		}
		if v := b.Get(keyUser); v != nil {
			userData = make([]byte, len(v))
			copy(userData, v)
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("read session: %w", err)
	}
	if token == "" || len(userData) == 0 {
		return "", nil, nil
	}
	var user api.User
	if err := json.Unmarshal(userData, &user); err != nil {
		// A corrupt entry is treated as absent.
		return "", nil, nil
	}
	return token, &user, nil
}

// Clear removes the persisted pair.
func (s *CredentialStore) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		return b.Delete(keyUser)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *CredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
