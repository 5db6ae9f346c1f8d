package repositories

import (
	"fmt"
	"time"

	"personalblog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSessionRepository implements SessionRepository using BadgerDB.
// Entries carry a TTL matching the session expiry so badger drops them itself.
type BadgerSessionRepository struct {
	db *badger.DB
}

// NewBadgerSessionRepository creates a new BadgerSessionRepository
func NewBadgerSessionRepository(db *badger.DB) *BadgerSessionRepository {
	return &BadgerSessionRepository{db: db}
}

// Create stores a session until its expiry. The TTL is the session's own
// lifetime, so it does not depend on the wall clock agreeing with the clock
// that stamped it.
func (r *BadgerSessionRepository) Create(session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if !session.CreatedAt.IsZero() {
		ttl = session.ExpiresAt.Sub(session.CreatedAt)
	}
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", session.ExpiresAt)
	}
	data, err := marshalEntity(session)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(sessionKey(session.Token), data).WithTTL(ttl))
	})
}

// Get retrieves a session by token
func (r *BadgerSessionRepository) Get(token string) (*models.Session, error) {
	var session models.Session
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, sessionKey(token), &session)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a session; deleting an unknown token is not an error
func (r *BadgerSessionRepository) Delete(token string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(token))
	})
}

// DeleteExpired removes sessions whose expiry has passed but whose TTL has
// not been collected yet.
func (r *BadgerSessionRepository) DeleteExpired(now time.Time) (int, error) {
	var expired [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(SessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var session models.Session
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &session)
			}); err != nil {
				return err
			}
			if session.Expired(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
