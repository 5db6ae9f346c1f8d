package repositories

import (
	"personalblog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// userRecord keeps the password hash, which the public JSON form omits.
type userRecord struct {
	models.User
	PasswordHash []byte `json:"password_hash"`
}

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// Create stores a new user, rejecting a username that is already taken
func (r *BadgerUserRepository) Create(user *models.User) error {
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(usernameKey(user.Username))
		if err == nil {
			return ErrDuplicate
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id

		data, err := marshalEntity(userRecord{User: *user, PasswordHash: user.PasswordHash})
		if err != nil {
			return err
		}
		if err := txn.Set(userKey(id), data); err != nil {
			return err
		}
		return txn.Set(usernameKey(user.Username), encodeInt(id))
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = loadUser(txn, id)
		return err
	})
	return user, err
}

// GetByUsername retrieves a user by username
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id int
		if err := item.Value(func(val []byte) error {
			id = decodeInt(val)
			return nil
		}); err != nil {
			return err
		}
		user, err = loadUser(txn, id)
		return err
	})
	return user, err
}

func loadUser(txn *badger.Txn, id int) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, userKey(id), &rec); err != nil {
		return nil, err
	}
	user := rec.User
	user.PasswordHash = rec.PasswordHash
	return &user, nil
}
