package repositories

import (
	"fmt"

	"personalblog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id
		comment.SetDefaults()

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}

		// Save comment with post ID in key for efficient listing
		if err := txn.Set(commentKey(comment.PostID, comment.ID), data); err != nil {
			return err
		}
		return txn.Set(commentIndexKey(comment.ID), encodeInt(comment.PostID))
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, id)
		if err != nil {
			return err
		}
		return getEntity(txn, commentKey(postID, id), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	return r.scan(postID, func(*models.Comment) bool { return true })
}

// ListApproved retrieves the approved comments for a post
func (r *BadgerCommentRepository) ListApproved(postID int) ([]*models.Comment, error) {
	return r.scan(postID, func(c *models.Comment) bool { return c.Approved })
}

// Update updates an existing comment. The owning post never changes.
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, comment.ID)
		if err != nil {
			return err
		}
		comment.PostID = postID

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}
		return txn.Set(commentKey(postID, comment.ID), data)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(commentKey(postID, id)); err != nil {
			return err
		}
		return txn.Delete(commentIndexKey(id))
	})
}

// DeleteByPost deletes every comment stored under the post
func (r *BadgerCommentRepository) DeleteByPost(postID int) (int, error) {
	comments, err := r.ListByPost(postID)
	if err != nil {
		return 0, err
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, comment := range comments {
		if err := wb.Delete(commentKey(postID, comment.ID)); err != nil {
			return 0, err
		}
		if err := wb.Delete(commentIndexKey(comment.ID)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to delete comments of post %d: %w", postID, err)
	}
	return len(comments), nil
}

func (r *BadgerCommentRepository) scan(postID int, keep func(*models.Comment) bool) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			if keep(&comment) {
				comments = append(comments, &comment)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	models.SortComments(comments)
	return comments, nil
}

func lookupCommentPost(txn *badger.Txn, id int) (int, error) {
	item, err := txn.Get(commentIndexKey(id))
	if err == badger.ErrKeyNotFound {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var postID int
	err = item.Value(func(val []byte) error {
		postID = decodeInt(val)
		return nil
	})
	return postID, err
}
