package repositories

import (
	"errors"
	"time"

	"personalblog/app/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	// ListPublished returns posts published at or before the given instant,
	// most recent first. authorID 0 means any author.
	ListPublished(before time.Time, authorID int) ([]*models.Post, error)
	// ListDrafts returns the author's unpublished posts, newest first.
	ListDrafts(authorID int) ([]*models.Post, error)
	Update(post *models.Post) error
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	// ListByPost returns every comment on the post, oldest first.
	ListByPost(postID int) ([]*models.Comment, error)
	// ListApproved returns the approved comments on the post, oldest first.
	ListApproved(postID int) ([]*models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id int) error
	// DeleteByPost removes every comment on the post and reports how many went.
	DeleteByPost(postID int) (int, error)
}

// UserRepository defines the interface for account data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

// SessionRepository defines the interface for login session data access
type SessionRepository interface {
	Create(session *models.Session) error
	Get(token string) (*models.Session, error)
	Delete(token string) error
	DeleteExpired(now time.Time) (int, error)
}

// Store bundles the repositories of one storage backend.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Users() UserRepository
	Sessions() SessionRepository
	Close() error
}
