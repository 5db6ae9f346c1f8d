// Package sqlstore implements the repositories on top of gorm, for
// deployments that want SQLite or PostgreSQL instead of badger.
package sqlstore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"personalblog/app/models"
	"personalblog/app/repositories"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the gorm backed repositories.Store.
type Store struct {
	db       *gorm.DB
	posts    *PostRepository
	comments *CommentRepository
	users    *UserRepository
	sessions *SessionRepository
}

var _ repositories.Store = (*Store)(nil)

// Dialector picks the gorm dialector for a database URL of the form
// sqlite://<path> or postgres://<dsn>.
func Dialector(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		// Store times in a sortable layout so published_at comparisons work in SQL.
		if !strings.Contains(dsn, "_time_format") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_time_format=sqlite"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("invalid database URL %q: must start with postgres:// or sqlite://", databaseURL)
}

// Open connects to the database and migrates the schema.
func Open(databaseURL string, log *slog.Logger) (*Store, error) {
	dialector, err := Dialector(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("connected to SQL database", "dialect", dialector.Name())
	}
	return New(db)
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Session{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{
		db:       db,
		posts:    &PostRepository{db: db},
		comments: &CommentRepository{db: db},
		users:    &UserRepository{db: db},
		sessions: &SessionRepository{db: db},
	}, nil
}

func (s *Store) Posts() repositories.PostRepository       { return s.posts }
func (s *Store) Comments() repositories.CommentRepository { return s.comments }
func (s *Store) Users() repositories.UserRepository       { return s.users }
func (s *Store) Sessions() repositories.SessionRepository { return s.sessions }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	}
	return err
}
