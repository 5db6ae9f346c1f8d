package repositories

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var _ Store = (*Repository)(nil)

// Repository is the BadgerDB backed Store.
type Repository struct {
	db       *badger.DB
	mutex    sync.Mutex
	dbPath   string
	isTestDB bool

	posts    *BadgerPostRepository
	comments *BadgerCommentRepository
	users    *BadgerUserRepository
	sessions *BadgerSessionRepository
}

// Option adjusts the badger options before the database is opened.
type Option func(badger.Options) badger.Options

// WithLogger routes badger's internal logging through slog.
func WithLogger(logger *slog.Logger) Option {
	return func(o badger.Options) badger.Options {
		if logger == nil {
			return o.WithLogger(nil)
		}
		return o.WithLogger(&badgerLogger{logger: logger.With("component", "badger")})
	}
}

// NewRepository opens the badger database at path. An empty path (or
// "test_db") opens a throwaway database in a fresh temp directory that is
// removed again on Close.
func NewRepository(path string, options ...Option) (*Repository, error) {
	isTest := false
	if path == "" || path == "test_db" {
		tempPath, err := os.MkdirTemp("", "personalblog_test_db_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
	}
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if isTest {
		opts = opts.WithSyncWrites(false).WithNumGoroutines(1)
	}
	for _, apply := range options {
		opts = apply(opts)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return newRepository(db, path, isTest), nil
}

// NewInMemoryRepository opens a badger database that lives only in memory.
func NewInMemoryRepository() (*Repository, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return newRepository(db, "", false), nil
}

func newRepository(db *badger.DB, path string, isTest bool) *Repository {
	return &Repository{
		db:       db,
		dbPath:   path,
		isTestDB: isTest,
		posts:    NewBadgerPostRepository(db),
		comments: NewBadgerCommentRepository(db),
		users:    NewBadgerUserRepository(db),
		sessions: NewBadgerSessionRepository(db),
	}
}

func (r *Repository) Posts() PostRepository       { return r.posts }
func (r *Repository) Comments() CommentRepository { return r.comments }
func (r *Repository) Users() UserRepository       { return r.users }
func (r *Repository) Sessions() SessionRepository { return r.sessions }

// DB exposes the underlying badger handle.
func (r *Repository) DB() *badger.DB {
	return r.db
}

func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.db.Close(); err != nil {
		return err
	}

	// Clean up test database
	if r.isTestDB {
		if err := os.RemoveAll(r.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test database: %w", err)
		}
	}
	return nil
}

// Clear drops every key, sequences included.
func (r *Repository) Clear() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}

// Backup writes a full backup of the database to w and returns the version
// it was taken at.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	return r.db.Backup(w, 0)
}

// Restore loads a backup produced by Backup.
func (r *Repository) Restore(rd io.Reader) (err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	// Load panics on some malformed inputs instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic occurred during restore: %v", rec)
		}
	}()
	return r.db.Load(rd, 256)
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
