package sqlstore

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"personalblog/app/models"
	"personalblog/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite://"+filepath.Join(t.TempDir(), "blog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDialector(t *testing.T) {
	tests := []struct {
		url     string
		name    string
		wantErr bool
	}{
		{url: "sqlite://blog.db", name: "sqlite"},
		{url: "postgres://user:pw@localhost:5432/blog", name: "postgres"},
		{url: "postgresql://localhost/blog", name: "postgres"},
		{url: "mysql://localhost/blog", wantErr: true},
		{url: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, err := Dialector(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}

func TestPostRepository(t *testing.T) {
	store := newTestStore(t)
	repo := store.Posts()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mk := func(author int, title string) *models.Post {
		p := &models.Post{AuthorID: author, Author: "u", Title: title, Body: "body"}
		require.NoError(t, repo.Create(p))
		return p
	}

	older := mk(1, "older")
	newer := mk(2, "newer")
	future := mk(1, "future")
	draft := mk(1, "draft")
	assert.NotZero(t, older.ID)
	assert.NotEqual(t, older.ID, newer.ID)

	older.Publish(now.Add(-2 * time.Hour))
	newer.Publish(now.Add(-time.Hour))
	future.Publish(now.Add(time.Hour))
	for _, p := range []*models.Post{older, newer, future} {
		require.NoError(t, repo.Update(p))
	}

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(older.ID)
		require.NoError(t, err)
		assert.Equal(t, "older", got.Title)
		require.NotNil(t, got.PublishedAt)
		assert.True(t, got.PublishedAt.Equal(now.Add(-2*time.Hour)))

		_, err = repo.GetByID(9999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("published", func(t *testing.T) {
		posts, err := repo.ListPublished(now, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, older.ID, posts[1].ID)

		posts, err = repo.ListPublished(now, 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, older.ID, posts[0].ID)
	})

	t.Run("drafts", func(t *testing.T) {
		posts, err := repo.ListDrafts(1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, draft.ID, posts[0].ID)
	})

	t.Run("update missing", func(t *testing.T) {
		assert.ErrorIs(t, repo.Update(&models.Post{ID: 9999, Title: "x", Body: "y"}), repositories.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(draft.ID))
		assert.ErrorIs(t, repo.Delete(draft.ID), repositories.ErrNotFound)
	})
}

func TestCommentRepository(t *testing.T) {
	store := newTestStore(t)
	repo := store.Comments()

	mk := func(postID int, author string) *models.Comment {
		c := &models.Comment{PostID: postID, AuthorName: author, Text: "hi"}
		require.NoError(t, repo.Create(c))
		return c
	}
	a := mk(1, "ann")
	b := mk(1, "bob")
	mk(2, "cy")

	comments, err := repo.ListByPost(1)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, a.ID, comments[0].ID)

	approved, err := repo.ListApproved(1)
	require.NoError(t, err)
	assert.Empty(t, approved)

	b.Approve()
	require.NoError(t, repo.Update(b))
	approved, err = repo.ListApproved(1)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, b.ID, approved[0].ID)

	require.NoError(t, repo.Delete(a.ID))
	_, err = repo.GetByID(a.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	removed, err := repo.DeleteByPost(1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left, err := repo.ListByPost(2)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestUserAndSessionRepositories(t *testing.T) {
	store := newTestStore(t)

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: []byte("hash")}
	require.NoError(t, store.Users().Create(user))
	assert.NotZero(t, user.ID)
	assert.ErrorIs(t, store.Users().Create(&models.User{Username: "alice", Email: "a@b.co"}), repositories.ErrDuplicate)

	got, err := store.Users().GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), got.PasswordHash)

	now := time.Now().UTC()
	require.NoError(t, store.Sessions().Create(&models.Session{Token: "tok", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))
	s, err := store.Sessions().Get("tok")
	require.NoError(t, err)
	assert.Equal(t, user.ID, s.UserID)

	removed, err := store.Sessions().DeleteExpired(now.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Sessions().Get("tok")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

// gorm treats these method names as hooks and warns when the signature is off.
func TestModelsHaveNoMismatchedHooks(t *testing.T) {
	hooks := []string{
		"BeforeSave", "BeforeCreate", "AfterCreate", "AfterSave",
		"BeforeUpdate", "AfterUpdate", "BeforeDelete", "AfterDelete", "AfterFind",
	}
	hookType := reflect.TypeOf(func(*gorm.DB) error { return nil })

	for _, model := range []interface{}{&models.Post{}, &models.Comment{}, &models.User{}, &models.Session{}} {
		typ := reflect.TypeOf(model)
		for _, name := range hooks {
			method, ok := typ.MethodByName(name)
			if !ok {
				continue
			}
			// Drop the receiver to compare against the hook signature.
			in := make([]reflect.Type, 0, method.Type.NumIn()-1)
			for i := 1; i < method.Type.NumIn(); i++ {
				in = append(in, method.Type.In(i))
			}
			out := make([]reflect.Type, 0, method.Type.NumOut())
			for i := 0; i < method.Type.NumOut(); i++ {
				out = append(out, method.Type.Out(i))
			}
			assert.Equal(t, hookType, reflect.FuncOf(in, out, false), "%s.%s", typ.Elem().Name(), name)
		}
	}
}
