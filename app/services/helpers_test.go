package services

import (
	"sync"
	"testing"
	"time"

	"personalblog/app/models"
	"personalblog/app/repositories"
	"personalblog/app/repositories/mock"

	"github.com/stretchr/testify/require"
)

var (
	alice = models.Identity{UserID: 1, Username: "alice"}
	bob   = models.Identity{UserID: 2, Username: "bob"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) RecordEvent(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// storeFactories lists every backend the service tests run against.
func storeFactories() map[string]func(t *testing.T) repositories.Store {
	return map[string]func(t *testing.T) repositories.Store{
		"mock": func(t *testing.T) repositories.Store {
			return mock.NewStore()
		},
		"badger": func(t *testing.T) repositories.Store {
			repo, err := repositories.NewInMemoryRepository()
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		},
	}
}

type fixture struct {
	store    repositories.Store
	clock    *fakeClock
	events   *eventLog
	posts    *PostService
	comments *CommentService
}

func newFixture(t *testing.T, newStore func(t *testing.T) repositories.Store) *fixture {
	f := &fixture{
		store:  newStore(t),
		clock:  newFakeClock(),
		events: &eventLog{},
	}
	opts := []Option{WithClock(f.clock.Now), WithEventRecorder(f.events)}
	f.posts = NewPostService(f.store.Posts(), f.store.Comments(), opts...)
	f.comments = NewCommentService(f.store.Comments(), f.store.Posts(), opts...)
	return f
}

func (f *fixture) publishedPost(t *testing.T, author models.Identity, title string) *models.Post {
	t.Helper()
	post, err := f.posts.CreatePost(author, title, "body of "+title)
	require.NoError(t, err)
	post, err = f.posts.Publish(post.ID, author)
	require.NoError(t, err)
	return post
}

func ids(posts []*models.Post) []int {
	out := make([]int, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func commentIDs(comments []*models.Comment) []int {
	out := make([]int, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.ID)
	}
	return out
}
