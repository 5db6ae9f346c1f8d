package mock

import (
	"sync"
	"time"

	"personalblog/app/models"
	"personalblog/app/repositories"
)

type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	mutex  sync.RWMutex
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex
}

type UserRepository struct {
	users  map[int]*models.User
	nextID int
	mutex  sync.RWMutex
}

type SessionRepository struct {
	sessions map[string]*models.Session
	mutex    sync.RWMutex
}

// Store bundles the in-memory repositories.
type Store struct {
	PostRepo    *PostRepository
	CommentRepo *CommentRepository
	UserRepo    *UserRepository
	SessionRepo *SessionRepository
}

var _ repositories.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		PostRepo:    NewPostRepository(),
		CommentRepo: NewCommentRepository(),
		UserRepo:    NewUserRepository(),
		SessionRepo: NewSessionRepository(),
	}
}

func (s *Store) Posts() repositories.PostRepository       { return s.PostRepo }
func (s *Store) Comments() repositories.CommentRepository { return s.CommentRepo }
func (s *Store) Users() repositories.UserRepository       { return s.UserRepo }
func (s *Store) Sessions() repositories.SessionRepository { return s.SessionRepo }
func (s *Store) Close() error                             { return nil }

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[int]*models.User),
		nextID: 1,
	}
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*models.Session)}
}

// PostRepository implementation. Records are copied in and out so callers
// cannot mutate stored state without going through Update.
func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post.ID = m.nextID
	m.nextID++
	post.SetDefaults()
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyPost(post), nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) ListPublished(before time.Time, authorID int) ([]*models.Post, error) {
	posts := m.filter(func(p *models.Post) bool {
		return p.IsPublished(before) && (authorID == 0 || p.AuthorID == authorID)
	})
	models.SortByPublished(posts)
	return posts, nil
}

func (m *PostRepository) ListDrafts(authorID int) ([]*models.Post, error) {
	posts := m.filter(func(p *models.Post) bool {
		return p.IsDraft() && p.AuthorID == authorID
	})
	models.SortByCreated(posts)
	return posts, nil
}

func (m *PostRepository) filter(keep func(*models.Post) bool) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := []*models.Post{}
	for _, post := range m.posts {
		if keep(post) {
			posts = append(posts, copyPost(post))
		}
	}
	return posts
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Comments = nil
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

// CommentRepository implementation
func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	comment.SetDefaults()
	m.comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyComment(comment), nil
}

func (m *CommentRepository) Update(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, exists := m.comments[comment.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	comment.PostID = existing.PostID
	m.comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *CommentRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *CommentRepository) DeleteByPost(postID int) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, comment := range m.comments {
		if comment.PostID == postID {
			delete(m.comments, id)
			removed++
		}
	}
	return removed, nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.PostID == postID }), nil
}

func (m *CommentRepository) ListApproved(postID int) ([]*models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.PostID == postID && c.Approved }), nil
}

func (m *CommentRepository) filter(keep func(*models.Comment) bool) []*models.Comment {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, comment := range m.comments {
		if keep(comment) {
			comments = append(comments, copyComment(comment))
		}
	}
	models.SortComments(comments)
	return comments
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.Post = nil
	return &cp
}

// UserRepository implementation
func (m *UserRepository) Create(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, existing := range m.users {
		if existing.Username == user.Username {
			return repositories.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *UserRepository) GetByUsername(username string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// SessionRepository implementation
func (m *SessionRepository) Create(session *models.Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := *session
	m.sessions[session.Token] = &s
	return nil
}

func (m *SessionRepository) Get(token string) (*models.Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	session, exists := m.sessions[token]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	s := *session
	return &s, nil
}

func (m *SessionRepository) Delete(token string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *SessionRepository) DeleteExpired(now time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for token, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}
