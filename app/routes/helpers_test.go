package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"personalblog/app/middleware"
	"personalblog/app/models"
	"personalblog/app/repositories"
	"personalblog/app/repositories/mock"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app   *App
	store repositories.Store
	now   time.Time
}

func setupTestRouter(t *testing.T) *testServer {
	t.Helper()
	return setupTestRouterWithStore(t, mock.NewStore())
}

func setupTestRouterWithStore(t *testing.T, store repositories.Store) *testServer {
	t.Helper()
	ts := &testServer{store: store, now: time.Now().UTC().Add(-time.Hour)}
	app, err := New(store, Options{
		BcryptCost:   bcrypt.MinCost,
		CommentBurst: 100,
		Clock:        func() time.Time { return ts.now },
	})
	require.NoError(t, err)
	ts.app = app
	return ts
}

func (ts *testServer) tick() {
	ts.now = ts.now.Add(time.Second)
}

// user registers an account and returns its identity and session token.
func (ts *testServer) user(t *testing.T, name string) (models.Identity, string) {
	t.Helper()
	user, err := ts.app.Auth.Register(name, name+"@example.com", "password123")
	require.NoError(t, err)
	session, err := ts.app.Auth.Login(name, "password123")
	require.NoError(t, err)
	return models.IdentityOf(user), session.Token
}

func (ts *testServer) post(t *testing.T, author models.Identity, title string, publish bool) *models.Post {
	t.Helper()
	ts.tick()
	post, err := ts.app.Posts.CreatePost(author, title, "Body of "+title)
	require.NoError(t, err)
	if publish {
		post, err = ts.app.Posts.Publish(post.ID, author)
		require.NoError(t, err)
	}
	return post
}

func (ts *testServer) comment(t *testing.T, postID int, text string) *models.Comment {
	t.Helper()
	ts.tick()
	comment, err := ts.app.Comments.CreateComment(postID, "reader", text)
	require.NoError(t, err)
	return comment
}

type request struct {
	method string
	path   string
	body   io.Reader
	token  string
	form   url.Values
	json   string
}

func (ts *testServer) do(rq request) *httptest.ResponseRecorder {
	body := rq.body
	switch {
	case rq.form != nil:
		body = strings.NewReader(rq.form.Encode())
	case rq.json != "":
		body = strings.NewReader(rq.json)
	}
	req := httptest.NewRequest(rq.method, rq.path, body)
	req.RemoteAddr = "192.0.2.1:4321"
	switch {
	case rq.form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case rq.json != "":
		req.Header.Set("Content-Type", "application/json")
	}
	if rq.token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: rq.token})
	}
	w := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(w, req)
	return w
}
