package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"personalblog/app/models"
	"personalblog/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) api(method, path, token, body string) *http.Response {
	w := ts.do(request{method: method, path: path, token: token, json: body})
	return w.Result()
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPIPostRoutes(t *testing.T) {
	ts := setupTestRouter(t)
	alice, aliceToken := ts.user(t, "alice")
	_, bobToken := ts.user(t, "bob")

	var created models.Post
	t.Run("create requires login", func(t *testing.T) {
		resp := ts.api("POST", "/api/posts", "", `{"title":"API Post","body":"from json"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create", func(t *testing.T) {
		resp := ts.api("POST", "/api/posts", aliceToken, `{"title":"API Post","body":"from json"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		decode(t, resp, &created)
		assert.Equal(t, alice.UserID, created.AuthorID)
		assert.Nil(t, created.PublishedAt)
	})

	t.Run("validation errors carry fields", func(t *testing.T) {
		resp := ts.api("POST", "/api/posts", aliceToken, `{"title":"","body":""}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		decode(t, resp, &body)
		assert.Contains(t, body.Fields, "title")
		assert.Contains(t, body.Fields, "body")
	})

	t.Run("malformed json", func(t *testing.T) {
		resp := ts.api("POST", "/api/posts", aliceToken, `{"title":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	path := "/api/posts/" + strconv.Itoa(created.ID)

	t.Run("drafts are not listed", func(t *testing.T) {
		var list struct {
			Posts []*models.Post `json:"posts"`
			Total int            `json:"total"`
		}
		decode(t, ts.api("GET", "/api/posts", "", ""), &list)
		assert.Zero(t, list.Total)

		var drafts struct {
			Posts []*models.Post `json:"posts"`
		}
		decode(t, ts.api("GET", "/api/drafts", aliceToken, ""), &drafts)
		require.Len(t, drafts.Posts, 1)
		assert.Equal(t, created.ID, drafts.Posts[0].ID)
	})

	t.Run("publish", func(t *testing.T) {
		resp := ts.api("POST", path+"/publish", bobToken, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.api("POST", path+"/publish", aliceToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var post models.Post
		decode(t, resp, &post)
		assert.NotNil(t, post.PublishedAt)

		var list struct {
			Posts []*models.Post `json:"posts"`
			Total int            `json:"total"`
		}
		decode(t, ts.api("GET", "/api/posts", "", ""), &list)
		assert.Equal(t, 1, list.Total)
	})

	t.Run("update", func(t *testing.T) {
		resp := ts.api("PUT", path, bobToken, `{"title":"hijack","body":"x"}`)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.api("PUT", path, aliceToken, `{"title":"Updated Title","body":"Updated body"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var post models.Post
		decode(t, resp, &post)
		assert.Equal(t, "Updated Title", post.Title)
	})

	t.Run("show", func(t *testing.T) {
		resp := ts.api("GET", path, "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var post models.Post
		decode(t, resp, &post)
		assert.Equal(t, "Updated body", post.Body)

		resp = ts.api("GET", "/api/posts/9999", "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := ts.api("DELETE", path, bobToken, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.api("DELETE", path, aliceToken, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err := ts.store.Posts().GetByID(created.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("unknown api path", func(t *testing.T) {
		resp := ts.api("GET", "/api/nothing", "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body map[string]string
		decode(t, resp, &body)
		assert.Equal(t, "Page not found", body["error"])
	})
}

func TestAPICommentRoutes(t *testing.T) {
	ts := setupTestRouter(t)
	alice, aliceToken := ts.user(t, "alice")
	_, bobToken := ts.user(t, "bob")
	post := ts.post(t, alice, "P1", true)
	base := "/api/posts/" + strconv.Itoa(post.ID) + "/comments"

	var comment models.Comment
	resp := ts.api("POST", base, "", `{"author_name":"Reader","text":"first!"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &comment)
	assert.False(t, comment.Approved)

	var listed []models.Comment
	decode(t, ts.api("GET", base, "", ""), &listed)
	assert.Empty(t, listed)

	decode(t, ts.api("GET", base, aliceToken, ""), &listed)
	assert.Len(t, listed, 1)

	approvePath := "/api/comments/" + strconv.Itoa(comment.ID) + "/approve"
	assert.Equal(t, http.StatusUnauthorized, ts.api("POST", approvePath, "", "").StatusCode)
	assert.Equal(t, http.StatusForbidden, ts.api("POST", approvePath, bobToken, "").StatusCode)

	resp = ts.api("POST", approvePath, aliceToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &comment)
	assert.True(t, comment.Approved)

	decode(t, ts.api("GET", base, "", ""), &listed)
	assert.Len(t, listed, 1)

	var detail models.Post
	decode(t, ts.api("GET", "/api/posts/"+strconv.Itoa(post.ID), "", ""), &detail)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "first!", detail.Comments[0].Text)

	removePath := "/api/comments/" + strconv.Itoa(comment.ID)
	assert.Equal(t, http.StatusForbidden, ts.api("DELETE", removePath, bobToken, "").StatusCode)
	assert.Equal(t, http.StatusNoContent, ts.api("DELETE", removePath, aliceToken, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, ts.api("DELETE", removePath, aliceToken, "").StatusCode)
}

func TestAPIAuthRoutes(t *testing.T) {
	ts := setupTestRouter(t)

	resp := ts.api("POST", "/api/register", "", `{"username":"dave","email":"dave@example.com","password":"longpassword"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user map[string]interface{}
	decode(t, resp, &user)
	assert.Equal(t, "dave", user["username"])
	assert.NotContains(t, user, "password_hash")

	resp = ts.api("POST", "/api/register", "", `{"username":"dave","email":"dave@example.com","password":"longpassword"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, ts.api("POST", "/api/login", "", `{"username":"dave","password":"nope"}`).StatusCode)

	resp = ts.api("POST", "/api/login", "", `{"username":"dave","password":"longpassword"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	require.NotEmpty(t, login.Token)

	req := request{method: "GET", path: "/api/drafts"}
	w := ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(request{method: "GET", path: "/api/drafts", token: login.Token})
	assert.Equal(t, http.StatusOK, w.Code)

	bearer := httptest.NewRequest("GET", "/api/drafts", nil)
	bearer.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	ts.app.Router.ServeHTTP(w, bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNoContent, ts.api("POST", "/api/logout", login.Token, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ts.api("GET", "/api/drafts", login.Token, "").StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestRouter(t)
	alice, _ := ts.user(t, "alice")
	ts.post(t, alice, "Counted", true)

	ts.do(request{method: "GET", path: "/api/posts"})

	w := ts.do(request{method: "GET", path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `blog_http_requests_total{method="GET",route="/api/posts",status="200"} 1`)
	assert.Contains(t, body, `blog_lifecycle_events_total{event="post_published"} 1`)
	assert.Contains(t, body, `blog_lifecycle_events_total{event="user_registered"} 1`)
}

func TestAPIOnBadger(t *testing.T) {
	store, err := repositories.NewInMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ts := setupTestRouterWithStore(t, store)
	alice, token := ts.user(t, "alice")
	ts.post(t, alice, "Stored in badger", true)
	ts.post(t, alice, "Still a draft", false)

	var list struct {
		Posts []*models.Post `json:"posts"`
		Total int            `json:"total"`
	}
	decode(t, ts.api("GET", "/api/posts", "", ""), &list)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "Stored in badger", list.Posts[0].Title)

	var drafts struct {
		Posts []*models.Post `json:"posts"`
	}
	decode(t, ts.api("GET", "/api/drafts", token, ""), &drafts)
	require.Len(t, drafts.Posts, 1)
	assert.Equal(t, "Still a draft", drafts.Posts[0].Title)
}
