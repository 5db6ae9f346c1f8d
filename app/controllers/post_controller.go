package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"personalblog/app/models"
	"personalblog/app/services"
	"personalblog/app/views"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	base
	postService    *services.PostService
	commentService *services.CommentService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, commentService *services.CommentService, renderer *views.Renderer, log *slog.Logger) *PostController {
	return &PostController{
		base:           base{views: renderer, log: log},
		postService:    postService,
		commentService: commentService,
	}
}

// postInput is the body accepted by the create and update endpoints.
type postInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type postListPage struct {
	views.Page
	Posts       []*models.Post
	CurrentPage int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
}

type postDetailPage struct {
	views.Page
	Post     *models.Post
	Comments []*models.Comment
	IsAuthor bool
}

type postFormPage struct {
	views.Page
	Post   *models.Post
	Action string
	Errors map[string]string
}

type draftsPage struct {
	views.Page
	Posts []*models.Post
}

func readInput(r *http.Request) (postInput, error) {
	var in postInput
	if wantsJSON(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Title = r.FormValue("title")
	in.Body = r.FormValue("body")
	return in, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// Index handles listing the posts visible to the requester
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)
	if perPage > services.MaxPerPage {
		perPage = services.MaxPerPage
	}

	posts, total, err := pc.postService.ListVisiblePage(viewer(r), page, perPage)
	if err != nil {
		pc.fail(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"posts":    posts,
			"page":     page,
			"per_page": perPage,
			"total":    total,
		})
		return
	}

	pc.render(w, r, http.StatusOK, "post_list", postListPage{
		Page:        views.Page{Viewer: viewer(r)},
		Posts:       posts,
		CurrentPage: page,
		HasPrev:     page > 1,
		HasNext:     page < (total+perPage-1)/perPage,
		PrevPage:    page - 1,
		NextPage:    page + 1,
	})
}

// Show handles displaying a single post with its comments. The author also
// sees comments still waiting for approval.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	me := viewer(r)
	post, err := pc.postService.ViewPost(id, me)
	if err != nil {
		pc.fail(w, r, err, 0)
		return
	}

	if me.Owns(post) {
		comments, err := pc.commentService.ListForModeration(id, me)
		if err != nil {
			pc.fail(w, r, err, id)
			return
		}
		post.Comments = comments
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}

	pc.render(w, r, http.StatusOK, "post_detail", postDetailPage{
		Page:     views.Page{Viewer: me},
		Post:     post,
		Comments: post.Comments,
		IsAuthor: me.Owns(post),
	})
}

// New displays the form for creating a new post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, "post_form", postFormPage{
		Page:   views.Page{Viewer: viewer(r)},
		Post:   &models.Post{},
		Action: "/posts",
	})
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		pc.sendError(w, r, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.postService.CreatePost(viewer(r), in.Title, in.Body)
	if err != nil {
		if verr, ok := services.IsValidation(err); ok && !wantsJSON(r) {
			pc.render(w, r, http.StatusUnprocessableEntity, "post_form", postFormPage{
				Page:   views.Page{Viewer: viewer(r)},
				Post:   &models.Post{Title: in.Title, Body: in.Body},
				Action: "/posts",
				Errors: verr.Fields,
			})
			return
		}
		pc.fail(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// Edit displays the form for editing a post
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := pc.postService.GetPost(id)
	if err != nil {
		pc.fail(w, r, err, 0)
		return
	}
	if !viewer(r).Owns(post) {
		pc.fail(w, r, services.ErrPermission, id)
		return
	}

	pc.render(w, r, http.StatusOK, "post_form", postFormPage{
		Page:   views.Page{Viewer: viewer(r)},
		Post:   post,
		Action: postURL(id) + "/edit",
	})
}

// Update handles changing the title and body of a post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	in, err := readInput(r)
	if err != nil {
		pc.sendError(w, r, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.postService.UpdatePost(id, viewer(r), in.Title, in.Body)
	if err != nil {
		if verr, ok := services.IsValidation(err); ok && !wantsJSON(r) {
			pc.render(w, r, http.StatusUnprocessableEntity, "post_form", postFormPage{
				Page:   views.Page{Viewer: viewer(r)},
				Post:   &models.Post{ID: id, Title: in.Title, Body: in.Body},
				Action: postURL(id) + "/edit",
				Errors: verr.Fields,
			})
			return
		}
		pc.fail(w, r, err, id)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	http.Redirect(w, r, postURL(id), http.StatusSeeOther)
}

// Publish handles stamping a post as published
func (pc *PostController) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := pc.postService.Publish(id, viewer(r))
	if err != nil {
		pc.fail(w, r, err, id)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	http.Redirect(w, r, postURL(id), http.StatusSeeOther)
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := pc.postService.DeletePost(id, viewer(r)); err != nil {
		pc.fail(w, r, err, id)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Drafts handles listing the requester's unpublished posts
func (pc *PostController) Drafts(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListDrafts(viewer(r))
	if err != nil {
		pc.fail(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
		return
	}
	pc.render(w, r, http.StatusOK, "post_drafts", draftsPage{
		Page:  views.Page{Viewer: viewer(r)},
		Posts: posts,
	})
}
