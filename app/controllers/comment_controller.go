package controllers

import (
	"log/slog"
	"net/http"

	"personalblog/app/services"
	"personalblog/app/views"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	base
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, renderer *views.Renderer, log *slog.Logger) *CommentController {
	return &CommentController{
		base:           base{views: renderer, log: log},
		commentService: commentService,
	}
}

type commentInput struct {
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

type commentFormPage struct {
	views.Page
	PostID     int
	AuthorName string
	Text       string
	Errors     map[string]string
}

// New displays the form for creating a new comment
func (cc *CommentController) New(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		cc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}
	if _, err := cc.commentService.Post(postID); err != nil {
		cc.fail(w, r, err, 0)
		return
	}

	cc.render(w, r, http.StatusOK, "comment_form", commentFormPage{
		Page:   views.Page{Viewer: viewer(r)},
		PostID: postID,
	})
}

// Index handles listing the comments of a post. The post's author also gets
// the ones awaiting approval.
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		cc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	comments, err := cc.commentService.ListForModeration(postID, viewer(r))
	if err != nil {
		cc.fail(w, r, err, 0)
		return
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

// Create handles creating a new comment. No login is needed.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "postId")
	if !ok {
		cc.sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	var in commentInput
	if wantsJSON(r) {
		if err := decodeJSON(r, &in); err != nil {
			cc.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			cc.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		in.AuthorName = r.FormValue("author_name")
		in.Text = r.FormValue("text")
	}

	comment, err := cc.commentService.CreateComment(postID, in.AuthorName, in.Text)
	if err != nil {
		if verr, ok := services.IsValidation(err); ok && !wantsJSON(r) {
			cc.render(w, r, http.StatusUnprocessableEntity, "comment_form", commentFormPage{
				Page:       views.Page{Viewer: viewer(r)},
				PostID:     postID,
				AuthorName: in.AuthorName,
				Text:       in.Text,
				Errors:     verr.Fields,
			})
			return
		}
		cc.fail(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		cc.sendJSON(w, http.StatusCreated, comment)
		return
	}
	http.Redirect(w, r, postURL(postID), http.StatusSeeOther)
}

// Approve handles marking a comment visible
func (cc *CommentController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		cc.sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	comment, err := cc.commentService.Approve(id, viewer(r))
	if err != nil {
		postID := 0
		if comment != nil {
			postID = comment.PostID
		}
		cc.fail(w, r, err, postID)
		return
	}

	if wantsJSON(r) {
		cc.sendJSON(w, http.StatusOK, comment)
		return
	}
	http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
}

// Remove handles deleting a comment
func (cc *CommentController) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		cc.sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	postID, err := cc.commentService.Remove(id, viewer(r))
	if err != nil {
		cc.fail(w, r, err, postID)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, postURL(postID), http.StatusSeeOther)
}
