package services

import (
	"fmt"

	"personalblog/app/models"
	"personalblog/app/repositories"
)

// PostService owns the draft/publish lifecycle of posts and decides which
// posts a viewer may see.
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	options
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, opts ...Option) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		options:     newOptions(opts),
	}
}

// CreatePost creates a draft owned by author.
func (s *PostService) CreatePost(author models.Identity, title, body string) (*models.Post, error) {
	if !author.IsAuthenticated() {
		return nil, ErrAuthentication
	}

	post := &models.Post{
		AuthorID:  author.UserID,
		Author:    author.Username,
		Title:     title,
		Body:      body,
		CreatedAt: s.clock(),
	}
	if err := post.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "author", author.Username)
	s.events.RecordEvent(EventPostCreated)
	return post, nil
}

// Publish stamps the post with the current time. Publishing twice refreshes
// the timestamp.
func (s *PostService) Publish(postID int, requester models.Identity) (*models.Post, error) {
	post, err := s.authorize(postID, requester)
	if err != nil {
		return nil, err
	}

	post.Publish(s.clock())
	if err := s.postRepo.Update(post); err != nil {
		return nil, fmt.Errorf("failed to publish post %d: %w", postID, err)
	}

	s.logger.Info("post published", "post_id", post.ID, "published_at", post.PublishedAt)
	s.events.RecordEvent(EventPostPublished)
	return post, nil
}

// UpdatePost replaces the title and body of the requester's post.
func (s *PostService) UpdatePost(postID int, requester models.Identity, title, body string) (*models.Post, error) {
	post, err := s.authorize(postID, requester)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Body = body
	if err := post.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	if err := s.postRepo.Update(post); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", postID, err)
	}

	s.events.RecordEvent(EventPostUpdated)
	return post, nil
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(postID int, requester models.Identity) error {
	if _, err := s.authorize(postID, requester); err != nil {
		return err
	}

	// Comments go first so none is left pointing at a missing post.
	removed, err := s.commentRepo.DeleteByPost(postID)
	if err != nil {
		return fmt.Errorf("failed to delete comments of post %d: %w", postID, err)
	}

	if err := s.postRepo.Delete(postID); err != nil {
		return fmt.Errorf("failed to delete post %d: %w", postID, err)
	}

	s.logger.Info("post deleted", "post_id", postID, "comments", removed)
	s.events.RecordEvent(EventPostDeleted)
	return nil
}

// GetPost retrieves a post by ID with its approved comments
func (s *PostService) GetPost(id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListApproved(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	post.Comments = comments

	return post, nil
}

// ViewPost is GetPost for a reader: a draft is only found by its author.
func (s *PostService) ViewPost(id int, viewer models.Identity) (*models.Post, error) {
	post, err := s.GetPost(id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished(s.clock()) && !viewer.Owns(post) {
		return nil, ErrNotFound
	}
	return post, nil
}

// ListVisible returns the published posts the viewer may see, most recently
// published first. Anonymous viewers get every published post; a signed in
// viewer gets only their own.
func (s *PostService) ListVisible(viewer models.Identity) ([]*models.Post, error) {
	authorID := 0
	if viewer.IsAuthenticated() {
		authorID = viewer.UserID
	}
	return s.postRepo.ListPublished(s.clock(), authorID)
}

// MaxPerPage caps the page size accepted by ListVisiblePage.
const MaxPerPage = 100

// ListVisiblePage returns one page of ListVisible together with the total
// number of visible posts. perPage is clamped to MaxPerPage; pages past the
// end come back empty.
func (s *PostService) ListVisiblePage(viewer models.Identity, page, perPage int) ([]*models.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	posts, err := s.ListVisible(viewer)
	if err != nil {
		return nil, 0, err
	}

	total := len(posts)
	pages := (total + perPage - 1) / perPage
	if page > pages {
		return []*models.Post{}, total, nil
	}
	offset := (page - 1) * perPage
	end := offset + perPage
	if end > total {
		end = total
	}
	return posts[offset:end], total, nil
}

// ListDrafts returns the viewer's unpublished posts, newest first.
func (s *PostService) ListDrafts(viewer models.Identity) ([]*models.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrAuthentication
	}
	return s.postRepo.ListDrafts(viewer.UserID)
}

// authorize loads the post and checks that requester owns it.
func (s *PostService) authorize(postID int, requester models.Identity) (*models.Post, error) {
	if !requester.IsAuthenticated() {
		return nil, ErrAuthentication
	}

	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	if !requester.Owns(post) {
		s.logger.Warn("refused post mutation", "post_id", postID, "requester", requester.Username)
		return nil, ErrPermission
	}
	return post, nil
}
