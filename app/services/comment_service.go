package services

import (
	"fmt"

	"personalblog/app/models"
	"personalblog/app/repositories"
)

// CommentService handles comment submission and moderation. Anyone may
// comment; only the author of the post may approve or remove comments.
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	options
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, opts ...Option) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		options:     newOptions(opts),
	}
}

// Post returns the post a new comment would be attached to.
func (s *CommentService) Post(postID int) (*models.Post, error) {
	return s.postRepo.GetByID(postID)
}

// CreateComment adds an unapproved comment to an existing post.
func (s *CommentService) CreateComment(postID int, authorName, text string) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:     postID,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  s.clock(),
	}
	if err := comment.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("comment submitted", "comment_id", comment.ID, "post_id", postID)
	s.events.RecordEvent(EventCommentCreated)
	return comment, nil
}

// Approve marks the comment visible. Approving twice is a no-op. On
// ErrPermission the unchanged comment is returned so callers can find its post.
func (s *CommentService) Approve(commentID int, requester models.Identity) (*models.Comment, error) {
	comment, err := s.authorize(commentID, requester)
	if err != nil {
		return comment, err
	}

	comment.Approve()
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to approve comment %d: %w", commentID, err)
	}

	s.events.RecordEvent(EventCommentApproved)
	return comment, nil
}

// Remove deletes the comment and returns the key of the post it was on.
// The key is also returned with ErrPermission so callers can redirect back
// to the post.
func (s *CommentService) Remove(commentID int, requester models.Identity) (int, error) {
	comment, err := s.authorize(commentID, requester)
	if err != nil {
		if comment != nil {
			return comment.PostID, err
		}
		return 0, err
	}

	postID := comment.PostID
	if err := s.commentRepo.Delete(commentID); err != nil {
		return postID, fmt.Errorf("failed to remove comment %d: %w", commentID, err)
	}

	s.logger.Info("comment removed", "comment_id", commentID, "post_id", postID)
	s.events.RecordEvent(EventCommentRemoved)
	return postID, nil
}

// ListApproved returns the approved comments on the post, oldest first.
func (s *CommentService) ListApproved(postID int) ([]*models.Comment, error) {
	return s.commentRepo.ListApproved(postID)
}

// ListForModeration returns every comment on the post when the requester
// wrote the post, and only the approved ones otherwise.
func (s *CommentService) ListForModeration(postID int, requester models.Identity) ([]*models.Comment, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if requester.Owns(post) {
		return s.commentRepo.ListByPost(postID)
	}
	return s.commentRepo.ListApproved(postID)
}

// authorize loads the comment and checks that requester wrote its post. On
// ErrPermission the comment is still returned.
func (s *CommentService) authorize(commentID int, requester models.Identity) (*models.Comment, error) {
	if !requester.IsAuthenticated() {
		return nil, ErrAuthentication
	}

	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(comment.PostID)
	if err != nil {
		return nil, err
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}

	if !requester.Owns(post) {
		s.logger.Warn("refused comment moderation", "comment_id", commentID, "requester", requester.Username)
		return comment, ErrPermission
	}
	return comment, nil
}
