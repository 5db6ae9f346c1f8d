package sqlstore

import (
	"time"

	"personalblog/app/models"
	"personalblog/app/repositories"

	"gorm.io/gorm"
)

// PostRepository implements repositories.PostRepository with gorm.
type PostRepository struct {
	db *gorm.DB
}

func (r *PostRepository) Create(post *models.Post) error {
	post.SetDefaults()
	return translate(r.db.Create(post).Error)
}

func (r *PostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostRepository) ListPublished(before time.Time, authorID int) ([]*models.Post, error) {
	q := r.db.Where("published_at IS NOT NULL AND published_at <= ?", before.UTC())
	if authorID != 0 {
		q = q.Where("author_id = ?", authorID)
	}
	posts := []*models.Post{}
	if err := q.Order("published_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) ListDrafts(authorID int) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.Where("published_at IS NULL AND author_id = ?", authorID).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) Update(post *models.Post) error {
	res := r.db.Model(&models.Post{}).Where("id = ?", post.ID).
		Select("title", "body", "published_at").
		Updates(map[string]interface{}{
			"title":        post.Title,
			"body":         post.Body,
			"published_at": post.PublishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.exists(post.ID)
	}
	return nil
}

func (r *PostRepository) Delete(id int) error {
	res := r.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// exists distinguishes a no-op update from a missing row.
func (r *PostRepository) exists(id int) error {
	var count int64
	if err := r.db.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// CommentRepository implements repositories.CommentRepository with gorm.
type CommentRepository struct {
	db *gorm.DB
}

func (r *CommentRepository) Create(comment *models.Comment) error {
	comment.SetDefaults()
	return translate(r.db.Create(comment).Error)
}

func (r *CommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	return r.list(r.db.Where("post_id = ?", postID))
}

func (r *CommentRepository) ListApproved(postID int) ([]*models.Comment, error) {
	return r.list(r.db.Where("post_id = ? AND approved = ?", postID, true))
}

func (r *CommentRepository) list(q *gorm.DB) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Update rewrites the mutable fields; the owning post never changes.
func (r *CommentRepository) Update(comment *models.Comment) error {
	existing, err := r.GetByID(comment.ID)
	if err != nil {
		return err
	}
	comment.PostID = existing.PostID
	return r.db.Model(&models.Comment{}).Where("id = ?", comment.ID).
		Select("author_name", "text", "approved").
		Updates(map[string]interface{}{
			"author_name": comment.AuthorName,
			"text":        comment.Text,
			"approved":    comment.Approved,
		}).Error
}

func (r *CommentRepository) Delete(id int) error {
	res := r.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) DeleteByPost(postID int) (int, error) {
	res := r.db.Where("post_id = ?", postID).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// UserRepository implements repositories.UserRepository with gorm.
type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(user *models.User) error {
	if _, err := r.GetByUsername(user.Username); err == nil {
		return repositories.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.Create(user).Error)
}

func (r *UserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SessionRepository implements repositories.SessionRepository with gorm.
type SessionRepository struct {
	db *gorm.DB
}

func (r *SessionRepository) Create(session *models.Session) error {
	return translate(r.db.Create(session).Error)
}

func (r *SessionRepository) Get(token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(token string) error {
	return r.db.Where("token = ?", token).Delete(&models.Session{}).Error
}

func (r *SessionRepository) DeleteExpired(now time.Time) (int, error) {
	res := r.db.Where("expires_at <= ?", now.UTC()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
