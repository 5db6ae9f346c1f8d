package models

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate = newValidator()

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form/json name so messages line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateStruct runs the shared validator against any tagged struct.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

// Post represents a blog post with comments.
type Post struct {
	ID          int        `json:"id" gorm:"primaryKey" validate:"gte=0"`
	AuthorID    int        `json:"author_id" gorm:"index;not null" validate:"required,gt=0"`
	Author      string     `json:"author" gorm:"size:150"`
	Title       string     `json:"title" gorm:"size:200;not null" validate:"required,notblank,max=200"`
	Body        string     `json:"body" gorm:"type:text;not null" validate:"required,notblank"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
	Comments    []*Comment `json:"comments,omitempty" gorm:"-" validate:"-"`
}

// Comment represents a comment on a blog post. Commenters need not be
// registered, so the author is free text.
type Comment struct {
	ID         int       `json:"id" gorm:"primaryKey" validate:"gte=0"`
	PostID     int       `json:"post_id" gorm:"index;not null" validate:"required,gt=0"`
	AuthorName string    `json:"author_name" gorm:"size:200;not null" validate:"required,notblank,max=200"`
	Text       string    `json:"text" gorm:"type:text;not null" validate:"required,notblank"`
	CreatedAt  time.Time `json:"created_at"`
	Approved   bool      `json:"approved" gorm:"not null"`
	Post       *Post     `json:"-" gorm:"-" validate:"-"`
}

// User is a registered account able to author posts.
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:150;uniqueIndex;not null" validate:"required,max=150,username"`
	Email        string    `json:"email" gorm:"size:254" validate:"required,email,max=254"`
	PasswordHash []byte    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session binds a browser cookie token to a user until it expires.
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey;size:36"`
	UserID    int       `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
