package models

import (
	"errors"
	"sort"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// SetDefaults fills in the creation timestamp when it is missing
func (p *Post) SetDefaults() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

// Publish stamps the post as published at the given instant. Publishing an
// already published post refreshes the timestamp.
func (p *Post) Publish(at time.Time) {
	at = at.UTC()
	p.PublishedAt = &at
}

// IsDraft reports whether the post has never been published.
func (p *Post) IsDraft() bool {
	return p.PublishedAt == nil
}

// IsPublished reports whether the post is visible as published at now.
// A publish timestamp in the future does not count.
func (p *Post) IsPublished(now time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// SortByPublished orders posts most recently published first. Equal
// timestamps fall back to the higher ID first so listings stay deterministic.
func SortByPublished(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case a == nil && b == nil:
			return posts[i].ID > posts[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return posts[i].ID > posts[j].ID
	})
}

// SortByCreated orders posts newest first, ties broken by higher ID.
func SortByCreated(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
