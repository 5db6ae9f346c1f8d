package models

import "time"

// Identity is the resolved requester of an operation. The zero value is the
// anonymous marker.
type Identity struct {
	UserID   int
	Username string
}

// Anonymous is the identity of a requester without a valid session.
var Anonymous = Identity{}

// IdentityOf returns the identity of a registered user.
func IdentityOf(u *User) Identity {
	if u == nil {
		return Anonymous
	}
	return Identity{UserID: u.ID, Username: u.Username}
}

// IsAuthenticated reports whether the identity belongs to a registered user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID > 0
}

// Owns reports whether the identity authored the post.
func (i Identity) Owns(p *Post) bool {
	return i.IsAuthenticated() && p != nil && p.AuthorID == i.UserID
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
