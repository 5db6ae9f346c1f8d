package services

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Lifecycle events reported to an EventRecorder.
const (
	EventPostCreated     = "post_created"
	EventPostPublished   = "post_published"
	EventPostUpdated     = "post_updated"
	EventPostDeleted     = "post_deleted"
	EventCommentCreated  = "comment_created"
	EventCommentApproved = "comment_approved"
	EventCommentRemoved  = "comment_removed"
	EventUserRegistered  = "user_registered"
	EventLogin           = "login"
	EventLogout          = "logout"
)

// EventRecorder counts lifecycle transitions, typically into metrics.
type EventRecorder interface {
	RecordEvent(event string)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string) {}

type options struct {
	now             func() time.Time
	logger          *slog.Logger
	events          EventRecorder
	sessionLifetime time.Duration
	bcryptCost      int
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the structured logger used by the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEventRecorder reports lifecycle transitions to r.
func WithEventRecorder(r EventRecorder) Option {
	return func(o *options) { o.events = r }
}

// WithSessionLifetime sets how long a login session stays valid.
func WithSessionLifetime(d time.Duration) Option {
	return func(o *options) { o.sessionLifetime = d }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

func newOptions(opts []Option) options {
	o := options{
		now:             time.Now,
		logger:          slog.New(slog.DiscardHandler),
		events:          nopRecorder{},
		sessionLifetime: 14 * 24 * time.Hour,
		bcryptCost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time {
	return o.now().UTC()
}
