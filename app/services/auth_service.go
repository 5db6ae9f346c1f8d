package services

import (
	"errors"
	"fmt"

	"personalblog/app/models"
	"personalblog/app/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// registration is validated before an account is created.
type registration struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthService registers accounts and manages login sessions.
type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	options
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, opts ...Option) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		options:     newOptions(opts),
	}
}

// Register creates an account. The password is stored as a bcrypt hash.
func (s *AuthService) Register(username, email, password string) (*models.User, error) {
	if err := models.ValidateStruct(&registration{Username: username, Email: email, Password: password}); err != nil {
		return nil, newValidationError(err)
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock(),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)
	s.events.RecordEvent(EventUserRegistered)
	return user, nil
}

// Login checks the credentials and opens a new session.
func (s *AuthService) Login(username, password string) (*models.Session, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.Warn("failed login", "username", username)
		return nil, ErrInvalidLogin
	}

	now := s.clock()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionLifetime),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.events.RecordEvent(EventLogin)
	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *AuthService) Logout(token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(token); err != nil {
		return err
	}
	s.events.RecordEvent(EventLogout)
	return nil
}

// Resolve maps a session token to the identity it belongs to. Missing,
// expired and dangling sessions all resolve to models.Anonymous.
func (s *AuthService) Resolve(token string) (models.Identity, error) {
	if token == "" {
		return models.Anonymous, nil
	}

	session, err := s.sessionRepo.Get(token)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Anonymous, nil
	} else if err != nil {
		return models.Anonymous, err
	}

	if session.Expired(s.clock()) {
		return models.Anonymous, s.sessionRepo.Delete(token)
	}

	user, err := s.userRepo.GetByID(session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Anonymous, nil
	} else if err != nil {
		return models.Anonymous, err
	}
	return models.IdentityOf(user), nil
}

// PurgeExpired drops sessions that have run out.
func (s *AuthService) PurgeExpired() (int, error) {
	return s.sessionRepo.DeleteExpired(s.clock())
}
