package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const UserEventsTopic = "user_events"

type AuthService struct {
	Repo   UserStore
	Tokens *tokens.Issuer
	Events events.Publisher
}

// UserSession is what a client keeps after logging in.
type UserSession struct {
	Token     string    `json:"token"`
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *AuthService) issue(u *models.User) (*UserSession, error) {
	role := tokens.RoleUser
	if u.IsAdmin {
		role = tokens.RoleAdmin
	}
	tok, exp, err := s.Tokens.Issue(u.ID.String(), role)
	if err != nil {
		return nil, err
	}
	return &UserSession{Token: tok, ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, ExpiresAt: exp}, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*UserSession, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	u := &models.User{Name: strings.TrimSpace(name), Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	if err := s.Events.Publish(ctx, UserEventsTopic, u.ID.String(), map[string]any{
		"type":   "user_registered",
		"userID": u.ID,
		"email":  u.Email,
	}); err != nil {
		l.Warn("publish_error", "error", err)
	}

	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*UserSession, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login failed", "reason", "wrong password", "user_id", u.ID.String())
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// UpdateProfile changes name and email, and the password when one is given,
// then issues a fresh token.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email, password string) (*UserSession, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: name and email required", ErrValidation)
	}

	u, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}

	u.Name = strings.TrimSpace(name)
	u.Email = email
	if password != "" {
		if u.PasswordHash, err = hash.HashPassword(password); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		case errors.Is(err, repo.ErrNotFound):
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return s.issue(u)
}
