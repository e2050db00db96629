package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/google/uuid"
)

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	User  user.Public `json:"user"`
	Token string      `json:"token"`
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	prom   *observability.Prom
	log    *slog.Logger
	now    func() time.Time

	// compared against when the email is unknown so both paths cost one hash check
	decoyHash string
}

func NewAuthService(users UserStore, tokens TokenIssuer, hasher PasswordHasher, prom *observability.Prom, log *slog.Logger) *AuthService {
	decoy, _ := hasher.Hash(uuid.NewString())

	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		prom:      prom,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		decoyHash: decoy,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (AuthResult, error) {
	email := user.NormalizeEmail(req.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.prom.AuthResult("register", "conflict")
		return AuthResult{}, user.ErrEmailTaken
	case !errors.Is(err, user.ErrNotFound):
		return AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()

	// the unique index still decides a race between two registrations
	u, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         user.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.prom.AuthResult("register", "conflict")
		}
		return AuthResult{}, err
	}

	token, _, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.prom.AuthResult("register", "ok")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	return AuthResult{User: u.Public(), Token: token}, nil
}

// Login rejects deactivated accounts before the password is compared.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = s.hasher.Check(s.decoyHash, req.Password)
			s.prom.AuthResult("login", "invalid_credentials")
			return AuthResult{}, user.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}

	if !u.IsActive {
		_ = s.hasher.Check(s.decoyHash, req.Password)
		s.prom.AuthResult("login", "deactivated")
		return AuthResult{}, user.ErrAccountDeactivated
	}

	if err := s.hasher.Check(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			s.prom.AuthResult("login", "invalid_credentials")
			return AuthResult{}, user.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("check password: %w", err)
	}

	at := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, at); err != nil {
		return AuthResult{}, fmt.Errorf("touch last login: %w", err)
	}

	token, _, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.prom.AuthResult("login", "ok")

	return AuthResult{User: u.Public(), Token: token}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req user.ProfileRequest) (user.User, error) {
	if req.Email != nil {
		existing, err := s.users.GetByEmail(ctx, *req.Email)
		switch {
		case err == nil && existing.ID != userID:
			return user.User{}, user.ErrEmailTaken
		case err != nil && !errors.Is(err, user.ErrNotFound):
			return user.User{}, fmt.Errorf("lookup email: %w", err)
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}

	return s.users.UpdateProfile(ctx, userID, req.Update())
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req user.ChangePasswordRequest) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Check(u.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			s.prom.AuthResult("change_password", "invalid_credentials")
			return user.ErrInvalidCredentials
		}
		return fmt.Errorf("check password: %w", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.prom.AuthResult("change_password", "ok")
	s.log.InfoContext(ctx, "password changed", "user_id", userID)

	return nil
}
