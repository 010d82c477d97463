package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/domain/user"
	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
)

type Service struct {
	users  user.Repository
	tokens *auth.TokenService
	logger zerolog.Logger
}

func NewService(users user.Repository, tokens *auth.TokenService, logger zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// RegisterInput carries the self-registration payload.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RealName string `json:"realName"`
	Phone    string `json:"phone"`
}

// Register creates an account with no roles assigned. Role assignment is an
// administrator action.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, apperr.Validationf("username is required")
	}
	if strings.TrimSpace(in.RealName) == "" {
		return nil, apperr.Validationf("real name is required")
	}
	if reasons := auth.ValidatePasswordStrength(in.Password); len(reasons) > 0 {
		return nil, apperr.Validationf("%s", strings.Join(reasons, "; "))
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperr.Conflictf("username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if in.Phone != "" {
		if _, err := s.users.GetByPhone(ctx, in.Phone); err == nil {
			return nil, apperr.Conflictf("phone number already registered")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Username: in.Username,
		Password: hash,
		RealName: in.RealName,
		RoleIDs:  []string{},
		Status:   user.StatusActive,
	}
	if in.Phone != "" {
		u.Phone = &in.Phone
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", u.Username).Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string     `json:"token"`
	User      *user.User `json:"user"`
	ExpiresIn string     `json:"expiresIn"`
}

// Login authenticates a username/password pair. Unknown users, wrong
// passwords, and disabled accounts all produce the same error so callers
// cannot probe for valid usernames.
func (s *Service) Login(ctx context.Context, username, password, ip, expiresIn string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if u.Status != user.StatusActive {
		return nil, invalidCredentials()
	}

	if !auth.VerifyPassword(password, u.Password) {
		return nil, invalidCredentials()
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID, ip); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}

	token, err := s.tokens.Issue(claimsFor(u))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", u.Username).Str("remote_ip", ip).Msg("login")
	return &LoginResult{Token: token, User: u, ExpiresIn: expiresIn}, nil
}

// Refresh issues a fresh token for the already-authenticated identity.
func (s *Service) Refresh(ctx context.Context, identity *auth.Identity) (string, error) {
	id, err := uuid.Parse(identity.UserID)
	if err != nil {
		return "", apperr.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrUnauthorized
		}
		return "", err
	}
	if u.Status != user.StatusActive {
		return "", apperr.ErrUnauthorized
	}
	return s.tokens.Issue(claimsFor(u))
}

// Profile returns the full account for the authenticated identity.
func (s *Service) Profile(ctx context.Context, identity *auth.Identity) (*user.User, error) {
	id, err := uuid.Parse(identity.UserID)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return s.users.GetByID(ctx, id)
}

// ChangePassword verifies the old password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, identity *auth.Identity, oldPassword, newPassword string) error {
	id, err := uuid.Parse(identity.UserID)
	if err != nil {
		return apperr.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(oldPassword, u.Password) {
		return invalidCredentials()
	}
	if reasons := auth.ValidatePasswordStrength(newPassword); len(reasons) > 0 {
		return apperr.Validationf("%s", strings.Join(reasons, "; "))
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("password changed")
	return nil
}

func claimsFor(u *user.User) auth.Claims {
	claims := auth.Claims{
		Username: u.Username,
		RealName: u.RealName,
		RoleIDs:  u.RoleIDs,
	}
	claims.Subject = u.ID.String()
	return claims
}

func invalidCredentials() error {
	return apperr.ErrInvalidCredentials
}
