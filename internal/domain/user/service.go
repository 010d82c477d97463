package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a new account on behalf of an administrator. The plain
// password is hashed before it reaches the repository.
func (s *Service) Create(ctx context.Context, u *User, password string) error {
	if strings.TrimSpace(u.Username) == "" {
		return apperr.Validationf("username is required")
	}
	if strings.TrimSpace(u.RealName) == "" {
		return apperr.Validationf("real name is required")
	}
	if reasons := auth.ValidatePasswordStrength(password); len(reasons) > 0 {
		return apperr.Validationf("%s", strings.Join(reasons, "; "))
	}

	if _, err := s.repo.GetByUsername(ctx, u.Username); err == nil {
		return apperr.Conflictf("username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if u.Email != nil && *u.Email != "" {
		if _, err := s.repo.GetByEmail(ctx, *u.Email); err == nil {
			return apperr.Conflictf("email already exists")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	u.Status = StatusActive

	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}

	s.logger.Info().Str("username", u.Username).Str("user_id", u.ID.String()).Msg("user created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Update modifies profile fields. Changing the email re-checks uniqueness
// so the caller gets a field-level message instead of a bare conflict.
func (s *Service) Update(ctx context.Context, u *User) error {
	existing, err := s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}

	if u.Email != nil && *u.Email != "" && (existing.Email == nil || *u.Email != *existing.Email) {
		if _, err := s.repo.GetByEmail(ctx, *u.Email); err == nil {
			return apperr.Conflictf("email already exists")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}

	return s.repo.Update(ctx, u)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

// ResetPassword sets a fresh random password and returns it so an
// administrator can hand it to the user out of band.
func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	password, err := auth.GenerateRandomPassword(12)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return "", err
	}

	s.logger.Info().Str("user_id", id.String()).Msg("password reset")
	return password, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !ValidStatus(status) {
		return apperr.Validationf("unknown status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Str("status", status).Msg("user status updated")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
