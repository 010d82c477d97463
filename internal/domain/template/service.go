package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create registers a template. The code must be unique and the
// structure/fields blobs must pass the minimal shape check.
func (s *Service) Create(ctx context.Context, t *Template, createdBy string) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validationf("template name is required")
	}
	if strings.TrimSpace(t.Code) == "" {
		return apperr.Validationf("template code is required")
	}
	if !ValidType(t.Type) {
		return apperr.Validationf("invalid template type: %s", t.Type)
	}

	if _, err := s.repo.GetByCode(ctx, t.Code); err == nil {
		return apperr.Conflictf("template code already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if err := ValidateStructure(t.Structure, t.Fields); err != nil {
		return err
	}

	if t.Version == "" {
		t.Version = DefaultVersion
	}
	t.IsEnabled = true
	t.UsageCount = 0
	t.CreatedBy = createdBy

	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}

	s.logger.Info().Str("template_code", t.Code).Str("template_id", t.ID.String()).Msg("template created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Template, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Template, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Update applies the given state. A changed code re-checks uniqueness;
// the structure rules are re-validated against the incoming blobs.
func (s *Service) Update(ctx context.Context, t *Template, modifiedBy string) error {
	existing, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}

	if !ValidType(t.Type) {
		return apperr.Validationf("invalid template type: %s", t.Type)
	}
	if t.Code != existing.Code {
		if _, err := s.repo.GetByCode(ctx, t.Code); err == nil {
			return apperr.Conflictf("template code already exists")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}

	if err := ValidateStructure(t.Structure, t.Fields); err != nil {
		return err
	}

	t.IsSystem = existing.IsSystem
	t.CreatedBy = existing.CreatedBy
	t.UsageCount = existing.UsageCount
	t.LastModifiedBy = &modifiedBy

	if err := s.repo.Update(ctx, t); err != nil {
		return err
	}

	s.logger.Info().Str("template_id", t.ID.String()).Msg("template updated")
	return nil
}

// UpdateStatus enables or disables the template.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, enabled bool, modifiedBy string) error {
	if err := s.repo.UpdateStatus(ctx, id, enabled, modifiedBy); err != nil {
		return err
	}
	s.logger.Info().Str("template_id", id.String()).Bool("enabled", enabled).Msg("template status changed")
	return nil
}

// Duplicate clones a template under a timestamped code. The copy is
// always a custom template at version 1.0.0 with a fresh usage count.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, createdBy string) (*Template, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.Code = fmt.Sprintf("%s_copy_%d", src.Code, s.now().UnixMilli())
	dup.Name = src.Name + " (copy)"
	dup.Type = TypeCustom
	dup.Version = DefaultVersion
	dup.IsSystem = false
	dup.IsEnabled = true
	dup.UsageCount = 0
	dup.CreatedBy = createdBy
	dup.LastModifiedBy = nil

	if err := s.repo.Create(ctx, &dup); err != nil {
		return nil, err
	}

	s.logger.Info().Str("source_id", id.String()).Str("template_id", dup.ID.String()).Msg("template duplicated")
	return &dup, nil
}

// IncrementUsage bumps the usage counter, called when a record is
// created from the template.
func (s *Service) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementUsage(ctx, id)
}

// Delete removes the template permanently. System templates are
// protected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.IsSystem {
		return apperr.Validationf("system templates cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("template_id", id.String()).Msg("template deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
