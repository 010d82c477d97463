package patient

import (
	"context"
	"errors"
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

// Create registers a patient. Uniqueness of patient number, ID card, and
// phone is checked up front for field-level messages; the storage layer's
// unique indexes close the remaining race.
func (s *Service) Create(ctx context.Context, p *Patient, createdBy string) error {
	if strings.TrimSpace(p.PatientNo) == "" {
		return apperr.Validationf("patient number is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validationf("name is required")
	}

	if _, err := s.repo.GetByPatientNo(ctx, p.PatientNo); err == nil {
		return apperr.Conflictf("patient number already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if _, err := s.repo.GetByIDCard(ctx, p.IDCard); err == nil {
		return apperr.Conflictf("ID card already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing, err := s.repo.FindByPhone(ctx, p.Phone); err != nil {
		return err
	} else if len(existing) > 0 {
		return apperr.Conflictf("phone number already registered")
	}

	if err := ValidateIDCardBirthDate(p.IDCard, p.BirthDate.Time); err != nil {
		return err
	}

	p.Age = CalculateAge(p.BirthDate.Time, s.now())
	p.Status = StatusActive
	p.CreatedBy = createdBy
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}
	if p.BloodType == "" {
		p.BloodType = "unknown"
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	s.logger.Info().Str("patient_no", p.PatientNo).Str("patient_id", p.ID.String()).Msg("patient created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByIDCard(ctx context.Context, idCard string) (*Patient, error) {
	return s.repo.GetByIDCard(ctx, idCard)
}

func (s *Service) FindByPhone(ctx context.Context, phone string) ([]*Patient, error) {
	return s.repo.FindByPhone(ctx, phone)
}

func (s *Service) FindByName(ctx context.Context, name string) ([]*Patient, error) {
	return s.repo.FindByName(ctx, name)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Update applies the given state. Changed ID card or phone re-check
// uniqueness; a changed birth date is re-validated against the ID card and
// the age recomputed; moving to deceased requires a death date.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	if p.IDCard != existing.IDCard {
		if _, err := s.repo.GetByIDCard(ctx, p.IDCard); err == nil {
			return apperr.Conflictf("ID card already registered")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}
	if p.Phone != existing.Phone {
		if others, err := s.repo.FindByPhone(ctx, p.Phone); err != nil {
			return err
		} else if len(others) > 0 {
			return apperr.Conflictf("phone number already registered")
		}
	}

	if p.IDCard != existing.IDCard || !p.BirthDate.Equal(existing.BirthDate.Time) {
		if err := ValidateIDCardBirthDate(p.IDCard, p.BirthDate.Time); err != nil {
			return err
		}
	}
	if !p.BirthDate.Equal(existing.BirthDate.Time) {
		p.Age = CalculateAge(p.BirthDate.Time, s.now())
	}

	var deathDate *time.Time
	if p.DeathDate != nil && !p.DeathDate.IsZero() {
		deathDate = &p.DeathDate.Time
	}
	if err := validateStatus(p.Status, deathDate); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient updated")
	return nil
}

// Delete soft-deletes the patient; the row survives for the audit trail
// but drops out of every query.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	if err := s.repo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}
	s.logger.Info().Str("patient_id", id.String()).Str("deleted_by", deletedBy).Msg("patient deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
