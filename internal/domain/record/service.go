package record

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func hasDiagnosis(diagnosis []string) bool {
	for _, d := range diagnosis {
		if strings.TrimSpace(d) != "" {
			return true
		}
	}
	return false
}

// Create files a new record. The acting user becomes the attending
// doctor; a record completed on arrival must already carry a diagnosis.
func (s *Service) Create(ctx context.Context, rec *Record, doctorID string) error {
	if strings.TrimSpace(rec.RecordNo) == "" {
		return apperr.Validationf("record number is required")
	}
	if strings.TrimSpace(rec.PatientID) == "" {
		return apperr.Validationf("patient is required")
	}
	if !ValidType(rec.Type) {
		return apperr.Validationf("invalid record type: %s", rec.Type)
	}

	if _, err := s.repo.GetByRecordNo(ctx, rec.RecordNo); err == nil {
		return apperr.Conflictf("record number already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if rec.Status == "" {
		rec.Status = StatusDraft
	}
	if !ValidStatus(rec.Status) {
		return apperr.Validationf("invalid record status: %s", rec.Status)
	}
	if rec.Status == StatusCompleted && !hasDiagnosis(rec.Diagnosis) {
		return apperr.Validationf("a completed record must include a diagnosis")
	}

	rec.DoctorID = doctorID

	if err := s.repo.Create(ctx, rec); err != nil {
		return err
	}

	s.logger.Info().
		Str("record_no", rec.RecordNo).
		Str("record_id", rec.ID.String()).
		Str("patient_id", rec.PatientID).
		Msg("medical record created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByRecordNo(ctx context.Context, recordNo string) (*Record, error) {
	return s.repo.GetByRecordNo(ctx, recordNo)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, ListFilter{PatientID: patientID}, limit, offset)
}

func (s *Service) ByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, ListFilter{DoctorID: doctorID}, limit, offset)
}

// Update applies the given state. Moving to completed requires a
// diagnosis; the record number and attending doctor are immutable.
func (s *Service) Update(ctx context.Context, rec *Record) error {
	existing, err := s.repo.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}

	if !ValidType(rec.Type) {
		return apperr.Validationf("invalid record type: %s", rec.Type)
	}
	if !ValidStatus(rec.Status) {
		return apperr.Validationf("invalid record status: %s", rec.Status)
	}
	if rec.Status == StatusCompleted && !hasDiagnosis(rec.Diagnosis) {
		return apperr.Validationf("a completed record must include a diagnosis")
	}

	rec.RecordNo = existing.RecordNo
	rec.PatientID = existing.PatientID
	rec.DoctorID = existing.DoctorID

	if err := s.repo.Update(ctx, rec); err != nil {
		return err
	}

	s.logger.Info().Str("record_id", rec.ID.String()).Msg("medical record updated")
	return nil
}

// UpdateStatus moves the record through its lifecycle. Completing
// requires a diagnosis on the stored record.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Record, error) {
	if !ValidStatus(status) {
		return nil, apperr.Validationf("invalid record status: %s", status)
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == StatusCompleted && !hasDiagnosis(rec.Diagnosis) {
		return nil, apperr.Validationf("a completed record must include a diagnosis")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rec.Status = status

	s.logger.Info().Str("record_id", id.String()).Str("status", status).Msg("medical record status changed")
	return rec, nil
}

// Delete soft-deletes the record. Completed records must be archived
// instead of deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == StatusCompleted {
		return apperr.Validationf("completed records cannot be deleted, archive instead")
	}

	if err := s.repo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}

	s.logger.Info().Str("record_id", id.String()).Str("deleted_by", deletedBy).Msg("medical record deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context, doctorID string) (*Stats, error) {
	return s.repo.Stats(ctx, doctorID)
}
