package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/pkg/jsontime"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	records map[uuid.UUID]*Record
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *memRepo) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	if rec, ok := m.records[id]; ok && rec.DeletedAt == nil {
		cp := *rec
		return &cp, nil
	}
	return nil, apperr.NotFoundf("medical record not found")
}

func (m *memRepo) GetByRecordNo(ctx context.Context, recordNo string) (*Record, error) {
	for _, rec := range m.records {
		if rec.RecordNo == recordNo && rec.DeletedAt == nil {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("medical record not found")
}

func (m *memRepo) Update(ctx context.Context, rec *Record) error {
	if stored, ok := m.records[rec.ID]; !ok || stored.DeletedAt != nil {
		return apperr.NotFoundf("medical record not found")
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	rec, ok := m.records[id]
	if !ok || rec.DeletedAt != nil {
		return apperr.NotFoundf("medical record not found")
	}
	rec.Status = status
	return nil
}

func (m *memRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	rec, ok := m.records[id]
	if !ok || rec.DeletedAt != nil {
		return apperr.NotFoundf("medical record not found")
	}
	now := time.Now()
	rec.DeletedAt = &now
	rec.DeletedBy = &deletedBy
	return nil
}

func (m *memRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	var out []*Record
	for _, rec := range m.records {
		if rec.DeletedAt != nil {
			continue
		}
		if filter.PatientID != "" && rec.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && rec.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memRepo) Stats(ctx context.Context, doctorID string) (*Stats, error) {
	s := &Stats{}
	for _, rec := range m.records {
		if rec.DeletedAt != nil {
			continue
		}
		if doctorID != "" && rec.DoctorID != doctorID {
			continue
		}
		s.Total++
		switch rec.Type {
		case TypeOutpatient:
			s.Outpatient++
		case TypeInpatient:
			s.Inpatient++
		case TypeEmergency:
			s.Emergency++
		}
		switch rec.Status {
		case StatusDraft:
			s.Draft++
		case StatusCompleted:
			s.Completed++
		case StatusArchived:
			s.Archived++
		}
	}
	return s, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func validRecord() *Record {
	return &Record{
		RecordNo:       "MR20240001",
		PatientID:      "patient-1",
		Type:           TypeOutpatient,
		Department:     "internal medicine",
		VisitDate:      jsontime.New(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
		ChiefComplaint: "persistent cough for two weeks",
	}
}

func TestCreate_DefaultsToDraftAndSetsDoctor(t *testing.T) {
	svc, repo := newTestService()

	rec := validRecord()
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.records[rec.ID]
	if stored.Status != StatusDraft {
		t.Errorf("expected draft status, got %s", stored.Status)
	}
	if stored.DoctorID != "doctor-1" {
		t.Errorf("expected doctorId doctor-1, got %s", stored.DoctorID)
	}
}

func TestCreate_DuplicateRecordNo(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.Create(context.Background(), validRecord(), "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Create(context.Background(), validRecord(), "doctor-2")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_CompletedRequiresDiagnosis(t *testing.T) {
	svc, _ := newTestService()

	rec := validRecord()
	rec.Status = StatusCompleted
	err := svc.Create(context.Background(), rec, "doctor-1")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	rec = validRecord()
	rec.Status = StatusCompleted
	rec.Diagnosis = []string{"acute bronchitis"}
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCreate_InvalidType(t *testing.T) {
	svc, _ := newTestService()

	rec := validRecord()
	rec.Type = "telepathy"
	err := svc.Create(context.Background(), rec, "doctor-1")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_PreservesImmutableFields(t *testing.T) {
	svc, repo := newTestService()

	rec := validRecord()
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.RecordNo = "MR99999999"
	rec.DoctorID = "doctor-2"
	rec.PatientID = "patient-2"
	treatment := "rest and fluids"
	rec.Treatment = &treatment
	if err := svc.Update(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.records[rec.ID]
	if stored.RecordNo != "MR20240001" || stored.DoctorID != "doctor-1" || stored.PatientID != "patient-1" {
		t.Errorf("immutable fields changed: %+v", stored)
	}
	if stored.Treatment == nil || *stored.Treatment != "rest and fluids" {
		t.Error("expected treatment to be updated")
	}
}

func TestUpdate_CompletedRequiresDiagnosis(t *testing.T) {
	svc, _ := newTestService()

	rec := validRecord()
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.Status = StatusCompleted
	rec.Diagnosis = []string{"  "}
	err := svc.Update(context.Background(), rec)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for blank diagnosis, got %v", err)
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	svc, _ := newTestService()

	rec := validRecord()
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Completing without a stored diagnosis fails.
	if _, err := svc.UpdateStatus(context.Background(), rec.ID, StatusCompleted); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	rec.Diagnosis = []string{"acute bronchitis"}
	if err := svc.Update(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), rec.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), rec.ID, "locked"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestDelete_CompletedRecordsAreProtected(t *testing.T) {
	svc, repo := newTestService()

	rec := validRecord()
	rec.Diagnosis = []string{"acute bronchitis"}
	rec.Status = StatusCompleted
	if err := svc.Create(context.Background(), rec, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Delete(context.Background(), rec.ID, "admin-1")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Archive first, then deletion goes through.
	if _, err := svc.UpdateStatus(context.Background(), rec.ID, StatusArchived); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), rec.ID, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.records[rec.ID]
	if stored.DeletedAt == nil || stored.DeletedBy == nil || *stored.DeletedBy != "admin-1" {
		t.Error("expected deletion metadata on the retained row")
	}
	if _, err := svc.Get(context.Background(), rec.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected deleted record to be hidden, got %v", err)
	}
}

func TestStats_ScopedToDoctor(t *testing.T) {
	svc, _ := newTestService()

	a := validRecord()
	if err := svc.Create(context.Background(), a, "doctor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := validRecord()
	b.RecordNo = "MR20240002"
	b.Type = TypeEmergency
	if err := svc.Create(context.Background(), b, "doctor-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := svc.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Total != 2 || all.Outpatient != 1 || all.Emergency != 1 || all.Draft != 2 {
		t.Errorf("unexpected stats: %+v", all)
	}

	mine, err := svc.Stats(context.Background(), "doctor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mine.Total != 1 || mine.Outpatient != 1 {
		t.Errorf("unexpected doctor-scoped stats: %+v", mine)
	}
}
