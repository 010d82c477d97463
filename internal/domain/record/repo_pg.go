package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const recordColumns = `id, record_no, patient_id, doctor_id, type, department, visit_date,
	chief_complaint, present_illness, past_history, physical_exam, auxiliary_exam,
	diagnosis, treatment, prescription, medical_advice, follow_up_date,
	status, template_id, notes, deleted_at, deleted_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.RecordNo, &rec.PatientID, &rec.DoctorID, &rec.Type, &rec.Department, &rec.VisitDate,
		&rec.ChiefComplaint, &rec.PresentIllness, &rec.PastHistory, &rec.PhysicalExam, &rec.AuxiliaryExam,
		&rec.Diagnosis, &rec.Treatment, &rec.Prescription, &rec.MedicalAdvice, &rec.FollowUpDate,
		&rec.Status, &rec.TemplateID, &rec.Notes, &rec.DeletedAt, &rec.DeletedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("medical record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan medical record: %w", err)
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_record (
			id, record_no, patient_id, doctor_id, type, department, visit_date,
			chief_complaint, present_illness, past_history, physical_exam, auxiliary_exam,
			diagnosis, treatment, prescription, medical_advice, follow_up_date,
			status, template_id, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20
		)`,
		rec.ID, rec.RecordNo, rec.PatientID, rec.DoctorID, rec.Type, rec.Department, rec.VisitDate,
		rec.ChiefComplaint, rec.PresentIllness, rec.PastHistory, rec.PhysicalExam, rec.AuxiliaryExam,
		rec.Diagnosis, rec.Treatment, rec.Prescription, rec.MedicalAdvice, rec.FollowUpDate,
		rec.Status, rec.TemplateID, rec.Notes,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("record number already exists")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM medical_record WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) GetByRecordNo(ctx context.Context, recordNo string) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM medical_record WHERE record_no = $1 AND deleted_at IS NULL`, recordNo))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_record SET
			type = $2, department = $3, visit_date = $4,
			chief_complaint = $5, present_illness = $6, past_history = $7,
			physical_exam = $8, auxiliary_exam = $9,
			diagnosis = $10, treatment = $11, prescription = $12, medical_advice = $13,
			follow_up_date = $14, status = $15, template_id = $16, notes = $17,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		rec.ID, rec.Type, rec.Department, rec.VisitDate,
		rec.ChiefComplaint, rec.PresentIllness, rec.PastHistory,
		rec.PhysicalExam, rec.AuxiliaryExam,
		rec.Diagnosis, rec.Treatment, rec.Prescription, rec.MedicalAdvice,
		rec.FollowUpDate, rec.Status, rec.TemplateID, rec.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("medical record not found")
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE medical_record SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("medical record not found")
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE medical_record SET deleted_at = NOW(), deleted_by = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("medical record not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	where := `WHERE deleted_at IS NULL`
	args := []interface{}{}
	n := 0

	add := func(clause string, value interface{}) {
		n++
		where += fmt.Sprintf(" AND "+clause, n)
		args = append(args, value)
	}

	if filter.PatientID != "" {
		add(`patient_id = $%d`, filter.PatientID)
	}
	if filter.DoctorID != "" {
		add(`doctor_id = $%d`, filter.DoctorID)
	}
	if filter.Type != "" {
		add(`type = $%d`, filter.Type)
	}
	if filter.Department != "" {
		add(`department ILIKE '%%' || $%d || '%%'`, filter.Department)
	}
	if filter.StartDate != nil {
		add(`visit_date >= $%d`, *filter.StartDate)
	}
	if filter.EndDate != nil {
		add(`visit_date <= $%d`, *filter.EndDate)
	}
	if filter.Status != "" {
		add(`status = $%d`, filter.Status)
	}
	if filter.Keyword != "" {
		n++
		where += fmt.Sprintf(` AND (chief_complaint ILIKE '%%' || $%d || '%%'
			OR array_to_string(diagnosis, ' ') ILIKE '%%' || $%d || '%%'
			OR treatment ILIKE '%%' || $%d || '%%'
			OR medical_advice ILIKE '%%' || $%d || '%%')`, n, n, n, n)
		args = append(args, filter.Keyword)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medical_record `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+recordColumns+` FROM medical_record %s ORDER BY visit_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID string) (*Stats, error) {
	where := `WHERE deleted_at IS NULL`
	args := []interface{}{}
	if doctorID != "" {
		where += ` AND doctor_id = $1`
		args = append(args, doctorID)
	}

	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE type = 'outpatient'),
			COUNT(*) FILTER (WHERE type = 'inpatient'),
			COUNT(*) FILTER (WHERE type = 'emergency'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'archived')
		FROM medical_record `+where, args...).
		Scan(&s.Total, &s.Outpatient, &s.Inpatient, &s.Emergency, &s.Draft, &s.Completed, &s.Archived)
	if err != nil {
		return nil, fmt.Errorf("medical record stats: %w", err)
	}
	return &s, nil
}
