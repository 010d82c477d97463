package patient

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

const patientColumns = `id, patient_no, name, gender, birth_date, age, id_card, phone,
	email, address, occupation, department, blood_type,
	allergies, medical_history, family_history,
	emergency_contact_name, emergency_contact_relation, emergency_contact_phone,
	status, death_date, created_by, deleted_at, deleted_by, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientNo, &p.Name, &p.Gender, &p.BirthDate, &p.Age, &p.IDCard, &p.Phone,
		&p.Email, &p.Address, &p.Occupation, &p.Department, &p.BloodType,
		&p.Allergies, &p.MedicalHistory, &p.FamilyHistory,
		&p.EmergencyContactName, &p.EmergencyContactRelation, &p.EmergencyContactPhone,
		&p.Status, &p.DeathDate, &p.CreatedBy, &p.DeletedAt, &p.DeletedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("patient not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (
			id, patient_no, name, gender, birth_date, age, id_card, phone,
			email, address, occupation, department, blood_type,
			allergies, medical_history, family_history,
			emergency_contact_name, emergency_contact_relation, emergency_contact_phone,
			status, death_date, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20, $21, $22
		)`,
		p.ID, p.PatientNo, p.Name, p.Gender, p.BirthDate, p.Age, p.IDCard, p.Phone,
		p.Email, p.Address, p.Occupation, p.Department, p.BloodType,
		p.Allergies, p.MedicalHistory, p.FamilyHistory,
		p.EmergencyContactName, p.EmergencyContactRelation, p.EmergencyContactPhone,
		p.Status, p.DeathDate, p.CreatedBy,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("patient number, ID card, or phone already registered")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) GetByPatientNo(ctx context.Context, patientNo string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE patient_no = $1 AND deleted_at IS NULL`, patientNo))
}

func (r *repoPG) GetByIDCard(ctx context.Context, idCard string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE id_card = $1 AND deleted_at IS NULL`, idCard))
}

func (r *repoPG) FindByPhone(ctx context.Context, phone string) ([]*Patient, error) {
	return r.queryMany(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE phone = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, phone)
}

func (r *repoPG) FindByName(ctx context.Context, name string) ([]*Patient, error) {
	return r.queryMany(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE name = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, name)
}

func (r *repoPG) queryMany(ctx context.Context, query string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET
			name = $2, gender = $3, birth_date = $4, age = $5, id_card = $6, phone = $7,
			email = $8, address = $9, occupation = $10, department = $11, blood_type = $12,
			allergies = $13, medical_history = $14, family_history = $15,
			emergency_contact_name = $16, emergency_contact_relation = $17, emergency_contact_phone = $18,
			status = $19, death_date = $20, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Gender, p.BirthDate, p.Age, p.IDCard, p.Phone,
		p.Email, p.Address, p.Occupation, p.Department, p.BloodType,
		p.Allergies, p.MedicalHistory, p.FamilyHistory,
		p.EmergencyContactName, p.EmergencyContactRelation, p.EmergencyContactPhone,
		p.Status, p.DeathDate,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("ID card or phone already registered")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("patient not found")
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE patient SET deleted_at = NOW(), deleted_by = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("patient not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE deleted_at IS NULL`
	args := []interface{}{}
	n := 0

	add := func(clause string, value interface{}) {
		n++
		where += fmt.Sprintf(" AND "+clause, n)
		args = append(args, value)
	}

	if filter.Name != "" {
		add(`name ILIKE '%%' || $%d || '%%'`, filter.Name)
	}
	if filter.Phone != "" {
		add(`phone ILIKE '%%' || $%d || '%%'`, filter.Phone)
	}
	if filter.IDCard != "" {
		add(`id_card ILIKE '%%' || $%d || '%%'`, filter.IDCard)
	}
	if filter.Status != "" {
		add(`status = $%d`, filter.Status)
	}
	if filter.Gender != "" {
		add(`gender = $%d`, filter.Gender)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+patientColumns+` FROM patient %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive'),
			COUNT(*) FILTER (WHERE status = 'deceased'),
			COUNT(*) FILTER (WHERE gender = 'male'),
			COUNT(*) FILTER (WHERE gender = 'female')
		FROM patient
		WHERE deleted_at IS NULL`).
		Scan(&s.Total, &s.Active, &s.Inactive, &s.Deceased, &s.Male, &s.Female)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	s.UnknownGender = s.Total - s.Male - s.Female
	return &s, nil
}
