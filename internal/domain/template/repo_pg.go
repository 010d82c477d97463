package template

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

const templateColumns = `id, name, code, description, type, department_ids,
	config, structure, fields, validation_rules, version,
	is_system, is_enabled, usage_count, tags,
	created_by, last_modified_by, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Code, &t.Description, &t.Type, &t.DepartmentIDs,
		&t.Config, &t.Structure, &t.Fields, &t.ValidationRules, &t.Version,
		&t.IsSystem, &t.IsEnabled, &t.UsageCount, &t.Tags,
		&t.CreatedBy, &t.LastModifiedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO form_template (
			id, name, code, description, type, department_ids,
			config, structure, fields, validation_rules, version,
			is_system, is_enabled, usage_count, tags, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		t.ID, t.Name, t.Code, t.Description, t.Type, t.DepartmentIDs,
		t.Config, t.Structure, t.Fields, t.ValidationRules, t.Version,
		t.IsSystem, t.IsEnabled, t.UsageCount, t.Tags, t.CreatedBy,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("template code already exists")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	return scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM form_template WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Template, error) {
	return scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM form_template WHERE code = $1`, code))
}

func (r *repoPG) Update(ctx context.Context, t *Template) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE form_template SET
			name = $2, code = $3, description = $4, type = $5, department_ids = $6,
			config = $7, structure = $8, fields = $9, validation_rules = $10, version = $11,
			is_enabled = $12, tags = $13, last_modified_by = $14, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Code, t.Description, t.Type, t.DepartmentIDs,
		t.Config, t.Structure, t.Fields, t.ValidationRules, t.Version,
		t.IsEnabled, t.Tags, t.LastModifiedBy,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("template code already exists")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("template not found")
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, enabled bool, modifiedBy string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE form_template SET is_enabled = $2, last_modified_by = $3, updated_at = NOW() WHERE id = $1`,
		id, enabled, modifiedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("template not found")
	}
	return nil
}

func (r *repoPG) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE form_template SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("template not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM form_template WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("template not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Template, int, error) {
	where := `WHERE TRUE`
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
	if filter.Code != "" {
		add(`code ILIKE '%%' || $%d || '%%'`, filter.Code)
	}
	if filter.Type != "" {
		add(`type = $%d`, filter.Type)
	}
	if filter.IsEnabled != nil {
		add(`is_enabled = $%d`, *filter.IsEnabled)
	}
	if filter.IsSystem != nil {
		add(`is_system = $%d`, *filter.IsSystem)
	}
	if filter.Tag != "" {
		add(`$%d = ANY(tags)`, filter.Tag)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM form_template `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+templateColumns+` FROM form_template %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, t)
	}
	return templates, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{ByType: make(map[string]int)}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_system),
			COUNT(*) FILTER (WHERE NOT is_system),
			COUNT(*) FILTER (WHERE is_enabled),
			COUNT(*) FILTER (WHERE NOT is_enabled)
		FROM form_template`).
		Scan(&s.Total, &s.System, &s.Custom, &s.Enabled, &s.Disabled)
	if err != nil {
		return nil, fmt.Errorf("template stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT type, COUNT(*) FROM form_template GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("template stats by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("scan template type count: %w", err)
		}
		s.ByType[typ] = count
	}
	return s, rows.Err()
}
