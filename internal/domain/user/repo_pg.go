package user

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

const userColumns = `id, username, password, real_name, email, phone, avatar,
	department_id, role_ids, status, last_login_at, last_login_ip,
	is_super_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.RealName, &u.Email, &u.Phone, &u.Avatar,
		&u.DepartmentID, &u.RoleIDs, &u.Status, &u.LastLoginAt, &u.LastLoginIP,
		&u.IsSuperAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	if u.RoleIDs == nil {
		u.RoleIDs = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_user (
			id, username, password, real_name, email, phone, avatar,
			department_id, role_ids, status, is_super_admin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Username, u.Password, u.RealName, u.Email, u.Phone, u.Avatar,
		u.DepartmentID, u.RoleIDs, u.Status, u.IsSuperAdmin,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("username, email, or phone already in use")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE username = $1`, username))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE email = $1`, email))
}

func (r *repoPG) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE phone = $1`, phone))
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET
			real_name = $2, email = $3, phone = $4, avatar = $5,
			department_id = $6, role_ids = $7, is_super_admin = $8,
			updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.RealName, u.Email, u.Phone, u.Avatar,
		u.DepartmentID, u.RoleIDs, u.IsSuperAdmin,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflictf("email or phone already in use")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

func (r *repoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE app_user SET password = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE app_user SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

func (r *repoPG) UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE app_user SET last_login_at = NOW(), last_login_ip = $2 WHERE id = $1`, id, ip)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*User, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	n := 0

	add := func(clause string, value interface{}) {
		n++
		where += fmt.Sprintf(" AND "+clause, n)
		args = append(args, value)
	}

	if filter.Username != "" {
		add(`username ILIKE '%%' || $%d || '%%'`, filter.Username)
	}
	if filter.RealName != "" {
		add(`real_name ILIKE '%%' || $%d || '%%'`, filter.RealName)
	}
	if filter.Phone != "" {
		add(`phone ILIKE '%%' || $%d || '%%'`, filter.Phone)
	}
	if filter.Status != "" {
		add(`status = $%d`, filter.Status)
	}
	if filter.DepartmentID != "" {
		add(`department_id = $%d`, filter.DepartmentID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM app_user `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+userColumns+` FROM app_user %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive'),
			COUNT(*) FILTER (WHERE status = 'locked')
		FROM app_user`).Scan(&s.Total, &s.Active, &s.Inactive, &s.Locked)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &s, nil
}
