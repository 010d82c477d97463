package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	users map[uuid.UUID]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[uuid.UUID]*User)}
}

func (m *memRepo) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memRepo) Update(ctx context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFoundf("user not found")
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.Password = hash
	return nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.Status = status
	return nil
}

func (m *memRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return apperr.NotFoundf("user not found")
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memRepo) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	for _, u := range m.users {
		s.Total++
		switch u.Status {
		case StatusActive:
			s.Active++
		case StatusInactive:
			s.Inactive++
		case StatusLocked:
			s.Locked++
		}
	}
	return s, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestCreate_HashesPasswordAndActivates(t *testing.T) {
	svc, repo := newTestService()

	u := &User{Username: "dr.chen", RealName: "Chen Wei"}
	if err := svc.Create(context.Background(), u, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.users[u.ID]
	if stored.Password == "Str0ng!pass" || stored.Password == "" {
		t.Error("expected stored password to be hashed")
	}
	if !auth.VerifyPassword("Str0ng!pass", stored.Password) {
		t.Error("expected stored hash to verify against original password")
	}
	if stored.Status != StatusActive {
		t.Errorf("expected new user active, got %s", stored.Status)
	}
}

func TestCreate_RejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()

	first := &User{Username: "dr.chen", RealName: "Chen Wei"}
	if err := svc.Create(context.Background(), first, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := &User{Username: "dr.chen", RealName: "Another Chen"}
	err := svc.Create(context.Background(), dup, "Str0ng!pass")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_RejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	email := "chen@hospital.test"
	first := &User{Username: "dr.chen", RealName: "Chen Wei", Email: &email}
	if err := svc.Create(context.Background(), first, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := &User{Username: "dr.li", RealName: "Li Na", Email: &email}
	err := svc.Create(context.Background(), dup, "Str0ng!pass")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_RejectsWeakPassword(t *testing.T) {
	svc, _ := newTestService()

	u := &User{Username: "dr.chen", RealName: "Chen Wei"}
	err := svc.Create(context.Background(), u, "weak")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_ChecksEmailUniqueness(t *testing.T) {
	svc, _ := newTestService()

	emailA := "a@hospital.test"
	emailB := "b@hospital.test"
	ua := &User{Username: "a", RealName: "A", Email: &emailA}
	ub := &User{Username: "b", RealName: "B", Email: &emailB}
	if err := svc.Create(context.Background(), ua, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Create(context.Background(), ub, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ub.Email = &emailA
	err := svc.Update(context.Background(), ub)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestResetPassword_StoresNewHash(t *testing.T) {
	svc, repo := newTestService()

	u := &User{Username: "dr.chen", RealName: "Chen Wei"}
	if err := svc.Create(context.Background(), u, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oldHash := repo.users[u.ID].Password

	password, err := svc.ResetPassword(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(password) != 12 {
		t.Errorf("expected 12-char generated password, got %d chars", len(password))
	}
	newHash := repo.users[u.ID].Password
	if newHash == oldHash {
		t.Error("expected password hash to change")
	}
	if !auth.VerifyPassword(password, newHash) {
		t.Error("expected returned password to verify against stored hash")
	}
}

func TestResetPassword_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ResetPassword(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, repo := newTestService()

	u := &User{Username: "dr.chen", RealName: "Chen Wei"}
	if err := svc.Create(context.Background(), u, "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), u.ID, StatusLocked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.users[u.ID].Status != StatusLocked {
		t.Errorf("expected locked, got %s", repo.users[u.ID].Status)
	}

	err := svc.UpdateStatus(context.Background(), u.ID, "banned")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService()

	for _, name := range []string{"a", "b", "c"} {
		u := &User{Username: name, RealName: name}
		if err := svc.Create(context.Background(), u, "Str0ng!pass"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name == "c" {
			if err := svc.UpdateStatus(context.Background(), u.ID, StatusLocked); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.Active != 2 || stats.Locked != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
