package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/domain/user"
	"github.com/emr/emr/internal/platform/apperr"
	"github.com/emr/emr/internal/platform/auth"
)

// memUserRepo is an in-memory user.Repository for auth service tests.
type memUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (m *memUserRepo) Create(ctx context.Context, u *user.User) error {
	u.ID = uuid.New()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memUserRepo) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *memUserRepo) Update(ctx context.Context, u *user.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFoundf("user not found")
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.Password = hash
	return nil
}

func (m *memUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.Status = status
	return nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) List(ctx context.Context, filter user.ListFilter, limit, offset int) ([]*user.User, int, error) {
	return nil, 0, nil
}

func (m *memUserRepo) Stats(ctx context.Context) (*user.Stats, error) {
	return &user.Stats{}, nil
}

func newTestService() (*Service, *memUserRepo, *auth.TokenService) {
	repo := newMemUserRepo()
	tokens := auth.NewTokenService("auth-service-test-secret", "1h")
	return NewService(repo, tokens, zerolog.Nop()), repo, tokens
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen",
		Password: "Str0ng!pass",
		RealName: "Chen Wei",
		Phone:    "13800138000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.users[u.ID]
	if stored.Password == "Str0ng!pass" {
		t.Error("expected password to be hashed")
	}
	if stored.Status != user.StatusActive {
		t.Errorf("expected active status, got %s", stored.Status)
	}
	if len(stored.RoleIDs) != 0 {
		t.Errorf("expected no roles on self-registration, got %v", stored.RoleIDs)
	}
}

func TestRegister_DuplicateUsernameAndPhone(t *testing.T) {
	svc, _, _ := newTestService()

	in := RegisterInput{Username: "dr.chen", Password: "Str0ng!pass", RealName: "Chen Wei", Phone: "13800138000"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for duplicate username, got %v", err)
	}

	in.Username = "dr.li"
	_, err = svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for duplicate phone, got %v", err)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen",
		Password: "weak",
		RealName: "Chen Wei",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, tokens := newTestService()

	if _, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen", Password: "Str0ng!pass", RealName: "Chen Wei",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Login(context.Background(), "dr.chen", "Str0ng!pass", "10.0.0.1", "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("expected issued token to verify: %v", err)
	}
	if claims.Username != "dr.chen" || claims.RealName != "Chen Wei" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Subject != result.User.ID.String() {
		t.Errorf("expected subject to be the user id")
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, repo, _ := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen", Password: "Str0ng!pass", RealName: "Chen Wei",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Unknown user
	_, errUnknown := svc.Login(context.Background(), "nobody", "Str0ng!pass", "", "1h")
	// Wrong password
	_, errWrongPw := svc.Login(context.Background(), "dr.chen", "Wr0ng!pass", "", "1h")
	// Disabled account
	repo.users[u.ID].Status = user.StatusLocked
	_, errLocked := svc.Login(context.Background(), "dr.chen", "Str0ng!pass", "", "1h")

	for name, err := range map[string]error{
		"unknown user":   errUnknown,
		"wrong password": errWrongPw,
		"locked account": errLocked,
	} {
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			t.Errorf("%s: expected invalid credentials, got %v", name, err)
		}
	}
	if errUnknown.Error() != errWrongPw.Error() || errWrongPw.Error() != errLocked.Error() {
		t.Error("expected identical error text for all login failures")
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen", Password: "Str0ng!pass", RealName: "Chen Wei",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	identity := &auth.Identity{UserID: u.ID.String(), Username: u.Username}

	// Wrong old password
	err = svc.ChangePassword(context.Background(), identity, "Wr0ng!pass", "N3w!password")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}

	// Weak new password
	err = svc.ChangePassword(context.Background(), identity, "Str0ng!pass", "weak")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	// Success
	if err := svc.ChangePassword(context.Background(), identity, "Str0ng!pass", "N3w!password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !auth.VerifyPassword("N3w!password", repo.users[u.ID].Password) {
		t.Error("expected new password to verify")
	}
	if _, err := svc.Login(context.Background(), "dr.chen", "Str0ng!pass", "", "1h"); err == nil {
		t.Error("expected old password to stop working")
	}
}

func TestRefresh(t *testing.T) {
	svc, repo, tokens := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "dr.chen", Password: "Str0ng!pass", RealName: "Chen Wei",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	identity := &auth.Identity{UserID: u.ID.String()}

	token, err := svc.Refresh(context.Background(), identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tokens.Verify(token); err != nil {
		t.Errorf("expected refreshed token to verify: %v", err)
	}

	// Disabled accounts cannot refresh
	repo.users[u.ID].Status = user.StatusInactive
	if _, err := svc.Refresh(context.Background(), identity); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for inactive account, got %v", err)
	}
}
