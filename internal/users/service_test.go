package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
	"github.com/decortz/sill-backend/pkg/security"
)

type fakeRepository struct {
	byID       map[uuid.UUID]*models.User
	byUsername map[string]*models.User
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byID:       map[uuid.UUID]*models.User{},
		byUsername: map[string]*models.User{},
	}
}

func (f *fakeRepository) put(user *models.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byID[user.ID] = user
	f.byUsername[user.Username] = user
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, user *models.User) error {
	f.put(user)
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeRepository) UsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var usernames []string
	for name := range f.byUsername {
		if strings.HasPrefix(name, prefix) {
			usernames = append(usernames, name)
		}
	}
	return usernames, nil
}

func (f *fakeRepository) List(ctx context.Context, params pagination.Params) ([]models.User, error) {
	return nil, nil
}

func (f *fakeRepository) Save(ctx context.Context, user *models.User) error {
	f.put(user)
	return nil
}

func (f *fakeRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type fakeClientRepo struct {
	clients.Repository
	known map[string]bool
}

func (f *fakeClientRepo) GetByNIT(ctx context.Context, nit string) (*models.Client, error) {
	if f.known[nit] {
		return &models.Client{NIT: nit, Name: "Acme"}, nil
	}
	return nil, nil
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeClientRepo{known: map[string]bool{"9001234567": true}}, testPasswordConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestService_CreateAdmin(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username:    " Admin.One ",
		Password:    "correct-horse",
		FullName:    "Admin One",
		AccessLevel: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if user.Username != "admin.one" {
		t.Fatalf("expected lowercased username, got %q", user.Username)
	}
	if user.AccessLevel != enums.AccessLevelAdmin {
		t.Fatalf("expected admin level, got %d", user.AccessLevel)
	}
	if len(user.AssignedClientNITs) != 0 {
		t.Fatalf("admins should carry no assignments, got %v", user.AssignedClientNITs)
	}
	if !user.Active {
		t.Fatal("new users should be active")
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("password should be argon2id hashed, got %q", user.PasswordHash)
	}

	ok, err := security.VerifyPassword("correct-horse", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash should verify: %v %v", ok, err)
	}
}

func TestService_CreateScopedNeedsClients(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username:    "operator1",
		Password:    "correct-horse",
		FullName:    "Operator One",
		AccessLevel: 3,
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateUserInput{
		Username:           "operator1",
		Password:           "correct-horse",
		FullName:           "Operator One",
		AccessLevel:        3,
		AssignedClientNITs: []string{"0000000000"},
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username:           "operator1",
		Password:           "correct-horse",
		FullName:           "Operator One",
		AccessLevel:        3,
		AssignedClientNITs: []string{"9001234567", "9001234567"},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(user.AssignedClientNITs) != 1 || user.AssignedClientNITs[0] != "9001234567" {
		t.Fatalf("expected deduped assignment, got %v", user.AssignedClientNITs)
	}
}

func TestService_CreateGeneratesUsername(t *testing.T) {
	repo := newFakeRepository()
	repo.put(&models.User{Username: "mar001", FullName: "Marcos Díaz", AccessLevel: enums.AccessLevelOperator})
	svc := newTestService(t, repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Password:    "correct-horse",
		FullName:    "María Pérez",
		AccessLevel: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if user.Username != "mar002" {
		t.Fatalf("generated username = %q, want mar002", user.Username)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	tests := []struct {
		name  string
		input CreateUserInput
	}{
		{name: "bad username", input: CreateUserInput{Username: "x", Password: "correct-horse", FullName: "X", AccessLevel: 1}},
		{name: "short password", input: CreateUserInput{Username: "admin1", Password: "short", FullName: "X", AccessLevel: 1}},
		{name: "missing name", input: CreateUserInput{Username: "admin1", Password: "correct-horse", FullName: " ", AccessLevel: 1}},
		{name: "bad level", input: CreateUserInput{Username: "admin1", Password: "correct-horse", FullName: "X", AccessLevel: 9}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestService_CreateDuplicateUsername(t *testing.T) {
	repo := newFakeRepository()
	repo.put(&models.User{Username: "admin1", FullName: "Existing", AccessLevel: enums.AccessLevelAdmin})
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username:    "admin1",
		Password:    "correct-horse",
		FullName:    "Admin",
		AccessLevel: 1,
	})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestService_ResetPassword(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username:    "admin1",
		Password:    "correct-horse",
		FullName:    "Admin",
		AccessLevel: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	oldHash := user.PasswordHash

	temp, err := svc.ResetPassword(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}
	if len(temp) != tempPasswordLength {
		t.Fatalf("expected %d char temp password, got %d", tempPasswordLength, len(temp))
	}
	if repo.byID[user.ID].PasswordHash == oldHash {
		t.Fatal("password hash should have changed")
	}

	ok, err := security.VerifyPassword(temp, repo.byID[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password should verify: %v %v", ok, err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username:    "admin1",
		Password:    "correct-horse",
		FullName:    "Admin",
		AccessLevel: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	err = svc.ChangePassword(context.Background(), user.ID, "wrong-password", "new-password-1")
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	if err := svc.ChangePassword(context.Background(), user.ID, "correct-horse", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	ok, err := security.VerifyPassword("new-password-1", repo.byID[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password should verify: %v %v", ok, err)
	}
}

func TestService_Deactivate(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username:    "admin1",
		Password:    "correct-horse",
		FullName:    "Admin",
		AccessLevel: 1,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := svc.Deactivate(context.Background(), user.ID); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
	if repo.byID[user.ID].Active {
		t.Fatal("user should be inactive")
	}
}

func TestService_GetNotFound(t *testing.T) {
	svc := newTestService(t, newFakeRepository())
	_, err := svc.Get(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}
