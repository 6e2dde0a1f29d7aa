package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/idgen"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
	"github.com/decortz/sill-backend/pkg/security"
)

const (
	minPasswordLength  = 8
	tempPasswordLength = 12
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,40}$`)

// Service exposes user administration and self-service profile operations.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, string, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID) (string, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string) (*models.User, error)
}

// CreateUserInput captures the data needed to provision a user.
type CreateUserInput struct {
	Username           string
	Password           string
	FullName           string
	AccessLevel        int
	AssignedClientNITs []string
}

// UpdateUserInput carries the fields an admin may change on a user.
type UpdateUserInput struct {
	FullName           *string
	AccessLevel        *int
	AssignedClientNITs []string
	Active             *bool
}

type service struct {
	repo        Repository
	clients     clients.Repository
	passwordCfg config.PasswordConfig
}

// NewService wires the user service with its dependencies.
func NewService(repo Repository, clientRepo clients.Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if clientRepo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	return &service{repo: repo, clients: clientRepo, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	generated := username == ""
	if generated {
		derived, err := s.generateUsername(ctx, fullName)
		if err != nil {
			return nil, err
		}
		username = derived
	} else if !usernamePattern.MatchString(username) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must be 3-40 lowercase letters, digits, dots, dashes or underscores")
	}
	level, err := enums.ParseAccessLevel(input.AccessLevel)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown access level").
			WithDetails(map[string]any{"access_level": input.AccessLevel})
	}
	nits, err := s.normalizeAssignments(ctx, level, input.AssignedClientNITs)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up user")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this username already exists")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Username:           username,
		PasswordHash:       hash,
		FullName:           fullName,
		AccessLevel:        level,
		AssignedClientNITs: nits,
		Active:             true,
	}
	for attempt := 0; ; attempt++ {
		err := s.repo.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if db.IsUniqueViolation(err, "ux_users_username") {
			// a concurrent create may have taken a generated username;
			// re-derive from a fresh scan and try again
			if generated && attempt < idgen.MaxAllocationRetries {
				user.Username, err = s.generateUsername(ctx, fullName)
				if err != nil {
					return nil, err
				}
				continue
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this username already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
	}
}

// generateUsername derives a login from the first name token plus the next
// free consecutive, e.g. "María Pérez" -> mar001.
func (s *service) generateUsername(ctx context.Context, fullName string) (string, error) {
	prefix, err := idgen.UserCodePrefix(fullName)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "full name must contain letters to derive a username")
	}
	prefix = strings.ToLower(prefix)
	taken, err := s.repo.UsernamesWithPrefix(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scanning usernames")
	}
	next := idgen.NextConsecutive(idgen.MaxNumericSuffix(prefix, taken))
	return idgen.FormatUserCode(prefix, next), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.User, string, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing users")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		user.FullName = fullName
	}
	if input.AccessLevel != nil {
		level, err := enums.ParseAccessLevel(*input.AccessLevel)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown access level")
		}
		user.AccessLevel = level
	}
	if input.AssignedClientNITs != nil {
		nits, err := s.normalizeAssignments(ctx, user.AccessLevel, input.AssignedClientNITs)
		if err != nil {
			return nil, err
		}
		user.AssignedClientNITs = nits
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating user")
	}
	return user, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	active := false
	_, err := s.Update(ctx, id, UpdateUserInput{Active: &active})
	return err
}

// ResetPassword issues a one-time temporary password and returns it in clear
// text exactly once.
func (s *service) ResetPassword(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	temp, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating temporary password")
	}
	hash, err := security.HashPassword(temp, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user.PasswordHash = hash
	if err := s.repo.Save(ctx, user); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving user")
	}
	return temp, nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	user.PasswordHash = hash
	if err := s.repo.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving user")
	}
	return nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string) (*models.User, error) {
	return s.Update(ctx, id, UpdateUserInput{FullName: &fullName})
}

// normalizeAssignments validates every assigned NIT against the client
// registry. Admins see everything, so their assignment list stays empty.
func (s *service) normalizeAssignments(ctx context.Context, level enums.AccessLevel, nits []string) ([]string, error) {
	if !level.ScopedToClients() {
		return []string{}, nil
	}

	seen := make(map[string]struct{}, len(nits))
	out := make([]string, 0, len(nits))
	for _, nit := range nits {
		nit = strings.TrimSpace(nit)
		if nit == "" {
			continue
		}
		if _, dup := seen[nit]; dup {
			continue
		}
		client, err := s.clients.GetByNIT(ctx, nit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
		}
		if client == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned client does not exist").
				WithDetails(map[string]any{"nit": nit})
		}
		seen[nit] = struct{}{}
		out = append(out, nit)
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scoped users need at least one assigned client")
	}
	return out, nil
}
