package clients

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/decortz/sill-backend/pkg/db"
	"github.com/decortz/sill-backend/pkg/db/models"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

var nitPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Service exposes client management operations.
type Service interface {
	Create(ctx context.Context, input CreateClientInput) (*models.Client, error)
	Get(ctx context.Context, nit string) (*models.Client, error)
	List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Client, string, error)
	Update(ctx context.Context, nit string, input UpdateClientInput) (*models.Client, error)
	Delete(ctx context.Context, nit string) error
}

// CreateClientInput captures the data needed to register a client.
type CreateClientInput struct {
	NIT    string
	Name   string
	Fronts []string
}

// UpdateClientInput carries the mutable client fields.
type UpdateClientInput struct {
	Name   *string
	Fronts []string
}

type service struct {
	repo Repository
}

// NewService wires the client service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	nit := strings.TrimSpace(input.NIT)
	if !nitPattern.MatchString(nit) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nit must be exactly 10 digits").
			WithDetails(map[string]any{"nit": input.NIT})
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}

	existing, err := s.repo.GetByNIT(ctx, nit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a client with this nit already exists")
	}

	client := &models.Client{
		NIT:    nit,
		Name:   name,
		Fronts: normalizeFronts(input.Fronts),
	}
	if err := s.repo.Create(ctx, client); err != nil {
		if db.IsUniqueViolation(err, "ux_clients_nit") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a client with this nit already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating client")
	}
	return client, nil
}

func (s *service) Get(ctx context.Context, nit string) (*models.Client, error) {
	client, err := s.repo.GetByNIT(ctx, strings.TrimSpace(nit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	return client, nil
}

func (s *service) List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Client, string, error) {
	rows, err := s.repo.List(ctx, scopeNITs, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing clients")
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

func (s *service) Update(ctx context.Context, nit string, input UpdateClientInput) (*models.Client, error) {
	client, err := s.Get(ctx, nit)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name cannot be empty")
		}
		client.Name = name
	}
	if input.Fronts != nil {
		client.Fronts = normalizeFronts(input.Fronts)
	}

	if err := s.repo.Save(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating client")
	}
	return client, nil
}

func (s *service) Delete(ctx context.Context, nit string) error {
	client, err := s.Get(ctx, nit)
	if err != nil {
		return err
	}

	busy, err := s.repo.HasDependents(ctx, client.NIT)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking client dependents")
	}
	if busy {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "client still has vehicles or tires")
	}

	if err := s.repo.Delete(ctx, client.NIT); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting client")
	}
	return nil
}

func normalizeFronts(fronts []string) []string {
	seen := make(map[string]struct{}, len(fronts))
	out := make([]string, 0, len(fronts))
	for _, front := range fronts {
		front = strings.TrimSpace(front)
		if front == "" {
			continue
		}
		if _, dup := seen[front]; dup {
			continue
		}
		seen[front] = struct{}{}
		out = append(out, front)
	}
	return out
}
