package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/decortz/sill-backend/pkg/db/models"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Service exposes read access to the maintenance ledger. Writes happen inside
// the tire lifecycle transactions and go through the Repository directly.
type Service interface {
	ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.ServiceRecord, string, error)
	ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.ServiceRecord, string, error)
	ListByClient(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.ServiceRecord, string, error)
}

type service struct {
	repo Repository
}

// NewService wires the maintenance service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.ServiceRecord, string, error) {
	tireID = strings.TrimSpace(tireID)
	if tireID == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "tire id is required")
	}
	rows, err := s.repo.ListByTireID(ctx, tireID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing service records")
	}
	return paginate(rows, params)
}

func (s *service) ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.ServiceRecord, string, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	rows, err := s.repo.ListByPlate(ctx, plate, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing service records")
	}
	return paginate(rows, params)
}

func (s *service) ListByClient(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.ServiceRecord, string, error) {
	rows, err := s.repo.ListByClient(ctx, scopeNITs, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing service records")
	}
	return paginate(rows, params)
}

func paginate(rows []models.ServiceRecord, params pagination.Params) ([]models.ServiceRecord, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
