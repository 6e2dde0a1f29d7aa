package vehicles

import (
	"context"
	"fmt"
	"strings"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/idgen"
	"github.com/decortz/sill-backend/pkg/db"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Service exposes vehicle management operations.
type Service interface {
	Create(ctx context.Context, input CreateVehicleInput) (*models.Vehicle, error)
	Get(ctx context.Context, plate string) (*models.Vehicle, error)
	List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Vehicle, string, error)
	Update(ctx context.Context, plate string, input UpdateVehicleInput) (*models.Vehicle, error)
	Delete(ctx context.Context, plate string) error
}

// CreateVehicleInput captures the data needed to register a vehicle.
type CreateVehicleInput struct {
	Code           string
	ClientNIT      string
	Brand          string
	Line           string
	Typology       enums.VehicleTypology
	Plate          string
	Front          string
	InitialMileage int64
	MileageMethod  enums.MileageMethod
}

// UpdateVehicleInput carries the mutable vehicle fields.
type UpdateVehicleInput struct {
	Brand          *string
	Line           *string
	Typology       *enums.VehicleTypology
	Front          *string
	Status         *enums.VehicleStatus
	InitialMileage *int64
	MileageMethod  *enums.MileageMethod
}

type service struct {
	repo    Repository
	clients clients.Repository
}

// NewService wires the vehicle service with its repositories.
func NewService(repo Repository, clientRepo clients.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	if clientRepo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	return &service{repo: repo, clients: clientRepo}, nil
}

// NormalizePlate folds a plate to its canonical uppercase form.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	plate = strings.ReplaceAll(plate, " ", "")
	return strings.ReplaceAll(plate, "-", "")
}

func (s *service) Create(ctx context.Context, input CreateVehicleInput) (*models.Vehicle, error) {
	plate := NormalizePlate(input.Plate)
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	code := strings.TrimSpace(input.Code)
	brand := strings.TrimSpace(input.Brand)
	if brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle brand is required")
	}
	if !input.Typology.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle typology").
			WithDetails(map[string]any{"typology": string(input.Typology)})
	}
	mileageMethod := input.MileageMethod
	if mileageMethod == "" {
		mileageMethod = enums.MileageMethodOdometer
	}
	if !mileageMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown mileage method").
			WithDetails(map[string]any{"mileage_method": string(input.MileageMethod)})
	}
	if input.InitialMileage < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial mileage cannot be negative")
	}

	client, err := s.clients.GetByNIT(ctx, strings.TrimSpace(input.ClientNIT))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}

	existing, err := s.repo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vehicle with this plate already exists")
	}

	if code == "" {
		code, err = s.generateCode(ctx, client.Name, input.Front, plate)
		if err != nil {
			return nil, err
		}
	} else {
		sameCode, err := s.repo.GetByClientCode(ctx, client.NIT, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle code")
		}
		if sameCode != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "the client already has a vehicle with this code")
		}
	}

	vehicle := &models.Vehicle{
		Code:           code,
		ClientNIT:      client.NIT,
		Brand:          brand,
		Line:           strings.TrimSpace(input.Line),
		Typology:       input.Typology,
		Plate:          plate,
		Front:          strings.TrimSpace(input.Front),
		Status:         enums.VehicleStatusUnassigned,
		InitialMileage: input.InitialMileage,
		MileageMethod:  mileageMethod,
	}
	generated := strings.TrimSpace(input.Code) == ""
	for attempt := 0; ; attempt++ {
		err := s.repo.Create(ctx, vehicle)
		if err == nil {
			return vehicle, nil
		}
		if db.IsUniqueViolation(err, "ux_vehicles_plate") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vehicle with this plate already exists")
		}
		if db.IsUniqueViolation(err, "ux_vehicles_client_code") {
			// a concurrent create may have taken a generated code;
			// re-derive from a fresh scan and try again
			if generated && attempt < idgen.MaxAllocationRetries {
				vehicle.Code, err = s.generateCode(ctx, client.Name, input.Front, plate)
				if err != nil {
					return nil, err
				}
				continue
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "the client already has a vehicle with this code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating vehicle")
	}
}

// generateCode derives a vehicle code when the caller supplies none: client
// and front prefix, a running consecutive per prefix, and the plate as the
// readable suffix.
func (s *service) generateCode(ctx context.Context, clientName, front, plate string) (string, error) {
	prefix, err := idgen.ServiceCodePrefix(clientName, front)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "deriving vehicle code prefix")
	}
	codes, err := s.repo.CodesWithPrefix(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing vehicle codes")
	}
	next := idgen.NextConsecutive(idgen.MaxEntitySuffix(prefix, codes))
	return idgen.FormatEntityCode(prefix, next, plate), nil
}

func (s *service) Get(ctx context.Context, plate string) (*models.Vehicle, error) {
	vehicle, err := s.repo.GetByPlate(ctx, NormalizePlate(plate))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
	}
	if vehicle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	return vehicle, nil
}

func (s *service) List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Vehicle, string, error) {
	rows, err := s.repo.List(ctx, scopeNITs, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing vehicles")
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

func (s *service) Update(ctx context.Context, plate string, input UpdateVehicleInput) (*models.Vehicle, error) {
	vehicle, err := s.Get(ctx, plate)
	if err != nil {
		return nil, err
	}

	if input.Brand != nil {
		brand := strings.TrimSpace(*input.Brand)
		if brand == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle brand cannot be empty")
		}
		vehicle.Brand = brand
	}
	if input.Line != nil {
		vehicle.Line = strings.TrimSpace(*input.Line)
	}
	if input.Typology != nil {
		if !input.Typology.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle typology")
		}
		vehicle.Typology = *input.Typology
	}
	if input.Front != nil {
		vehicle.Front = strings.TrimSpace(*input.Front)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle status")
		}
		vehicle.Status = *input.Status
	}
	if input.InitialMileage != nil {
		if *input.InitialMileage < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial mileage cannot be negative")
		}
		vehicle.InitialMileage = *input.InitialMileage
	}
	if input.MileageMethod != nil {
		if !input.MileageMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown mileage method")
		}
		vehicle.MileageMethod = *input.MileageMethod
	}

	if err := s.repo.Save(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating vehicle")
	}
	return vehicle, nil
}

func (s *service) Delete(ctx context.Context, plate string) error {
	vehicle, err := s.Get(ctx, plate)
	if err != nil {
		return err
	}

	mounted, err := s.repo.CountMountedTires(ctx, vehicle.Plate)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting mounted tires")
	}
	if mounted > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle still has mounted tires").
			WithDetails(map[string]any{"mounted_tires": mounted})
	}

	if err := s.repo.Delete(ctx, vehicle.Plate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting vehicle")
	}
	return nil
}
