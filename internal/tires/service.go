package tires

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/costs"
	"github.com/decortz/sill-backend/internal/idgen"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates the tire lifecycle: registration, mounting, service
// history and retread approvals, with the ledgers written in the same
// transaction as every state change.
type Service interface {
	Register(ctx context.Context, input RegisterTireInput) (*models.Tire, error)
	Get(ctx context.Context, tireID string) (*models.Tire, error)
	List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Tire, string, error)
	MountedByPlate(ctx context.Context, plate string) (map[string]models.Tire, error)
	UpdatePrices(ctx context.Context, tireID string, input UpdatePricesInput) (*models.Tire, error)
	Delete(ctx context.Context, tireID string) error
	Mount(ctx context.Context, input MountInput) (*models.Tire, error)
	Dismount(ctx context.Context, input DismountInput) (*models.Tire, error)
	RegisterService(ctx context.Context, input RegisterServiceInput) (*models.ServiceRecord, error)
	Rotate(ctx context.Context, input RotateInput) error
	ApproveRetread(ctx context.Context, input ApproveRetreadInput) (*models.Tire, error)
}

// RegisterTireInput captures the data needed to register a casing.
type RegisterTireInput struct {
	TireID    string
	ClientNIT string
	Brand     string
	Reference string
	Dimension string
	Price     *decimal.Decimal
}

// UpdatePricesInput carries per-life price corrections.
type UpdatePricesInput struct {
	PriceLife1 *decimal.Decimal
	PriceLife2 *decimal.Decimal
	PriceLife3 *decimal.Decimal
	PriceLife4 *decimal.Decimal
}

// MountInput captures a tire-to-position mounting.
type MountInput struct {
	TireID     string
	Plate      string
	Position   string
	Mileage    int64
	OccurredAt time.Time
	RecordedBy string
	Notes      string
}

// DismountInput captures a tire leaving its vehicle position.
type DismountInput struct {
	TireID      string
	Plate       string
	Destination enums.TireAvailability
	Reason      string
	Mileage     int64
	OccurredAt  time.Time
	RecordedBy  string
	Notes       string
}

// RegisterServiceInput captures an in-service inspection.
type RegisterServiceInput struct {
	TireID         string
	Mileage        int64
	OccurredAt     time.Time
	Depths         [3]float64
	Alignment      bool
	Balancing      bool
	Repair         bool
	PunctureRepair bool
	Regrooving     bool
	Torque         bool
	Rotated        bool
	NewPosition    string
	RecordedBy     string
}

// RotationMove is one tire changing position inside a batch rotation.
type RotationMove struct {
	TireID       string
	FromPosition string
	ToPosition   string
}

// RotateInput captures an all-or-nothing position swap on one vehicle.
type RotateInput struct {
	Plate      string
	Mileage    int64
	OccurredAt time.Time
	RecordedBy string
	Moves      []RotationMove
}

// ApproveRetreadInput captures a plant-conditioned casing passing approval.
type ApproveRetreadInput struct {
	TireID     string
	Brand      string
	Reference  string
	Price      decimal.Decimal
	OccurredAt time.Time
	RecordedBy string
	Notes      string
}

type service struct {
	repo         Repository
	vehicles     vehicles.Repository
	clients      clients.Repository
	movements    movements.Repository
	maintenance  maintenance.Repository
	tx           txRunner
	maxLives     int
	defaultPrice decimal.Decimal
}

// NewService builds the tire lifecycle service with the required dependencies.
func NewService(
	repo Repository,
	vehicleRepo vehicles.Repository,
	clientRepo clients.Repository,
	movementRepo movements.Repository,
	maintenanceRepo maintenance.Repository,
	tx txRunner,
	cfg config.FleetConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tire repository required")
	}
	if vehicleRepo == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	if clientRepo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if movementRepo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if maintenanceRepo == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	defaultPrice, err := decimal.NewFromString(cfg.DefaultNewTirePrice)
	if err != nil {
		return nil, fmt.Errorf("parsing default tire price %q: %w", cfg.DefaultNewTirePrice, err)
	}
	return &service{
		repo:         repo,
		vehicles:     vehicleRepo,
		clients:      clientRepo,
		movements:    movementRepo,
		maintenance:  maintenanceRepo,
		tx:           tx,
		maxLives:     cfg.MaxTireLives,
		defaultPrice: defaultPrice,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterTireInput) (*models.Tire, error) {
	tireID := strings.ToUpper(strings.TrimSpace(input.TireID))
	brand := strings.TrimSpace(input.Brand)
	if brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tire brand is required")
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tire reference is required")
	}
	price := s.defaultPrice
	if input.Price != nil {
		if input.Price.Sign() <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tire price must be positive")
		}
		price = *input.Price
	}

	client, err := s.clients.GetByNIT(ctx, strings.TrimSpace(input.ClientNIT))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}

	generated := tireID == ""
	var prefix string
	var next int
	if generated {
		prefix, err = idgen.ServiceCodePrefix(client.Name, "")
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "deriving tire id prefix")
		}
		ids, err := s.repo.TireIDsWithPrefix(ctx, prefix)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tire ids")
		}
		next = idgen.NextConsecutive(idgen.MaxEntitySuffix(prefix, ids))
		tireID = idgen.FormatEntityCode(prefix, next, "")
	} else {
		existing, err := s.repo.GetByTireID(ctx, tireID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up tire")
		}
		if existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a tire with this id already exists")
		}
	}

	tire := &models.Tire{
		ClientNIT:    client.NIT,
		Brand:        brand,
		Reference:    reference,
		Dimension:    strings.TrimSpace(input.Dimension),
		CurrentLife:  1,
		Availability: enums.TireAvailabilityNew,
		RetreadState: enums.RetreadStateNone,
		PriceLife1:   price,
	}
	for attempt := 0; ; attempt++ {
		tire.TireID = tireID
		err := s.repo.Create(ctx, tire)
		if err == nil {
			return tire, nil
		}
		if db.IsUniqueViolation(err, "ux_tires_tire_id") {
			// a concurrent register may have taken a generated id;
			// advance the consecutive and try again
			if generated && attempt < idgen.MaxAllocationRetries {
				next = idgen.NextConsecutive(next)
				tireID = idgen.FormatEntityCode(prefix, next, "")
				continue
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a tire with this id already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating tire")
	}
}

func (s *service) Get(ctx context.Context, tireID string) (*models.Tire, error) {
	tire, err := s.repo.GetByTireID(ctx, strings.ToUpper(strings.TrimSpace(tireID)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up tire")
	}
	if tire == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return tire, nil
}

func (s *service) List(ctx context.Context, scopeNITs []string, params pagination.Params) ([]models.Tire, string, error) {
	rows, err := s.repo.List(ctx, scopeNITs, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tires")
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

// MountedByPlate returns the vehicle's mounted tires keyed by their
// normalized position.
func (s *service) MountedByPlate(ctx context.Context, plate string) (map[string]models.Tire, error) {
	plate = vehicles.NormalizePlate(plate)
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	rows, err := s.repo.FindMountedByPlate(ctx, plate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing mounted tires")
	}

	out := make(map[string]models.Tire, len(rows))
	for _, tire := range rows {
		if tire.CurrentPosition == nil {
			continue
		}
		out[NormalizePosition(*tire.CurrentPosition)] = tire
	}
	return out, nil
}

func (s *service) UpdatePrices(ctx context.Context, tireID string, input UpdatePricesInput) (*models.Tire, error) {
	updates := map[int]*decimal.Decimal{
		1: input.PriceLife1,
		2: input.PriceLife2,
		3: input.PriceLife3,
		4: input.PriceLife4,
	}
	for life, price := range updates {
		if price != nil && price.Sign() <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tire prices must be positive").
				WithDetails(map[string]any{"life": life})
		}
	}

	var tire *models.Tire
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		tire, err = s.getForUpdate(ctx, repo, tireID)
		if err != nil {
			return err
		}

		for life := 1; life <= 4; life++ {
			if updates[life] != nil {
				tire.SetPriceForLife(life, updates[life])
			}
		}

		if err := s.refreshCosts(ctx, s.maintenance.WithTx(tx), tire); err != nil {
			return err
		}
		if err := repo.Save(ctx, tire); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating tire prices")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tire, nil
}

func (s *service) Delete(ctx context.Context, tireID string) error {
	tire, err := s.Get(ctx, tireID)
	if err != nil {
		return err
	}
	if tire.Availability == enums.TireAvailabilityMounted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "tire is mounted and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, tire.TireID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting tire")
	}
	return nil
}

func (s *service) Mount(ctx context.Context, input MountInput) (*models.Tire, error) {
	position := NormalizePosition(input.Position)
	if position == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position is required")
	}
	if input.Mileage <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage must be positive")
	}
	recordedBy, err := requireRecorder(input.RecordedBy)
	if err != nil {
		return nil, err
	}
	occurredAt := occurredOrNow(input.OccurredAt)

	var tire *models.Tire
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vehicleRepo := s.vehicles.WithTx(tx)
		movementRepo := s.movements.WithTx(tx)
		maintenanceRepo := s.maintenance.WithTx(tx)

		var err error
		tire, err = s.getForUpdate(ctx, repo, input.TireID)
		if err != nil {
			return err
		}
		if !mountable(tire) {
			return pkgerrors.New(pkgerrors.CodeNoTireAvailable, "tire is not available for mounting").
				WithDetails(map[string]any{
					"availability":  string(tire.Availability),
					"retread_state": string(tire.RetreadState),
				})
		}

		vehicle, err := vehicleRepo.GetByPlate(ctx, vehicles.NormalizePlate(input.Plate))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
		}
		if vehicle == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		if vehicle.Status == enums.VehicleStatusOutOfService {
			return pkgerrors.New(pkgerrors.CodeNoVehicleAvailable, "vehicle is out of service")
		}
		if vehicle.ClientNIT != tire.ClientNIT {
			return pkgerrors.New(pkgerrors.CodeValidation, "tire and vehicle belong to different clients")
		}

		lastKnown, err := movementRepo.LastMileageByPlate(ctx, vehicle.Plate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading vehicle mileage")
		}
		if lastKnown < vehicle.InitialMileage {
			lastKnown = vehicle.InitialMileage
		}
		if input.Mileage < lastKnown {
			return pkgerrors.New(pkgerrors.CodeValidation, "mileage is below the vehicle's last known reading").
				WithDetails(map[string]any{"last_known_mileage": lastKnown})
		}

		occupying, err := repo.FindMountedAtPosition(ctx, vehicle.Plate, position)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking position")
		}
		if occupying != nil {
			return pkgerrors.New(pkgerrors.CodePositionOccupied, "position already has a mounted tire").
				WithDetails(map[string]any{"occupied_by": occupying.TireID, "position": position})
		}

		tire.Availability = enums.TireAvailabilityMounted
		tire.RetreadState = enums.RetreadStateNone
		tire.CurrentPlate = &vehicle.Plate
		tire.CurrentPosition = &position
		tire.KmAtLastMount = input.Mileage

		availability := enums.TireAvailabilityMounted
		if err := s.appendMovement(ctx, movementRepo, &models.Movement{
			TireID:          tire.TireID,
			OccurredAt:      occurredAt,
			Type:            enums.MovementTypeMount,
			Life:            tire.CurrentLife,
			Plate:           vehicle.Plate,
			Position:        position,
			Mileage:         input.Mileage,
			NewAvailability: &availability,
			RecordedBy:      recordedBy,
			Notes:           strings.TrimSpace(input.Notes),
		}); err != nil {
			return err
		}

		if err := s.appendServiceRecord(ctx, maintenanceRepo, tire, vehicle, &models.ServiceRecord{
			TireID:       tire.TireID,
			Plate:        vehicle.Plate,
			Position:     position,
			Life:         tire.CurrentLife,
			Type:         enums.ServiceTypeMount,
			Availability: enums.TireAvailabilityMounted,
			Mileage:      input.Mileage,
			RecordedBy:   recordedBy,
			OccurredAt:   occurredAt,
		}); err != nil {
			return err
		}

		if err := s.refreshCosts(ctx, maintenanceRepo, tire); err != nil {
			return err
		}
		if err := repo.Save(ctx, tire); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tire, nil
}

func (s *service) Dismount(ctx context.Context, input DismountInput) (*models.Tire, error) {
	switch input.Destination {
	case enums.TireAvailabilitySpare, enums.TireAvailabilityRetread, enums.TireAvailabilityEndOfLife:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dismount destination must be spare, retread or end_of_life")
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Destination == enums.TireAvailabilityEndOfLife && reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end of life requires a reason")
	}
	if input.Mileage <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage must be positive")
	}
	recordedBy, err := requireRecorder(input.RecordedBy)
	if err != nil {
		return nil, err
	}
	occurredAt := occurredOrNow(input.OccurredAt)
	plate := vehicles.NormalizePlate(input.Plate)

	var tire *models.Tire
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		movementRepo := s.movements.WithTx(tx)
		maintenanceRepo := s.maintenance.WithTx(tx)

		var err error
		tire, err = s.getForUpdate(ctx, repo, input.TireID)
		if err != nil {
			return err
		}
		if tire.Availability != enums.TireAvailabilityMounted ||
			tire.CurrentPlate == nil || *tire.CurrentPlate != plate {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "tire is not mounted on this vehicle")
		}

		vehicle, err := s.vehicles.WithTx(tx).GetByPlate(ctx, plate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
		}
		if vehicle == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}

		position := ""
		if tire.CurrentPosition != nil {
			position = *tire.CurrentPosition
		}

		if gained := input.Mileage - tire.KmAtLastMount; gained > 0 {
			tire.TotalKm += gained
		}
		tire.Availability = input.Destination
		tire.CurrentPlate = nil
		tire.CurrentPosition = nil
		if input.Destination == enums.TireAvailabilityRetread {
			tire.RetreadState = enums.RetreadStatePlantConditioned
		} else {
			tire.RetreadState = enums.RetreadStateNone
		}

		destination := input.Destination
		if err := s.appendMovement(ctx, movementRepo, &models.Movement{
			TireID:          tire.TireID,
			OccurredAt:      occurredAt,
			Type:            enums.MovementTypeDismount,
			Life:            tire.CurrentLife,
			Plate:           plate,
			Position:        position,
			Mileage:         input.Mileage,
			NewAvailability: &destination,
			RecordedBy:      recordedBy,
			Notes:           strings.TrimSpace(input.Notes),
		}); err != nil {
			return err
		}

		record := &models.ServiceRecord{
			TireID:       tire.TireID,
			Plate:        plate,
			Position:     position,
			Life:         tire.CurrentLife,
			Type:         enums.ServiceTypeDismount,
			Availability: input.Destination,
			Mileage:      input.Mileage,
			RecordedBy:   recordedBy,
			OccurredAt:   occurredAt,
		}
		if reason != "" {
			record.EndOfLifeReason = &reason
		}
		if err := s.appendServiceRecord(ctx, maintenanceRepo, tire, vehicle, record); err != nil {
			return err
		}

		if err := s.refreshCosts(ctx, maintenanceRepo, tire); err != nil {
			return err
		}
		if err := repo.Save(ctx, tire); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tire, nil
}

func (s *service) RegisterService(ctx context.Context, input RegisterServiceInput) (*models.ServiceRecord, error) {
	if input.Mileage <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage must be positive")
	}
	for i, depth := range input.Depths {
		if !validDepth(depth) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tread depths must be 0-30 mm in 0.5 mm steps").
				WithDetails(map[string]any{"depth": depth, "probe": i + 1})
		}
	}
	recordedBy, err := requireRecorder(input.RecordedBy)
	if err != nil {
		return nil, err
	}
	occurredAt := occurredOrNow(input.OccurredAt)

	var record *models.ServiceRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		maintenanceRepo := s.maintenance.WithTx(tx)

		tire, err := s.getForUpdate(ctx, repo, input.TireID)
		if err != nil {
			return err
		}
		if tire.Availability != enums.TireAvailabilityMounted || tire.CurrentPlate == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "tire is not mounted")
		}
		plate := *tire.CurrentPlate

		position := ""
		if tire.CurrentPosition != nil {
			position = *tire.CurrentPosition
		}

		var newPosition *string
		if input.Rotated {
			target := NormalizePosition(input.NewPosition)
			if target == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "rotation requires a new position")
			}
			occupying, err := repo.FindMountedAtPosition(ctx, plate, target)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking position")
			}
			if occupying != nil && occupying.TireID != tire.TireID {
				return pkgerrors.New(pkgerrors.CodePositionOccupied, "position already has a mounted tire").
					WithDetails(map[string]any{"occupied_by": occupying.TireID, "position": target})
			}
			newPosition = &target
			tire.CurrentPosition = &target
		}

		vehicle, err := s.vehicles.WithTx(tx).GetByPlate(ctx, plate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
		}
		if vehicle == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}

		record = &models.ServiceRecord{
			TireID:         tire.TireID,
			Plate:          plate,
			Position:       position,
			Life:           tire.CurrentLife,
			Type:           enums.ServiceTypeInspection,
			Availability:   tire.Availability,
			Mileage:        input.Mileage,
			Rotated:        input.Rotated,
			NewPosition:    newPosition,
			Depth1:         input.Depths[0],
			Depth2:         input.Depths[1],
			Depth3:         input.Depths[2],
			Alignment:      input.Alignment,
			Balancing:      input.Balancing,
			Repair:         input.Repair,
			PunctureRepair: input.PunctureRepair,
			Regrooving:     input.Regrooving,
			Torque:         input.Torque,
			RecordedBy:     recordedBy,
			OccurredAt:     occurredAt,
		}
		if err := s.appendServiceRecord(ctx, maintenanceRepo, tire, vehicle, record); err != nil {
			return err
		}

		if input.Regrooving {
			tire.RegroovingCount++
		}
		if err := s.refreshCosts(ctx, maintenanceRepo, tire); err != nil {
			return err
		}
		if err := repo.Save(ctx, tire); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Rotate(ctx context.Context, input RotateInput) error {
	if len(input.Moves) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rotation needs at least one move")
	}
	if input.Mileage <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "mileage must be positive")
	}
	recordedBy, err := requireRecorder(input.RecordedBy)
	if err != nil {
		return err
	}
	occurredAt := occurredOrNow(input.OccurredAt)
	plate := vehicles.NormalizePlate(input.Plate)

	// The destination multiset must equal the source multiset so the batch
	// is a pure permutation of occupied positions.
	sources := map[string]int{}
	destinations := map[string]int{}
	changed := false
	for i := range input.Moves {
		input.Moves[i].FromPosition = NormalizePosition(input.Moves[i].FromPosition)
		input.Moves[i].ToPosition = NormalizePosition(input.Moves[i].ToPosition)
		if input.Moves[i].FromPosition == "" || input.Moves[i].ToPosition == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "every move needs a source and destination position")
		}
		if input.Moves[i].FromPosition != input.Moves[i].ToPosition {
			changed = true
		}
		sources[input.Moves[i].FromPosition]++
		destinations[input.Moves[i].ToPosition]++
	}
	if !changed {
		return pkgerrors.New(pkgerrors.CodeValidation, "rotation must move at least one tire")
	}
	if len(sources) != len(input.Moves) {
		return pkgerrors.New(pkgerrors.CodeValidation, "duplicate source positions in rotation")
	}
	if len(sources) != len(destinations) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rotation destinations must reuse the source positions")
	}
	for position, count := range sources {
		if destinations[position] != count {
			return pkgerrors.New(pkgerrors.CodeValidation, "rotation destinations must reuse the source positions").
				WithDetails(map[string]any{"position": position})
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		movementRepo := s.movements.WithTx(tx)
		maintenanceRepo := s.maintenance.WithTx(tx)

		vehicle, err := s.vehicles.WithTx(tx).GetByPlate(ctx, plate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up vehicle")
		}
		if vehicle == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}

		type plannedMove struct {
			tire *models.Tire
			move RotationMove
		}
		planned := make([]plannedMove, 0, len(input.Moves))
		for _, move := range input.Moves {
			tire, err := s.getForUpdate(ctx, repo, move.TireID)
			if err != nil {
				return err
			}
			if tire.Availability != enums.TireAvailabilityMounted ||
				tire.CurrentPlate == nil || *tire.CurrentPlate != plate ||
				tire.CurrentPosition == nil || NormalizePosition(*tire.CurrentPosition) != move.FromPosition {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "tire is not mounted at the stated position").
					WithDetails(map[string]any{"tire_id": tire.TireID, "position": move.FromPosition})
			}
			planned = append(planned, plannedMove{tire: tire, move: move})
		}

		// Vacate every rotated position first so the swap never collides
		// with the mounted-position guard mid-transaction.
		for _, p := range planned {
			p.tire.CurrentPosition = nil
			if err := repo.Save(ctx, p.tire); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
			}
		}

		for _, p := range planned {
			tire, move := p.tire, p.move
			target := move.ToPosition
			tire.CurrentPosition = &target

			if err := s.appendMovement(ctx, movementRepo, &models.Movement{
				TireID:     tire.TireID,
				OccurredAt: occurredAt,
				Type:       enums.MovementTypeRotation,
				Life:       tire.CurrentLife,
				Plate:      plate,
				Position:   target,
				Mileage:    input.Mileage,
				RecordedBy: recordedBy,
			}); err != nil {
				return err
			}

			if err := s.appendServiceRecord(ctx, maintenanceRepo, tire, vehicle, &models.ServiceRecord{
				TireID:       tire.TireID,
				Plate:        plate,
				Position:     move.FromPosition,
				Life:         tire.CurrentLife,
				Type:         enums.ServiceTypeRotation,
				Availability: tire.Availability,
				Mileage:      input.Mileage,
				Rotated:      true,
				NewPosition:  &target,
				RecordedBy:   recordedBy,
				OccurredAt:   occurredAt,
			}); err != nil {
				return err
			}

			if err := s.refreshCosts(ctx, maintenanceRepo, tire); err != nil {
				return err
			}
			if err := repo.Save(ctx, tire); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
			}
		}
		return nil
	})
}

func (s *service) ApproveRetread(ctx context.Context, input ApproveRetreadInput) (*models.Tire, error) {
	brand := strings.TrimSpace(input.Brand)
	reference := strings.TrimSpace(input.Reference)
	if brand == "" || reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retread brand and reference are required")
	}
	if input.Price.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retread price must be positive")
	}
	recordedBy, err := requireRecorder(input.RecordedBy)
	if err != nil {
		return nil, err
	}
	occurredAt := occurredOrNow(input.OccurredAt)

	var tire *models.Tire
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		movementRepo := s.movements.WithTx(tx)
		maintenanceRepo := s.maintenance.WithTx(tx)

		var err error
		tire, err = s.getForUpdate(ctx, repo, input.TireID)
		if err != nil {
			return err
		}
		if tire.Availability != enums.TireAvailabilityRetread ||
			tire.RetreadState != enums.RetreadStatePlantConditioned {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "tire is not awaiting retread approval").
				WithDetails(map[string]any{
					"availability":  string(tire.Availability),
					"retread_state": string(tire.RetreadState),
				})
		}

		newLife := tire.CurrentLife + 1
		if newLife > s.maxLives {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "tire has exhausted its retread lives").
				WithDetails(map[string]any{"current_life": tire.CurrentLife, "max_lives": s.maxLives})
		}

		price := input.Price
		tire.CurrentLife = newLife
		tire.SetRetreadForLife(newLife, brand+" - "+reference)
		tire.SetPriceForLife(newLife, &price)
		tire.Availability = enums.TireAvailabilitySpare
		tire.RetreadState = enums.RetreadStateApproved

		availability := enums.TireAvailabilitySpare
		if err := s.appendMovement(ctx, movementRepo, &models.Movement{
			TireID:           tire.TireID,
			OccurredAt:       occurredAt,
			Type:             enums.MovementTypeRetreadApproval,
			Life:             newLife,
			Mileage:          0,
			NewAvailability:  &availability,
			RetreadBrand:     &brand,
			RetreadReference: &reference,
			RetreadPrice:     &price,
			RecordedBy:       recordedBy,
			Notes:            strings.TrimSpace(input.Notes),
		}); err != nil {
			return err
		}

		if err := s.refreshCosts(ctx, maintenanceRepo, tire); err != nil {
			return err
		}
		if err := repo.Save(ctx, tire); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tire")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tire, nil
}

func (s *service) getForUpdate(ctx context.Context, repo Repository, tireID string) (*models.Tire, error) {
	tire, err := repo.GetByTireID(ctx, strings.ToUpper(strings.TrimSpace(tireID)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up tire")
	}
	if tire == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return tire, nil
}

func (s *service) appendMovement(ctx context.Context, repo movements.Repository, movement *models.Movement) error {
	sequence, err := repo.NextSequence(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocating movement sequence")
	}
	movement.Sequence = sequence
	if err := repo.Create(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing movement")
	}
	return nil
}

func (s *service) appendServiceRecord(
	ctx context.Context,
	repo maintenance.Repository,
	tire *models.Tire,
	vehicle *models.Vehicle,
	record *models.ServiceRecord,
) error {
	client, err := s.clients.GetByNIT(ctx, tire.ClientNIT)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up client")
	}
	if client == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "tire references a missing client")
	}

	prefix, err := idgen.ServiceCodePrefix(client.Name, vehicle.Front)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deriving service code prefix")
	}
	suffix, err := repo.MaxCodeSuffix(ctx, prefix)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocating service code")
	}
	record.Code = idgen.FormatServiceCode(prefix, idgen.NextConsecutive(int(suffix)))

	if err := repo.Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing service record")
	}
	return nil
}

func (s *service) refreshCosts(ctx context.Context, repo maintenance.Repository, tire *models.Tire) error {
	mileages, err := repo.MileagesByTireLife(ctx, tire.TireID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading mileage history")
	}
	costs.Refresh(tire, s.maxLives, mileages)
	return nil
}

func mountable(tire *models.Tire) bool {
	switch tire.Availability {
	case enums.TireAvailabilityNew, enums.TireAvailabilitySpare:
		return true
	case enums.TireAvailabilityRetread:
		return tire.RetreadState == enums.RetreadStateApproved
	default:
		return false
	}
}

func validDepth(depth float64) bool {
	if depth < 0 || depth > 30 {
		return false
	}
	doubled := depth * 2
	return math.Abs(doubled-math.Round(doubled)) < 1e-9
}

func requireRecorder(recordedBy string) (string, error) {
	recordedBy = strings.TrimSpace(recordedBy)
	if recordedBy == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recorded_by is required")
	}
	return recordedBy, nil
}

func occurredOrNow(occurredAt time.Time) time.Time {
	if occurredAt.IsZero() {
		return time.Now().UTC()
	}
	return occurredAt.UTC()
}
