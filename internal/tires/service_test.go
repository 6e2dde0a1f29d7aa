package tires

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// fixture is a shared in-memory store backing all the fake repositories, so
// a test observes ledger writes exactly as the service produced them.
type fixture struct {
	tires    map[string]*models.Tire
	vehicles map[string]*models.Vehicle
	clients  map[string]*models.Client
	moves    []models.Movement
	records  []models.ServiceRecord
}

func newFixture() *fixture {
	return &fixture{
		tires:    map[string]*models.Tire{},
		vehicles: map[string]*models.Vehicle{},
		clients:  map[string]*models.Client{},
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeTireRepo struct{ fx *fixture }

func (f *fakeTireRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeTireRepo) Create(ctx context.Context, tire *models.Tire) error {
	f.fx.tires[tire.TireID] = tire
	return nil
}

func (f *fakeTireRepo) GetByTireID(ctx context.Context, tireID string) (*models.Tire, error) {
	return f.fx.tires[tireID], nil
}

func (f *fakeTireRepo) FindMountedByPlate(ctx context.Context, plate string) ([]models.Tire, error) {
	var out []models.Tire
	for _, tire := range f.fx.tires {
		if tire.Availability == enums.TireAvailabilityMounted &&
			tire.CurrentPlate != nil && *tire.CurrentPlate == plate {
			out = append(out, *tire)
		}
	}
	return out, nil
}

func (f *fakeTireRepo) FindMountedAtPosition(ctx context.Context, plate, position string) (*models.Tire, error) {
	for _, tire := range f.fx.tires {
		if tire.Availability == enums.TireAvailabilityMounted &&
			tire.CurrentPlate != nil && *tire.CurrentPlate == plate &&
			tire.CurrentPosition != nil && *tire.CurrentPosition == position {
			return tire, nil
		}
	}
	return nil, nil
}

func (f *fakeTireRepo) List(ctx context.Context, nits []string, params pagination.Params) ([]models.Tire, error) {
	return nil, nil
}

func (f *fakeTireRepo) Save(ctx context.Context, tire *models.Tire) error {
	f.fx.tires[tire.TireID] = tire
	return nil
}

func (f *fakeTireRepo) Delete(ctx context.Context, tireID string) error {
	delete(f.fx.tires, tireID)
	return nil
}

func (f *fakeTireRepo) AvailabilityCounts(ctx context.Context, nits []string) (map[enums.TireAvailability]int64, error) {
	return nil, nil
}

func (f *fakeTireRepo) TireIDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	for id := range f.fx.tires {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeVehicleRepo struct {
	vehicles.Repository
	fx *fixture
}

func (f *fakeVehicleRepo) WithTx(tx *gorm.DB) vehicles.Repository { return f }

func (f *fakeVehicleRepo) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	return f.fx.vehicles[plate], nil
}

type fakeClientRepo struct {
	clients.Repository
	fx *fixture
}

func (f *fakeClientRepo) WithTx(tx *gorm.DB) clients.Repository { return f }

func (f *fakeClientRepo) GetByNIT(ctx context.Context, nit string) (*models.Client, error) {
	return f.fx.clients[nit], nil
}

type fakeMovementRepo struct {
	movements.Repository
	fx *fixture
}

func (f *fakeMovementRepo) WithTx(tx *gorm.DB) movements.Repository { return f }

func (f *fakeMovementRepo) Create(ctx context.Context, movement *models.Movement) error {
	f.fx.moves = append(f.fx.moves, *movement)
	return nil
}

func (f *fakeMovementRepo) NextSequence(ctx context.Context) (int64, error) {
	var max int64
	for _, m := range f.fx.moves {
		if m.Sequence > max {
			max = m.Sequence
		}
	}
	return max + 1, nil
}

func (f *fakeMovementRepo) LastMileageByPlate(ctx context.Context, plate string) (int64, error) {
	var max int64
	for _, m := range f.fx.moves {
		if m.Plate == plate && m.Mileage > max {
			max = m.Mileage
		}
	}
	return max, nil
}

type fakeMaintenanceRepo struct {
	maintenance.Repository
	fx *fixture
}

func (f *fakeMaintenanceRepo) WithTx(tx *gorm.DB) maintenance.Repository { return f }

func (f *fakeMaintenanceRepo) Create(ctx context.Context, record *models.ServiceRecord) error {
	f.fx.records = append(f.fx.records, *record)
	return nil
}

func (f *fakeMaintenanceRepo) MileagesByTireLife(ctx context.Context, tireID string) (map[int][]int64, error) {
	out := map[int][]int64{}
	for _, r := range f.fx.records {
		if r.TireID == tireID {
			out[r.Life] = append(out[r.Life], r.Mileage)
		}
	}
	return out, nil
}

func (f *fakeMaintenanceRepo) MaxCodeSuffix(ctx context.Context, prefix string) (int64, error) {
	var max int64
	for _, r := range f.fx.records {
		if len(r.Code) > len(prefix) && r.Code[:len(prefix)] == prefix {
			var suffix int64
			for _, c := range r.Code[len(prefix):] {
				if c < '0' || c > '9' {
					suffix = 0
					break
				}
				suffix = suffix*10 + int64(c-'0')
			}
			if suffix > max {
				max = suffix
			}
		}
	}
	return max, nil
}

func newTestService(t *testing.T, fx *fixture) Service {
	t.Helper()
	svc, err := NewService(
		&fakeTireRepo{fx: fx},
		&fakeVehicleRepo{fx: fx},
		&fakeClientRepo{fx: fx},
		&fakeMovementRepo{fx: fx},
		&fakeMaintenanceRepo{fx: fx},
		fakeTxRunner{},
		config.FleetConfig{MaxTireLives: 4, DefaultNewTirePrice: "1500000", MinTreadDepthMM: "3.0"},
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func seedFleet(fx *fixture) {
	fx.clients["9001234567"] = &models.Client{NIT: "9001234567", Name: "Acme Cargo"}
	fx.vehicles["ABC123"] = &models.Vehicle{
		Code:           "V-01",
		ClientNIT:      "9001234567",
		Brand:          "Kenworth",
		Typology:       enums.VehicleTypologyTruck,
		Plate:          "ABC123",
		Front:          "Norte",
		Status:         enums.VehicleStatusActive,
		InitialMileage: 100000,
		MileageMethod:  enums.MileageMethodOdometer,
	}
}

func seedTire(fx *fixture, tireID string, availability enums.TireAvailability) *models.Tire {
	tire := &models.Tire{
		TireID:       tireID,
		ClientNIT:    "9001234567",
		Brand:        "Michelin",
		Reference:    "XZE2",
		Dimension:    "295/80R22.5",
		CurrentLife:  1,
		Availability: availability,
		PriceLife1:   decimal.NewFromInt(1500000),
	}
	fx.tires[tireID] = tire
	return tire
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

func TestNormalizePosition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"1.0", "1"},
		{" 3 ", "3"},
		{"10.0", "10"},
		{"2.5", "2.5"},
		{"lh", "LH"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizePosition(tc.in); got != tc.want {
			t.Errorf("NormalizePosition(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestService_RegisterDefaults(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)

	tire, err := svc.Register(context.Background(), RegisterTireInput{
		TireID:    " ac0001 ",
		ClientNIT: "9001234567",
		Brand:     "Michelin",
		Reference: "XZE2",
		Dimension: "295/80R22.5",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if tire.TireID != "AC0001" {
		t.Fatalf("expected uppercased tire id, got %q", tire.TireID)
	}
	if tire.CurrentLife != 1 || tire.Availability != enums.TireAvailabilityNew {
		t.Fatalf("new tire should start life 1 / new, got %d %s", tire.CurrentLife, tire.Availability)
	}
	if !tire.PriceLife1.Equal(decimal.NewFromInt(1500000)) {
		t.Fatalf("expected defaulted price, got %s", tire.PriceLife1)
	}
}

func TestService_RegisterGeneratesTireID(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	tire, err := svc.Register(context.Background(), RegisterTireInput{
		ClientNIT: "9001234567",
		Brand:     "Michelin",
		Reference: "XZE2",
		Dimension: "295/80R22.5",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if tire.TireID != "AC002_2" {
		t.Fatalf("generated tire id = %q, want AC002_2", tire.TireID)
	}
}

func TestService_RegisterDuplicate(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	_, err := svc.Register(context.Background(), RegisterTireInput{
		TireID:    "AC0001",
		ClientNIT: "9001234567",
		Brand:     "Michelin",
		Reference: "XZE2",
	})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestService_Mount(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	tire, err := svc.Mount(context.Background(), MountInput{
		TireID:     "AC0001",
		Plate:      "abc-123",
		Position:   "1.0",
		Mileage:    120000,
		RecordedBy: "operator1",
	})
	if err != nil {
		t.Fatalf("Mount error: %v", err)
	}

	if tire.Availability != enums.TireAvailabilityMounted {
		t.Fatalf("expected mounted, got %s", tire.Availability)
	}
	if tire.CurrentPlate == nil || *tire.CurrentPlate != "ABC123" {
		t.Fatalf("plate not set: %v", tire.CurrentPlate)
	}
	if tire.CurrentPosition == nil || *tire.CurrentPosition != "1" {
		t.Fatalf("expected normalized position 1, got %v", tire.CurrentPosition)
	}
	if tire.KmAtLastMount != 120000 {
		t.Fatalf("km_at_last_mount not set: %d", tire.KmAtLastMount)
	}

	if len(fx.moves) != 1 {
		t.Fatalf("expected one movement, got %d", len(fx.moves))
	}
	move := fx.moves[0]
	if move.Sequence != 1 || move.Type != enums.MovementTypeMount || move.Position != "1" {
		t.Fatalf("unexpected movement: %+v", move)
	}

	if len(fx.records) != 1 {
		t.Fatalf("expected one service record, got %d", len(fx.records))
	}
	record := fx.records[0]
	if record.Code != "ACN0001" {
		t.Fatalf("expected code ACN0001, got %s", record.Code)
	}
	if record.Type != enums.ServiceTypeMount || record.Mileage != 120000 {
		t.Fatalf("unexpected service record: %+v", record)
	}
}

func TestService_MountPositionOccupied(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	occupying := seedTire(fx, "AC0001", enums.TireAvailabilityMounted)
	plate, position := "ABC123", "1"
	occupying.CurrentPlate = &plate
	occupying.CurrentPosition = &position
	seedTire(fx, "AC0002", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	_, err := svc.Mount(context.Background(), MountInput{
		TireID:     "AC0002",
		Plate:      "ABC123",
		Position:   "1.0",
		Mileage:    120000,
		RecordedBy: "operator1",
	})
	expectCode(t, err, pkgerrors.CodePositionOccupied)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok || details["occupied_by"] != "AC0001" {
		t.Fatalf("expected occupying tire id in details, got %v", details)
	}
}

func TestService_MountEligibility(t *testing.T) {
	tests := []struct {
		name         string
		availability enums.TireAvailability
		retreadState enums.RetreadState
		wantErr      bool
	}{
		{name: "new tire", availability: enums.TireAvailabilityNew},
		{name: "spare tire", availability: enums.TireAvailabilitySpare},
		{name: "approved retread", availability: enums.TireAvailabilityRetread, retreadState: enums.RetreadStateApproved},
		{name: "unapproved retread", availability: enums.TireAvailabilityRetread, retreadState: enums.RetreadStatePlantConditioned, wantErr: true},
		{name: "end of life", availability: enums.TireAvailabilityEndOfLife, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture()
			seedFleet(fx)
			tire := seedTire(fx, "AC0001", tc.availability)
			tire.RetreadState = tc.retreadState
			svc := newTestService(t, fx)

			_, err := svc.Mount(context.Background(), MountInput{
				TireID:     "AC0001",
				Plate:      "ABC123",
				Position:   "1",
				Mileage:    120000,
				RecordedBy: "operator1",
			})
			if tc.wantErr {
				expectCode(t, err, pkgerrors.CodeNoTireAvailable)
				return
			}
			if err != nil {
				t.Fatalf("Mount error: %v", err)
			}
		})
	}
}

func TestService_MountMileageBelowLastKnown(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	_, err := svc.Mount(context.Background(), MountInput{
		TireID:     "AC0001",
		Plate:      "ABC123",
		Position:   "1",
		Mileage:    90000,
		RecordedBy: "operator1",
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_MountOutOfServiceVehicle(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	fx.vehicles["ABC123"].Status = enums.VehicleStatusOutOfService
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	_, err := svc.Mount(context.Background(), MountInput{
		TireID:     "AC0001",
		Plate:      "ABC123",
		Position:   "1",
		Mileage:    120000,
		RecordedBy: "operator1",
	})
	expectCode(t, err, pkgerrors.CodeNoVehicleAvailable)
}

func TestService_MountDifferentClient(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	tire := seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	tire.ClientNIT = "0000000000"
	svc := newTestService(t, fx)

	_, err := svc.Mount(context.Background(), MountInput{
		TireID:     "AC0001",
		Plate:      "ABC123",
		Position:   "1",
		Mileage:    120000,
		RecordedBy: "operator1",
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func mountTestTire(t *testing.T, fx *fixture, svc Service, tireID, position string, mileage int64) *models.Tire {
	t.Helper()
	seedTire(fx, tireID, enums.TireAvailabilityNew)
	tire, err := svc.Mount(context.Background(), MountInput{
		TireID:     tireID,
		Plate:      "ABC123",
		Position:   position,
		Mileage:    mileage,
		RecordedBy: "operator1",
	})
	if err != nil {
		t.Fatalf("mounting %s: %v", tireID, err)
	}
	return tire
}

func TestService_DismountToSpare(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	tire, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilitySpare,
		Mileage:     135000,
		RecordedBy:  "operator1",
	})
	if err != nil {
		t.Fatalf("Dismount error: %v", err)
	}

	if tire.Availability != enums.TireAvailabilitySpare {
		t.Fatalf("expected spare, got %s", tire.Availability)
	}
	if tire.TotalKm != 15000 {
		t.Fatalf("expected 15000 km accrued, got %d", tire.TotalKm)
	}
	if tire.CurrentPlate != nil || tire.CurrentPosition != nil {
		t.Fatal("plate and position should be cleared")
	}
	if len(fx.moves) != 2 || fx.moves[1].Type != enums.MovementTypeDismount {
		t.Fatalf("expected dismount movement, got %+v", fx.moves)
	}
	if fx.moves[1].Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", fx.moves[1].Sequence)
	}
	if len(fx.records) != 2 || fx.records[1].Code != "ACN0002" {
		t.Fatalf("expected second record ACN0002, got %+v", fx.records)
	}
}

func TestService_DismountToRetread(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	tire, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilityRetread,
		Mileage:     150000,
		RecordedBy:  "operator1",
	})
	if err != nil {
		t.Fatalf("Dismount error: %v", err)
	}
	if tire.RetreadState != enums.RetreadStatePlantConditioned {
		t.Fatalf("expected plant_conditioned, got %s", tire.RetreadState)
	}
}

func TestService_DismountEndOfLifeNeedsReason(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	_, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilityEndOfLife,
		Mileage:     150000,
		RecordedBy:  "operator1",
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	tire, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilityEndOfLife,
		Reason:      "sidewall failure",
		Mileage:     150000,
		RecordedBy:  "operator1",
	})
	if err != nil {
		t.Fatalf("Dismount error: %v", err)
	}
	if tire.Availability != enums.TireAvailabilityEndOfLife {
		t.Fatalf("expected end_of_life, got %s", tire.Availability)
	}
	last := fx.records[len(fx.records)-1]
	if last.EndOfLifeReason == nil || *last.EndOfLifeReason != "sidewall failure" {
		t.Fatalf("reason not recorded: %+v", last)
	}
}

func TestService_DismountNotMounted(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilitySpare)
	svc := newTestService(t, fx)

	_, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilitySpare,
		Mileage:     150000,
		RecordedBy:  "operator1",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_DismountNegativeGainClamps(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	tire, err := svc.Dismount(context.Background(), DismountInput{
		TireID:      "AC0001",
		Plate:       "ABC123",
		Destination: enums.TireAvailabilitySpare,
		Mileage:     110000,
		RecordedBy:  "operator1",
	})
	if err != nil {
		t.Fatalf("Dismount error: %v", err)
	}
	if tire.TotalKm != 0 {
		t.Fatalf("regressed odometer should accrue nothing, got %d", tire.TotalKm)
	}
}

func TestService_RegisterServiceDepthValidation(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	tests := []struct {
		name   string
		depths [3]float64
	}{
		{name: "negative depth", depths: [3]float64{-1, 10, 10}},
		{name: "over 30", depths: [3]float64{31, 10, 10}},
		{name: "off-step", depths: [3]float64{10.3, 10, 10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterService(context.Background(), RegisterServiceInput{
				TireID:     "AC0001",
				Mileage:    125000,
				Depths:     tc.depths,
				RecordedBy: "operator1",
			})
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestService_RegisterServiceComputesCosts(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	record, err := svc.RegisterService(context.Background(), RegisterServiceInput{
		TireID:     "AC0001",
		Mileage:    135000,
		Depths:     [3]float64{12.5, 12, 12.5},
		Alignment:  true,
		RecordedBy: "operator1",
	})
	if err != nil {
		t.Fatalf("RegisterService error: %v", err)
	}
	if record.Code != "ACN0002" {
		t.Fatalf("expected ACN0002, got %s", record.Code)
	}
	if record.Type != enums.ServiceTypeInspection || !record.Alignment {
		t.Fatalf("unexpected record: %+v", record)
	}

	// Price 1,500,000 over the 15,000 km between the mount record and this
	// inspection gives 100.00 per km.
	tire := fx.tires["AC0001"]
	if tire.CostPerKmLife1 == nil || !tire.CostPerKmLife1.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected cost 100/km, got %v", tire.CostPerKmLife1)
	}
	if tire.CostPerKmTotal == nil || !tire.CostPerKmTotal.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected cumulative cost 100/km, got %v", tire.CostPerKmTotal)
	}
}

func TestService_RegisterServiceRotated(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	record, err := svc.RegisterService(context.Background(), RegisterServiceInput{
		TireID:      "AC0001",
		Mileage:     125000,
		Depths:      [3]float64{12, 12, 12},
		Rotated:     true,
		NewPosition: "3.0",
		RecordedBy:  "operator1",
	})
	if err != nil {
		t.Fatalf("RegisterService error: %v", err)
	}
	if record.NewPosition == nil || *record.NewPosition != "3" {
		t.Fatalf("expected normalized new position, got %v", record.NewPosition)
	}
	tire := fx.tires["AC0001"]
	if tire.CurrentPosition == nil || *tire.CurrentPosition != "3" {
		t.Fatalf("tire position not updated: %v", tire.CurrentPosition)
	}
}

func TestService_RegisterServiceRotatedToOccupied(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)
	mountTestTire(t, fx, svc, "AC0002", "2", 120000)

	_, err := svc.RegisterService(context.Background(), RegisterServiceInput{
		TireID:      "AC0001",
		Mileage:     125000,
		Depths:      [3]float64{12, 12, 12},
		Rotated:     true,
		NewPosition: "2",
		RecordedBy:  "operator1",
	})
	expectCode(t, err, pkgerrors.CodePositionOccupied)
}

func TestService_RegisterServiceNotMounted(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilitySpare)
	svc := newTestService(t, fx)

	_, err := svc.RegisterService(context.Background(), RegisterServiceInput{
		TireID:     "AC0001",
		Mileage:    125000,
		Depths:     [3]float64{12, 12, 12},
		RecordedBy: "operator1",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_RotateSwap(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)
	mountTestTire(t, fx, svc, "AC0002", "2", 120000)

	err := svc.Rotate(context.Background(), RotateInput{
		Plate:      "ABC123",
		Mileage:    130000,
		RecordedBy: "operator1",
		Moves: []RotationMove{
			{TireID: "AC0001", FromPosition: "1", ToPosition: "2"},
			{TireID: "AC0002", FromPosition: "2", ToPosition: "1.0"},
		},
	})
	if err != nil {
		t.Fatalf("Rotate error: %v", err)
	}

	if *fx.tires["AC0001"].CurrentPosition != "2" || *fx.tires["AC0002"].CurrentPosition != "1" {
		t.Fatalf("positions not swapped: %v / %v",
			*fx.tires["AC0001"].CurrentPosition, *fx.tires["AC0002"].CurrentPosition)
	}

	var rotations int
	for _, m := range fx.moves {
		if m.Type == enums.MovementTypeRotation {
			rotations++
		}
	}
	if rotations != 2 {
		t.Fatalf("expected 2 rotation movements, got %d", rotations)
	}
}

func TestService_RegisterServiceRegrooving(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	_, err := svc.RegisterService(context.Background(), RegisterServiceInput{
		TireID:     "AC0001",
		Mileage:    125000,
		Depths:     [3]float64{12, 12, 12},
		Regrooving: true,
		RecordedBy: "operator1",
	})
	if err != nil {
		t.Fatalf("RegisterService error: %v", err)
	}
	if got := fx.tires["AC0001"].RegroovingCount; got != 1 {
		t.Fatalf("expected regrooving count 1, got %d", got)
	}
}

func TestService_RotateNoEffectiveMove(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)
	mountTestTire(t, fx, svc, "AC0002", "2", 120000)

	err := svc.Rotate(context.Background(), RotateInput{
		Plate:      "ABC123",
		Mileage:    130000,
		RecordedBy: "operator1",
		Moves: []RotationMove{
			{TireID: "AC0001", FromPosition: "1", ToPosition: "1"},
			{TireID: "AC0002", FromPosition: "2", ToPosition: "2.0"},
		},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_RotateMultisetMismatch(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	err := svc.Rotate(context.Background(), RotateInput{
		Plate:      "ABC123",
		Mileage:    130000,
		RecordedBy: "operator1",
		Moves: []RotationMove{
			{TireID: "AC0001", FromPosition: "1", ToPosition: "5"},
		},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_RotateWrongSourcePosition(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)
	mountTestTire(t, fx, svc, "AC0002", "2", 120000)

	err := svc.Rotate(context.Background(), RotateInput{
		Plate:      "ABC123",
		Mileage:    130000,
		RecordedBy: "operator1",
		Moves: []RotationMove{
			{TireID: "AC0001", FromPosition: "2", ToPosition: "1"},
			{TireID: "AC0002", FromPosition: "1", ToPosition: "2"},
		},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_ApproveRetread(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	tire := seedTire(fx, "AC0001", enums.TireAvailabilityRetread)
	tire.RetreadState = enums.RetreadStatePlantConditioned
	svc := newTestService(t, fx)

	got, err := svc.ApproveRetread(context.Background(), ApproveRetreadInput{
		TireID:     "AC0001",
		Brand:      "Bandag",
		Reference:  "B123",
		Price:      decimal.NewFromInt(600000),
		RecordedBy: "supervisor1",
	})
	if err != nil {
		t.Fatalf("ApproveRetread error: %v", err)
	}

	if got.CurrentLife != 2 {
		t.Fatalf("expected life 2, got %d", got.CurrentLife)
	}
	if got.Availability != enums.TireAvailabilitySpare || got.RetreadState != enums.RetreadStateApproved {
		t.Fatalf("expected spare/approved, got %s/%s", got.Availability, got.RetreadState)
	}
	if got.Retread1 == nil || *got.Retread1 != "Bandag - B123" {
		t.Fatalf("retread description not stored: %v", got.Retread1)
	}
	if got.PriceLife2 == nil || !got.PriceLife2.Equal(decimal.NewFromInt(600000)) {
		t.Fatalf("life 2 price not stored: %v", got.PriceLife2)
	}
	if len(fx.moves) != 1 || fx.moves[0].Type != enums.MovementTypeRetreadApproval {
		t.Fatalf("expected retread_approval movement, got %+v", fx.moves)
	}
}

func TestService_ApproveRetreadBeyondMaxLives(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	tire := seedTire(fx, "AC0001", enums.TireAvailabilityRetread)
	tire.RetreadState = enums.RetreadStatePlantConditioned
	tire.CurrentLife = 4
	svc := newTestService(t, fx)

	_, err := svc.ApproveRetread(context.Background(), ApproveRetreadInput{
		TireID:     "AC0001",
		Brand:      "Bandag",
		Reference:  "B123",
		Price:      decimal.NewFromInt(600000),
		RecordedBy: "supervisor1",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_ApproveRetreadWrongState(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilitySpare)
	svc := newTestService(t, fx)

	_, err := svc.ApproveRetread(context.Background(), ApproveRetreadInput{
		TireID:     "AC0001",
		Brand:      "Bandag",
		Reference:  "B123",
		Price:      decimal.NewFromInt(600000),
		RecordedBy: "supervisor1",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_UpdatePricesValidation(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	seedTire(fx, "AC0001", enums.TireAvailabilityNew)
	svc := newTestService(t, fx)

	zero := decimal.Zero
	_, err := svc.UpdatePrices(context.Background(), "AC0001", UpdatePricesInput{PriceLife1: &zero})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestService_DeleteMounted(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)

	err := svc.Delete(context.Background(), "AC0001")
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestService_MountedByPlate(t *testing.T) {
	fx := newFixture()
	seedFleet(fx)
	svc := newTestService(t, fx)
	mountTestTire(t, fx, svc, "AC0001", "1", 120000)
	mountTestTire(t, fx, svc, "AC0002", "4", 120000)

	view, err := svc.MountedByPlate(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("MountedByPlate error: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("expected 2 mounted tires, got %d", len(view))
	}
	if view["1"].TireID != "AC0001" || view["4"].TireID != "AC0002" {
		t.Fatalf("unexpected view: %v", view)
	}

	d := time.Since(fx.moves[0].OccurredAt)
	if d < 0 || d > time.Minute {
		t.Fatalf("occurred_at should default to now, got %v", fx.moves[0].OccurredAt)
	}
}
