package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/config"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
)

// Table names the datasets that can be exported or imported.
type Table string

const (
	TableClients   Table = "clients"
	TableVehicles  Table = "vehicles"
	TableTires     Table = "tires"
	TableMovements Table = "movements"
	TableServices  Table = "services"
)

// exportPageSize is how many rows each repository page carries during a
// streamed export.
const exportPageSize = 100

// Service streams per-table CSV exports, ingests admin CSV imports and
// produces the fleet reports.
type Service interface {
	Export(ctx context.Context, table Table, scopeNITs []string, w io.Writer) error
	Import(ctx context.Context, table Table, r io.Reader) (*ImportSummary, error)
	FleetStatus(ctx context.Context, scopeNITs []string) (*FleetStatusReport, error)
	WearReport(ctx context.Context, scopeNITs []string) ([]WearEntry, error)
}

type service struct {
	clients     clients.Repository
	vehicles    vehicles.Repository
	tires       tires.Repository
	movements   movements.Repository
	maintenance maintenance.Repository
	clientSvc   clients.Service
	vehicleSvc  vehicles.Service
	tireSvc     tires.Service
	minTreadMM  float64
}

// NewService wires the export service with its repositories and the
// domain services that validate imported rows.
func NewService(
	clientRepo clients.Repository,
	vehicleRepo vehicles.Repository,
	tireRepo tires.Repository,
	movementRepo movements.Repository,
	maintenanceRepo maintenance.Repository,
	clientSvc clients.Service,
	vehicleSvc vehicles.Service,
	tireSvc tires.Service,
	cfg config.FleetConfig,
) (Service, error) {
	if clientRepo == nil || vehicleRepo == nil || tireRepo == nil ||
		movementRepo == nil || maintenanceRepo == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if clientSvc == nil || vehicleSvc == nil || tireSvc == nil {
		return nil, fmt.Errorf("all domain services are required")
	}
	minTread, err := strconv.ParseFloat(cfg.MinTreadDepthMM, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing minimum tread depth %q: %w", cfg.MinTreadDepthMM, err)
	}
	return &service{
		clients:     clientRepo,
		vehicles:    vehicleRepo,
		tires:       tireRepo,
		movements:   movementRepo,
		maintenance: maintenanceRepo,
		clientSvc:   clientSvc,
		vehicleSvc:  vehicleSvc,
		tireSvc:     tireSvc,
		minTreadMM:  minTread,
	}, nil
}

func parseTable(table Table) error {
	switch table {
	case TableClients, TableVehicles, TableTires, TableMovements, TableServices:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown table").
			WithDetails(map[string]any{"table": string(table)})
	}
}
