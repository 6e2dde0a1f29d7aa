package export

import (
	"context"
	"time"

	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// FleetStatusReport aggregates tire availability and vehicle status across
// the caller's client scope.
type FleetStatusReport struct {
	TiresByAvailability map[enums.TireAvailability]int64 `json:"tires_by_availability"`
	VehiclesByStatus    map[enums.VehicleStatus]int64    `json:"vehicles_by_status"`
	TotalTires          int64                            `json:"total_tires"`
	TotalVehicles       int64                            `json:"total_vehicles"`
	GeneratedAt         time.Time                        `json:"generated_at"`
}

// WearEntry describes the latest measured tread on a mounted tire.
type WearEntry struct {
	TireID         string    `json:"tire_id"`
	ClientNIT      string    `json:"client_nit"`
	Plate          string    `json:"plate"`
	Position       string    `json:"position"`
	Life           int       `json:"life"`
	AverageDepthMM float64   `json:"average_depth_mm"`
	MeasuredAt     time.Time `json:"measured_at"`
	BelowMinimum   bool      `json:"below_minimum"`
}

// FleetStatus summarizes the scoped fleet with one grouped count per table.
func (s *service) FleetStatus(ctx context.Context, scopeNITs []string) (*FleetStatusReport, error) {
	tireCounts, err := s.tires.AvailabilityCounts(ctx, scopeNITs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting tires")
	}
	vehicleCounts, err := s.vehicles.StatusCounts(ctx, scopeNITs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting vehicles")
	}

	report := &FleetStatusReport{
		TiresByAvailability: tireCounts,
		VehiclesByStatus:    vehicleCounts,
		GeneratedAt:         time.Now().UTC(),
	}
	for _, total := range tireCounts {
		report.TotalTires += total
	}
	for _, total := range vehicleCounts {
		report.TotalVehicles += total
	}
	return report, nil
}

// WearReport walks every mounted tire in scope and reports the average tread
// depth from its latest service record. Mounted tires that were never
// inspected are skipped; no measurement means no wear signal.
func (s *service) WearReport(ctx context.Context, scopeNITs []string) ([]WearEntry, error) {
	entries := []WearEntry{}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.tires.List(ctx, scopeNITs, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tires")
		}
		page, next := trimPage(len(rows), params)
		for _, tire := range rows[:page] {
			if tire.Availability != enums.TireAvailabilityMounted {
				continue
			}
			latest, err := s.maintenance.LatestByTireID(ctx, tire.TireID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading latest service record")
			}
			if latest == nil {
				continue
			}
			depth := latest.AverageDepth()
			entries = append(entries, WearEntry{
				TireID:         tire.TireID,
				ClientNIT:      tire.ClientNIT,
				Plate:          stringOrEmpty(tire.CurrentPlate),
				Position:       stringOrEmpty(tire.CurrentPosition),
				Life:           tire.CurrentLife,
				AverageDepthMM: depth,
				MeasuredAt:     latest.OccurredAt,
				BelowMinimum:   depth < s.minTreadMM,
			})
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return entries, nil
	}
}
