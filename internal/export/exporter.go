package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// frontSeparator joins a client's fronts into a single CSV cell.
const frontSeparator = "|"

// Export streams the named table as CSV, restricted to the caller's client
// scope. Ledger tables come out newest first, reference tables oldest first.
func (s *service) Export(ctx context.Context, table Table, scopeNITs []string, w io.Writer) error {
	if err := parseTable(table); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	var err error
	switch table {
	case TableClients:
		err = s.exportClients(ctx, scopeNITs, writer)
	case TableVehicles:
		err = s.exportVehicles(ctx, scopeNITs, writer)
	case TableTires:
		err = s.exportTires(ctx, scopeNITs, writer)
	case TableMovements:
		err = s.exportMovements(ctx, scopeNITs, writer)
	case TableServices:
		err = s.exportServices(ctx, scopeNITs, writer)
	}
	if err != nil {
		return err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	return nil
}

func (s *service) exportClients(ctx context.Context, scopeNITs []string, w *csv.Writer) error {
	if err := w.Write([]string{"nit", "name", "fronts", "created_at"}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.clients.List(ctx, scopeNITs, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing clients")
		}
		page, next := trimPage(len(rows), params)
		for _, c := range rows[:page] {
			if err := w.Write([]string{
				c.NIT,
				c.Name,
				strings.Join(c.Fronts, frontSeparator),
				formatTime(c.CreatedAt),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
			}
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return nil
	}
}

func (s *service) exportVehicles(ctx context.Context, scopeNITs []string, w *csv.Writer) error {
	if err := w.Write([]string{
		"code", "client_nit", "brand", "line", "typology", "plate",
		"front", "status", "initial_mileage", "mileage_method",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.vehicles.List(ctx, scopeNITs, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing vehicles")
		}
		page, next := trimPage(len(rows), params)
		for _, v := range rows[:page] {
			if err := w.Write([]string{
				v.Code,
				v.ClientNIT,
				v.Brand,
				v.Line,
				string(v.Typology),
				v.Plate,
				v.Front,
				string(v.Status),
				strconv.FormatInt(v.InitialMileage, 10),
				string(v.MileageMethod),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
			}
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return nil
	}
}

func (s *service) exportTires(ctx context.Context, scopeNITs []string, w *csv.Writer) error {
	if err := w.Write([]string{
		"tire_id", "client_nit", "brand", "reference", "dimension",
		"current_life", "availability", "retread_state", "current_plate",
		"current_position", "km_at_last_mount", "total_km", "regrooving_count",
		"price_life_1", "price_life_2", "price_life_3", "price_life_4",
		"cost_per_km_life_1", "cost_per_km_life_2", "cost_per_km_life_3",
		"cost_per_km_life_4", "cost_per_km_total",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.tires.List(ctx, scopeNITs, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tires")
		}
		page, next := trimPage(len(rows), params)
		for _, t := range rows[:page] {
			if err := w.Write([]string{
				t.TireID,
				t.ClientNIT,
				t.Brand,
				t.Reference,
				t.Dimension,
				strconv.Itoa(t.CurrentLife),
				string(t.Availability),
				string(t.RetreadState),
				stringOrEmpty(t.CurrentPlate),
				stringOrEmpty(t.CurrentPosition),
				strconv.FormatInt(t.KmAtLastMount, 10),
				strconv.FormatInt(t.TotalKm, 10),
				strconv.Itoa(t.RegroovingCount),
				t.PriceLife1.String(),
				decimalOrEmpty(t.PriceLife2),
				decimalOrEmpty(t.PriceLife3),
				decimalOrEmpty(t.PriceLife4),
				decimalOrEmpty(t.CostPerKmLife1),
				decimalOrEmpty(t.CostPerKmLife2),
				decimalOrEmpty(t.CostPerKmLife3),
				decimalOrEmpty(t.CostPerKmLife4),
				decimalOrEmpty(t.CostPerKmTotal),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
			}
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return nil
	}
}

func (s *service) exportMovements(ctx context.Context, scopeNITs []string, w *csv.Writer) error {
	if err := w.Write([]string{
		"sequence", "tire_id", "occurred_at", "type", "life", "plate",
		"position", "mileage", "new_availability", "retread_brand",
		"retread_reference", "retread_price", "recorded_by", "notes",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.movements.ListByClient(ctx, scopeNITs, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing movements")
		}
		page, next := trimPage(len(rows), params)
		for _, m := range rows[:page] {
			newAvailability := ""
			if m.NewAvailability != nil {
				newAvailability = string(*m.NewAvailability)
			}
			if err := w.Write([]string{
				strconv.FormatInt(m.Sequence, 10),
				m.TireID,
				formatTime(m.OccurredAt),
				string(m.Type),
				strconv.Itoa(m.Life),
				m.Plate,
				m.Position,
				strconv.FormatInt(m.Mileage, 10),
				newAvailability,
				stringOrEmpty(m.RetreadBrand),
				stringOrEmpty(m.RetreadReference),
				decimalOrEmpty(m.RetreadPrice),
				m.RecordedBy,
				m.Notes,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
			}
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return nil
	}
}

func (s *service) exportServices(ctx context.Context, scopeNITs []string, w *csv.Writer) error {
	if err := w.Write([]string{
		"code", "tire_id", "plate", "position", "life", "type",
		"availability", "mileage", "rotated", "new_position",
		"depth_1", "depth_2", "depth_3", "alignment", "balancing",
		"repair", "puncture_repair", "regrooving", "torque",
		"end_of_life_reason", "recorded_by", "occurred_at",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
	}
	params := pagination.Params{Limit: exportPageSize}
	for {
		rows, err := s.maintenance.ListByClient(ctx, scopeNITs, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing service records")
		}
		page, next := trimPage(len(rows), params)
		for _, r := range rows[:page] {
			if err := w.Write([]string{
				r.Code,
				r.TireID,
				r.Plate,
				r.Position,
				strconv.Itoa(r.Life),
				string(r.Type),
				string(r.Availability),
				strconv.FormatInt(r.Mileage, 10),
				strconv.FormatBool(r.Rotated),
				stringOrEmpty(r.NewPosition),
				formatDepth(r.Depth1),
				formatDepth(r.Depth2),
				formatDepth(r.Depth3),
				strconv.FormatBool(r.Alignment),
				strconv.FormatBool(r.Balancing),
				strconv.FormatBool(r.Repair),
				strconv.FormatBool(r.PunctureRepair),
				strconv.FormatBool(r.Regrooving),
				strconv.FormatBool(r.Torque),
				stringOrEmpty(r.EndOfLifeReason),
				r.RecordedBy,
				formatTime(r.OccurredAt),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv")
			}
		}
		if next {
			last := rows[page-1]
			params.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
			continue
		}
		return nil
	}
}

// trimPage reports how many of the returned rows belong to the page and
// whether another page follows; repositories fetch one extra row as a
// look-ahead.
func trimPage(returned int, params pagination.Params) (int, bool) {
	limit := pagination.NormalizeLimit(params.Limit)
	if returned > limit {
		return limit, true
	}
	return returned, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDepth(depth float64) string {
	return strconv.FormatFloat(depth, 'f', -1, 64)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func decimalOrEmpty(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.String()
}
