package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
)

// ImportRowError describes a rejected CSV row. Line numbers are 1-based and
// include the header line.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportSummary reports the outcome of a bulk CSV import.
type ImportSummary struct {
	Inserted int              `json:"inserted"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

/// Import headers are minimal on purpose: lifecycle columns are owned by the
// movement and service ledgers and cannot be loaded directly.
var importHeaders = map[Table][]string{
	TableClients:  {"nit", "name", "fronts"},
	TableVehicles: {"code", "client_nit", "brand", "line", "typology", "plate", "front", "initial_mileage", "mileage_method"},
	TableTires:    {"tire_id", "client_nit", "brand", "reference", "dimension", "price"},
}

// Import loads rows from a CSV stream into the named table. Rows go through
// the same domain services as the API, so every row is validated in full;
// failures are collected per line and do not stop the run.
func (s *service) Import(ctx context.Context, table Table, r io.Reader) (*ImportSummary, error) {
	if err := parseTable(table); err != nil {
		return nil, err
	}
	expected, ok := importHeaders[table]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table is export only").
			WithDetails(map[string]any{"table": string(table)})
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading csv header")
	}
	if err := matchHeader(header, expected); err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		line++
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ImportRowError{Line: line, Message: err.Error()})
			continue
		}

		switch table {
		case TableClients:
			err = s.importClientRow(ctx, record)
		case TableVehicles:
			err = s.importVehicleRow(ctx, record)
		case TableTires:
			err = s.importTireRow(ctx, record)
		}
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ImportRowError{Line: line, Message: err.Error()})
			continue
		}
		summary.Inserted++
	}
}

func (s *service) importClientRow(ctx context.Context, record []string) error {
	var fronts []string
	for _, front := range strings.Split(record[2], frontSeparator) {
		if front = strings.TrimSpace(front); front != "" {
			fronts = append(fronts, front)
		}
	}
	_, err := s.clientSvc.Create(ctx, clients.CreateClientInput{
		NIT:    record[0],
		Name:   record[1],
		Fronts: fronts,
	})
	return err
}

func (s *service) importVehicleRow(ctx context.Context, record []string) error {
	initialMileage, err := strconv.ParseInt(strings.TrimSpace(record[7]), 10, 64)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial_mileage must be an integer")
	}
	_, err = s.vehicleSvc.Create(ctx, vehicles.CreateVehicleInput{
		Code:           record[0],
		ClientNIT:      record[1],
		Brand:          record[2],
		Line:           record[3],
		Typology:       enums.VehicleTypology(strings.ToLower(strings.TrimSpace(record[4]))),
		Plate:          record[5],
		Front:          record[6],
		InitialMileage: initialMileage,
		MileageMethod:  enums.MileageMethod(strings.ToLower(strings.TrimSpace(record[8]))),
	})
	return err
}

func (s *service) importTireRow(ctx context.Context, record []string) error {
	var price *decimal.Decimal
	if raw := strings.TrimSpace(record[5]); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number")
		}
		price = &parsed
	}
	_, err := s.tireSvc.Register(ctx, tires.RegisterTireInput{
		TireID:    record[0],
		ClientNIT: record[1],
		Brand:     record[2],
		Reference: record[3],
		Dimension: record[4],
		Price:     price,
	})
	return err
}

func matchHeader(header, expected []string) error {
	if len(header) != len(expected) {
		return headerError(expected)
	}
	for i, column := range header {
		if strings.ToLower(strings.TrimSpace(column)) != expected[i] {
			return headerError(expected)
		}
	}
	return nil
}

func headerError(expected []string) error {
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("csv header must be: %s", strings.Join(expected, ",")))
}
