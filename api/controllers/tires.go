package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/api/validators"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/types"
)

type tireRegisterRequest struct {
	TireID    string           `json:"tire_id,omitempty"`
	ClientNIT string           `json:"client_nit" validate:"required"`
	Brand     string           `json:"brand" validate:"required"`
	Reference string           `json:"reference" validate:"required"`
	Dimension string           `json:"dimension" validate:"required"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type tireUpdatePricesRequest struct {
	PriceLife1 *decimal.Decimal `json:"price_life_1,omitempty"`
	PriceLife2 *decimal.Decimal `json:"price_life_2,omitempty"`
	PriceLife3 *decimal.Decimal `json:"price_life_3,omitempty"`
	PriceLife4 *decimal.Decimal `json:"price_life_4,omitempty"`
}

type tireMountRequest struct {
	Plate      string    `json:"plate" validate:"required"`
	Position   string    `json:"position" validate:"required"`
	Mileage    int64     `json:"mileage" validate:"gte=0"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

type tireDismountRequest struct {
	Plate       string    `json:"plate" validate:"required"`
	Destination string    `json:"destination" validate:"required"`
	Reason      string    `json:"reason,omitempty"`
	Mileage     int64     `json:"mileage" validate:"gte=0"`
	OccurredAt  time.Time `json:"occurred_at,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type tireServiceRequest struct {
	Mileage        int64     `json:"mileage" validate:"gte=0"`
	OccurredAt     time.Time `json:"occurred_at,omitempty"`
	Depth1         float64   `json:"depth_1" validate:"gte=0"`
	Depth2         float64   `json:"depth_2" validate:"gte=0"`
	Depth3         float64   `json:"depth_3" validate:"gte=0"`
	Alignment      bool      `json:"alignment"`
	Balancing      bool      `json:"balancing"`
	Repair         bool      `json:"repair"`
	PunctureRepair bool      `json:"puncture_repair"`
	Regrooving     bool      `json:"regrooving"`
	Torque         bool      `json:"torque"`
	Rotated        bool      `json:"rotated"`
	NewPosition    string    `json:"new_position,omitempty"`
}

type rotationMoveRequest struct {
	TireID       string `json:"tire_id" validate:"required"`
	FromPosition string `json:"from_position" validate:"required"`
	ToPosition   string `json:"to_position" validate:"required"`
}

type vehicleRotateRequest struct {
	Mileage    int64                 `json:"mileage" validate:"gte=0"`
	OccurredAt time.Time             `json:"occurred_at,omitempty"`
	Moves      []rotationMoveRequest `json:"moves" validate:"required,min=2,dive"`
}

type retreadApprovalRequest struct {
	Brand      string          `json:"brand" validate:"required"`
	Reference  string          `json:"reference" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"required"`
	OccurredAt time.Time       `json:"occurred_at,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// scopedTire loads a tire and hides it from callers outside its client scope.
func scopedTire(r *http.Request, svc tires.Service) (*tires.TireDTO, error) {
	tireID := strings.TrimSpace(chi.URLParam(r, "tireID"))
	tire, err := svc.Get(r.Context(), tireID)
	if err != nil {
		return nil, err
	}
	if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), tire.ClientNIT) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return tires.FromModel(tire), nil
}

// TireRegister records a new casing into the inventory.
func TireRegister(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		var body tireRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), body.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "client outside your scope"))
			return
		}

		tire, err := svc.Register(r.Context(), tires.RegisterTireInput{
			TireID:    body.TireID,
			ClientNIT: body.ClientNIT,
			Brand:     body.Brand,
			Reference: body.Reference,
			Dimension: body.Dimension,
			Price:     body.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tires.FromModel(tire))
	}
}

// TireGet loads one tire with its full lifecycle state.
func TireGet(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		dto, err := scopedTire(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// TireList pages through the tires visible to the caller.
func TireList(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.List(r.Context(), middleware.ScopeNITsFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Page{Items: tires.FromModels(rows), NextCursor: next})
	}
}

// TireUpdatePrices corrects the per-life purchase and retread prices.
func TireUpdatePrices(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body tireUpdatePricesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tire, err := svc.UpdatePrices(r.Context(), strings.TrimSpace(chi.URLParam(r, "tireID")), tires.UpdatePricesInput{
			PriceLife1: body.PriceLife1,
			PriceLife2: body.PriceLife2,
			PriceLife3: body.PriceLife3,
			PriceLife4: body.PriceLife4,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tires.FromModel(tire))
	}
}

// TireDelete removes a tire that never accumulated ledger history.
func TireDelete(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), strings.TrimSpace(chi.URLParam(r, "tireID"))); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// TireMount puts a tire on a vehicle position and opens a kilometer span.
func TireMount(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body tireMountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tire, err := svc.Mount(r.Context(), tires.MountInput{
			TireID:     strings.TrimSpace(chi.URLParam(r, "tireID")),
			Plate:      body.Plate,
			Position:   body.Position,
			Mileage:    body.Mileage,
			OccurredAt: body.OccurredAt,
			RecordedBy: middleware.UsernameFromContext(r.Context()),
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tires.FromModel(tire))
	}
}

// TireDismount takes a tire off its vehicle and closes the kilometer span.
func TireDismount(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body tireDismountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		destination, err := enums.ParseTireAvailability(body.Destination)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination"))
			return
		}

		tire, err := svc.Dismount(r.Context(), tires.DismountInput{
			TireID:      strings.TrimSpace(chi.URLParam(r, "tireID")),
			Plate:       body.Plate,
			Destination: destination,
			Reason:      body.Reason,
			Mileage:     body.Mileage,
			OccurredAt:  body.OccurredAt,
			RecordedBy:  middleware.UsernameFromContext(r.Context()),
			Notes:       body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tires.FromModel(tire))
	}
}

// TireRegisterService records an in-service inspection for a mounted tire.
func TireRegisterService(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body tireServiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RegisterService(r.Context(), tires.RegisterServiceInput{
			TireID:         strings.TrimSpace(chi.URLParam(r, "tireID")),
			Mileage:        body.Mileage,
			OccurredAt:     body.OccurredAt,
			Depths:         [3]float64{body.Depth1, body.Depth2, body.Depth3},
			Alignment:      body.Alignment,
			Balancing:      body.Balancing,
			Repair:         body.Repair,
			PunctureRepair: body.PunctureRepair,
			Regrooving:     body.Regrooving,
			Torque:         body.Torque,
			Rotated:        body.Rotated,
			NewPosition:    body.NewPosition,
			RecordedBy:     middleware.UsernameFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, maintenance.FromModel(record))
	}
}

// TireApproveRetread passes a plant-conditioned casing into its next life.
func TireApproveRetread(svc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		if _, err := scopedTire(r, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body retreadApprovalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tire, err := svc.ApproveRetread(r.Context(), tires.ApproveRetreadInput{
			TireID:     strings.TrimSpace(chi.URLParam(r, "tireID")),
			Brand:      body.Brand,
			Reference:  body.Reference,
			Price:      body.Price,
			OccurredAt: body.OccurredAt,
			RecordedBy: middleware.UsernameFromContext(r.Context()),
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tires.FromModel(tire))
	}
}

// VehicleRotate swaps tire positions on one vehicle as a single batch.
func VehicleRotate(svc tires.Service, vehicleSvc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || vehicleSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		plate := strings.TrimSpace(chi.URLParam(r, "plate"))
		vehicle, err := vehicleSvc.Get(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), vehicle.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found"))
			return
		}

		var body vehicleRotateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		moves := make([]tires.RotationMove, 0, len(body.Moves))
		for _, move := range body.Moves {
			moves = append(moves, tires.RotationMove{
				TireID:       move.TireID,
				FromPosition: move.FromPosition,
				ToPosition:   move.ToPosition,
			})
		}

		if err := svc.Rotate(r.Context(), tires.RotateInput{
			Plate:      plate,
			Mileage:    body.Mileage,
			OccurredAt: body.OccurredAt,
			RecordedBy: middleware.UsernameFromContext(r.Context()),
			Moves:      moves,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "rotated"})
	}
}

// VehicleMountedTires returns the position map of tires on one vehicle.
func VehicleMountedTires(svc tires.Service, vehicleSvc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || vehicleSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tire service unavailable"))
			return
		}

		plate := strings.TrimSpace(chi.URLParam(r, "plate"))
		vehicle, err := vehicleSvc.Get(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), vehicle.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found"))
			return
		}

		mounted, err := svc.MountedByPlate(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		byPosition := make(map[string]*tires.TireDTO, len(mounted))
		for position := range mounted {
			tire := mounted[position]
			byPosition[position] = tires.FromModel(&tire)
		}

		responses.WriteSuccess(w, byPosition)
	}
}
