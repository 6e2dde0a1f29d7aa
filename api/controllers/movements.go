package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/vehicles"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/types"
)

// TireMovements pages through a tire's movement ledger.
func TireMovements(svc movements.Service, tireSvc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || tireSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		if _, err := scopedTire(r, tireSvc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListByTireID(r.Context(), strings.TrimSpace(chi.URLParam(r, "tireID")), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Page{Items: movements.FromModels(rows), NextCursor: next})
	}
}

// VehicleMovements pages through the movement ledger for one plate.
func VehicleMovements(svc movements.Service, vehicleSvc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || vehicleSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
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

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListByPlate(r.Context(), plate, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Page{Items: movements.FromModels(rows), NextCursor: next})
	}
}

// MovementList pages through the whole movement ledger the caller may see.
func MovementList(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListByClient(r.Context(), middleware.ScopeNITsFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.Page{Items: movements.FromModels(rows), NextCursor: next})
	}
}
