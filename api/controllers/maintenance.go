package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/vehicles"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/types"
)

// TireServiceHistory pages through a tire's maintenance ledger.
func TireServiceHistory(svc maintenance.Service, tireSvc tires.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || tireSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
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

		responses.WriteSuccess(w, types.Page{Items: maintenance.FromModels(rows), NextCursor: next})
	}
}

// VehicleServiceHistory pages through the maintenance ledger for one plate.
func VehicleServiceHistory(svc maintenance.Service, vehicleSvc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || vehicleSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
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

		responses.WriteSuccess(w, types.Page{Items: maintenance.FromModels(rows), NextCursor: next})
	}
}

// ServiceRecordList pages through the maintenance ledger the caller may see.
func ServiceRecordList(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "maintenance service unavailable"))
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

		responses.WriteSuccess(w, types.Page{Items: maintenance.FromModels(rows), NextCursor: next})
	}
}
