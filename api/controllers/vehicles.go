package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/api/validators"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/types"
)

type vehicleCreateRequest struct {
	Code           string `json:"code,omitempty"`
	ClientNIT      string `json:"client_nit" validate:"required"`
	Brand          string `json:"brand" validate:"required"`
	Line           string `json:"line,omitempty"`
	Typology       string `json:"typology" validate:"required"`
	Plate          string `json:"plate" validate:"required"`
	Front          string `json:"front,omitempty"`
	InitialMileage int64  `json:"initial_mileage" validate:"gte=0"`
	MileageMethod  string `json:"mileage_method" validate:"required"`
}

type vehicleUpdateRequest struct {
	Brand          *string `json:"brand,omitempty" validate:"omitempty,min=1"`
	Line           *string `json:"line,omitempty"`
	Typology       *string `json:"typology,omitempty"`
	Front          *string `json:"front,omitempty"`
	Status         *string `json:"status,omitempty"`
	InitialMileage *int64  `json:"initial_mileage,omitempty" validate:"omitempty,gte=0"`
	MileageMethod  *string `json:"mileage_method,omitempty"`
}

// VehicleCreate registers a fleet unit under a client.
func VehicleCreate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		var body vehicleCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), body.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "client outside your scope"))
			return
		}

		typology, err := enums.ParseVehicleTypology(body.Typology)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid typology"))
			return
		}
		method, err := enums.ParseMileageMethod(body.MileageMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mileage method"))
			return
		}

		vehicle, err := svc.Create(r.Context(), vehicles.CreateVehicleInput{
			Code:           body.Code,
			ClientNIT:      body.ClientNIT,
			Brand:          body.Brand,
			Line:           body.Line,
			Typology:       typology,
			Plate:          body.Plate,
			Front:          body.Front,
			InitialMileage: body.InitialMileage,
			MileageMethod:  method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, vehicles.FromModel(vehicle))
	}
}

// VehicleGet loads one vehicle by plate, honoring the caller's scope.
func VehicleGet(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		plate := strings.TrimSpace(chi.URLParam(r, "plate"))
		vehicle, err := svc.Get(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), vehicle.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found"))
			return
		}

		responses.WriteSuccess(w, vehicles.FromModel(vehicle))
	}
}

// VehicleList pages through the vehicles visible to the caller.
func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
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

		responses.WriteSuccess(w, types.Page{Items: vehicles.FromModels(rows), NextCursor: next})
	}
}

// VehicleUpdate adjusts the mutable vehicle fields, status included.
func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		plate := strings.TrimSpace(chi.URLParam(r, "plate"))

		current, err := svc.Get(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), current.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found"))
			return
		}

		var body vehicleUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := vehicles.UpdateVehicleInput{
			Brand:          body.Brand,
			Line:           body.Line,
			Front:          body.Front,
			InitialMileage: body.InitialMileage,
		}
		if body.Typology != nil {
			typology, err := enums.ParseVehicleTypology(*body.Typology)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid typology"))
				return
			}
			input.Typology = &typology
		}
		if body.Status != nil {
			status, err := enums.ParseVehicleStatus(*body.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if body.MileageMethod != nil {
			method, err := enums.ParseMileageMethod(*body.MileageMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mileage method"))
				return
			}
			input.MileageMethod = &method
		}

		vehicle, err := svc.Update(r.Context(), plate, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vehicles.FromModel(vehicle))
	}
}

// VehicleDelete removes a vehicle with no tires mounted.
func VehicleDelete(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		plate := strings.TrimSpace(chi.URLParam(r, "plate"))
		current, err := svc.Get(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), current.ClientNIT) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found"))
			return
		}

		if err := svc.Delete(r.Context(), plate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
