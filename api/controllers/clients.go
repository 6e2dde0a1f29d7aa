package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/api/validators"
	"github.com/decortz/sill-backend/internal/clients"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/types"
)

type clientCreateRequest struct {
	NIT    string   `json:"nit" validate:"required"`
	Name   string   `json:"name" validate:"required"`
	Fronts []string `json:"fronts,omitempty"`
}

type clientUpdateRequest struct {
	Name   *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Fronts []string `json:"fronts,omitempty"`
}

// ClientCreate registers a fleet owner.
func ClientCreate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		var body clientCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Create(r.Context(), clients.CreateClientInput{
			NIT:    body.NIT,
			Name:   body.Name,
			Fronts: body.Fronts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, clients.FromModel(client))
	}
}

// ClientGet loads one client by NIT, honoring the caller's scope.
func ClientGet(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		nit := strings.TrimSpace(chi.URLParam(r, "nit"))
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), nit) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "client not found"))
			return
		}

		client, err := svc.Get(r.Context(), nit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clients.FromModel(client))
	}
}

// ClientList pages through the clients visible to the caller.
func ClientList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
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

		responses.WriteSuccess(w, types.Page{Items: clients.FromModels(rows), NextCursor: next})
	}
}

// ClientUpdate adjusts the mutable client fields.
func ClientUpdate(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		nit := strings.TrimSpace(chi.URLParam(r, "nit"))
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), nit) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "client not found"))
			return
		}

		var body clientUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Update(r.Context(), nit, clients.UpdateClientInput{
			Name:   body.Name,
			Fronts: body.Fronts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clients.FromModel(client))
	}
}

// ClientDelete removes a client with no vehicles or tires left.
func ClientDelete(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		nit := strings.TrimSpace(chi.URLParam(r, "nit"))
		if !scopeAllows(middleware.ScopeNITsFromContext(r.Context()), nit) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "client not found"))
			return
		}

		if err := svc.Delete(r.Context(), nit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
