package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/internal/export"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
)

// maxImportBody caps uploaded CSV files at 20 MiB.
const maxImportBody = 20 << 20

// ExportTable streams one table as a CSV download.
func ExportTable(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		table := export.Table(strings.TrimSpace(chi.URLParam(r, "table")))

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(table)+".csv"))

		scope := middleware.ScopeNITsFromContext(r.Context())
		if err := svc.Export(r.Context(), table, scope, w); err != nil {
			// Headers may already be on the wire; log and fall back to the
			// error envelope for failures before the first row.
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
	}
}

// ImportTable ingests an uploaded CSV into one of the catalog tables.
func ImportTable(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		table := export.Table(strings.TrimSpace(chi.URLParam(r, "table")))
		body := http.MaxBytesReader(w, r.Body, maxImportBody)
		defer body.Close()

		summary, err := svc.Import(r.Context(), table, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// FleetStatusReport summarizes tire availability and vehicle status counts.
func FleetStatusReport(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		report, err := svc.FleetStatus(r.Context(), middleware.ScopeNITsFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// WearReport lists mounted tires with their latest tread measurement.
func WearReport(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		entries, err := svc.WearReport(r.Context(), middleware.ScopeNITsFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}
