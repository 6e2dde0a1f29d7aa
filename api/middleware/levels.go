package middleware

import (
	"net/http"

	"github.com/decortz/sill-backend/api/responses"
	"github.com/decortz/sill-backend/pkg/enums"
	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/logger"
)

// RequireLevel rejects callers whose access level does not grant the
// required one.
func RequireLevel(required enums.AccessLevel, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !AccessLevelFromContext(r.Context()).Grants(required) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient access level"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
