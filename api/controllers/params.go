package controllers

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/decortz/sill-backend/pkg/errors"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// listParams reads the limit and cursor query parameters shared by every
// listing endpoint.
func listParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{}
	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		value, err := strconv.Atoi(limitStr)
		if err != nil || value <= 0 {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		params.Limit = value
	}
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return params, nil
}

// scopeAllows reports whether the caller's client scope covers the given NIT.
// A nil scope means the caller is unscoped.
func scopeAllows(scope []string, nit string) bool {
	if scope == nil {
		return true
	}
	for _, allowed := range scope {
		if allowed == nit {
			return true
		}
	}
	return false
}
