// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/catalog"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/order"
	"github.com/mallkit/shop-admin-api/internal/store"
	"github.com/mallkit/shop-admin-api/internal/upload"
	"github.com/mallkit/shop-admin-api/internal/user"
	"github.com/mallkit/shop-admin-api/internal/wechat"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// errStatus maps a service error onto an HTTP status and a stable code.
// Unknown errors become 500 internal_error with no detail leaked.
func errStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput):
		return http.StatusBadRequest, "validation_error", detail(err)
	case errors.Is(err, user.ErrBadCredentials):
		return http.StatusUnauthorized, "invalid_credentials", ""
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", ""
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "forbidden", ""
	case errors.Is(err, user.ErrProtectedUser),
		errors.Is(err, user.ErrProtectedRole):
		return http.StatusForbidden, "protected", detail(err)
	case errors.Is(err, order.ErrProductNotFound):
		return http.StatusNotFound, "not_found", detail(err)
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found", ""
	case errors.Is(err, order.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock", detail(err)
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", detail(err)
	case errors.Is(err, order.ErrRestockFailed):
		return http.StatusConflict, "restock_failed", detail(err)
	case errors.Is(err, user.ErrRoleInUse):
		return http.StatusConflict, "role_in_use", ""
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict", ""
	case errors.Is(err, upload.ErrNoFile):
		return http.StatusBadRequest, "validation_error", "file is required"
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type", detail(err)
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large", detail(err)
	case errors.Is(err, wechat.ErrOAuthFailed):
		return http.StatusBadGateway, "oauth_failed", ""
	}
	return http.StatusInternalServerError, "internal_error", ""
}

// writeError renders err in the shop API dialect.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := errStatus(err)
	if status == http.StatusInternalServerError {
		obs.Logger.Error("request_failed",
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	}
	WriteJSONError(w, status, code, details)
}

// adminEnvelope is the admin console response shape. Every admin response,
// success or failure, carries it with code mirroring the HTTP status.
type adminEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeAdmin(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(adminEnvelope{Code: status, Message: message, Data: data})
}

// writeAdminError renders err in the admin console dialect.
func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := errStatus(err)
	if status == http.StatusInternalServerError {
		obs.Logger.Error("request_failed",
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	}
	msg := code
	if details != "" {
		msg = details
	}
	writeAdmin(w, status, msg, nil)
}

// detail flattens a joined validation error into a single line, dropping
// the sentinel prefix when a more specific message follows it.
func detail(err error) string {
	parts := strings.Split(err.Error(), "\n")
	if len(parts) > 1 {
		return strings.Join(parts[1:], "; ")
	}
	return parts[0]
}
