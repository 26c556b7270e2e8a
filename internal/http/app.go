package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/catalog"
	"github.com/mallkit/shop-admin-api/internal/config"
	"github.com/mallkit/shop-admin-api/internal/order"
	"github.com/mallkit/shop-admin-api/internal/upload"
	"github.com/mallkit/shop-admin-api/internal/user"
	"github.com/mallkit/shop-admin-api/internal/wechat"
)

// App bundles the services behind the HTTP handlers.
type App struct {
	Cfg     config.Config
	Guard   *auth.Guard
	Catalog *catalog.Service
	Orders  *order.Service
	Users   *user.Service
	WeChat  *wechat.Service
	Uploads *upload.Saver
	started time.Time
}

func NewApp(cfg config.Config, guard *auth.Guard, cat *catalog.Service, ord *order.Service, usr *user.Service, wc *wechat.Service, up *upload.Saver) *App {
	return &App{
		Cfg:     cfg,
		Guard:   guard,
		Catalog: cat,
		Orders:  ord,
		Users:   usr,
		WeChat:  wc,
		Uploads: up,
		started: time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parses the request body strictly, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// decodeOrReject decodes into v, writing a 400 itself on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// queryInt64Ptr parses an optional int64 query parameter.
func queryInt64Ptr(r *http.Request, key string) *int64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(a.started).Truncate(time.Second).String(),
	})
}
