package httpapi

import (
	"net/http"

	httpopenapi "github.com/mallkit/shop-admin-api/internal/http/openapi"
	"github.com/mallkit/shop-admin-api/internal/obs"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App, metrics *obs.ServerMetrics) http.Handler {
	mux := http.NewServeMux()

	// Shop API.
	mux.HandleFunc("POST /api/users/register", app.registerHandler)
	mux.HandleFunc("POST /api/users/login", app.loginHandler)
	mux.HandleFunc("GET /api/users/profile", app.requireAuth(app.profileHandler))

	mux.HandleFunc("GET /api/products", app.listProductsHandler)
	mux.HandleFunc("GET /api/products/{id}", app.getProductHandler)
	mux.HandleFunc("POST /api/products", app.requireAdmin(app.createProductHandler))
	mux.HandleFunc("PUT /api/products/{id}", app.requireAdmin(app.updateProductHandler))
	mux.HandleFunc("DELETE /api/products/{id}", app.requireAdmin(app.deleteProductHandler))

	mux.HandleFunc("GET /api/categories", app.listCategoriesHandler)
	mux.HandleFunc("GET /api/categories/{id}", app.getCategoryHandler)
	mux.HandleFunc("POST /api/categories", app.requireAdmin(app.createCategoryHandler))
	mux.HandleFunc("PUT /api/categories/{id}", app.requireAdmin(app.updateCategoryHandler))
	mux.HandleFunc("DELETE /api/categories/{id}", app.requireAdmin(app.deleteCategoryHandler))

	// Literal segments rank above wildcards, so my-orders never matches {id}.
	mux.HandleFunc("POST /api/orders", app.requireAuth(app.createOrderHandler))
	mux.HandleFunc("GET /api/orders/my-orders", app.requireAuth(app.myOrdersHandler))
	mux.HandleFunc("GET /api/orders/{id}", app.requireAuth(app.getOrderHandler))
	mux.HandleFunc("PUT /api/orders/{id}/status", app.requireAdmin(app.updateOrderStatusHandler))
	mux.HandleFunc("PUT /api/orders/{id}/cancel", app.requireAuth(app.cancelOrderHandler))

	mux.HandleFunc("GET /api/wechat/auth-url", app.wechatAuthURLHandler)
	mux.HandleFunc("GET /api/wechat/callback", app.wechatCallbackHandler)

	// Admin console API.
	mux.HandleFunc("GET /api/admin/user", app.requireAdmin(app.adminListUsersHandler))
	mux.HandleFunc("POST /api/admin/user", app.requireAdmin(app.adminCreateUserHandler))
	mux.HandleFunc("PUT /api/admin/user/{id}", app.requireAdmin(app.adminUpdateUserHandler))
	mux.HandleFunc("DELETE /api/admin/user/{id}", app.requireAdmin(app.adminDeleteUserHandler))

	mux.HandleFunc("GET /api/admin/roles", app.requireAdmin(app.adminListRolesHandler))
	mux.HandleFunc("POST /api/admin/roles", app.requireAdmin(app.adminCreateRoleHandler))
	mux.HandleFunc("GET /api/admin/roles/list", app.requireAdmin(app.adminRoleOptionsHandler))
	mux.HandleFunc("PUT /api/admin/roles/{id}", app.requireAdmin(app.adminUpdateRoleHandler))
	mux.HandleFunc("DELETE /api/admin/roles/{id}", app.requireAdmin(app.adminDeleteRoleHandler))
	mux.HandleFunc("GET /api/admin/permissions", app.requireAdmin(app.adminPermissionsHandler))

	mux.HandleFunc("POST /api/admin/upload", app.requireAdmin(app.adminUploadHandler))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.Cfg.UploadDir))))

	// Ops.
	mux.HandleFunc("GET /healthz", app.healthHandler)
	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.HandleFunc("GET /openapi.yaml", app.openapiHandler)
	mux.HandleFunc("GET /docs", app.docsHandler)

	return WithRequestID(WithLogging(metrics, mux))
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
