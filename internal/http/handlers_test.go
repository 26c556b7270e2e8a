package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/catalog"
	"github.com/mallkit/shop-admin-api/internal/config"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/order"
	"github.com/mallkit/shop-admin-api/internal/store/memstore"
	"github.com/mallkit/shop-admin-api/internal/upload"
	"github.com/mallkit/shop-admin-api/internal/user"
	"github.com/mallkit/shop-admin-api/internal/wechat"
)

type testEnv struct {
	handler http.Handler
	store   *memstore.Store
	guard   *auth.Guard
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		HTTPAddr:       ":0",
		PublicBaseURL:  "http://localhost:8080",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		WeChatTokenTTL: time.Hour,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 2 << 20,
	}
	st := memstore.New()
	guard := auth.NewGuard(cfg.JWTSecret, cfg.TokenTTL)
	wcClient := wechat.NewClient("app", "secret", "https://open.example", "https://api.example")
	saver, err := upload.NewSaver(cfg.UploadDir, cfg.MaxUploadBytes, cfg.PublicBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	app := NewApp(cfg, guard,
		catalog.NewService(st),
		order.NewService(st),
		user.NewService(st, guard),
		wechat.NewService(wcClient, st, guard, cfg.WeChatTokenTTL),
		saver,
	)
	return &testEnv{handler: NewRouter(app, nil), store: st, guard: guard}
}

// adminToken seeds an admin account directly and issues a token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	u := model.User{ID: uuid.NewString(), Username: "root-" + uuid.NewString()[:8], Role: model.RoleAdmin}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	tok, err := e.guard.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

// seedCatalog creates a category and product through the admin API.
func (e *testEnv) seedCatalog(t *testing.T, adminTok string, stock int64) (string, string) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/categories", adminTok, map[string]string{"name": "cat-" + uuid.NewString()[:8]})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", rr.Code, rr.Body.String())
	}
	cat := decodeBody[model.Category](t, rr)

	rr = e.do(t, http.MethodPost, "/api/products", adminTok, map[string]any{
		"name":     "widget",
		"price":    10,
		"category": cat.ID,
		"stock":    stock,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", rr.Code, rr.Body.String())
	}
	p := decodeBody[model.Product](t, rr)
	return cat.ID, p.ID
}

func TestRegisterLoginProfile(t *testing.T) {
	env := setupApp(t)

	rr := env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice01", "password": "secret1", "email": "a@example.com",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}
	reg := decodeBody[authResponse](t, rr)
	if reg.Token == "" || reg.User.Username != "alice01" {
		t.Fatalf("unexpected register response %+v", reg)
	}

	rr = env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice01", "password": "secret1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	login := decodeBody[authResponse](t, rr)

	rr = env.do(t, http.MethodGet, "/api/users/profile", login.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", rr.Code, rr.Body.String())
	}
	prof := decodeBody[model.User](t, rr)
	if prof.Username != "alice01" {
		t.Fatalf("profile for wrong user: %+v", prof)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatal("profile leaked password material")
	}

	rr = env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice01", "password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rr.Code)
	}
}

func TestAuthAndRoleEnforcement(t *testing.T) {
	env := setupApp(t)

	rr := env.do(t, http.MethodGet, "/api/users/profile", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/users/profile", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", rr.Code)
	}

	reg := decodeBody[authResponse](t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "bob001", "password": "secret1",
	}))
	rr = env.do(t, http.MethodPost, "/api/products", reg.Token, map[string]any{"name": "x", "price": 1, "category": "c"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin product create: %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/admin/user", reg.Token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin console access: %d", rr.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)
	_, productID := env.seedCatalog(t, adminTok, 5)

	reg := decodeBody[authResponse](t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "carol1", "password": "secret1",
	}))

	rr := env.do(t, http.MethodPost, "/api/orders", reg.Token, map[string]any{
		"items":           []map[string]any{{"product": productID, "quantity": 3}},
		"shippingAddress": "1 Main St",
		"paymentMethod":   "card",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create order: %d %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[orderResponse](t, rr)
	if created.Order.TotalAmount != 30 || created.Order.Status != model.OrderStatusPending {
		t.Fatalf("unexpected order %+v", created.Order)
	}

	p := decodeBody[model.Product](t, env.do(t, http.MethodGet, "/api/products/"+productID, "", nil))
	if p.Stock != 2 {
		t.Fatalf("stock after order = %d, want 2", p.Stock)
	}

	rr = env.do(t, http.MethodGet, "/api/orders/my-orders?status=pending", reg.Token, nil)
	page := decodeBody[order.Page](t, rr)
	if len(page.Orders) != 1 || page.TotalOrders != 1 {
		t.Fatalf("my-orders: %+v", page)
	}

	rr = env.do(t, http.MethodGet, "/api/orders/"+created.Order.ID, reg.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get order: %d %s", rr.Code, rr.Body.String())
	}
	detail := decodeBody[order.Detail](t, rr)
	if detail.Items[0].Product.Name != "widget" {
		t.Fatalf("detail missing product summary: %+v", detail)
	}

	// A stranger may not view or cancel someone else's order.
	other := decodeBody[authResponse](t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "mallory", "password": "secret1",
	}))
	if rr := env.do(t, http.MethodGet, "/api/orders/"+created.Order.ID, other.Token, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("stranger view: %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/cancel", other.Token, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("stranger cancel: %d", rr.Code)
	}

	// Admin advances the status; the owner can then no longer cancel.
	rr = env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/status", adminTok, map[string]string{"status": "paid"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status update: %d %s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/status", adminTok, map[string]string{"status": "completed"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("skipping shipped: %d", rr.Code)
	}
	rr = env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/cancel", reg.Token, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("cancel after paid: %d %s", rr.Code, rr.Body.String())
	}
}

func TestCancelRestoresStockOverHTTP(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)
	_, productID := env.seedCatalog(t, adminTok, 5)

	reg := decodeBody[authResponse](t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "dave01", "password": "secret1",
	}))
	created := decodeBody[orderResponse](t, env.do(t, http.MethodPost, "/api/orders", reg.Token, map[string]any{
		"items":           []map[string]any{{"product": productID, "quantity": 5}},
		"shippingAddress": "addr",
		"paymentMethod":   "card",
	}))

	rr := env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/cancel", reg.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rr.Code, rr.Body.String())
	}
	p := decodeBody[model.Product](t, env.do(t, http.MethodGet, "/api/products/"+productID, "", nil))
	if p.Stock != 5 {
		t.Fatalf("stock after cancel = %d, want 5", p.Stock)
	}
	// Cancelling twice must not restock twice.
	rr = env.do(t, http.MethodPut, "/api/orders/"+created.Order.ID+"/cancel", reg.Token, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("double cancel: %d", rr.Code)
	}
}

func TestOrderErrorCodes(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)
	_, productID := env.seedCatalog(t, adminTok, 2)

	reg := decodeBody[authResponse](t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "erin01", "password": "secret1",
	}))

	cases := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"insufficient stock", map[string]any{
			"items": []map[string]any{{"product": productID, "quantity": 3}}, "shippingAddress": "a", "paymentMethod": "card",
		}, http.StatusConflict, "insufficient_stock"},
		{"unknown product", map[string]any{
			"items": []map[string]any{{"product": "nope", "quantity": 1}}, "shippingAddress": "a", "paymentMethod": "card",
		}, http.StatusNotFound, "not_found"},
		{"empty items", map[string]any{
			"items": []map[string]any{}, "shippingAddress": "a", "paymentMethod": "card",
		}, http.StatusBadRequest, "validation_error"},
		{"zero quantity", map[string]any{
			"items": []map[string]any{{"product": productID, "quantity": 0}}, "shippingAddress": "a", "paymentMethod": "card",
		}, http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/orders", reg.Token, tc.body)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
			e := decodeBody[jsonError](t, rr)
			if e.Error != tc.wantCode {
				t.Fatalf("code = %q, want %q", e.Error, tc.wantCode)
			}
		})
	}

	// Failed creations must not consume stock.
	p := decodeBody[model.Product](t, env.do(t, http.MethodGet, "/api/products/"+productID, "", nil))
	if p.Stock != 2 {
		t.Fatalf("stock changed by failed orders: %d", p.Stock)
	}
}

func TestProductListingFilters(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)
	catID, _ := env.seedCatalog(t, adminTok, 1)

	rr := env.do(t, http.MethodGet, "/api/products?category="+catID+"&search=wid", "", nil)
	page := decodeBody[catalog.ProductPage](t, rr)
	if page.TotalProducts != 1 {
		t.Fatalf("filtered listing: %+v", page)
	}
	rr = env.do(t, http.MethodGet, "/api/products?search=zzz", "", nil)
	page = decodeBody[catalog.ProductPage](t, rr)
	if page.TotalProducts != 0 {
		t.Fatalf("expected empty listing, got %+v", page)
	}
}

func TestAdminConsoleEnvelope(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)

	rr := env.do(t, http.MethodPost, "/api/admin/roles", adminTok, map[string]any{
		"name":        "editor",
		"permissions": []string{"product:view", "product:edit"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create role: %d %s", rr.Code, rr.Body.String())
	}
	env1 := decodeBody[adminEnvelope](t, rr)
	if env1.Code != http.StatusOK {
		t.Fatalf("envelope code = %d", env1.Code)
	}

	var roleID string
	{
		rr := env.do(t, http.MethodGet, "/api/admin/roles/list", adminTok, nil)
		var resp struct {
			Code int `json:"code"`
			Data []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Data) != 1 || resp.Data[0].Name != "editor" {
			t.Fatalf("role options: %+v", resp)
		}
		roleID = resp.Data[0].ID
	}

	rr = env.do(t, http.MethodPost, "/api/admin/user", adminTok, map[string]string{
		"username": "staff1", "password": "secret1", "roleId": roleID,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin create user: %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/admin/user?keyword=staff", adminTok, nil)
	var userList struct {
		Code int `json:"code"`
		Data struct {
			List  []model.User `json:"list"`
			Total int          `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &userList); err != nil {
		t.Fatal(err)
	}
	if userList.Data.Total != 1 || userList.Data.List[0].Role != "editor" {
		t.Fatalf("user list: %+v", userList)
	}

	rr = env.do(t, http.MethodGet, "/api/admin/permissions", adminTok, nil)
	if !strings.Contains(rr.Body.String(), "product:view") {
		t.Fatalf("permissions body: %s", rr.Body.String())
	}

	// Validation failures keep the envelope shape.
	rr = env.do(t, http.MethodPost, "/api/admin/roles", adminTok, map[string]any{"name": "empty", "permissions": []string{}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty permissions: %d", rr.Code)
	}
	envErr := decodeBody[adminEnvelope](t, rr)
	if envErr.Code != http.StatusBadRequest || envErr.Message == "" {
		t.Fatalf("error envelope: %+v", envErr)
	}
}

func TestAdminUploadAndServe(t *testing.T) {
	env := setupApp(t)
	adminTok := env.adminToken(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="pic.png"`},
		"Content-Type":        {"image/png"},
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(part, "png-bytes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminTok)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	path := strings.TrimPrefix(resp.Data.URL, "http://localhost:8080")
	if !strings.HasPrefix(path, "/uploads/") {
		t.Fatalf("unexpected upload url %q", resp.Data.URL)
	}

	rr = env.do(t, http.MethodGet, path, "", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "png-bytes" {
		t.Fatalf("serve upload: %d %q", rr.Code, rr.Body.String())
	}
}

func TestOpenAPIServed(t *testing.T) {
	env := setupApp(t)
	rr := env.do(t, http.MethodGet, "/openapi.yaml", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
		t.Fatal("expected openapi content")
	}
}

func TestHealthzOK(t *testing.T) {
	env := setupApp(t)
	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeBody[map[string]string](t, rr); got["status"] != "ok" {
		t.Fatalf("health body: %v", got)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	env := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Fatalf("request id = %q", got)
	}
}
