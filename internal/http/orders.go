package httpapi

import (
	"net/http"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/order"
)

type orderResponse struct {
	Message string      `json:"message"`
	Order   model.Order `json:"order"`
}

func (a *App) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req order.CreateRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	o, err := a.Orders.Create(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Message: "order created", Order: o})
}

func (a *App) myOrdersHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	status := model.OrderStatus(r.URL.Query().Get("status"))
	page, err := a.Orders.ListForUser(r.Context(), id.UserID, status,
		queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *App) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	d, err := a.Orders.GetByID(r.Context(), id, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *App) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	o, err := a.Orders.UpdateStatus(r.Context(), id, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "status updated", Order: o})
}

func (a *App) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	o, err := a.Orders.Cancel(r.Context(), id, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "order cancelled", Order: o})
}
