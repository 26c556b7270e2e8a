package httpapi

import (
	"net/http"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/user"
)

type authResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func (a *App) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	u, token, err := a.Users.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "registered", Token: token, User: u})
}

func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	u, token, err := a.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "login successful", Token: token, User: u})
}

func (a *App) profileHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	u, err := a.Users.Profile(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
