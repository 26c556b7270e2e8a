package httpapi

import (
	"net/http"

	"github.com/mallkit/shop-admin-api/internal/model"
)

func (a *App) wechatAuthURLHandler(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirectUrl")
	if redirect == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "redirectUrl is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": a.WeChat.AuthURL(redirect)})
}

func (a *App) wechatCallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "code is required")
		return
	}
	u, token, err := a.WeChat.Login(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string     `json:"message"`
		Token   string     `json:"token"`
		User    model.User `json:"user"`
	}{Message: "login successful", Token: token, User: u})
}
