package httpapi

import (
	"mime/multipart"
	"net/http"

	"github.com/mallkit/shop-admin-api/internal/user"
)

// The /api/admin handlers speak the console's {code, message, data}
// envelope rather than the shop API's plain bodies.

type pageData struct {
	List  any `json:"list"`
	Total int `json:"total"`
}

func (a *App) adminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := a.Users.ListUsers(r.Context(),
		r.URL.Query().Get("keyword"),
		queryInt(r, "pageIndex", 1),
		queryInt(r, "pageSize", 10))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "success", pageData{List: page.Users, Total: page.Total})
}

func (a *App) adminCreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req user.AdminCreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAdmin(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	u, err := a.Users.AdminCreateUser(r.Context(), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "user created", u)
}

func (a *App) adminUpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req user.AdminUpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAdmin(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := a.Users.AdminUpdateUser(r.Context(), r.PathValue("id"), req); err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "user updated", nil)
}

func (a *App) adminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Users.AdminDeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "user deleted", nil)
}

func (a *App) adminListRolesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := a.Users.ListRoles(r.Context(),
		r.URL.Query().Get("keyword"),
		queryInt(r, "pageIndex", 1),
		queryInt(r, "pageSize", 10))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "success", pageData{List: page.Roles, Total: page.Total})
}

func (a *App) adminCreateRoleHandler(w http.ResponseWriter, r *http.Request) {
	var in user.RoleInput
	if err := decodeJSON(r, &in); err != nil {
		writeAdmin(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	role, err := a.Users.CreateRole(r.Context(), in)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "role created", role)
}

func (a *App) adminUpdateRoleHandler(w http.ResponseWriter, r *http.Request) {
	var in user.RoleInput
	if err := decodeJSON(r, &in); err != nil {
		writeAdmin(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	role, err := a.Users.UpdateRole(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "role updated", role)
}

func (a *App) adminDeleteRoleHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Users.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "role deleted", nil)
}

// adminRoleOptionsHandler lists roles as dropdown options.
func (a *App) adminRoleOptionsHandler(w http.ResponseWriter, r *http.Request) {
	roles, err := a.Users.RoleOptions(r.Context())
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	type option struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	opts := make([]option, 0, len(roles))
	for _, ro := range roles {
		opts = append(opts, option{ID: ro.ID, Name: ro.Name})
	}
	writeAdmin(w, http.StatusOK, "success", opts)
}

func (a *App) adminPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	writeAdmin(w, http.StatusOK, "success", user.Permissions)
}

func (a *App) adminUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.Cfg.MaxUploadBytes); err != nil {
		writeAdmin(w, http.StatusBadRequest, "malformed multipart body", nil)
		return
	}
	var fh *multipart.FileHeader
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		fh = files[0]
	}
	url, err := a.Uploads.Save(fh)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, "upload successful", map[string]string{"url": url})
}
