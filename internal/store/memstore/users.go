package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (v *view) CreateUser(_ context.Context, u model.User) error {
	for _, rec := range v.d.users {
		if rec.u.Username == u.Username {
			return store.ErrConflict
		}
		if u.WeChatOpenID != "" && rec.u.WeChatOpenID == u.WeChatOpenID {
			return store.ErrConflict
		}
	}
	if _, ok := v.d.users[u.ID]; ok {
		return store.ErrConflict
	}
	v.d.users[u.ID] = userRec{u: u, seq: v.d.seq()}
	return nil
}

func (v *view) GetUser(_ context.Context, id string) (model.User, error) {
	rec, ok := v.d.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return rec.u, nil
}

func (v *view) FindUserByUsername(_ context.Context, username string) (model.User, error) {
	for _, rec := range v.d.users {
		if rec.u.Username == username {
			return rec.u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (v *view) FindUserByWeChatOpenID(_ context.Context, openID string) (model.User, error) {
	if openID == "" {
		return model.User{}, store.ErrNotFound
	}
	for _, rec := range v.d.users {
		if rec.u.WeChatOpenID == openID {
			return rec.u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (v *view) ListUsers(_ context.Context, keyword string, page, pageSize int) ([]model.User, int, error) {
	kw := strings.ToLower(keyword)
	recs := make([]userRec, 0, len(v.d.users))
	for _, rec := range v.d.users {
		if kw != "" &&
			!strings.Contains(strings.ToLower(rec.u.Username), kw) &&
			!strings.Contains(strings.ToLower(rec.u.Nickname), kw) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	total := len(recs)
	page, size := store.Page(page, pageSize)
	out := paginate(recs, page, size)
	users := make([]model.User, 0, len(out))
	for _, rec := range out {
		users = append(users, rec.u)
	}
	return users, total, nil
}

func (v *view) UpdateUser(_ context.Context, u model.User) error {
	rec, ok := v.d.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range v.d.users {
		if id != u.ID && other.u.Username == u.Username {
			return store.ErrConflict
		}
	}
	rec.u = u
	v.d.users[u.ID] = rec
	return nil
}

func (v *view) DeleteUser(_ context.Context, id string) error {
	if _, ok := v.d.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.d.users, id)
	return nil
}

func (v *view) CountUsersByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, rec := range v.d.users {
		if rec.u.Role == role {
			n++
		}
	}
	return n, nil
}

func (v *view) CreateRole(_ context.Context, r model.RoleDef) error {
	for _, rec := range v.d.roles {
		if rec.r.Name == r.Name {
			return store.ErrConflict
		}
	}
	if _, ok := v.d.roles[r.ID]; ok {
		return store.ErrConflict
	}
	r.Permissions = slices.Clone(r.Permissions)
	v.d.roles[r.ID] = roleRec{r: r, seq: v.d.seq()}
	return nil
}

func (v *view) GetRole(_ context.Context, id string) (model.RoleDef, error) {
	rec, ok := v.d.roles[id]
	if !ok {
		return model.RoleDef{}, store.ErrNotFound
	}
	return rec.r, nil
}

func (v *view) FindRoleByName(_ context.Context, name string) (model.RoleDef, error) {
	for _, rec := range v.d.roles {
		if rec.r.Name == name {
			return rec.r, nil
		}
	}
	return model.RoleDef{}, store.ErrNotFound
}

func (v *view) ListRoles(_ context.Context, keyword string, page, pageSize int) ([]model.RoleDef, int, error) {
	kw := strings.ToLower(keyword)
	recs := make([]roleRec, 0, len(v.d.roles))
	for _, rec := range v.d.roles {
		if kw != "" && !strings.Contains(strings.ToLower(rec.r.Name), kw) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	total := len(recs)
	page, size := store.Page(page, pageSize)
	out := paginate(recs, page, size)
	roles := make([]model.RoleDef, 0, len(out))
	for _, rec := range out {
		roles = append(roles, rec.r)
	}
	return roles, total, nil
}

func (v *view) UpdateRole(_ context.Context, r model.RoleDef) error {
	rec, ok := v.d.roles[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range v.d.roles {
		if id != r.ID && other.r.Name == r.Name {
			return store.ErrConflict
		}
	}
	r.Permissions = slices.Clone(r.Permissions)
	rec.r = r
	v.d.roles[r.ID] = rec
	return nil
}

func (v *view) DeleteRole(_ context.Context, id string) error {
	if _, ok := v.d.roles[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.d.roles, id)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	return s.write(func(v *view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.read(func(v *view) error {
		var err error
		u, err = v.GetUser(ctx, id)
		return err
	})
	return u, err
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.read(func(v *view) error {
		var err error
		u, err = v.FindUserByUsername(ctx, username)
		return err
	})
	return u, err
}

func (s *Store) FindUserByWeChatOpenID(ctx context.Context, openID string) (model.User, error) {
	var u model.User
	err := s.read(func(v *view) error {
		var err error
		u, err = v.FindUserByWeChatOpenID(ctx, openID)
		return err
	})
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, keyword string, page, pageSize int) ([]model.User, int, error) {
	var (
		out   []model.User
		total int
	)
	err := s.read(func(v *view) error {
		var err error
		out, total, err = v.ListUsers(ctx, keyword, page, pageSize)
		return err
	})
	return out, total, err
}

func (s *Store) UpdateUser(ctx context.Context, u model.User) error {
	return s.write(func(v *view) error { return v.UpdateUser(ctx, u) })
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.write(func(v *view) error { return v.DeleteUser(ctx, id) })
}

func (s *Store) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := s.read(func(v *view) error {
		var err error
		n, err = v.CountUsersByRole(ctx, role)
		return err
	})
	return n, err
}

func (s *Store) CreateRole(ctx context.Context, r model.RoleDef) error {
	return s.write(func(v *view) error { return v.CreateRole(ctx, r) })
}

func (s *Store) GetRole(ctx context.Context, id string) (model.RoleDef, error) {
	var r model.RoleDef
	err := s.read(func(v *view) error {
		var err error
		r, err = v.GetRole(ctx, id)
		return err
	})
	return r, err
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (model.RoleDef, error) {
	var r model.RoleDef
	err := s.read(func(v *view) error {
		var err error
		r, err = v.FindRoleByName(ctx, name)
		return err
	})
	return r, err
}

func (s *Store) ListRoles(ctx context.Context, keyword string, page, pageSize int) ([]model.RoleDef, int, error) {
	var (
		out   []model.RoleDef
		total int
	)
	err := s.read(func(v *view) error {
		var err error
		out, total, err = v.ListRoles(ctx, keyword, page, pageSize)
		return err
	})
	return out, total, err
}

func (s *Store) UpdateRole(ctx context.Context, r model.RoleDef) error {
	return s.write(func(v *view) error { return v.UpdateRole(ctx, r) })
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.write(func(v *view) error { return v.DeleteRole(ctx, id) })
}
