package postgres

import (
	"context"
	"database/sql"

	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
)

// Empty WeChat open IDs are stored as NULL so the unique index only
// applies to real values.

func (q *queries) CreateUser(ctx context.Context, u model.User) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO users(id, username, password_hash, email, nickname, avatar, role, wechat_openid, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
		u.ID, u.Username, u.PasswordHash, u.Email, u.Nickname, u.Avatar, u.Role, u.WeChatOpenID, u.CreatedAt,
	)
	return mapErr(err)
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u      model.User
		openID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Nickname, &u.Avatar, &u.Role, &openID, &u.CreatedAt)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	u.WeChatOpenID = openID.String
	return u, nil
}

const userCols = `id, username, password_hash, email, nickname, avatar, role, wechat_openid, created_at`

func (q *queries) GetUser(ctx context.Context, id string) (model.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (q *queries) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username=$1`, username))
}

func (q *queries) FindUserByWeChatOpenID(ctx context.Context, openID string) (model.User, error) {
	if openID == "" {
		return model.User{}, store.ErrNotFound
	}
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE wechat_openid=$1`, openID))
}

func (q *queries) ListUsers(ctx context.Context, keyword string, page, pageSize int) ([]model.User, int, error) {
	cond := ""
	args := []any{}
	if keyword != "" {
		args = append(args, "%"+keyword+"%")
		cond = " WHERE username ILIKE $1 OR nickname ILIKE $1"
	}
	var total int
	if err := q.db.QueryRow(ctx, "SELECT count(*) FROM users"+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	page, size := store.Page(page, pageSize)
	limit := len(args) + 1
	args = append(args, size, (page-1)*size)
	rows, err := q.db.Query(ctx,
		`SELECT `+userCols+` FROM users`+cond+
			` ORDER BY created_at DESC, id LIMIT $`+itoa(limit)+` OFFSET $`+itoa(limit+1),
		args...,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (q *queries) UpdateUser(ctx context.Context, u model.User) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET username=$2, password_hash=$3, email=$4, nickname=$5, avatar=$6, role=$7, wechat_openid=NULLIF($8, '')
		 WHERE id=$1`,
		u.ID, u.Username, u.PasswordHash, u.Email, u.Nickname, u.Avatar, u.Role, u.WeChatOpenID,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) DeleteUser(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE role=$1`, role).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (q *queries) CreateRole(ctx context.Context, r model.RoleDef) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO roles(id, name, description, permissions, is_system, created_at)
		 VALUES($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Name, r.Description, r.Permissions, r.IsSystem, r.CreatedAt,
	)
	return mapErr(err)
}

func (q *queries) GetRole(ctx context.Context, id string) (model.RoleDef, error) {
	var r model.RoleDef
	err := q.db.QueryRow(ctx,
		`SELECT id, name, description, permissions, is_system, created_at FROM roles WHERE id=$1`, id,
	).Scan(&r.ID, &r.Name, &r.Description, &r.Permissions, &r.IsSystem, &r.CreatedAt)
	if err != nil {
		return model.RoleDef{}, mapErr(err)
	}
	return r, nil
}

func (q *queries) FindRoleByName(ctx context.Context, name string) (model.RoleDef, error) {
	var r model.RoleDef
	err := q.db.QueryRow(ctx,
		`SELECT id, name, description, permissions, is_system, created_at FROM roles WHERE name=$1`, name,
	).Scan(&r.ID, &r.Name, &r.Description, &r.Permissions, &r.IsSystem, &r.CreatedAt)
	if err != nil {
		return model.RoleDef{}, mapErr(err)
	}
	return r, nil
}

func (q *queries) ListRoles(ctx context.Context, keyword string, page, pageSize int) ([]model.RoleDef, int, error) {
	cond := ""
	args := []any{}
	if keyword != "" {
		args = append(args, "%"+keyword+"%")
		cond = " WHERE name ILIKE $1"
	}
	var total int
	if err := q.db.QueryRow(ctx, "SELECT count(*) FROM roles"+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	page, size := store.Page(page, pageSize)
	limit := len(args) + 1
	args = append(args, size, (page-1)*size)
	rows, err := q.db.Query(ctx,
		`SELECT id, name, description, permissions, is_system, created_at FROM roles`+cond+
			` ORDER BY created_at DESC, id LIMIT $`+itoa(limit)+` OFFSET $`+itoa(limit+1),
		args...,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	var out []model.RoleDef
	for rows.Next() {
		var r model.RoleDef
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Permissions, &r.IsSystem, &r.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (q *queries) UpdateRole(ctx context.Context, r model.RoleDef) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE roles SET name=$2, description=$3, permissions=$4 WHERE id=$1`,
		r.ID, r.Name, r.Description, r.Permissions,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) DeleteRole(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
