package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/course-payments/internal/auth"
	userDatamodel "github.com/frahmantamala/course-payments/internal/core/datamodel/user"
	"github.com/frahmantamala/course-payments/internal/user"
)

const profileColumns = "id, name, email, avatar_url, password_hash, role, is_active, created_at, updated_at"

// UserRepository reads the users database. It lives on its own connection pool,
// so callers join its results with payment data in memory.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Lookup(ctx context.Context, userID int64) (*user.Profile, error) {
	var row userDatamodel.User
	query := r.db.Rebind("SELECT " + profileColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) LookupMany(ctx context.Context, userIDs []int64) (map[int64]*user.Profile, error) {
	out := make(map[int64]*user.Profile, len(userIDs))
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT "+profileColumns+" FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build user batch query: %w", err)
	}

	var rows []userDatamodel.User
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lookup %d users: %w", len(ids), err)
	}

	for i := range rows {
		out[rows[i].ID] = user.FromDataModel(&rows[i])
	}
	return out, nil
}

func (r *UserRepository) GetCredentials(ctx context.Context, email string) (auth.Credentials, error) {
	var row struct {
		ID           int64  `db:"id"`
		PasswordHash string `db:"password_hash"`
		Role         string `db:"role"`
		IsActive     bool   `db:"is_active"`
	}
	query := r.db.Rebind("SELECT id, password_hash, role, is_active FROM users WHERE LOWER(email) = LOWER(?)")
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Credentials{}, user.ErrNotFound
		}
		return auth.Credentials{}, fmt.Errorf("get credentials: %w", err)
	}
	return auth.Credentials{
		UserID:       row.ID,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		IsActive:     row.IsActive,
	}, nil
}

// PingContext is used by the health endpoint.
func (r *UserRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
