package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// RoleRepository handles admin role data access.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// GetByID retrieves a role with its permission codes.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	role := &model.Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, permissions FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.Permissions)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// List retrieves all roles.
func (r *RoleRepository) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, permissions FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetPermissions returns the permission codes attached to a role.
func (r *RoleRepository) GetPermissions(ctx context.Context, roleID int64) ([]string, error) {
	var perms []string
	err := r.pool.QueryRow(ctx,
		`SELECT permissions FROM roles WHERE id = $1`, roleID).Scan(&perms)
	if err != nil {
		return nil, err
	}
	return perms, nil
}
