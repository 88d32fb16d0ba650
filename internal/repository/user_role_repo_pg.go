package repository

import (
	"context"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRoleRepository is read-only; roles are seeded by migrations.
type UserRoleRepository interface {
	List(ctx context.Context) ([]domain.UserRole, error)
}

type PGUserRoleRepository struct {
	db *pgxpool.Pool
}

func NewUserRoleRepository(db *pgxpool.Pool) UserRoleRepository {
	return &PGUserRoleRepository{db: db}
}

func (r *PGUserRoleRepository) List(ctx context.Context) ([]domain.UserRole, error) {
	rows, err := r.db.Query(ctx, `SELECT userroleid, name, description, isadmin FROM userroles ORDER BY userroleid`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	roles := make([]domain.UserRole, 0)
	for rows.Next() {
		var role domain.UserRole
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsAdmin); err != nil {
			return nil, translate(err)
		}
		roles = append(roles, role)
	}
	return roles, translate(rows.Err())
}

var _ UserRoleRepository = (*PGUserRoleRepository)(nil)
