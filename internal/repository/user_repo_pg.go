package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	GetWithRole(ctx context.Context, id string) (*domain.UserWithRole, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByField(ctx context.Context, field domain.UserField, value string) ([]domain.User, error)
	ListWithRoles(ctx context.Context) ([]domain.UserWithRole, error)
	CountByRole(ctx context.Context) ([]domain.RoleCount, error)
	Search(ctx context.Context, field domain.UserField, op domain.SearchOperator, value string) ([]domain.User, error)
	Insert(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, update domain.UserUpdate) error
	Delete(ctx context.Context, id string) error
	ListPasswords(ctx context.Context) (map[string]string, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

var userFieldColumns = map[domain.UserField]string{
	domain.UserFieldID:        "userid",
	domain.UserFieldFirstName: "firstname",
	domain.UserFieldLastName:  "lastname",
	domain.UserFieldRoleID:    "userroleid",
}

var searchOperators = map[domain.SearchOperator]string{
	domain.OpEqual:    "=",
	domain.OpLess:     "<",
	domain.OpGreater:  ">",
	domain.OpNotEqual: "<>",
	domain.OpRegex:    "~",
	domain.OpLike:     "LIKE",
}

const userColumns = `userid, firstname, lastname, userroleid`

func userColumn(field domain.UserField) (string, error) {
	column, ok := userFieldColumns[field]
	if !ok {
		return "", domain.NewValidationError("field", fmt.Sprintf("invalid attribute name %q", field))
	}
	return column, nil
}

func (r *PGUserRepository) queryUsers(ctx context.Context, sql string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.RoleID); err != nil {
			return nil, translate(err)
		}
		users = append(users, u)
	}
	return users, translate(rows.Err())
}

// GetWithRole is the only read that returns the stored password hash.
func (r *PGUserRepository) GetWithRole(ctx context.Context, id string) (*domain.UserWithRole, error) {
	row := r.db.QueryRow(ctx, `SELECT u.userid, u.firstname, u.lastname, u.userroleid, u.password,
			ur.userroleid, ur.name, ur.description, ur.isadmin
		FROM users u JOIN userroles ur ON ur.userroleid = u.userroleid
		WHERE u.userid=$1`, id)
	var u domain.UserWithRole
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.RoleID, &u.PasswordHash,
		&u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.IsAdmin); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY userid`)
}

func (r *PGUserRepository) ListByField(ctx context.Context, field domain.UserField, value string) ([]domain.User, error) {
	column, err := userColumn(field)
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+`::text = $1 ORDER BY userid`, value)
}

func (r *PGUserRepository) ListWithRoles(ctx context.Context) ([]domain.UserWithRole, error) {
	rows, err := r.db.Query(ctx, `SELECT u.userid, u.firstname, u.lastname, u.userroleid,
			ur.userroleid, ur.name, ur.description, ur.isadmin
		FROM users u JOIN userroles ur ON ur.userroleid = u.userroleid
		ORDER BY u.userid`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	users := make([]domain.UserWithRole, 0)
	for rows.Next() {
		var u domain.UserWithRole
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.RoleID,
			&u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.IsAdmin); err != nil {
			return nil, translate(err)
		}
		users = append(users, u)
	}
	return users, translate(rows.Err())
}

func (r *PGUserRepository) CountByRole(ctx context.Context) ([]domain.RoleCount, error) {
	rows, err := r.db.Query(ctx, `SELECT userroleid, COUNT(*) FROM users GROUP BY userroleid ORDER BY userroleid`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	counts := make([]domain.RoleCount, 0)
	for rows.Next() {
		var c domain.RoleCount
		if err := rows.Scan(&c.RoleID, &c.Count); err != nil {
			return nil, translate(err)
		}
		counts = append(counts, c)
	}
	return counts, translate(rows.Err())
}

// Search compares case-insensitively on the text form of the column. LIKE
// matches the value anywhere in the column.
func (r *PGUserRepository) Search(ctx context.Context, field domain.UserField, op domain.SearchOperator, value string) ([]domain.User, error) {
	column, err := userColumn(field)
	if err != nil {
		return nil, err
	}
	sqlOp, ok := searchOperators[op]
	if !ok {
		return nil, domain.NewValidationError("operator", fmt.Sprintf("invalid search operator %q", op))
	}

	rhs := "lower($1)"
	if op == domain.OpLike {
		rhs = "'%' || lower($1) || '%'"
	}
	sql := fmt.Sprintf(`SELECT %s FROM users WHERE lower(%s::text) %s %s ORDER BY userid`, userColumns, column, sqlOp, rhs)
	return r.queryUsers(ctx, sql, value)
}

func (r *PGUserRepository) Insert(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (userid, firstname, lastname, userroleid, password) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.FirstName, u.LastName, u.RoleID, u.PasswordHash)
	return translate(err)
}

// Update writes only the non-nil fields of update.
func (r *PGUserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) error {
	if update.Empty() {
		return domain.ErrNothingToUpdate
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+"=$"+strconv.Itoa(len(args)))
	}
	if update.FirstName != nil {
		add("firstname", *update.FirstName)
	}
	if update.LastName != nil {
		add("lastname", *update.LastName)
	}
	if update.RoleID != nil {
		add("userroleid", *update.RoleID)
	}
	if update.PasswordHash != nil {
		add("password", *update.PasswordHash)
	}
	args = append(args, id)

	sql := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE userid=$` + strconv.Itoa(len(args))
	res, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE userid=$1`, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPasswords returns the stored password column keyed by user id. It
// exists for the legacy re-hash job only.
func (r *PGUserRepository) ListPasswords(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT userid, password FROM users`)
	if err != nil {
		return nil, translate(err)
	}

	stored := make(map[string]string)
	var id, password string
	_, err = pgx.ForEachRow(rows, []any{&id, &password}, func() error {
		stored[id] = password
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return stored, nil
}

func (r *PGUserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET password=$1 WHERE userid=$2`, hash, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
