package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/user"
	"github.com/trezcool/kenova/storage/database"
)

const userColumns = `id, email, password_hash, role, validated, created_at, updated_at`

type userRepository struct {
	db core.DBExecutor
}

func NewUserRepository(db core.DBExecutor) user.Repository {
	vala.BeginValidation().Validate(vala.IsNotNil(db, "db")).CheckAndPanic()
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...int) error {
	q := `SELECT COUNT(*) FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		inQ, inArgs, err := sqlx.In(` AND id NOT IN (?)`, excludedIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		q += inQ
		args = append(args, inArgs...)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "user" (email, password_hash, role, validated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		usr.Email, usr.PasswordHash, usr.Role, usr.Validated, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		usr  user.User
		cond string
		arg  interface{}
	)
	switch {
	case filter.ID != 0:
		cond, arg = "id = $1", filter.ID
	case filter.Email != "":
		cond, arg = "email = $1", filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM "user" WHERE `+cond, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IsEmpty() {
		if filter.Validated != nil {
			conds = append(conds, "validated = ?")
			args = append(args, *filter.Validated)
		}
		if len(filter.Roles) > 0 {
			roles := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				roles = append(roles, string(r))
			}
			conds = append(conds, "role IN (?)")
			args = append(args, roles)
		}
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}

	users := make([]user.User, 0)
	if err = repo.db.SelectContext(ctx, &users, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET email = :email, password_hash = :password_hash, role = :role,
		validated = :validated, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) CreateParentStudent(ctx context.Context, ps user.ParentStudent) (user.ParentStudent, error) {
	q := `INSERT INTO parent_student (parent_id, student_id) VALUES ($1, $2) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, ps.ParentID, ps.StudentID).Scan(&ps.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return user.ParentStudent{}, user.ErrLinkExists
		}
		return user.ParentStudent{}, errors.Wrap(err, "inserting parent_student")
	}
	return ps, nil
}

func (repo *userRepository) QueryChildren(ctx context.Context, parentID int) ([]user.User, error) {
	q := `SELECT u.id, u.email, u.password_hash, u.role, u.validated, u.created_at, u.updated_at
		FROM "user" u
		JOIN parent_student ps ON ps.student_id = u.id
		WHERE ps.parent_id = $1
		ORDER BY u.id`

	children := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &children, q, parentID); err != nil {
		return nil, errors.Wrap(err, "selecting children")
	}
	return children, nil
}
