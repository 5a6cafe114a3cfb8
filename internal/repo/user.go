package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/applog/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `user_id, username, password_hash, role, COALESCE(organisation, ''), COALESCE(application, ''), created_on`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Organisation, &u.Application, &u.CreatedOn)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ==========================
// Create User
// ==========================
// Create inserts a user. The first user ever registered becomes owner regardless of role.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, CASE WHEN EXISTS (SELECT 1 FROM users) THEN $3 ELSE 'owner' END)
		RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, username, passwordHash, role))
	if err != nil {
		return nil, wrap("create user", err)
	}
	return user, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap("get user", err)
	}
	return user, nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, wrap("get user", err)
	}
	return user, nil
}

// ==========================
// Update Role
// ==========================
func (r *UserRepo) UpdateRole(ctx context.Context, id int, role string) (*models.User, error) {
	query := `UPDATE users SET role = $1 WHERE user_id = $2 RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, role, id))
	if err != nil {
		return nil, wrap("update role", err)
	}
	return user, nil
}

// ==========================
// Organisation membership
// ==========================

// SetOrganisation attaches a user to an organisation by username.
func (r *UserRepo) SetOrganisation(ctx context.Context, username, organisation string) (*models.User, error) {
	query := `UPDATE users SET organisation = $1 WHERE username = $2 RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, organisation, username))
	if err != nil {
		return nil, wrap("set organisation", err)
	}
	return user, nil
}

// ClearOrganisation detaches every user from organisation and returns how many rows changed.
func (r *UserRepo) ClearOrganisation(ctx context.Context, organisation string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET organisation = NULL WHERE organisation = $1`, organisation)
	if err != nil {
		return 0, wrap("clear organisation", err)
	}
	return res.RowsAffected()
}

// ListOrganisations returns the distinct organisation names found on users and applications.
func (r *UserRepo) ListOrganisations(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT organisation FROM users WHERE organisation IS NOT NULL AND organisation <> ''
		UNION
		SELECT organisation FROM applications WHERE organisation IS NOT NULL AND organisation <> ''
		ORDER BY 1
	`)
	if err != nil {
		return nil, wrap("list organisations", err)
	}
	defer rows.Close()

	orgs := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		orgs = append(orgs, name)
	}
	return orgs, rows.Err()
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY user_id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, wrap("count users", err)
}
