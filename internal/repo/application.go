package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/applog/internal/models"
)

// ApplicationRepo persists applications and resolves their secrets.
type ApplicationRepo struct {
	DB *sql.DB
}

// NewApplicationRepo returns a new ApplicationRepo.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{DB: db}
}

const applicationColumns = `application_id, name, secret, COALESCE(organisation, ''), COALESCE(dictionary_name, ''), user_id, created_on`

func scanApplication(row interface{ Scan(...any) error }) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(&a.ID, &a.Name, &a.Secret, &a.Organisation, &a.DictionaryName, &a.UserID, &a.CreatedOn)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// nullable turns "" into SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts an application. A duplicate name yields ErrConflict.
func (r *ApplicationRepo) Create(ctx context.Context, app models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (name, secret, organisation, dictionary_name, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + applicationColumns

	a, err := scanApplication(r.DB.QueryRowContext(ctx, query,
		app.Name, app.Secret, nullable(app.Organisation), nullable(app.DictionaryName), app.UserID,
	))
	if err != nil {
		return nil, wrap("create application", err)
	}
	return a, nil
}

// GetByName returns the application or ErrNotFound.
func (r *ApplicationRepo) GetByName(ctx context.Context, name string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE name = $1`

	a, err := scanApplication(r.DB.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, wrap("get application", err)
	}
	return a, nil
}

// GetBySecret resolves an application secret, or ErrNotFound.
func (r *ApplicationRepo) GetBySecret(ctx context.Context, secret string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE secret = $1`

	a, err := scanApplication(r.DB.QueryRowContext(ctx, query, secret))
	if err != nil {
		return nil, wrap("get application", err)
	}
	return a, nil
}

// List returns applications ordered by name. userID > 0 restricts to that owner.
func (r *ApplicationRepo) List(ctx context.Context, userID int) ([]models.Application, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userID > 0 {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY name`, userID)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY name`)
	}
	if err != nil {
		return nil, wrap("list applications", err)
	}
	defer rows.Close()

	list := []models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Delete removes an application by name.
func (r *ApplicationRepo) Delete(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE name = $1`, name)
	if err != nil {
		return wrap("delete application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wrap("delete application", sql.ErrNoRows)
	}
	return nil
}

// ClearOrganisation detaches every application from organisation.
func (r *ApplicationRepo) ClearOrganisation(ctx context.Context, organisation string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE applications SET organisation = NULL WHERE organisation = $1`, organisation)
	if err != nil {
		return 0, wrap("clear organisation", err)
	}
	return res.RowsAffected()
}
