package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/applog/internal/models"
)

// DictionaryRepo persists dictionaries.
type DictionaryRepo struct {
	DB *sql.DB
}

// NewDictionaryRepo returns a new DictionaryRepo.
func NewDictionaryRepo(db *sql.DB) *DictionaryRepo {
	return &DictionaryRepo{DB: db}
}

const dictionaryColumns = `dictionary_id, name, data, created_by, created_on, updated_on`

func scanDictionary(row interface{ Scan(...any) error }) (*models.Dictionary, error) {
	d := &models.Dictionary{}
	var createdBy sql.NullInt64
	if err := row.Scan(&d.ID, &d.Name, &d.Data, &createdBy, &d.CreatedOn, &d.UpdatedOn); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := int(createdBy.Int64)
		d.CreatedBy = &id
	}
	return d, nil
}

// Create inserts a dictionary. A duplicate name yields ErrConflict.
func (r *DictionaryRepo) Create(ctx context.Context, name string, data models.DictionaryData, createdBy int) (*models.Dictionary, error) {
	query := `
		INSERT INTO dictionaries (name, data, created_by)
		VALUES ($1, $2, $3)
		RETURNING ` + dictionaryColumns

	d, err := scanDictionary(r.DB.QueryRowContext(ctx, query, name, data, createdBy))
	if err != nil {
		return nil, wrap("create dictionary", err)
	}
	return d, nil
}

// GetByName returns the dictionary or ErrNotFound.
func (r *DictionaryRepo) GetByName(ctx context.Context, name string) (*models.Dictionary, error) {
	query := `SELECT ` + dictionaryColumns + ` FROM dictionaries WHERE name = $1`

	d, err := scanDictionary(r.DB.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, wrap("get dictionary", err)
	}
	return d, nil
}

// List returns all dictionaries ordered by name.
func (r *DictionaryRepo) List(ctx context.Context) ([]models.Dictionary, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+dictionaryColumns+` FROM dictionaries ORDER BY name`)
	if err != nil {
		return nil, wrap("list dictionaries", err)
	}
	defer rows.Close()

	list := []models.Dictionary{}
	for rows.Next() {
		d, err := scanDictionary(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// Update replaces the definition of an existing dictionary.
func (r *DictionaryRepo) Update(ctx context.Context, name string, data models.DictionaryData) (*models.Dictionary, error) {
	query := `
		UPDATE dictionaries SET data = $1, updated_on = NOW()
		WHERE name = $2
		RETURNING ` + dictionaryColumns

	d, err := scanDictionary(r.DB.QueryRowContext(ctx, query, data, name))
	if err != nil {
		return nil, wrap("update dictionary", err)
	}
	return d, nil
}

// Delete removes a dictionary by name. Logs written against it are kept.
func (r *DictionaryRepo) Delete(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM dictionaries WHERE name = $1`, name)
	if err != nil {
		return wrap("delete dictionary", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wrap("delete dictionary", sql.ErrNoRows)
	}
	return nil
}
