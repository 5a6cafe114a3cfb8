package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/applog/internal/models"
	"github.com/lib/pq"
)

// LogRepo appends and reads log entries. Rows are never updated.
type LogRepo struct {
	DB *sql.DB
}

// NewLogRepo returns a new LogRepo.
func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{DB: db}
}

const logColumns = `log_id, dict_name, type, data, COALESCE(path, ''), COALESCE(application_name, ''), COALESCE(organisation_name, ''), timestamp`

func scanLog(row interface{ Scan(...any) error }) (*models.LogEntry, error) {
	e := &models.LogEntry{}
	var data []byte
	err := row.Scan(&e.ID, &e.DictName, &e.Type, &data, &e.Path, &e.ApplicationName, &e.OrganisationName, &e.Timestamp)
	if err != nil {
		return nil, err
	}
	if data != nil {
		e.Data = json.RawMessage(data)
	}
	return e, nil
}

// Insert appends one entry and returns the stored row.
func (r *LogRepo) Insert(ctx context.Context, e models.LogEntry) (*models.LogEntry, error) {
	query := `
		INSERT INTO logs (dict_name, type, data, path, application_name, organisation_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + logColumns

	// jsonb is sent as text; []byte would go out as bytea.
	var data any
	if len(e.Data) > 0 {
		data = string(e.Data)
	}
	out, err := scanLog(r.DB.QueryRowContext(ctx, query,
		e.DictName, e.Type, data, nullable(e.Path), nullable(e.ApplicationName), nullable(e.OrganisationName),
	))
	if err != nil {
		return nil, wrap("insert log", err)
	}
	return out, nil
}

// LogFilter narrows Read. Zero values mean "no filter".
type LogFilter struct {
	DictName        string
	Types           []string // type must be one of these
	Type            string
	ApplicationName string
	OwnerID         int // only logs of applications owned by this user
	Limit           int
	Offset          int
}

// Read returns matching entries, oldest first.
func (r *LogRepo) Read(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.DictName != "" {
		add("dict_name = $%d", f.DictName)
	}
	if f.Types != nil {
		add("type = ANY($%d)", pq.Array(f.Types))
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.ApplicationName != "" {
		add("application_name = $%d", f.ApplicationName)
	}
	if f.OwnerID > 0 {
		add("application_name IN (SELECT name FROM applications WHERE user_id = $%d)", f.OwnerID)
	}

	query := `SELECT ` + logColumns + ` FROM logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY log_id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("read logs", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes entries written before cutoff. Used only by the retention job.
func (r *LogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, wrap("delete old logs", err)
	}
	return res.RowsAffected()
}
