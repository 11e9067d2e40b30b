// Package postgis mirrors the waypoint registry into a PostGIS table so the
// locations can be queried with SQL. The flat file stays the source of truth.
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/1F47E/location-marker/pkg/models"
)

// Table is the name of the mirrored table
const Table = "waypoints"

// Exporter writes waypoints to PostGIS
type Exporter struct {
	db *sql.DB
}

// DSN builds a lib/pq connection string
func DSN(host string, port int, user, password, dbname string) string {
	parts := []string{
		"host=" + quoteValue(host),
		fmt.Sprintf("port=%d", port),
		"user=" + quoteValue(user),
	}
	if password != "" {
		parts = append(parts, "password="+quoteValue(password))
	}
	parts = append(parts, "dbname="+quoteValue(dbname), "sslmode=disable")
	return strings.Join(parts, " ")
}

// quoteValue escapes a keyword/value connection parameter
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, dsn string) (*Exporter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return NewExporter(db), nil
}

// NewExporter wraps an existing connection
func NewExporter(db *sql.DB) *Exporter {
	return &Exporter{db: db}
}

func schemaQueries() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`CREATE TABLE IF NOT EXISTS ` + Table + ` (
			name  TEXT PRIMARY KEY,
			descr TEXT NULL,
			dim   INTEGER NOT NULL,
			pos   GEOMETRY(POINTZ, 0) NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_` + Table + `_pos ON ` + Table + ` USING GIST(pos);`,
		`CREATE INDEX IF NOT EXISTS idx_` + Table + `_dim ON ` + Table + ` (dim);`,
	}
}

// InitSchema creates the table and its indexes when missing
func (e *Exporter) InitSchema(ctx context.Context) error {
	for _, query := range schemaQueries() {
		if _, err := e.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

const insertQuery = `INSERT INTO ` + Table + ` (name, descr, dim, pos)
	VALUES ($1, $2, $3, ST_MakePoint($4, $5, $6))`

// Export replaces the table contents with locs in a single transaction
func (e *Exporter) Export(ctx context.Context, locs []models.Location) (err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+Table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, loc := range locs {
		if _, err = stmt.ExecContext(ctx, insertArgs(loc)...); err != nil {
			return fmt.Errorf("failed to insert waypoint %q: %w", loc.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

func insertArgs(loc models.Location) []any {
	var desc sql.NullString
	if loc.Desc != nil {
		desc = sql.NullString{String: *loc.Desc, Valid: true}
	}
	return []any{loc.Name, desc, loc.Dim, loc.Pos.X, loc.Pos.Y, loc.Pos.Z}
}

const nearbyQuery = `SELECT name, descr, dim, ST_X(pos), ST_Y(pos), ST_Z(pos)
	FROM ` + Table + `
	WHERE dim = $1 AND ST_3DDWithin(pos, ST_MakePoint($2, $3, $4), $5)
	ORDER BY ST_3DDistance(pos, ST_MakePoint($2, $3, $4)), name`

// Nearby returns waypoints in zone dim within radius of center, nearest first
func (e *Exporter) Nearby(ctx context.Context, center models.Point, dim int, radius float64) ([]models.Location, error) {
	rows, err := e.db.QueryContext(ctx, nearbyQuery, dim, center.X, center.Y, center.Z, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	results := make([]models.Location, 0)
	for rows.Next() {
		var (
			loc  models.Location
			desc sql.NullString
		)
		if err := rows.Scan(&loc.Name, &desc, &loc.Dim, &loc.Pos.X, &loc.Pos.Y, &loc.Pos.Z); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if desc.Valid {
			loc.Desc = models.WithDesc(desc.String)
		}
		results = append(results, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// Count returns the number of mirrored waypoints
func (e *Exporter) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+Table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count waypoints: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (e *Exporter) Close() error {
	return e.db.Close()
}
