package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// DefaultPointLimit caps point queries that give no limit.
const DefaultPointLimit = 100000

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PointService reads weighted points out of DuckDB tables.
type PointService struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPointService wraps db, which may be nil when DuckDB is unavailable.
func NewPointService(db *sql.DB, log *slog.Logger) *PointService {
	if log == nil {
		log = slog.Default()
	}
	return &PointService{db: db, log: log}
}

// Available reports whether a database is connected.
func (s *PointService) Available() bool {
	return s != nil && s.db != nil
}

// Tables lists the tables of the database.
func (s *PointService) Tables(ctx context.Context) ([]string, error) {
	if !s.Available() {
		return nil, ErrNoDatabase
	}
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Query selects points from a table. Rows with coordinates out of range or
// a negative weight are skipped.
func (s *PointService) Query(ctx context.Context, q PointQuery) ([]overlay.WeightedPoint, error) {
	if !s.Available() {
		return nil, ErrNoDatabase
	}
	stmt, err := pointSQL(q)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPointLimit
	}

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Table, err)
	}
	defer rows.Close()

	points := []overlay.WeightedPoint{}
	skipped := 0
	for rows.Next() {
		var lat, lng, weight sql.NullFloat64
		if err := rows.Scan(&lat, &lng, &weight); err != nil {
			return nil, err
		}
		w := overlay.DefaultWeight
		if weight.Valid {
			w = weight.Float64
		}
		if !lat.Valid || !lng.Valid {
			skipped++
			continue
		}
		p, err := overlay.NewWeightedPoint(lat.Float64, lng.Float64, w)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warn("skipped invalid points", "table", q.Table, "skipped", skipped)
	}
	return points, nil
}

// pointSQL builds the point query. Identifiers are validated and quoted, and
// the limit is bound as a parameter.
func pointSQL(q PointQuery) (string, error) {
	latCol, lngCol := q.LatColumn, q.LngColumn
	if latCol == "" {
		latCol = "lat"
	}
	if lngCol == "" {
		lngCol = "lng"
	}
	for _, name := range []string{q.Table, latCol, lngCol, q.WeightColumn} {
		if name != "" && !identifier.MatchString(name) {
			return "", fmt.Errorf("%w: invalid identifier %q", overlay.ErrInvariantViolation, name)
		}
	}
	if q.Table == "" {
		return "", fmt.Errorf("%w: table is required", overlay.ErrInvariantViolation)
	}

	weight := "NULL"
	if q.WeightColumn != "" {
		weight = fmt.Sprintf(`CAST("%s" AS DOUBLE)`, q.WeightColumn)
	}
	return fmt.Sprintf(`SELECT CAST("%s" AS DOUBLE), CAST("%s" AS DOUBLE), %s FROM "%s" LIMIT ?`,
		latCol, lngCol, weight, q.Table), nil
}
