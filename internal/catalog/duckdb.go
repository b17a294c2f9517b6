package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver

	"github.com/couchcryptid/store-locator/internal/domain"
)

const storeColumns = `id, name, brand, address, district, lat, lon,
	COALESCE(open_time, ''), COALESCE(close_time, ''), is_24h`

// DuckDB is a Catalog backed by a DuckDB database.
type DuckDB struct {
	db *sql.DB
}

// OpenDuckDB opens the database at path. An empty path opens an in-memory database.
func OpenDuckDB(path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return NewDuckDB(db), nil
}

// NewDuckDB wraps an existing connection.
func NewDuckDB(db *sql.DB) *DuckDB {
	return &DuckDB{db: db}
}

// Close closes the underlying connection.
func (c *DuckDB) Close() error {
	return c.db.Close()
}

// CreateSchema creates the stores table if it does not exist.
func (c *DuckDB) CreateSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stores (
			id BIGINT PRIMARY KEY,
			name VARCHAR NOT NULL,
			brand VARCHAR NOT NULL DEFAULT '',
			address VARCHAR NOT NULL DEFAULT '',
			district VARCHAR NOT NULL DEFAULT '',
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			open_time VARCHAR,
			close_time VARCHAR,
			is_24h BOOLEAN NOT NULL DEFAULT false
		);
		CREATE INDEX IF NOT EXISTS stores_lat_lon ON stores (lat, lon);
	`)
	if err != nil {
		return fmt.Errorf("create catalog schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces stores by id in one transaction.
func (c *DuckDB) Upsert(ctx context.Context, stores []domain.Store) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stores (id, name, brand, address, district, lat, lon, open_time, close_time, is_24h)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stores {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Brand, s.Address, s.District,
			s.Lat, s.Lon, nullable(s.OpenTime), nullable(s.CloseTime), s.Is24h); err != nil {
			return fmt.Errorf("upsert store %d: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (c *DuckDB) FindInBox(ctx context.Context, box domain.BoundingBox, f Filter, limit int) ([]domain.Store, error) {
	var w where
	w.add("lat BETWEEN ? AND ?", box.South, box.North)
	w.add("lon BETWEEN ? AND ?", box.West, box.East)
	w.filter(f)

	query := "SELECT " + storeColumns + " FROM stores" + w.sql() + " ORDER BY id"
	args := w.args
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.queryStores(ctx, query, args...)
}

func (c *DuckDB) Search(ctx context.Context, text string, f Filter, limit int) ([]domain.Store, error) {
	var w where
	if text = strings.TrimSpace(text); text != "" {
		w.add("(contains(lower(name), lower(?)) OR contains(lower(address), lower(?)))", text, text)
	}
	w.filter(f)

	query := "SELECT " + storeColumns + " FROM stores" + w.sql() + " ORDER BY id"
	args := w.args
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.queryStores(ctx, query, args...)
}

func (c *DuckDB) Districts(ctx context.Context, f Filter) ([]string, error) {
	var w where
	w.add("trim(district) <> ''")
	w.filter(f)

	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT trim(district) AS d FROM stores"+w.sql()+" ORDER BY d", w.args...)
	if err != nil {
		return nil, fmt.Errorf("query districts: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DuckDB) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DuckDB) queryStores(ctx context.Context, query string, args ...any) ([]domain.Store, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	out := []domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Brand, &s.Address, &s.District,
			&s.Lat, &s.Lon, &s.OpenTime, &s.CloseTime, &s.Is24h); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// where accumulates AND-ed SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) filter(f Filter) {
	if len(f.BrandAliases) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.BrandAliases)), ", ")
		args := make([]any, len(f.BrandAliases))
		for i, a := range f.BrandAliases {
			args[i] = strings.ToLower(a)
		}
		w.add("lower(brand) IN ("+marks+")", args...)
	}
	if f.District != "" {
		w.add("lower(trim(district)) = lower(?)", f.District)
	}
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
