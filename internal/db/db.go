package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only
	"github.com/rotisserie/eris"

	"mspro-labs/plage-watch/internal/gate"
	"mspro-labs/plage-watch/internal/models"
)

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for durability (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, eris.Wrap(err, "db: create data directory")
		}
	}
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "db: open database")
	}
	// One writer per run; a single connection also keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "db: ping database")
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "db: ensure schema")
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	beachTable := `
	CREATE TABLE IF NOT EXISTS beach (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  key TEXT UNIQUE NOT NULL,
	  name TEXT NOT NULL,
	  municipality TEXT,
	  water_body TEXT,
	  region_id TEXT,
	  region_name TEXT,
	  rating TEXT,
	  last_sample_date TEXT,
	  link TEXT,
	  image TEXT,
	  first_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  last_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_beach_region ON beach(region_id);
	`
	_, err := db.Exec(beachTable)
	return err
}

// SQLiteStore is the default file-backed Store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite connects to the database file at path and wraps it as a Store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	database, err := Connect(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: database}, nil
}

// NewSQLiteStore wraps an already connected database.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// DB exposes the underlying handle for callers that need raw queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Enrichment columns are deliberately absent from both the insert list and
// the conflict clause.
const upsertSQL = `
	INSERT INTO beach (
	  key, name, municipality, water_body, region_id, region_name, rating, last_sample_date,
	  last_scraped_at
	) VALUES (
	  ?, ?, ?, ?, ?, ?, ?, ?,
	  CURRENT_TIMESTAMP
	) ON CONFLICT(key) DO UPDATE SET
	  name = excluded.name,
	  municipality = excluded.municipality,
	  water_body = excluded.water_body,
	  region_id = excluded.region_id,
	  region_name = excluded.region_name,
	  rating = excluded.rating,
	  last_sample_date = excluded.last_sample_date,
	  last_scraped_at = CURRENT_TIMESTAMP;
	`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertArgs(rec models.BeachRecord) []any {
	return []any{
		rec.Key,
		rec.Name,
		nullString(rec.Municipality),
		nullString(rec.WaterBody),
		nullString(rec.RegionID),
		nullString(rec.RegionName),
		nullString(rec.Rating),
		nullString(rec.LastSampleDate),
	}
}

// Upsert writes a single record in its own implicit transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, rec models.BeachRecord) error {
	_, err := upsert(ctx, s.db, rec)
	return err
}

func upsert(ctx context.Context, ex execer, rec models.BeachRecord) (int64, error) {
	if rec.Key == "" {
		return 0, eris.Wrapf(models.ErrMalformedRow, "db: upsert %q without key", rec.Name)
	}
	res, err := ex.ExecContext(ctx, upsertSQL, upsertArgs(rec)...)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s", rec.Key)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// UpsertAll performs a batch UPSERT of beach records in one transaction.
func (s *SQLiteStore) UpsertAll(ctx context.Context, recs []models.BeachRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin upsert batch")
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return 0, eris.Wrap(err, "db: prepare upsert")
	}
	defer stmt.Close()

	var totalAffected int64
	for _, rec := range recs {
		if rec.Key == "" {
			tx.Rollback()
			return 0, eris.Wrapf(models.ErrMalformedRow, "db: upsert %q without key", rec.Name)
		}
		res, err := stmt.ExecContext(ctx, upsertArgs(rec)...)
		if err != nil {
			tx.Rollback()
			return 0, eris.Wrapf(err, "db: upsert %s", rec.Key)
		}
		rows, _ := res.RowsAffected()
		totalAffected += rows
	}

	if err = tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "db: commit upsert batch")
	}
	return totalAffected, nil
}

// UpdateField sets a single column on the record matching key.
// The column name comes from the validated Field enum, never from input.
func (s *SQLiteStore) UpdateField(ctx context.Context, key string, field models.Field, value string) error {
	if err := field.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE beach SET %s = ? WHERE key = ?", string(field))
	if _, err := s.db.ExecContext(ctx, query, nullString(value), key); err != nil {
		return eris.Wrapf(err, "db: update %s.%s", key, field)
	}
	return nil
}

const selectColumns = `SELECT id, key, name, municipality, water_body, region_id, region_name, rating,
	last_sample_date, link, image, first_scraped_at, last_scraped_at FROM beach`

// QueryMissingEnrichment returns records the gate flags, in id order.
func (s *SQLiteStore) QueryMissingEnrichment(ctx context.Context) ([]models.BeachRecord, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var pending []models.BeachRecord
	for _, rec := range all {
		if gate.NeedsEnrichment(rec) {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// All returns every stored record in id order.
func (s *SQLiteStore) All(ctx context.Context) ([]models.BeachRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "db: query beaches")
	}
	defer rows.Close()

	var recs []models.BeachRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "db: iterate beaches")
	}
	return recs, nil
}

// Get returns the record stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (models.BeachRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE key = ?", key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BeachRecord{}, false, nil
	}
	if err != nil {
		return models.BeachRecord{}, false, err
	}
	return rec, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (models.BeachRecord, error) {
	var (
		id                                int64
		rec                               models.BeachRecord
		muni, water, regionID, regionName sql.NullString
		rating, sampled, link, image      sql.NullString
		firstScraped, lastScraped         sql.NullTime
	)
	err := sc.Scan(&id, &rec.Key, &rec.Name, &muni, &water, &regionID, &regionName, &rating,
		&sampled, &link, &image, &firstScraped, &lastScraped)
	if err != nil {
		return models.BeachRecord{}, eris.Wrap(err, "db: scan beach")
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.Municipality = muni.String
	rec.WaterBody = water.String
	rec.RegionID = regionID.String
	rec.RegionName = regionName.String
	rec.Rating = rating.String
	rec.LastSampleDate = sampled.String
	rec.Link = link.String
	rec.Image = image.String
	rec.FirstScrapedAt = firstScraped.Time
	rec.LastScrapedAt = lastScraped.Time
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
