//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/repository.go -package=mocks . TelemetryRepository

// Package database implements the Postgres-backed row source and row sink.
//
// Architecture:
//   - Raw readings are read from a wide table, one column per channel
//   - Column values are decoded by their declared database type
//   - Processed rows are appended to a destination table that is created,
//     and widened, on first write
//
// Example usage:
//
//	repo, err := NewPostgresRepo("postgres", "host=localhost dbname=ATL sslmode=disable", Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	frame, err := repo.FetchRawRows(ctx, "EQ-1", day)
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
)

const (
	sqlTimestamp = "TIMESTAMPTZ"
	sqlDouble    = "DOUBLE PRECISION"
	sqlBoolean   = "BOOLEAN"
	sqlText      = "TEXT"
)

// ErrMissingTimestamp is returned when the source table has no timestamp column.
var ErrMissingTimestamp = errors.New("database: timestamp column missing from source")

// TelemetryRepository defines the storage operations of the pipeline.
//
// This interface provides methods for:
//   - Reading one equipment unit's raw readings for one day
//   - Appending processed rows to a destination table
//   - Resource cleanup
type TelemetryRepository interface {
	// FetchRawRows returns all readings of equipmentID between day 00:00:00
	// and day 23:59:59 UTC. No readings is an empty frame, not an error.
	FetchRawRows(ctx context.Context, equipmentID string, day time.Time) (*models.RawFrame, error)

	// AppendRows inserts every bucket of frame into table in a single
	// transaction. Existing rows are never touched.
	AppendRows(ctx context.Context, table string, frame *models.ResampledFrame) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// Options configures the source table layout and the sink schema cache
type Options struct {
	SourceTable     string
	TimestampColumn string
	EquipmentColumn string
	MaxConnections  int
	SchemaCacheSize int
}

func (o *Options) applyDefaults() {
	if o.SourceTable == "" {
		o.SourceTable = "RAW_DATA"
	}
	if o.TimestampColumn == "" {
		o.TimestampColumn = "timestamp"
	}
	if o.EquipmentColumn == "" {
		o.EquipmentColumn = "engine_number"
	}
	if o.SchemaCacheSize <= 0 {
		o.SchemaCacheSize = 64
	}
}

// PostgresRepo implements TelemetryRepository on database/sql.
//
// Destination schemas that were already reconciled are kept in an LRU cache,
// so the DDL round trips happen once per table and column set.
type PostgresRepo struct {
	db      *sql.DB
	opts    Options
	schemas *lru.Cache
}

// NewPostgresRepo opens a connection pool with the given driver ("postgres"
// for lib/pq, "pgx" for pgx) and verifies connectivity.
func NewPostgresRepo(driver, connStr string, opts Options) (*PostgresRepo, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if opts.MaxConnections > 0 {
		db.SetMaxOpenConns(opts.MaxConnections)
	}

	return NewPostgresRepoFromDB(db, opts)
}

// NewPostgresRepoFromDB wraps an already opened pool.
func NewPostgresRepoFromDB(db *sql.DB, opts Options) (*PostgresRepo, error) {
	opts.applyDefaults()

	schemas, err := lru.New(opts.SchemaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}

	return &PostgresRepo{db: db, opts: opts, schemas: schemas}, nil
}

// FetchRawRows reads one equipment unit's readings for one UTC calendar day.
//
// SQL Implementation:
//
//	SELECT * FROM "RAW_DATA"
//	WHERE "timestamp" BETWEEN $1 AND $2 AND "engine_number" = $3
//	ORDER BY "timestamp"
//
// The timestamp column becomes the row key; every other column is a channel.
func (s *PostgresRepo) FetchRawRows(ctx context.Context, equipmentID string, day time.Time) (*models.RawFrame, error) {
	start, end := DayBounds(day)
	ts := pq.QuoteIdentifier(s.opts.TimestampColumn)

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s BETWEEN $1 AND $2 AND %s = $3 ORDER BY %s",
		pq.QuoteIdentifier(s.opts.SourceTable),
		ts,
		pq.QuoteIdentifier(s.opts.EquipmentColumn),
		ts,
	)

	rows, err := s.db.QueryContext(ctx, query, start, end, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw rows: %w", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	tsIndex := -1
	frame := &models.RawFrame{}
	for i, ct := range columnTypes {
		if ct.Name() == s.opts.TimestampColumn {
			tsIndex = i
			continue
		}
		frame.Columns = append(frame.Columns, ct.Name())
	}
	if tsIndex < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingTimestamp, s.opts.TimestampColumn)
	}

	raw := make([]any, len(columnTypes))
	dest := make([]any, len(columnTypes))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}

		stamp, err := toTime(raw[tsIndex])
		if err != nil {
			return nil, err
		}

		row := models.RawRow{Timestamp: stamp, Values: make([]any, 0, len(frame.Columns))}
		for i, ct := range columnTypes {
			if i == tsIndex {
				continue
			}
			row.Values = append(row.Values, decodeValue(ct.DatabaseTypeName(), raw[i]))
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw rows: %w", err)
	}

	return frame, nil
}

// AppendRows performs the append-only write of a resampled frame.
//
// Transaction Flow:
//  1. Create the table and add missing columns (skipped when cached)
//  2. Prepare the insert statement
//  3. Insert one row per bucket
//  4. Commit or rollback
//
// A frame without buckets is a no-op.
func (s *PostgresRepo) AppendRows(ctx context.Context, table string, frame *models.ResampledFrame) error {
	if frame.Len() == 0 {
		return nil
	}

	names := frame.ColumnNames()
	types := columnSQLTypes(frame)
	cacheKey := table + "\x00" + strings.Join(names, "\x00")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	cached := s.schemas.Contains(cacheKey)
	if !cached {
		if err := ensureTable(ctx, tx, table, names, types); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(table, names))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for i, bucket := range frame.Buckets {
		args[0] = bucket
		for j := range frame.Columns {
			args[j+1] = sqlValue(types[j+1], frame.Columns[j].Value(i))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if !cached {
		s.schemas.Add(cacheKey, struct{}{})
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresRepo) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases all database resources.
func (s *PostgresRepo) Close() error {
	return s.db.Close()
}

// DayBounds returns the inclusive [00:00:00, 23:59:59] UTC range of day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

func ensureTable(ctx context.Context, tx *sql.Tx, table string, names, types []string) error {
	quoted := pq.QuoteIdentifier(table)

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s %s)", quoted, pq.QuoteIdentifier(names[0]), types[0])
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for i := 1; i < len(names); i++ {
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", quoted, pq.QuoteIdentifier(names[i]), types[i])
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("failed to add column %s: %w", names[i], err)
		}
	}
	return nil
}

func insertStatement(table string, names []string) string {
	quoted := make([]string, len(names))
	placeholders := make([]string, len(names))
	for i, name := range names {
		quoted[i] = pq.QuoteIdentifier(name)
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// columnSQLTypes returns the SQL type of every output column, bucket first.
// Pass-through columns are typed from all of their present values.
func columnSQLTypes(frame *models.ResampledFrame) []string {
	types := make([]string, 0, len(frame.Columns)+1)
	types = append(types, sqlTimestamp)
	for _, c := range frame.Columns {
		if c.Kind == models.KindNumeric {
			types = append(types, sqlDouble)
			continue
		}
		types = append(types, passThroughType(c.Values))
	}
	return types
}

// passThroughType is BOOLEAN or TIMESTAMPTZ only when every present value
// has that type, TEXT otherwise.
func passThroughType(values []any) string {
	kind := ""
	for _, v := range values {
		var k string
		switch v.(type) {
		case nil:
			continue
		case time.Time:
			k = sqlTimestamp
		case bool:
			k = sqlBoolean
		default:
			return sqlText
		}
		if kind != "" && kind != k {
			return sqlText
		}
		kind = k
	}
	if kind == "" {
		return sqlText
	}
	return kind
}

func sqlValue(sqlType string, v any) any {
	if v == nil || sqlType != sqlText {
		return v
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var numericTypes = map[string]bool{
	"INT2":    true,
	"INT4":    true,
	"INT8":    true,
	"FLOAT4":  true,
	"FLOAT8":  true,
	"NUMERIC": true,
	"DECIMAL": true,
}

// decodeValue normalises a scanned value. Drivers hand NUMERIC back as text,
// so declared numeric columns are parsed into float64.
func decodeValue(dbType string, v any) any {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return v
	}

	if numericTypes[strings.ToUpper(dbType)] {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		return parseTimestamp(t)
	}
	return time.Time{}, fmt.Errorf("database: unsupported timestamp value %T", v)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("database: cannot parse timestamp %q", s)
}

// Compile-time interface implementation check
var _ TelemetryRepository = (*PostgresRepo)(nil)
