package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
)

const fetchQuery = `SELECT * FROM "RAW_DATA" WHERE "timestamp" BETWEEN $1 AND $2 AND "engine_number" = $3 ORDER BY "timestamp"`

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewPostgresRepoFromDB(db, Options{})
	require.NoError(t, err)
	return repo, mock
}

func TestFetchRawRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := day.Add(10 * time.Hour)
	t2 := t1.Add(time.Minute)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("timestamp").OfType("TIMESTAMPTZ", time.Time{}),
		sqlmock.NewColumn("engine_number").OfType("TEXT", ""),
		sqlmock.NewColumn("temp_oil").OfType("NUMERIC", ""),
		sqlmock.NewColumn("engine_speed_50909").OfType("FLOAT8", 0.0),
		sqlmock.NewColumn("cycles").OfType("INT8", int64(0)),
	).
		AddRow(t1, "EQ-1", []byte("80.0"), 1500.0, int64(3)).
		AddRow(t2, "EQ-1", []byte("82.5"), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(fetchQuery)).
		WithArgs(day, day.Add(24*time.Hour-time.Second), "EQ-1").
		WillReturnRows(rows)

	frame, err := repo.FetchRawRows(context.Background(), "EQ-1", day.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"engine_number", "temp_oil", "engine_speed_50909", "cycles"}, frame.Columns)
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, t1, frame.Rows[0].Timestamp)
	assert.Equal(t, []any{"EQ-1", 80.0, 1500.0, int64(3)}, frame.Rows[0].Values)
	assert.Equal(t, []any{"EQ-1", 82.5, nil, nil}, frame.Rows[1].Values)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRawRowsEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("timestamp").OfType("TIMESTAMPTZ", time.Time{}),
		sqlmock.NewColumn("temp_oil").OfType("FLOAT8", 0.0),
	)
	mock.ExpectQuery(regexp.QuoteMeta(fetchQuery)).
		WithArgs(day, day.Add(24*time.Hour-time.Second), "EQ-9").
		WillReturnRows(rows)

	frame, err := repo.FetchRawRows(context.Background(), "EQ-9", day)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Len())
	assert.Equal(t, []string{"temp_oil"}, frame.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRawRowsErrors(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("query failure propagates", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(fetchQuery)).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.FetchRawRows(context.Background(), "EQ-1", day)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("missing timestamp column", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("ts").OfType("TIMESTAMPTZ", time.Time{}),
		)
		mock.ExpectQuery(regexp.QuoteMeta(fetchQuery)).WillReturnRows(rows)

		_, err := repo.FetchRawRows(context.Background(), "EQ-1", day)
		assert.ErrorIs(t, err, ErrMissingTimestamp)
	})
}

func testFrame(t1, t2 time.Time) *models.ResampledFrame {
	return &models.ResampledFrame{
		TimeColumn: "timestamp",
		Buckets:    []time.Time{t1, t2},
		Columns: []models.Column{
			{Name: "engine_number", Kind: models.KindText, Values: []any{"EQ-1", nil}},
			{Name: "temp_oil_rsmpl", Kind: models.KindNumeric, Numbers: []sql.NullFloat64{{Float64: 80, Valid: true}, {}}},
			{Name: "temp_oil_mavg", Kind: models.KindNumeric, Numbers: []sql.NullFloat64{{Float64: 80, Valid: true}, {}}},
		},
	}
}

const insertQuery = `INSERT INTO "PROC_DATA" ("timestamp", "engine_number", "temp_oil_rsmpl", "temp_oil_mavg") VALUES ($1, $2, $3, $4)`

func expectInserts(mock sqlmock.Sqlmock, t1, t2 time.Time) {
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertQuery))
	prep.ExpectExec().WithArgs(t1, "EQ-1", 80.0, 80.0).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(t2, nil, nil, nil).WillReturnResult(sqlmock.NewResult(2, 1))
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "PROC_DATA" ("timestamp" TIMESTAMPTZ)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "PROC_DATA" ADD COLUMN IF NOT EXISTS "engine_number" TEXT`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "PROC_DATA" ADD COLUMN IF NOT EXISTS "temp_oil_rsmpl" DOUBLE PRECISION`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "PROC_DATA" ADD COLUMN IF NOT EXISTS "temp_oil_mavg" DOUBLE PRECISION`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestAppendRowsIsAppendOnly(t *testing.T) {
	repo, mock := newMockRepo(t)
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	frame := testFrame(t1, t2)

	// first write creates the table
	mock.ExpectBegin()
	expectSchema(mock)
	expectInserts(mock, t1, t2)
	mock.ExpectCommit()

	// second write of the same frame inserts again; the schema is cached
	mock.ExpectBegin()
	expectInserts(mock, t1, t2)
	mock.ExpectCommit()

	require.NoError(t, repo.AppendRows(context.Background(), "PROC_DATA", frame))
	require.NoError(t, repo.AppendRows(context.Background(), "PROC_DATA", frame))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRowsEmptyFrame(t *testing.T) {
	repo, mock := newMockRepo(t)

	assert.NoError(t, repo.AppendRows(context.Background(), "PROC_DATA", &models.ResampledFrame{TimeColumn: "timestamp"}))
	assert.NoError(t, repo.AppendRows(context.Background(), "PROC_DATA", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRowsRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	frame := testFrame(t1, t2)

	mock.ExpectBegin()
	expectSchema(mock)
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertQuery))
	prep.ExpectExec().WithArgs(t1, "EQ-1", 80.0, 80.0).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	// the schema was never committed, so the retry reconciles it again
	mock.ExpectBegin()
	expectSchema(mock)
	expectInserts(mock, t1, t2)
	mock.ExpectCommit()

	err := repo.AppendRows(context.Background(), "PROC_DATA", frame)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	require.NoError(t, repo.AppendRows(context.Background(), "PROC_DATA", frame))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayBounds(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	start, end := DayBounds(time.Date(2024, 2, 29, 22, 30, 0, 0, zone))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC), end)
}

func TestDecodeValue(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		dbType string
		in     any
		want   any
	}{
		{"nil", "TEXT", nil, nil},
		{"numeric bytes", "NUMERIC", []byte("12.25"), 12.25},
		{"numeric string", "numeric", "7", 7.0},
		{"text bytes", "VARCHAR", []byte("running"), "running"},
		{"unparseable numeric stays text", "NUMERIC", []byte("NaN?"), "NaN?"},
		{"float passthrough", "FLOAT8", 1.5, 1.5},
		{"int passthrough", "INT4", int64(4), int64(4)},
		{"bool passthrough", "BOOL", true, true},
		{"time passthrough", "TIMESTAMPTZ", stamp, stamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeValue(tt.dbType, tt.in))
		})
	}
}

func TestColumnSQLTypes(t *testing.T) {
	frame := &models.ResampledFrame{
		TimeColumn: "timestamp",
		Buckets:    []time.Time{{}, {}},
		Columns: []models.Column{
			{Name: "status", Kind: models.KindText, Values: []any{nil, "ok"}},
			{Name: "alarm", Kind: models.KindText, Values: []any{nil, true}},
			{Name: "serviced_at", Kind: models.KindText, Values: []any{time.Now(), nil}},
			{Name: "unknown", Kind: models.KindText, Values: []any{nil, nil}},
			{Name: "flag_then_text", Kind: models.KindText, Values: []any{true, "n/a"}},
			{Name: "stamp_then_flag", Kind: models.KindText, Values: []any{time.Now(), false}},
			{Name: "rpm_rsmpl", Kind: models.KindNumeric, Numbers: make([]sql.NullFloat64, 2)},
		},
	}

	assert.Equal(t,
		[]string{sqlTimestamp, sqlText, sqlBoolean, sqlTimestamp, sqlText, sqlText, sqlText, sqlDouble},
		columnSQLTypes(frame),
	)
	assert.Equal(t, "1.5", sqlValue(sqlText, 1.5))
	assert.Equal(t, true, sqlValue(sqlBoolean, true))
	assert.Equal(t, "true", sqlValue(sqlText, true))
	assert.Nil(t, sqlValue(sqlText, nil))
}
