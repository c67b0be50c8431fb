// Package resample turns irregular raw telemetry into fixed-interval series.
//
// A run goes through these steps:
//   - rows are ordered by timestamp (duplicates are kept)
//   - excluded channels are pruned
//   - every remaining channel is tagged numeric or text once, from all rows
//   - numeric channels are averaged per bucket
//   - a trailing moving average is computed over the bucketed series
//   - text channels are joined back onto the buckets by exact timestamp
//
// Example usage:
//
//	engine, err := resample.NewEngine(resample.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := engine.Process(frame, 5)
package resample

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
)

const (
	DefaultBucketWidth = time.Minute
	DefaultTimeColumn  = "timestamp"

	ResampledSuffix     = "_rsmpl"
	MovingAverageSuffix = "_mavg"
)

// ErrInvalidParameter is returned for requests that cannot be processed,
// before any aggregation happens.
var ErrInvalidParameter = errors.New("resample: invalid parameter")

// MaxWindowMinutes is the largest window that fits in a time.Duration
const MaxWindowMinutes = math.MaxInt64 / int64(time.Minute)

// Config carries everything the engine needs. There is no package level state.
type Config struct {
	Exclusions  []string
	BucketWidth time.Duration
	TimeColumn  string
}

// DefaultConfig returns a Config with the default exclusion list and 1 minute buckets
func DefaultConfig() Config {
	return Config{
		Exclusions:  append([]string(nil), DefaultExclusions...),
		BucketWidth: DefaultBucketWidth,
		TimeColumn:  DefaultTimeColumn,
	}
}

// Engine resamples raw frames. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	excluded    map[string]struct{}
	bucketWidth time.Duration
	timeColumn  string
}

// NewEngine builds an Engine from cfg. A zero bucket width or time column
// falls back to the defaults.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.BucketWidth < 0 {
		return nil, fmt.Errorf("%w: bucket width must be positive, got %s", ErrInvalidParameter, cfg.BucketWidth)
	}
	if cfg.BucketWidth == 0 {
		cfg.BucketWidth = DefaultBucketWidth
	}
	if cfg.TimeColumn == "" {
		cfg.TimeColumn = DefaultTimeColumn
	}

	excluded := make(map[string]struct{}, len(cfg.Exclusions))
	for _, name := range cfg.Exclusions {
		excluded[name] = struct{}{}
	}

	return &Engine{
		excluded:    excluded,
		bucketWidth: cfg.BucketWidth,
		timeColumn:  cfg.TimeColumn,
	}, nil
}

// BucketWidth returns the configured aggregation interval.
func (e *Engine) BucketWidth() time.Duration {
	return e.bucketWidth
}

// Prune returns the columns that are not in the exclusion set, preserving order.
func (e *Engine) Prune(columns []string) []string {
	kept := make([]string, 0, len(columns))
	for _, name := range columns {
		if _, drop := e.excluded[name]; !drop {
			kept = append(kept, name)
		}
	}
	return kept
}

// Process resamples frame into buckets and appends a moving average over
// windowMinutes for every numeric channel.
//
// An empty frame yields an empty result. windowMinutes <= 0 or above
// MaxWindowMinutes fails with ErrInvalidParameter regardless of the input.
func (e *Engine) Process(frame *models.RawFrame, windowMinutes int) (*models.ResampledFrame, error) {
	if windowMinutes <= 0 {
		return nil, fmt.Errorf("%w: window_minutes must be positive, got %d", ErrInvalidParameter, windowMinutes)
	}
	if int64(windowMinutes) > MaxWindowMinutes {
		return nil, fmt.Errorf("%w: window_minutes too large, got %d", ErrInvalidParameter, windowMinutes)
	}

	out := &models.ResampledFrame{TimeColumn: e.timeColumn}
	if frame.Len() == 0 {
		return out, nil
	}

	rows := sortByTimestamp(frame.Rows)

	var numeric, text []int
	for i, name := range frame.Columns {
		if _, drop := e.excluded[name]; drop {
			continue
		}
		if classify(rows, i) == models.KindNumeric {
			numeric = append(numeric, i)
		} else {
			text = append(text, i)
		}
	}

	origin := startOfDay(rows[0].Timestamp)
	first := e.floor(rows[0].Timestamp, origin)
	last := e.floor(rows[len(rows)-1].Timestamp, origin)
	n := int(last.Sub(first)/e.bucketWidth) + 1

	out.Buckets = make([]time.Time, n)
	for b := range out.Buckets {
		out.Buckets[b] = first.Add(time.Duration(b) * e.bucketWidth)
	}

	// Text channels only attach where a raw row sits exactly on a bucket start.
	// The earliest such row wins so each bucket stays unique.
	aligned := make([]int, n)
	for b := range aligned {
		aligned[b] = -1
	}

	sums := make([][]float64, len(numeric))
	counts := make([][]int, len(numeric))
	for j := range numeric {
		sums[j] = make([]float64, n)
		counts[j] = make([]int, n)
	}

	for r, row := range rows {
		start := e.floor(row.Timestamp, origin)
		b := int(start.Sub(first) / e.bucketWidth)
		if row.Timestamp.Equal(start) && aligned[b] < 0 {
			aligned[b] = r
		}
		for j, col := range numeric {
			if v, ok := toFloat(cell(row, col)); ok {
				sums[j][b] += v
				counts[j][b]++
			}
		}
	}

	for _, col := range text {
		values := make([]any, n)
		for b, r := range aligned {
			if r >= 0 {
				values[b] = cell(rows[r], col)
			}
		}
		out.Columns = append(out.Columns, models.Column{
			Name:   frame.Columns[col],
			Kind:   models.KindText,
			Values: values,
		})
	}

	means := make([][]sql.NullFloat64, len(numeric))
	for j, col := range numeric {
		means[j] = make([]sql.NullFloat64, n)
		for b := 0; b < n; b++ {
			if counts[j][b] > 0 {
				means[j][b] = sql.NullFloat64{Float64: sums[j][b] / float64(counts[j][b]), Valid: true}
			}
		}
		out.Columns = append(out.Columns, models.Column{
			Name:    frame.Columns[col] + ResampledSuffix,
			Kind:    models.KindNumeric,
			Numbers: means[j],
		})
	}

	span := e.windowSpan(windowMinutes)
	for j, col := range numeric {
		out.Columns = append(out.Columns, models.Column{
			Name:    frame.Columns[col] + MovingAverageSuffix,
			Kind:    models.KindNumeric,
			Numbers: MovingAverage(means[j], span),
		})
	}

	return out, nil
}

// windowSpan converts a window in minutes into the number of buckets whose
// start lies in (t - window, t]. Buckets are contiguous, so the time-based
// window and the bucket count agree even when buckets carry missing values.
func (e *Engine) windowSpan(windowMinutes int) int {
	window := time.Duration(windowMinutes) * time.Minute
	span := int(window / e.bucketWidth)
	if window%e.bucketWidth != 0 {
		span++
	}
	if span < 1 {
		span = 1
	}
	return span
}

// floor aligns t to the bucket grid anchored at origin
func (e *Engine) floor(t, origin time.Time) time.Time {
	offset := t.Sub(origin)
	return origin.Add(offset - offset%e.bucketWidth)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortByTimestamp(rows []models.RawRow) []models.RawRow {
	sorted := make([]models.RawRow, len(rows))
	for i, row := range rows {
		sorted[i] = models.RawRow{Timestamp: row.Timestamp.UTC(), Values: row.Values}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func cell(row models.RawRow, col int) any {
	if col >= len(row.Values) {
		return nil
	}
	return row.Values[col]
}

// classify tags a column numeric only if it has at least one value and every
// present value is a Go number. Anything undecidable stays text.
func classify(rows []models.RawRow, col int) models.ColumnKind {
	seen := false
	for _, row := range rows {
		v := cell(row, col)
		if v == nil {
			continue
		}
		if !isNumber(v) {
			return models.KindText
		}
		seen = true
	}
	if !seen {
		return models.KindText
	}
	return models.KindNumeric
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toFloat converts a numeric cell. NaN counts as missing.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
