// Package pipeline composes the row source, the resampling engine and the
// row sink into a single synchronous run per request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/resample"
)

// DateLayout is the wire format of PipelineRequest.Date
const DateLayout = "2006-01-02"

var (
	ErrFetch = errors.New("error fetching raw rows")
	ErrStore = errors.New("error appending processed rows")
)

// RowSource reads one equipment unit's raw readings for one day
type RowSource interface {
	FetchRawRows(ctx context.Context, equipmentID string, day time.Time) (*models.RawFrame, error)
}

// RowSink appends processed rows to a destination table
type RowSink interface {
	AppendRows(ctx context.Context, table string, frame *models.ResampledFrame) error
}

// Job is a validated PipelineRequest
type Job struct {
	EquipmentID   string
	Day           time.Time
	WindowMinutes int
}

// Result summarises a completed run
type Result struct {
	RunID           string  `json:"run_id"`
	EquipmentNumber string  `json:"equipment_number"`
	Date            string  `json:"date"`
	MavgPeriod      int     `json:"mavg_period"`
	TargetTable     string  `json:"target_table"`
	RowsRead        int     `json:"rows_read"`
	RowsWritten     int     `json:"rows_written"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type Runner struct {
	source      RowSource
	sink        RowSink
	engine      *resample.Engine
	targetTable string
	logger      *logrus.Logger
	metrics     *Metrics
}

// NewRunner wires a Runner. metrics may be nil.
func NewRunner(
	source RowSource,
	sink RowSink,
	engine *resample.Engine,
	targetTable string,
	logger *logrus.Logger,
	metrics *Metrics,
) *Runner {
	return &Runner{
		source:      source,
		sink:        sink,
		engine:      engine,
		targetTable: targetTable,
		logger:      logger,
		metrics:     metrics,
	}
}

// ValidateRequest checks a request before anything touches the store.
func ValidateRequest(req models.PipelineRequest) (Job, error) {
	equipment := strings.TrimSpace(req.EquipmentNumber)
	if equipment == "" {
		return Job{}, fmt.Errorf("%w: equipment_number is required", resample.ErrInvalidParameter)
	}

	day, err := time.ParseInLocation(DateLayout, req.Date, time.UTC)
	if err != nil {
		return Job{}, fmt.Errorf("%w: malformed date %q", resample.ErrInvalidParameter, req.Date)
	}

	if req.MavgPeriod <= 0 {
		return Job{}, fmt.Errorf("%w: mavg_period must be positive, got %d", resample.ErrInvalidParameter, req.MavgPeriod)
	}

	return Job{EquipmentID: equipment, Day: day, WindowMinutes: req.MavgPeriod}, nil
}

// Run fetches, resamples and appends one equipment-day.
//
// Store errors are returned wrapped and are never retried here. Nothing is
// handed to the sink unless processing succeeded, and an empty day writes
// nothing.
func (r *Runner) Run(ctx context.Context, req models.PipelineRequest) (*Result, error) {
	started := time.Now()

	job, err := ValidateRequest(req)
	if err != nil {
		r.metrics.observe(outcomeInvalid, 0, 0, time.Since(started))
		return nil, err
	}

	result := &Result{
		RunID:           uuid.NewString(),
		EquipmentNumber: job.EquipmentID,
		Date:            job.Day.Format(DateLayout),
		MavgPeriod:      job.WindowMinutes,
		TargetTable:     r.targetTable,
	}

	log := r.logger.WithFields(logrus.Fields{
		"run_id":           result.RunID,
		"equipment_number": result.EquipmentNumber,
		"date":             result.Date,
		"mavg_period":      result.MavgPeriod,
	})
	log.Debug("Starting resampling run")

	frame, err := r.source.FetchRawRows(ctx, job.EquipmentID, job.Day)
	if err != nil {
		log.WithError(err).Error("Failed to fetch raw rows")
		r.metrics.observe(outcomeFetchError, 0, 0, time.Since(started))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	result.RowsRead = frame.Len()

	out, err := r.engine.Process(frame, job.WindowMinutes)
	if err != nil {
		log.WithError(err).Error("Failed to resample rows")
		r.metrics.observe(outcomeProcessError, result.RowsRead, 0, time.Since(started))
		return nil, err
	}

	if out.Len() == 0 {
		result.DurationSeconds = time.Since(started).Seconds()
		log.Info("No readings for equipment on date, nothing to append")
		r.metrics.observe(outcomeEmpty, 0, 0, time.Since(started))
		return result, nil
	}

	if err := r.sink.AppendRows(ctx, r.targetTable, out); err != nil {
		log.WithError(err).Error("Failed to append processed rows")
		r.metrics.observe(outcomeStoreError, result.RowsRead, 0, time.Since(started))
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	result.RowsWritten = out.Len()
	result.DurationSeconds = time.Since(started).Seconds()

	log.WithFields(logrus.Fields{
		"rows_read":    result.RowsRead,
		"rows_written": result.RowsWritten,
		"target_table": r.targetTable,
		"duration":     time.Since(started).String(),
	}).Info("Resampling run completed")
	r.metrics.observe(outcomeSuccess, result.RowsRead, result.RowsWritten, time.Since(started))

	return result, nil
}
