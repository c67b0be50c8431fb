package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/pipeline"
)

// runTimeout bounds one equipment run
const runTimeout = 10 * time.Minute

// JobRunner is satisfied by *pipeline.Runner
type JobRunner interface {
	Run(ctx context.Context, req models.PipelineRequest) (*pipeline.Result, error)
}

// Options configure the nightly job
type Options struct {
	Spec       string   // standard five field cron expression, evaluated in UTC
	Equipment  []string // equipment ids processed on every tick
	MavgPeriod int      // moving average window in minutes
}

type Scheduler struct {
	runner JobRunner
	opts   Options
	logger *logrus.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewScheduler(runner JobRunner, opts Options, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		opts:   opts,
		logger: logger,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
	}
}

// Start the scheduler
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.opts.Spec, func() {
		s.RunPreviousDay(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()

	s.logger.WithFields(logrus.Fields{
		"spec":      s.opts.Spec,
		"equipment": len(s.opts.Equipment),
	}).Info("Scheduler started")
	return nil
}

// RunPreviousDay resamples yesterday (UTC) for every configured equipment
// id. A failing id is logged and does not stop the others; nothing is
// retried. It returns the number of successful runs.
func (s *Scheduler) RunPreviousDay(ctx context.Context) int {
	date := s.now().UTC().AddDate(0, 0, -1).Format(pipeline.DateLayout)

	succeeded := 0
	for _, equipment := range s.opts.Equipment {
		if ctx.Err() != nil {
			break
		}

		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		result, err := s.runner.Run(runCtx, models.PipelineRequest{
			EquipmentNumber: equipment,
			Date:            date,
			MavgPeriod:      s.opts.MavgPeriod,
		})
		cancel()

		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"equipment_number": equipment,
				"date":             date,
			}).WithError(err).Error("Scheduled resampling run failed")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"equipment_number": equipment,
			"date":             date,
			"rows_written":     result.RowsWritten,
		}).Debug("Scheduled resampling run finished")
		succeeded++
	}
	return succeeded
}

// Stop the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
