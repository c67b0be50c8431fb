package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/pipeline"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/resample"
)

// maxMavgPeriod caps the moving average window at one day of minutes
const maxMavgPeriod = 24 * 60

type RequestValidator struct {
	now func() time.Time
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{now: time.Now}
}

// Validate checks if the request parameters are valid
func (v *RequestValidator) Validate(req models.PipelineRequest) error {
	// Validate equipment is present
	if strings.TrimSpace(req.EquipmentNumber) == "" {
		return fmt.Errorf("%w: missing equipment_number", resample.ErrInvalidParameter)
	}

	// Validate date
	day, err := time.ParseInLocation(pipeline.DateLayout, req.Date, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: invalid date: %s", resample.ErrInvalidParameter, req.Date)
	}
	if day.After(v.now().UTC()) {
		return fmt.Errorf("%w: date is in the future", resample.ErrInvalidParameter)
	}

	// Validate moving average window
	if req.MavgPeriod <= 0 {
		return fmt.Errorf("%w: invalid mavg_period: %d", resample.ErrInvalidParameter, req.MavgPeriod)
	}
	if req.MavgPeriod > maxMavgPeriod {
		return fmt.Errorf("%w: mavg_period exceeds maximum allowed", resample.ErrInvalidParameter)
	}

	return nil
}
