package station

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/trend"
)

// Recorder persists one reading.
type Recorder interface {
	Record(ctx context.Context, r env.Reading, ts time.Time) error
}

// Presenter lays a reading out as display lines.
type Presenter interface {
	Render(r env.Reading, dir trend.Direction) []string
}

// TelemetryPublisher mirrors a reading to a best-effort channel.
type TelemetryPublisher interface {
	PublishReading(r env.Reading, ts time.Time, dir trend.Direction) error
}

// Controller drives the station cycle at a fixed cadence.
type Controller struct {
	acquirer  *Acquirer
	recorder  Recorder
	presenter Presenter
	display   Display
	vanity    *Vanity
	publisher TelemetryPublisher
	clock     Clock
	refresh   time.Duration
	logger    *slog.Logger

	cycles int
}

// ControllerOptions gathers the controller's collaborators. Publisher may
// be nil.
type ControllerOptions struct {
	Acquirer  *Acquirer
	Recorder  Recorder
	Presenter Presenter
	Display   Display
	Vanity    *Vanity
	Publisher TelemetryPublisher
	Clock     Clock
	Refresh   time.Duration
	Logger    *slog.Logger
}

func NewController(o ControllerOptions) *Controller {
	return &Controller{
		acquirer:  o.Acquirer,
		recorder:  o.Recorder,
		presenter: o.Presenter,
		display:   o.Display,
		vanity:    o.Vanity,
		publisher: o.Publisher,
		clock:     o.Clock,
		refresh:   o.Refresh,
		logger:    o.Logger,
	}
}

// Run cycles until ctx is canceled or a step fails. Each cycle shows the
// vanity message when due, acquires, records with the acquisition time,
// presents, and sleeps until refresh has passed since the cycle started.
// Cancellation returns ctx.Err().
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("station loop started", "refresh", c.refresh)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.cycle(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}
}

// Cycles returns the number of completed cycles.
func (c *Controller) Cycles() int { return c.cycles }

func (c *Controller) cycle(ctx context.Context) error {
	if _, err := c.vanity.Tick(ctx); err != nil {
		return err
	}

	reading, startedAt, outcome, err := c.acquirer.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	dir := c.acquirer.Trend()
	if c.acquirer.Acquired() {
		if err := c.recorder.Record(ctx, reading, startedAt); err != nil {
			return err
		}
	} else {
		c.logger.Debug("no reading yet, skipping record", "outcome", outcome.String())
	}

	for row, line := range c.presenter.Render(reading, dir) {
		if err := c.display.WriteAt(row, 0, line); err != nil {
			return fmt.Errorf("present row %d: %w", row, err)
		}
	}

	if c.publisher != nil && c.acquirer.Acquired() {
		if err := c.publisher.PublishReading(reading, startedAt, dir); err != nil {
			c.logger.Warn("telemetry publish failed", "error", err)
		}
	}

	c.cycles++
	c.logger.Debug("cycle done",
		"outcome", outcome.String(),
		"sea_level_pa", reading.SeaLevelPressure,
		"trend", dir.String(),
		"history", c.acquirer.History().Len(),
	)

	wait := startedAt.Add(c.refresh).Sub(c.clock.Now())
	return c.clock.Sleep(ctx, wait)
}
