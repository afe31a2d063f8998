package station

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Display is a character grid with addressable writes.
type Display interface {
	Clear() error
	WriteAt(row, col int, text string) error
}

// VanityOptions configure the periodic message.
type VanityOptions struct {
	Lines    [2]string
	Interval time.Duration // zero or negative disables the message
	Dwell    time.Duration
}

// Vanity shows a fixed two-line message every Interval, holding the display
// for Dwell. The timer starts when the Vanity is created.
type Vanity struct {
	display   Display
	render    func([2]string) []string
	opts      VanityOptions
	clock     Clock
	logger    *slog.Logger
	lastShown time.Time
}

// NewVanity returns a timer in the idle state. render lays the lines out on
// the full grid.
func NewVanity(d Display, render func([2]string) []string, clock Clock, logger *slog.Logger, opts VanityOptions) *Vanity {
	return &Vanity{
		display:   d,
		render:    render,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		lastShown: clock.Now(),
	}
}

// Tick shows the message if the interval has passed and reports whether it
// did. It blocks for the dwell time while shown.
func (v *Vanity) Tick(ctx context.Context) (bool, error) {
	if v.opts.Interval <= 0 {
		return false, nil
	}
	if v.clock.Now().Sub(v.lastShown) <= v.opts.Interval {
		return false, nil
	}

	if err := v.display.Clear(); err != nil {
		return false, fmt.Errorf("vanity clear: %w", err)
	}
	for row, line := range v.render(v.opts.Lines) {
		if err := v.display.WriteAt(row, 0, line); err != nil {
			return false, fmt.Errorf("vanity row %d: %w", row, err)
		}
	}
	v.lastShown = v.clock.Now()
	v.logger.Debug("vanity message shown", "dwell", v.opts.Dwell)

	if err := v.clock.Sleep(ctx, v.opts.Dwell); err != nil {
		return true, err
	}
	return true, nil
}
