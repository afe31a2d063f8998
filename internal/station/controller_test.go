package station

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/weather_station/internal/display"
	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/recorder"
	"github.com/relabs-tech/weather_station/internal/trend"
)

const refresh = 2 * time.Second

type rig struct {
	*bench
	display   *fakeDisplay
	recorder  *fakeRecorder
	published []env.Reading
	ctrl      *Controller
	cancel    context.CancelFunc
	ctx       context.Context
}

func (r *rig) PublishReading(reading env.Reading, _ time.Time, _ trend.Direction) error {
	r.published = append(r.published, reading)
	return errors.New("broker unreachable")
}

// newRig builds a controller that stops after the given number of
// inter-cycle sleeps.
func newRig(t *testing.T, cycles int, vanity VanityOptions, results ...probeResult) *rig {
	t.Helper()
	b := newBench(results...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := &rig{
		bench:    b,
		display:  newFakeDisplay(),
		recorder: &fakeRecorder{},
		ctx:      ctx,
		cancel:   cancel,
	}

	presenter := display.NewPresenter(4, 20)
	acq := NewAcquirer(b.hw(), trend.NewHistory(5400), b.clock, discardLogger(), AcquireOptions{
		Elevation:       185.6,
		PowerCyclePause: time.Second,
	})
	r.ctrl = NewController(ControllerOptions{
		Acquirer:  acq,
		Recorder:  r.recorder,
		Presenter: presenter,
		Display:   r.display,
		Vanity:    NewVanity(r.display, presenter.RenderVanity, b.clock, discardLogger(), vanity),
		Publisher: r,
		Clock:     b.clock,
		Refresh:   refresh,
		Logger:    discardLogger(),
	})

	b.clock.onSleep = func(time.Duration) {
		// the loop's own sleep is the last one of a cycle
		if r.ctrl.Cycles() >= cycles {
			cancel()
		}
	}
	return r
}

func noVanity() VanityOptions { return VanityOptions{} }

func TestController_endToEnd(t *testing.T) {
	r := newRig(t, 1, noVanity(), okProbe(21.0, 45.0))

	err := r.ctrl.Run(r.ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, r.recorder.records, 1)
	rec := r.recorder.records[0]
	assert.Equal(t, t0, rec.ts)
	assert.Len(t, recorder.Observations(rec.reading, rec.ts), 6)

	assert.True(t, strings.HasPrefix(r.display.rows[0], "45.0% "))
	assert.Contains(t, r.display.rows[0], "21.0/70")
	assert.True(t, strings.HasPrefix(r.display.rows[3], "Sea: 101.500 kPa"))
	assert.Equal(t, []time.Duration{refresh}, r.clock.sleeps)

	// a failing mirror does not stop the loop
	assert.Len(t, r.published, 1)
}

func TestController_staleProbeSuppressed(t *testing.T) {
	r := newRig(t, 2, noVanity(), okProbe(21.0, 45.0), failProbe("Checksum did not validate"))

	require.ErrorIs(t, r.ctrl.Run(r.ctx), context.Canceled)

	require.Len(t, r.recorder.records, 2)
	second := r.recorder.records[1]
	assert.False(t, second.reading.ProbeValid)
	obs := recorder.Observations(second.reading, second.ts)
	require.Len(t, obs, 4)
	for _, o := range obs {
		assert.NotEqual(t, "dht", o.Source)
	}
	assert.Equal(t, t0.Add(refresh), second.ts)

	// previous probe values stay on screen
	assert.True(t, strings.HasPrefix(r.display.rows[0], "45.0% "))
}

func TestController_nothingRecordedBeforeFirstSuccess(t *testing.T) {
	r := newRig(t, 1, noVanity(), failProbe("Checksum did not validate"))

	require.ErrorIs(t, r.ctrl.Run(r.ctx), context.Canceled)
	assert.Empty(t, r.recorder.records)
	assert.Empty(t, r.published)
	assert.Equal(t, 4, r.display.writes)
}

func TestController_cadenceAccountsForCycleTime(t *testing.T) {
	r := newRig(t, 1, noVanity(), okProbe(21.0, 45.0))
	r.light.clock = r.clock
	r.light.cost = 300 * time.Millisecond

	require.ErrorIs(t, r.ctrl.Run(r.ctx), context.Canceled)
	assert.Equal(t, []time.Duration{1700 * time.Millisecond}, r.clock.sleeps)
}

func TestController_recordErrorIsFatal(t *testing.T) {
	r := newRig(t, 5, noVanity(), okProbe(21.0, 45.0))
	dbErr := errors.New("influx write: 500")
	r.recorder.err = dbErr

	err := r.ctrl.Run(r.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 0, r.ctrl.Cycles())
	assert.Empty(t, r.clock.sleeps)
}

func TestController_acquireErrorIsFatal(t *testing.T) {
	r := newRig(t, 5, noVanity(), okProbe(21.0, 45.0))
	lightErr := errors.New("gpio6: edge detection unavailable")
	r.light.err = lightErr

	err := r.ctrl.Run(r.ctx)
	assert.ErrorIs(t, err, lightErr)
	assert.Contains(t, err.Error(), "acquire")
}

func TestController_vanityBeforeAcquisition(t *testing.T) {
	vanity := VanityOptions{
		Lines:    [2]string{"   Weather Station", "  have a nice day <3"},
		Interval: 20 * time.Minute,
		Dwell:    10 * time.Second,
	}
	r := newRig(t, 1, vanity, okProbe(21.0, 45.0))
	r.clock.now = t0.Add(-21 * time.Minute)
	// rebuild the vanity timer so it started 21 minutes ago
	r.ctrl.vanity = NewVanity(r.display, display.NewPresenter(4, 20).RenderVanity, r.clock, discardLogger(), vanity)
	r.clock.now = t0

	require.ErrorIs(t, r.ctrl.Run(r.ctx), context.Canceled)

	assert.Equal(t, 1, r.display.clears)
	require.Len(t, r.clock.sleeps, 2)
	assert.Equal(t, 10*time.Second, r.clock.sleeps[0])
	// the cycle started after the dwell
	require.Len(t, r.recorder.records, 1)
	assert.Equal(t, t0.Add(10*time.Second), r.recorder.records[0].ts)
	// the reading replaced the message
	assert.True(t, strings.HasPrefix(r.display.rows[0], "45.0% "))
}
