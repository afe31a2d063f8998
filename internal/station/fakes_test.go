package station

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/sensors"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	now     time.Time
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	if c.onSleep != nil {
		c.onSleep(d)
	}
	return ctx.Err()
}

type probeResult struct {
	temp, hum float64
	err       error
}

// fakeProbe replays results in order and repeats the last one.
type fakeProbe struct {
	results []probeResult
	reads   int
}

func (p *fakeProbe) Read() (float64, float64, error) {
	r := p.results[min(p.reads, len(p.results)-1)]
	p.reads++
	return r.temp, r.hum, r.err
}

func okProbe(temp, hum float64) probeResult { return probeResult{temp: temp, hum: hum} }

func failProbe(msg string) probeResult {
	return probeResult{err: sensors.NewProbeError(msg)}
}

type fakeLight struct {
	value float64
	err   error
	clock *fakeClock
	cost  time.Duration // clock advance per read
}

func (l *fakeLight) Read() (float64, error) {
	if l.clock != nil {
		l.clock.now = l.clock.now.Add(l.cost)
	}
	return l.value, l.err
}

type fakeBarometer struct {
	temp, pressure, sea float64
	err                 error
}

func (b *fakeBarometer) ReadTemperature() (float64, error) { return b.temp, b.err }
func (b *fakeBarometer) ReadPressure() (float64, error)    { return b.pressure, b.err }
func (b *fakeBarometer) ReadSeaLevelPressure(float64) (float64, error) {
	return b.sea, b.err
}

type powerEvent struct {
	on bool
	at time.Time
}

type fakePower struct {
	clock  *fakeClock
	events []powerEvent
	err    error
}

func (p *fakePower) SetPower(on bool) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, powerEvent{on: on, at: p.clock.Now()})
	return nil
}

type fakeDisplay struct {
	clears int
	rows   map[int]string
	writes int
}

func newFakeDisplay() *fakeDisplay { return &fakeDisplay{rows: map[int]string{}} }

func (d *fakeDisplay) Clear() error {
	d.clears++
	d.rows = map[int]string{}
	return nil
}

func (d *fakeDisplay) WriteAt(row, _ int, text string) error {
	d.writes++
	d.rows[row] = text
	return nil
}

type recorded struct {
	reading env.Reading
	ts      time.Time
}

type fakeRecorder struct {
	records []recorded
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, reading env.Reading, ts time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, recorded{reading: reading, ts: ts})
	return nil
}

// bench is a full set of fakes around one Acquirer.
type bench struct {
	clock *fakeClock
	probe *fakeProbe
	light *fakeLight
	baro  *fakeBarometer
	power *fakePower
}

func newBench(results ...probeResult) *bench {
	clock := newFakeClock()
	return &bench{
		clock: clock,
		probe: &fakeProbe{results: results},
		light: &fakeLight{value: 0.5},
		baro:  &fakeBarometer{temp: 21.2, pressure: 101325, sea: 101500},
		power: &fakePower{clock: clock},
	}
}

func (b *bench) hw() Sensors {
	return Sensors{Probe: b.probe, Light: b.light, Barometer: b.baro, Power: b.power}
}
