// Package display formats station readings into fixed-width text lines and
// drives the character displays they are shown on.
package display

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/trend"
)

// Presenter lays readings out on a rows×cols character grid.
type Presenter struct {
	rows int
	cols int
}

// NewPresenter returns a presenter for a grid of rows×cols cells.
func NewPresenter(rows, cols int) *Presenter {
	return &Presenter{rows: rows, cols: cols}
}

// Rows returns the number of lines Render produces.
func (p *Presenter) Rows() int { return p.rows }

// Render returns exactly Rows() lines of exactly cols characters. Stale probe
// values are rendered as they are.
func (p *Presenter) Render(r env.Reading, dir trend.Direction) []string {
	lines := []string{
		fmt.Sprintf("%s %s, %s", FormatPercent(r.Humidity), GlyphWater, FormatTemps(r.ProbeTemperature)),
		fmt.Sprintf("%s %s, %s", FormatPercent(r.LightLevel), GlyphSun, FormatTemps(r.BarometerTemperature)),
		fmt.Sprintf("Actual: %.3f kPa", r.StationPressure/1000),
		fmt.Sprintf("Sea: %.3f kPa %s", float64(r.SeaLevelPressure)/1000, dir.Glyph()),
	}
	return p.fit(lines)
}

// RenderVanity places two message lines on the middle rows. A "<3" in a
// line becomes the heart glyph.
func (p *Presenter) RenderVanity(lines [2]string) []string {
	return p.fit([]string{
		"",
		strings.ReplaceAll(lines[0], "<3", GlyphHeart),
		strings.ReplaceAll(lines[1], "<3", GlyphHeart),
	})
}

func (p *Presenter) fit(lines []string) []string {
	out := make([]string, p.rows)
	for i := range out {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out[i] = fitWidth(line, p.cols)
	}
	return out
}

// fitWidth pads with spaces or truncates to exactly cols bytes. Every glyph
// the display knows is a single byte.
func fitWidth(line string, cols int) string {
	if len(line) >= cols {
		return line[:cols]
	}
	return line + strings.Repeat(" ", cols-len(line))
}

// FormatPercent renders one decimal and a percent sign below 100, and a
// bare "100%" at or above it so the value never needs six cells.
func FormatPercent(v float64) string {
	if v < 100.0 {
		return fmt.Sprintf("%.1f%%", v)
	}
	return "100%"
}

// FormatTemps renders a Celsius value with its whole Fahrenheit equivalent.
func FormatTemps(celsius float64) string {
	return fmt.Sprintf("%.1f/%.0f%sC/F", celsius, env.FahrenheitOf(celsius), GlyphDegree)
}
