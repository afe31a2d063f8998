package display

import "github.com/relabs-tech/weather_station/internal/trend"

// Custom character cells. The codes are the CGRAM slots of HD44780-style
// modules; the pixel displays draw the same bitmaps.
const (
	GlyphDegree    = "\x00"
	GlyphWater     = "\x01"
	GlyphSun       = "\x02"
	GlyphBackslash = trend.Backslash
	GlyphHeart     = "\x07"
)

// glyphRows is the height of a custom character, 5 pixels wide.
const glyphRows = 8

// glyphs maps a cell code to its 5×8 bitmap, top row first, bit 4 leftmost.
var glyphs = map[byte][glyphRows]byte{
	0x00: {0b01110, 0b01010, 0b01110, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000},
	0x01: {0b00000, 0b00100, 0b01010, 0b10001, 0b10001, 0b10001, 0b01110, 0b00000},
	0x02: {0b00000, 0b00100, 0b01110, 0b11011, 0b01110, 0b00100, 0b00000, 0b00000},
	0x03: {0b00000, 0b10000, 0b01000, 0b00100, 0b00010, 0b00001, 0b00000, 0b00000},
	0x07: {0b00000, 0b01010, 0b10101, 0b10001, 0b01010, 0b00100, 0b00000, 0b00000},
}

// printable stands in for the custom cells on a terminal.
var printable = map[byte]string{
	0x00: "°",
	0x01: "~",
	0x02: "*",
	0x03: `\`,
	0x07: "<3",
}
