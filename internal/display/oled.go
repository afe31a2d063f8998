// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// addrBus sends every transaction to a fixed address, so the panel can sit
// at something other than the driver's default.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// OLED emulates a character display on an SSD1306 pixel panel. Each cell is
// width/cols by height/rows pixels; text uses basicfont and the custom cells
// draw their 5×8 bitmaps stretched to the cell height.
type OLED struct {
	dev   *ssd1306.Dev
	img   *image1bit.VerticalLSB
	grid  [][]byte
	cellW int
	cellH int
}

// NewOLED initializes the panel at addr and clears it.
func NewOLED(bus i2c.Bus, addr uint16, width, height, rows, cols int) (*OLED, error) {
	dev, err := ssd1306.NewI2C(&addrBus{Bus: bus, addr: addr}, &ssd1306.Opts{W: width, H: height})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display at 0x%02X: %w", addr, err)
	}
	o := &OLED{
		dev:   dev,
		img:   image1bit.NewVerticalLSB(image.Rect(0, 0, width, height)),
		grid:  newGrid(rows, cols),
		cellW: width / cols,
		cellH: height / rows,
	}
	if err := o.Clear(); err != nil {
		return nil, err
	}
	return o, nil
}

// Clear blanks the panel.
func (o *OLED) Clear() error {
	o.grid = newGrid(len(o.grid), len(o.grid[0]))
	return o.flush()
}

// WriteAt puts text on row starting at col; characters past the last column
// are dropped.
func (o *OLED) WriteAt(row, col int, text string) error {
	if err := writeGrid(o.grid, row, col, text); err != nil {
		return err
	}
	return o.flush()
}

// Halt blanks and powers down the panel.
func (o *OLED) Halt() error {
	return o.dev.Halt()
}

func (o *OLED) flush() error {
	for i := range o.img.Pix {
		o.img.Pix[i] = 0
	}
	for r, line := range o.grid {
		for c, ch := range line {
			o.drawCell(r, c, ch)
		}
	}
	if err := o.dev.Draw(o.dev.Bounds(), o.img, image.Point{}); err != nil {
		return fmt.Errorf("display draw: %w", err)
	}
	return nil
}

func (o *OLED) drawCell(row, col int, ch byte) {
	cell := image.Rect(col*o.cellW, row*o.cellH, (col+1)*o.cellW, (row+1)*o.cellH)

	if bitmap, ok := glyphs[ch]; ok {
		for y := 0; y < o.cellH; y++ {
			bits := bitmap[y*glyphRows/o.cellH]
			for x := 0; x < 5 && x < o.cellW; x++ {
				if bits&(0b10000>>x) != 0 {
					o.img.SetBit(cell.Min.X+x, cell.Min.Y+y, image1bit.On)
				}
			}
		}
		return
	}
	if ch == ' ' {
		return
	}

	face := basicfont.Face7x13
	dot := fixed.P(cell.Min.X, cell.Min.Y+face.Ascent+(o.cellH-face.Height)/2)
	glyph, mask, maskp, _, ok := face.Glyph(dot, rune(ch))
	if !ok {
		return
	}
	dr := glyph.Intersect(cell)
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		for x := dr.Min.X; x < dr.Max.X; x++ {
			mx, my := maskp.X+x-glyph.Min.X, maskp.Y+y-glyph.Min.Y
			if _, _, _, a := mask.At(mx, my).RGBA(); a > 0x7fff {
				o.img.SetBit(x, y, image1bit.On)
			}
		}
	}
}

func newGrid(rows, cols int) [][]byte {
	grid := make([][]byte, rows)
	for i := range grid {
		grid[i] = make([]byte, cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return grid
}

func writeGrid(grid [][]byte, row, col int, text string) error {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return fmt.Errorf("cell (%d,%d) outside %dx%d grid", row, col, len(grid), len(grid[0]))
	}
	copy(grid[row][col:], text)
	return nil
}
