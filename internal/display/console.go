package display

import (
	"fmt"
	"io"
	"strings"
)

// Console mirrors a character display on a terminal, one framed row per
// write. Custom cells are replaced with printable stand-ins.
type Console struct {
	w    io.Writer
	grid [][]byte
}

// NewConsole returns a rows×cols console display writing to w.
func NewConsole(w io.Writer, rows, cols int) *Console {
	return &Console{w: w, grid: newGrid(rows, cols)}
}

func (c *Console) Clear() error {
	c.grid = newGrid(len(c.grid), len(c.grid[0]))
	_, err := fmt.Fprintf(c.w, "+%s+\n", strings.Repeat("-", len(c.grid[0])))
	return err
}

func (c *Console) WriteAt(row, col int, text string) error {
	if err := writeGrid(c.grid, row, col, text); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.w, "%d|%s|\n", row, Printable(string(c.grid[row])))
	return err
}

// Printable swaps custom cell codes for terminal-safe text.
func Printable(line string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if s, ok := printable[line[i]]; ok {
			b.WriteString(s)
			continue
		}
		b.WriteByte(line[i])
	}
	return b.String()
}
