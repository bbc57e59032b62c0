package memory

import (
	"fmt"
	"io"
	"strings"

	"hexmon/internal/style"
)

const (
	RowWidth = 16
	HexWidth = 40

	Banner = "- offset -  0 1  2 3  4 5  6 7  8 9  A B  C D  E F  0123456789ABCDEF"

	AbsentHex      = "**"
	AbsentGlyph    = "*"
	NonPrintGlyph  = "."
	printableFirst = 0x21
	printableLast  = 0x7E
)

type Cell struct {
	Value   byte
	Present bool
}

type DumpRow struct {
	Offset uint64
	Cells  []Cell
}

// SparseRows splits [loc, loc+size) into rows of at most RowWidth cells.
// The last row only holds the bytes left in the range.
func SparseRows(loc, size uint64, data SparseMap) []DumpRow {
	rows := make([]DumpRow, 0, rowCount(size))
	_ = eachWindow(size, func(start, end uint64) error {
		rows = append(rows, rowAt(loc, start, end, data))
		return nil
	})
	return rows
}

func eachWindow(size uint64, fn func(start, end uint64) error) error {
	for i := uint64(0); i < size; i += RowWidth {
		end := size
		if size-i > RowWidth {
			end = i + RowWidth
		}
		if err := fn(i, end); err != nil {
			return err
		}
		if end == size {
			break
		}
	}
	return nil
}

func rowCount(size uint64) int {
	n := size / RowWidth
	if size%RowWidth != 0 {
		n++
	}
	if n > 1<<16 {
		return 1 << 16
	}
	return int(n)
}

// DumpSparse writes the banner followed by one line per row. Only writer
// faults are returned.
func DumpSparse(w io.Writer, loc, size uint64, data SparseMap, st style.Styler) error {
	if st == nil {
		st = style.Plain{}
	}
	if _, err := fmt.Fprintln(w, st.Style(Banner, style.BannerIndex)); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	err := eachWindow(size, func(start, end uint64) error {
		_, err := io.WriteString(w, FormatRow(rowAt(loc, start, end, data), st))
		return err
	})
	if err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}

func rowAt(loc, start, end uint64, data SparseMap) DumpRow {
	cells := make([]Cell, 0, end-start)
	for j := start; j < end; j++ {
		b, ok := data.Get(loc + j)
		cells = append(cells, Cell{Value: b, Present: ok})
	}
	return DumpRow{Offset: loc + start, Cells: cells}
}

// FormatRow renders one row including its trailing newline. Cell parity is
// taken relative to the row start, which is always even.
func FormatRow(row DumpRow, st style.Styler) string {
	if st == nil {
		st = style.Plain{}
	}
	var hex strings.Builder
	var ascii strings.Builder
	for j, cell := range row.Cells {
		if cell.Present {
			fmt.Fprintf(&hex, "%02x", cell.Value)
		} else {
			hex.WriteString(AbsentHex)
		}
		if j%2 == 1 {
			hex.WriteByte(' ')
		}
		ascii.WriteString(asciiCell(cell, st))
	}
	label := st.Style(fmt.Sprintf("0x%08x", row.Offset), style.BannerIndex)
	return fmt.Sprintf("%s %-*s %s\n", label, HexWidth, hex.String(), ascii.String())
}

func asciiCell(cell Cell, st style.Styler) string {
	if !cell.Present {
		return st.Style(AbsentGlyph, style.SentinelIndex)
	}
	if cell.Value >= printableFirst && cell.Value <= printableLast {
		return string(rune(cell.Value))
	}
	return st.Style(NonPrintGlyph, style.SentinelIndex)
}
