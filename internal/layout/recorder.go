package layout

import (
	"fmt"
	"io"
	"strings"
)

// Cell 记录器中的单元格
type Cell struct {
	Value Value
	Style Style
}

// MergedRange 记录器中的合并区域
type MergedRange struct {
	Row, Col, Row2, Col2 int
	Value                Value
}

func (m MergedRange) contains(row, col int) bool {
	return row >= m.Row && row <= m.Row2 && col >= m.Col && col <= m.Col2
}

func (m MergedRange) overlaps(o MergedRange) bool {
	return m.Row <= o.Row2 && o.Row <= m.Row2 && m.Col <= o.Col2 && o.Col <= m.Col2
}

// Recorder is an in-memory Sink. It rejects overlapping merges the way xlsx
// writers do, which makes it useful for previews and for asserting layouts.
type Recorder struct {
	Cells      map[[2]int]Cell
	Merges     []MergedRange
	RowHeights map[int]float64
	ColWidths  map[int]float64
	Images     [][2]int
	maxRow     int
	maxCol     int
}

// NewRecorder 创建内存记录器
func NewRecorder() *Recorder {
	return &Recorder{
		Cells:      make(map[[2]int]Cell),
		RowHeights: make(map[int]float64),
		ColWidths:  make(map[int]float64),
	}
}

func (r *Recorder) WriteText(row, col int, text string, style Style) error {
	r.put(row, col, Text(text), style)
	return nil
}

func (r *Recorder) WriteNumber(row, col int, n float64, style Style) error {
	r.put(row, col, Value{Number: n, IsNumber: true}, style)
	return nil
}

func (r *Recorder) MergeRange(row, col, row2, col2 int, v Value, style Style) error {
	if row2 < row || col2 < col {
		return fmt.Errorf("invalid merge range (%d,%d)-(%d,%d)", row, col, row2, col2)
	}
	if row == row2 && col == col2 {
		return fmt.Errorf("merge range (%d,%d) covers a single cell", row, col)
	}
	m := MergedRange{Row: row, Col: col, Row2: row2, Col2: col2, Value: v}
	for _, existing := range r.Merges {
		if existing.overlaps(m) {
			return fmt.Errorf("merge range (%d,%d)-(%d,%d) overlaps (%d,%d)-(%d,%d)",
				row, col, row2, col2, existing.Row, existing.Col, existing.Row2, existing.Col2)
		}
	}
	r.Merges = append(r.Merges, m)
	r.put(row, col, v, style)
	r.track(row2, col2)
	return nil
}

func (r *Recorder) SetRowHeight(row int, height float64) error {
	r.RowHeights[row] = height
	return nil
}

func (r *Recorder) SetColumnWidth(col int, width float64) error {
	r.ColWidths[col] = width
	return nil
}

func (r *Recorder) EmbedImage(row, col int) error {
	r.Images = append(r.Images, [2]int{row, col})
	return nil
}

// Value returns the displayed value at (row, col), resolving merged ranges to
// their top-left cell.
func (r *Recorder) Value(row, col int) (Value, bool) {
	for _, m := range r.Merges {
		if m.contains(row, col) {
			return m.Value, true
		}
	}
	c, ok := r.Cells[[2]int{row, col}]
	return c.Value, ok
}

// MergeAt returns the merged range covering (row, col), if any.
func (r *Recorder) MergeAt(row, col int) (MergedRange, bool) {
	for _, m := range r.Merges {
		if m.contains(row, col) {
			return m, true
		}
	}
	return MergedRange{}, false
}

// Rows returns the number of rows touched.
func (r *Recorder) Rows() int {
	if len(r.Cells) == 0 && len(r.Merges) == 0 {
		return 0
	}
	return r.maxRow + 1
}

// Dump writes a tab-separated preview of the grid; merged continuation cells
// are shown as "^" (vertical) or "<" (horizontal).
func (r *Recorder) Dump(w io.Writer) error {
	for row := 0; row < r.Rows(); row++ {
		fields := make([]string, r.maxCol+1)
		for col := range fields {
			if m, ok := r.MergeAt(row, col); ok && (row != m.Row || col != m.Col) {
				if col != m.Col {
					fields[col] = "<"
				} else {
					fields[col] = "^"
				}
				continue
			}
			if v, ok := r.Value(row, col); ok {
				fields[col] = strings.ReplaceAll(v.String(), "\n", " ")
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) put(row, col int, v Value, style Style) {
	r.Cells[[2]int{row, col}] = Cell{Value: v, Style: style}
	r.track(row, col)
}

func (r *Recorder) track(row, col int) {
	if row > r.maxRow {
		r.maxRow = row
	}
	if col > r.maxCol {
		r.maxCol = col
	}
}
