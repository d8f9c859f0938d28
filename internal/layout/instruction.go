package layout

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownOp 未知的布局指令
var ErrUnknownOp = errors.New("unknown layout op")

// Op 布局指令类型
type Op int

const (
	OpWriteText Op = iota + 1
	OpWriteNumber
	OpMergeRange
	OpSetRowHeight
	OpSetColumnWidth
	OpEmbedImage
)

func (o Op) String() string {
	switch o {
	case OpWriteText:
		return "write-text"
	case OpWriteNumber:
		return "write-number"
	case OpMergeRange:
		return "merge-range"
	case OpSetRowHeight:
		return "set-row-height"
	case OpSetColumnWidth:
		return "set-column-width"
	case OpEmbedImage:
		return "embed-image"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Style 单元格样式
type Style int

const (
	StyleBody Style = iota
	StyleTitle
	StyleHeader
	StyleLabel
	StyleRules
	StyleLabelLeft
)

// Value is the content of a merged range: either text or a number.
type Value struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Text 文本值
func Text(s string) Value { return Value{Text: s} }

// Number 数值
func Number(n int) Value { return Value{Number: float64(n), IsNumber: true} }

func (v Value) String() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// Instruction is one step of the sheet layout. Rows and columns are 0-based;
// Row2/Col2 are the inclusive bottom-right corner of a merge.
type Instruction struct {
	Op     Op
	Row    int
	Col    int
	Row2   int
	Col2   int
	Value  Value
	Style  Style
	Height float64
	Width  float64
}

func (in Instruction) String() string {
	switch in.Op {
	case OpWriteText, OpWriteNumber:
		return fmt.Sprintf("%s(%d,%d,%q)", in.Op, in.Row, in.Col, in.Value.String())
	case OpMergeRange:
		return fmt.Sprintf("%s(%d,%d,%d,%d,%q)", in.Op, in.Row, in.Col, in.Row2, in.Col2, in.Value.String())
	case OpSetRowHeight:
		return fmt.Sprintf("%s(%d,%g)", in.Op, in.Row, in.Height)
	case OpSetColumnWidth:
		return fmt.Sprintf("%s(%d,%g)", in.Op, in.Col, in.Width)
	case OpEmbedImage:
		return fmt.Sprintf("%s(%d,%d)", in.Op, in.Row, in.Col)
	}
	return in.Op.String()
}

// Sink 表格写入端（xlsx 文件或内存记录器）
type Sink interface {
	WriteText(row, col int, text string, style Style) error
	WriteNumber(row, col int, n float64, style Style) error
	MergeRange(row, col, row2, col2 int, v Value, style Style) error
	SetRowHeight(row int, height float64) error
	SetColumnWidth(col int, width float64) error
	EmbedImage(row, col int) error
}

// Sheet accumulates instructions in emission order.
type Sheet struct {
	instrs []Instruction
}

// NewSheet 创建空的指令序列
func NewSheet() *Sheet {
	return &Sheet{}
}

func (s *Sheet) WriteText(row, col int, text string, style Style) {
	s.instrs = append(s.instrs, Instruction{Op: OpWriteText, Row: row, Col: col, Value: Text(text), Style: style})
}

func (s *Sheet) WriteNumber(row, col int, n int, style Style) {
	s.instrs = append(s.instrs, Instruction{Op: OpWriteNumber, Row: row, Col: col, Value: Number(n), Style: style})
}

func (s *Sheet) Merge(row, col, row2, col2 int, v Value, style Style) {
	s.instrs = append(s.instrs, Instruction{
		Op: OpMergeRange, Row: row, Col: col, Row2: row2, Col2: col2, Value: v, Style: style,
	})
}

// Span writes v into column col over rows [first, last]: merged when the span has
// more than one row, written directly otherwise.
func (s *Sheet) Span(first, last, col int, v Value, style Style) {
	s.SpanCols(first, last, col, col, v, style)
}

// SpanCols is Span over the column range [col, col2].
func (s *Sheet) SpanCols(first, last, col, col2 int, v Value, style Style) {
	if last > first || col2 > col {
		s.Merge(first, col, last, col2, v, style)
		return
	}
	if v.IsNumber {
		s.instrs = append(s.instrs, Instruction{Op: OpWriteNumber, Row: first, Col: col, Value: v, Style: style})
		return
	}
	s.WriteText(first, col, v.Text, style)
}

func (s *Sheet) SetRowHeight(row int, height float64) {
	s.instrs = append(s.instrs, Instruction{Op: OpSetRowHeight, Row: row, Height: height})
}

func (s *Sheet) SetColumnWidth(col int, width float64) {
	s.instrs = append(s.instrs, Instruction{Op: OpSetColumnWidth, Col: col, Width: width})
}

func (s *Sheet) EmbedImage(row, col int) {
	s.instrs = append(s.instrs, Instruction{Op: OpEmbedImage, Row: row, Col: col})
}

// Instructions returns a copy of the accumulated instructions.
func (s *Sheet) Instructions() []Instruction {
	out := make([]Instruction, len(s.instrs))
	copy(out, s.instrs)
	return out
}

// Replay applies instructions to sink in order and stops at the first failure.
func Replay(sink Sink, instrs []Instruction) error {
	for i, in := range instrs {
		var err error
		switch in.Op {
		case OpWriteText:
			err = sink.WriteText(in.Row, in.Col, in.Value.Text, in.Style)
		case OpWriteNumber:
			err = sink.WriteNumber(in.Row, in.Col, in.Value.Number, in.Style)
		case OpMergeRange:
			err = sink.MergeRange(in.Row, in.Col, in.Row2, in.Col2, in.Value, in.Style)
		case OpSetRowHeight:
			err = sink.SetRowHeight(in.Row, in.Height)
		case OpSetColumnWidth:
			err = sink.SetColumnWidth(in.Col, in.Width)
		case OpEmbedImage:
			err = sink.EmbedImage(in.Row, in.Col)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownOp, in.Op)
		}
		if err != nil {
			return fmt.Errorf("instruction %d %s: %w", i, in, err)
		}
	}
	return nil
}
