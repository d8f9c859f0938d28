package layout

import (
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExcelSinkOptions xlsx 写入配置
type ExcelSinkOptions struct {
	SheetName string
	LogoPath  string  // 为空时 EmbedImage 报错
	LogoScale float64 // 默认 0.3
}

// ExcelSink writes layout instructions into an excelize workbook.
type ExcelSink struct {
	f      *excelize.File
	sheet  string
	styles map[Style]int
	opts   ExcelSinkOptions
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// NewExcelSink 创建 xlsx 写入端
func NewExcelSink(opts ExcelSinkOptions) (*ExcelSink, error) {
	if opts.SheetName == "" {
		opts.SheetName = "Sheet1"
	}
	if opts.LogoScale <= 0 {
		opts.LogoScale = 0.3
	}

	f := excelize.NewFile()
	if opts.SheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", opts.SheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	s := &ExcelSink{f: f, sheet: opts.SheetName, styles: make(map[Style]int), opts: opts}
	defs := map[Style]*excelize.Style{
		StyleTitle: {
			Font:      &excelize.Font{Bold: true, Size: 18},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
		StyleHeader: {
			Font:      &excelize.Font{Bold: true},
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		},
		StyleLabel: {
			Font:      &excelize.Font{Bold: true},
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		},
		StyleBody: {
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		},
		StyleLabelLeft: {
			Font:      &excelize.Font{Bold: true},
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		},
		StyleRules: {
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		},
	}
	for style, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		s.styles[style] = id
	}
	return s, nil
}

func (s *ExcelSink) WriteText(row, col int, text string, style Style) error {
	return s.write(row, col, text, style)
}

func (s *ExcelSink) WriteNumber(row, col int, n float64, style Style) error {
	return s.write(row, col, n, style)
}

func (s *ExcelSink) MergeRange(row, col, row2, col2 int, v Value, style Style) error {
	topLeft, err := cellName(row, col)
	if err != nil {
		return err
	}
	bottomRight, err := cellName(row2, col2)
	if err != nil {
		return err
	}
	var value any = v.Text
	if v.IsNumber {
		value = v.Number
	}
	if err := s.f.SetCellValue(s.sheet, topLeft, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", topLeft, err)
	}
	if err := s.f.MergeCell(s.sheet, topLeft, bottomRight); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", topLeft, bottomRight, err)
	}
	if err := s.f.SetCellStyle(s.sheet, topLeft, bottomRight, s.styles[style]); err != nil {
		return fmt.Errorf("failed to set style %s:%s: %w", topLeft, bottomRight, err)
	}
	return nil
}

func (s *ExcelSink) SetRowHeight(row int, height float64) error {
	return s.f.SetRowHeight(s.sheet, row+1, height)
}

func (s *ExcelSink) SetColumnWidth(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	return s.f.SetColWidth(s.sheet, name, name, width)
}

// EmbedImage inserts the configured logo. A missing logo file is fatal.
func (s *ExcelSink) EmbedImage(row, col int) error {
	if s.opts.LogoPath == "" {
		return fmt.Errorf("no logo configured")
	}
	if _, err := os.Stat(s.opts.LogoPath); err != nil {
		return fmt.Errorf("logo %s: %w", s.opts.LogoPath, err)
	}
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if err := s.f.AddPicture(s.sheet, cell, s.opts.LogoPath, &excelize.GraphicOptions{
		ScaleX: s.opts.LogoScale,
		ScaleY: s.opts.LogoScale,
	}); err != nil {
		return fmt.Errorf("failed to insert logo at %s: %w", cell, err)
	}
	return nil
}

// SaveAs 保存为 xlsx 文件
func (s *ExcelSink) SaveAs(path string) error {
	if err := s.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo 写出 xlsx 字节流
func (s *ExcelSink) WriteTo(w io.Writer) (int64, error) {
	return s.f.WriteTo(w)
}

// Close 释放工作簿资源
func (s *ExcelSink) Close() error {
	return s.f.Close()
}

func (s *ExcelSink) write(row, col int, value any, style Style) error {
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if err := s.f.SetCellValue(s.sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	if err := s.f.SetCellStyle(s.sheet, cell, cell, s.styles[style]); err != nil {
		return fmt.Errorf("failed to set style %s: %w", cell, err)
	}
	return nil
}

func cellName(row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", fmt.Errorf("failed to convert coordinates: %w", err)
	}
	return cell, nil
}
