package report

import (
	"github.com/tangxiangong/weisheng/internal/layout"
)

// lastCol 表格最后一列（I 列）
const lastCol = 8

// rulesRowHeight 验评细则行高
const rulesRowHeight = 80

// Meta 表头元数据
type Meta struct {
	Title          string // 高中部宿舍卫生验评通报总结
	Audience       string // 验评对象
	InspectingDept string // 验评部门
	Project        string // 验评项目
	Rules          string // 验评细则
	Reporter       string
	Date           string
	Time           string
}

// Column is one column header; Span > 1 merges it across adjacent columns.
type Column struct {
	Title string
	Span  int
}

// DepartmentColumns 级部表列头
var DepartmentColumns = []Column{
	{Title: "公寓", Span: 1},
	{Title: "级部", Span: 1},
	{Title: "班主任", Span: 1},
	{Title: "宿舍管理员", Span: 1},
	{Title: "宿舍号", Span: 1},
	{Title: "扣分原因", Span: 1},
	{Title: "扣分", Span: 1},
	{Title: "总扣分", Span: 1},
	{Title: "排名", Span: 1},
}

// ManagerColumns 宿管表列头（扣分原因、总扣分各占两列）
var ManagerColumns = []Column{
	{Title: "公寓", Span: 1},
	{Title: "宿舍管理员", Span: 1},
	{Title: "宿舍号", Span: 1},
	{Title: "扣分原因", Span: 2},
	{Title: "扣分", Span: 1},
	{Title: "总扣分", Span: 2},
	{Title: "排名", Span: 1},
}

// ColumnWidths A..I 列宽
var ColumnWidths = []float64{12, 12, 12, 10, 10, 18, 8, 8, 8}

// EmitHeader writes the title, metadata, rules and column header rows starting at
// row and returns the first row after the header.
func EmitHeader(sheet *layout.Sheet, row int, meta Meta, columns []Column) int {
	sheet.Merge(row, 0, row, lastCol, layout.Text(meta.Title), layout.StyleTitle)
	sheet.EmbedImage(row, 3)
	row++

	sheet.Merge(row, 0, row, 4, layout.Text("汇报人: "+meta.Reporter), layout.StyleLabelLeft)
	sheet.Merge(row, 5, row, 7, layout.Text("验评对象: "+meta.Audience), layout.StyleLabel)
	sheet.WriteText(row, lastCol, "日期: "+meta.Date, layout.StyleLabel)
	row++

	fields := []struct {
		label string
		value string
		style layout.Style
	}{
		{"验评部门", meta.InspectingDept, layout.StyleBody},
		{"验评项目", meta.Project, layout.StyleBody},
		{"验评时间", meta.Time, layout.StyleBody},
		{"验评细则", meta.Rules, layout.StyleRules},
	}
	for _, f := range fields {
		sheet.WriteText(row, 0, f.label, layout.StyleLabel)
		sheet.Merge(row, 1, row, lastCol, layout.Text(f.value), f.style)
		row++
	}
	sheet.SetRowHeight(row-1, rulesRowHeight)

	col := 0
	for _, c := range columns {
		span := c.Span
		if span < 1 {
			span = 1
		}
		sheet.SpanCols(row, row, col, col+span-1, layout.Text(c.Title), layout.StyleHeader)
		col += span
	}
	return row + 1
}

// emitColumnWidths 设置 A..I 列宽
func emitColumnWidths(sheet *layout.Sheet) {
	for col, w := range ColumnWidths {
		sheet.SetColumnWidth(col, w)
	}
}
