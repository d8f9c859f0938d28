package report

import (
	"sort"

	"github.com/tangxiangong/weisheng/internal/layout"
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/ranking"
	"github.com/tangxiangong/weisheng/internal/reference"

	"go.uber.org/zap"
)

// 表格分组类型
const (
	KindDepartment = "department"
	KindClassroom  = "classroom"
	KindManager    = "manager"
)

// DualApartment names the one department allowed to live in more than one apartment.
type DualApartment struct {
	Key              models.DepartmentKey
	DefaultApartment int // 没有任何记录时占位行所在公寓
}

// Options 报表生成选项
type Options struct {
	Meta     Meta
	RankMode ranking.Mode
	Dual     DualApartment
}

// DefaultDualApartment 高二A部，默认在一号公寓
var DefaultDualApartment = DualApartment{
	Key:              models.DepartmentKey{Grade: 2, Department: "A"},
	DefaultApartment: 1,
}

// Standing is one rendered group with the figures shown in its total and rank cells.
type Standing struct {
	Kind        string
	Apartment   int // 0: 跨公寓合并的级部
	Label       string
	Total       int
	Rank        int
	Rows        int
	FirstRow    int
	Placeholder bool
}

// Result 报表生成结果
type Result struct {
	Instructions []layout.Instruction
	Departments  []Standing
	Managers     []Standing
	Rows         int
}

// Builder lays out both tables into one instruction stream.
type Builder struct {
	tables *reference.Tables
	opts   Options
	logger *zap.Logger
}

// NewBuilder 创建报表生成器
func NewBuilder(tables *reference.Tables, opts Options, logger *zap.Logger) *Builder {
	if opts.RankMode == "" {
		opts.RankMode = ranking.ModeDense
	}
	return &Builder{
		tables: tables,
		opts:   opts,
		logger: logger,
	}
}

// Build runs the department table then the manager table on one shared row cursor.
func (b *Builder) Build(records []models.ProcessedRecord) *Result {
	sheet := layout.NewSheet()

	row := EmitHeader(sheet, 0, b.opts.Meta, DepartmentColumns)
	dt := newDepartmentTable(sheet, b.tables, b.opts, records, b.logger)
	row = dt.emit(row)

	row += 2

	row = EmitHeader(sheet, row, b.opts.Meta, ManagerColumns)
	mt := newManagerTable(sheet, b.tables, b.opts.RankMode, records, b.logger)
	row = mt.emit(row)

	emitColumnWidths(sheet)

	b.logger.Info("Report layout built",
		zap.Int("records", len(records)),
		zap.Int("rows", row),
		zap.Int("department_groups", len(dt.standings)),
		zap.Int("manager_groups", len(mt.standings)),
	)

	return &Result{
		Instructions: sheet.Instructions(),
		Departments:  dt.standings,
		Managers:     mt.standings,
		Rows:         row,
	}
}

func sortByDorm(rs []models.ProcessedRecord) []models.ProcessedRecord {
	out := make([]models.ProcessedRecord, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dorm < out[j].Dorm })
	return out
}

func sumDeductions(rs []models.ProcessedRecord) int {
	total := 0
	for _, r := range rs {
		total += r.Deduction
	}
	return total
}

func recordApartments(records []models.ProcessedRecord) map[int]struct{} {
	out := make(map[int]struct{})
	for _, r := range records {
		out[r.Apartment] = struct{}{}
	}
	return out
}
