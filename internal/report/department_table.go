package report

import (
	"sort"

	"github.com/tangxiangong/weisheng/internal/layout"
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/ranking"
	"github.com/tangxiangong/weisheng/internal/reference"

	"go.uber.org/zap"
)

// 级部表列
const (
	deptColApartment = iota
	deptColLabel
	deptColTeacher
	deptColManager
	deptColDorm
	deptColReason
	deptColDeduction
	deptColTotal
	deptColRank
)

// rowSpan is an inclusive range of sheet rows.
type rowSpan struct {
	first, last int
}

// pendingMerge collects the rows of the dual-apartment department across
// apartment blocks; the label/total/rank cells are written once all blocks are out.
type pendingMerge struct {
	segments []rowSpan
}

func (p *pendingMerge) add(first, last int) {
	p.segments = append(p.segments, rowSpan{first, last})
}

func (p *pendingMerge) start() (int, bool) {
	if len(p.segments) == 0 {
		return 0, false
	}
	return p.segments[0].first, true
}

func (p *pendingMerge) end() (int, bool) {
	if len(p.segments) == 0 {
		return 0, false
	}
	return p.segments[len(p.segments)-1].last, true
}

// contiguous reports whether the segments form one unbroken run of rows.
func (p *pendingMerge) contiguous() bool {
	for i := 1; i < len(p.segments); i++ {
		if p.segments[i].first != p.segments[i-1].last+1 {
			return false
		}
	}
	return true
}

// spans returns the ranges to merge: one start..end range when the rows are
// contiguous, otherwise one range per segment so rows of other groups lying
// between the apartment blocks are never absorbed.
func (p *pendingMerge) spans() []rowSpan {
	start, ok := p.start()
	if !ok {
		return nil
	}
	if p.contiguous() {
		end, _ := p.end()
		return []rowSpan{{start, end}}
	}
	out := make([]rowSpan, len(p.segments))
	copy(out, p.segments)
	return out
}

type dualMode int

const (
	dualAbsent  dualMode = iota // 两个公寓都没有记录：默认公寓显示占位行
	dualSingle                  // 只在一个公寓有记录：按普通级部处理
	dualSplit                   // 多个公寓都有记录：延迟合并
)

type departmentTable struct {
	sheet   *layout.Sheet
	tables  *reference.Tables
	opts    Options
	records []models.ProcessedRecord
	logger  *zap.Logger

	globalTotals map[models.DepartmentKey]int
	globalRanks  map[models.DepartmentKey]int

	dualMode     dualMode
	dualInRoster bool
	pending      pendingMerge

	standings []Standing
}

func newDepartmentTable(
	sheet *layout.Sheet,
	tables *reference.Tables,
	opts Options,
	records []models.ProcessedRecord,
	logger *zap.Logger,
) *departmentTable {
	return &departmentTable{
		sheet:   sheet,
		tables:  tables,
		opts:    opts,
		records: records,
		logger:  logger,
	}
}

// emit renders every apartment block (descending apartment order) and returns
// the next free row.
func (t *departmentTable) emit(row int) int {
	t.rankGlobally()
	t.classifyDual()

	for _, apt := range t.apartments() {
		row = t.emitApartment(apt, row)
	}

	if t.dualMode == dualSplit {
		t.resolveDual()
	}
	return row
}

// rankGlobally ranks every roster department, plus department codes only seen in
// records, by its cross-apartment total. Empty departments total 0.
func (t *departmentTable) rankGlobally() {
	totals := make(map[models.DepartmentKey]int)
	for _, key := range t.tables.DepartmentKeys() {
		totals[key] = 0
	}
	for _, r := range t.records {
		if r.HasDepartment() {
			totals[r.DepartmentKey()] += r.Deduction
		}
	}

	keys := make([]models.DepartmentKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	entries := make([]ranking.Entry[models.DepartmentKey], 0, len(keys))
	for _, k := range keys {
		entries = append(entries, ranking.Entry[models.DepartmentKey]{Key: k, Total: totals[k]})
	}
	t.globalTotals = totals
	t.globalRanks = ranking.Rank(t.opts.RankMode, entries)
}

func (t *departmentTable) classifyDual() {
	key := t.opts.Dual.Key
	_, t.dualInRoster = t.tables.Department(key)

	present := make(map[int]struct{})
	for _, r := range t.records {
		if r.HasDepartment() && r.DepartmentKey() == key {
			present[r.Apartment] = struct{}{}
		}
	}
	switch len(present) {
	case 0:
		t.dualMode = dualAbsent
	case 1:
		t.dualMode = dualSingle
	default:
		t.dualMode = dualSplit
	}
	t.logger.Debug("Dual-apartment department classified",
		zap.String("department", key.String()),
		zap.Int("apartments_with_records", len(present)),
		zap.Bool("in_roster", t.dualInRoster),
	)
}

// apartments returns the department table's apartment order: roster home
// apartments plus apartments that have records, descending.
func (t *departmentTable) apartments() []int {
	set := recordApartments(t.records)
	for _, apt := range t.tables.DepartmentApartments() {
		set[apt] = struct{}{}
	}
	if t.dualInRoster && t.dualMode == dualAbsent {
		set[t.opts.Dual.DefaultApartment] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for apt := range set {
		out = append(out, apt)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func (t *departmentTable) emitApartment(apt, row int) int {
	dualKey := t.opts.Dual.Key
	depts := make(map[models.DepartmentKey][]models.ProcessedRecord)
	classes := make(map[int][]models.ProcessedRecord)

	for _, key := range t.tables.DepartmentKeys() {
		if key == dualKey {
			continue
		}
		if info, _ := t.tables.Department(key); info.Apartment == apt {
			depts[key] = []models.ProcessedRecord{}
		}
	}
	if t.dualInRoster && t.dualMode == dualAbsent && apt == t.opts.Dual.DefaultApartment {
		depts[dualKey] = []models.ProcessedRecord{}
	}

	for _, r := range t.records {
		if r.Apartment != apt {
			continue
		}
		if !r.HasDepartment() {
			classes[r.Class] = append(classes[r.Class], r)
			continue
		}
		key := r.DepartmentKey()
		if info, ok := t.tables.Department(key); ok && key != dualKey && info.Apartment != apt {
			t.logger.Warn("Department has records outside its home apartment",
				zap.String("department", key.String()),
				zap.Int("home_apartment", info.Apartment),
				zap.Int("apartment", apt),
			)
		}
		depts[key] = append(depts[key], r)
	}

	classKeys := make([]int, 0, len(classes))
	classEntries := make([]ranking.Entry[int], 0, len(classes))
	for class := range classes {
		classKeys = append(classKeys, class)
	}
	sort.Ints(classKeys)
	for _, class := range classKeys {
		classEntries = append(classEntries, ranking.Entry[int]{Key: class, Total: sumDeductions(classes[class])})
	}
	classRanks := ranking.Rank(t.opts.RankMode, classEntries)

	deptKeys := make([]models.DepartmentKey, 0, len(depts))
	for key := range depts {
		deptKeys = append(deptKeys, key)
	}
	sort.Slice(deptKeys, func(i, j int) bool { return deptKeys[i].Less(deptKeys[j]) })

	aptStart := row
	for _, key := range deptKeys {
		row = t.emitDepartment(apt, key, depts[key], row)
	}
	for _, class := range classKeys {
		rs := classes[class]
		if len(rs) == 0 {
			continue
		}
		first := row
		row = t.emitDormRows(sortByDorm(rs), row)
		label := models.ClassLabel(class)
		total := sumDeductions(rs)
		t.writeGroupCells(first, row-1, label, total, classRanks[class])
		t.standings = append(t.standings, Standing{
			Kind: KindClassroom, Apartment: apt, Label: label,
			Total: total, Rank: classRanks[class], Rows: row - first, FirstRow: first,
		})
	}

	if row > aptStart {
		t.sheet.Span(aptStart, row-1, deptColApartment, layout.Text(models.ApartmentName(apt)), layout.StyleBody)
	}
	t.logger.Debug("Department block emitted",
		zap.Int("apartment", apt),
		zap.Int("departments", len(deptKeys)),
		zap.Int("classes", len(classKeys)),
		zap.Int("rows", row-aptStart),
	)
	return row
}

func (t *departmentTable) emitDepartment(apt int, key models.DepartmentKey, rs []models.ProcessedRecord, row int) int {
	label := t.departmentLabel(key)
	rank := t.globalRanks[key]

	if len(rs) == 0 {
		t.sheet.WriteText(row, deptColLabel, label, layout.StyleBody)
		for col := deptColTeacher; col <= deptColDeduction; col++ {
			t.sheet.WriteText(row, col, models.Filler, layout.StyleBody)
		}
		t.sheet.WriteNumber(row, deptColTotal, 0, layout.StyleBody)
		t.sheet.WriteNumber(row, deptColRank, rank, layout.StyleBody)
		t.standings = append(t.standings, Standing{
			Kind: KindDepartment, Apartment: apt, Label: label,
			Total: 0, Rank: rank, Rows: 1, FirstRow: row, Placeholder: true,
		})
		return row + 1
	}

	first := row
	row = t.emitDormRows(sortByDorm(rs), row)

	if key == t.opts.Dual.Key && t.dualMode == dualSplit {
		t.pending.add(first, row-1)
		return row
	}

	total := sumDeductions(rs)
	t.writeGroupCells(first, row-1, label, total, rank)
	t.standings = append(t.standings, Standing{
		Kind: KindDepartment, Apartment: apt, Label: label,
		Total: total, Rank: rank, Rows: row - first, FirstRow: first,
	})
	return row
}

// resolveDual writes the deferred label/total/rank cells of the dual-apartment
// department using its cross-apartment total and global rank.
func (t *departmentTable) resolveDual() {
	key := t.opts.Dual.Key
	label := t.departmentLabel(key)
	total := t.globalTotals[key]
	rank := t.globalRanks[key]

	spans := t.pending.spans()
	if len(spans) > 1 {
		t.logger.Warn("Dual-apartment department rows are not adjacent, merging per apartment",
			zap.String("department", key.String()),
			zap.Int("segments", len(spans)),
		)
	}
	rows := 0
	for _, s := range spans {
		t.writeGroupCells(s.first, s.last, label, total, rank)
		rows += s.last - s.first + 1
	}
	if start, ok := t.pending.start(); ok {
		t.standings = append(t.standings, Standing{
			Kind: KindDepartment, Apartment: 0, Label: label,
			Total: total, Rank: rank, Rows: rows, FirstRow: start,
		})
	}
}

func (t *departmentTable) emitDormRows(rs []models.ProcessedRecord, row int) int {
	for _, r := range rs {
		t.sheet.WriteText(row, deptColTeacher, r.Teacher, layout.StyleBody)
		t.sheet.WriteText(row, deptColManager, r.Manager, layout.StyleBody)
		t.sheet.WriteText(row, deptColDorm, models.DormLabel(r.Dorm), layout.StyleBody)
		t.sheet.WriteText(row, deptColReason, r.Reason, layout.StyleBody)
		t.sheet.WriteNumber(row, deptColDeduction, r.Deduction, layout.StyleBody)
		row++
	}
	return row
}

func (t *departmentTable) writeGroupCells(first, last int, label string, total, rank int) {
	t.sheet.Span(first, last, deptColLabel, layout.Text(label), layout.StyleBody)
	t.sheet.Span(first, last, deptColTotal, layout.Number(total), layout.StyleBody)
	t.sheet.Span(first, last, deptColRank, layout.Number(rank), layout.StyleBody)
}

func (t *departmentTable) departmentLabel(key models.DepartmentKey) string {
	info, _ := t.tables.Department(key)
	return models.DepartmentLabel(key, info.Leader)
}
