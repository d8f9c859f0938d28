package report

import (
	"sort"

	"github.com/tangxiangong/weisheng/internal/layout"
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/ranking"
	"github.com/tangxiangong/weisheng/internal/reference"

	"go.uber.org/zap"
)

// 宿管表列（扣分原因占 D-E，总扣分占 G-H）
const (
	mgrColApartment = 0
	mgrColName      = 1
	mgrColDorm      = 2
	mgrColReason    = 3
	mgrColReason2   = 4
	mgrColDeduction = 5
	mgrColTotal     = 6
	mgrColTotal2    = 7
	mgrColRank      = 8
)

// unlistedFloor 不在宿管名册中的宿管排在最后
const unlistedFloor = 99

type managerTable struct {
	sheet   *layout.Sheet
	tables  *reference.Tables
	mode    ranking.Mode
	records []models.ProcessedRecord
	logger  *zap.Logger

	standings []Standing
}

func newManagerTable(
	sheet *layout.Sheet,
	tables *reference.Tables,
	mode ranking.Mode,
	records []models.ProcessedRecord,
	logger *zap.Logger,
) *managerTable {
	return &managerTable{
		sheet:   sheet,
		tables:  tables,
		mode:    mode,
		records: records,
		logger:  logger,
	}
}

// emit renders every apartment block in ascending apartment order.
func (t *managerTable) emit(row int) int {
	set := recordApartments(t.records)
	for _, apt := range t.tables.ManagerApartments() {
		set[apt] = struct{}{}
	}
	apartments := make([]int, 0, len(set))
	for apt := range set {
		apartments = append(apartments, apt)
	}
	sort.Ints(apartments)

	for _, apt := range apartments {
		row = t.emitApartment(apt, row)
	}
	return row
}

func (t *managerTable) emitApartment(apt, row int) int {
	byManager := make(map[string][]models.ProcessedRecord)
	for _, m := range t.tables.Managers() {
		if m.Apartment == apt {
			if _, ok := byManager[m.Manager]; !ok {
				byManager[m.Manager] = []models.ProcessedRecord{}
			}
		}
	}
	for _, r := range t.records {
		if r.Apartment == apt {
			byManager[r.Manager] = append(byManager[r.Manager], r)
		}
	}

	names := make([]string, 0, len(byManager))
	for name := range byManager {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]ranking.Entry[string], 0, len(names))
	for _, name := range names {
		entries = append(entries, ranking.Entry[string]{Key: name, Total: sumDeductions(byManager[name])})
	}
	ranks := ranking.Rank(t.mode, entries)

	floors := t.tables.MinFloors(apt)
	floorOf := func(name string) int {
		if f, ok := floors[name]; ok {
			return f
		}
		return unlistedFloor
	}
	sort.SliceStable(names, func(i, j int) bool {
		return floorOf(names[i]) < floorOf(names[j])
	})

	aptStart := row
	for _, name := range names {
		row = t.emitManager(apt, name, byManager[name], ranks[name], row)
	}

	if row > aptStart {
		t.sheet.Span(aptStart, row-1, mgrColApartment, layout.Text(models.ApartmentName(apt)), layout.StyleBody)
	}
	t.logger.Debug("Manager block emitted",
		zap.Int("apartment", apt),
		zap.Int("managers", len(names)),
		zap.Int("rows", row-aptStart),
	)
	return row
}

func (t *managerTable) emitManager(apt int, name string, rs []models.ProcessedRecord, rank, row int) int {
	if len(rs) == 0 {
		t.sheet.WriteText(row, mgrColName, name, layout.StyleBody)
		t.sheet.WriteText(row, mgrColDorm, models.Filler, layout.StyleBody)
		t.sheet.Merge(row, mgrColReason, row, mgrColReason2, layout.Text(models.Filler), layout.StyleBody)
		t.sheet.WriteText(row, mgrColDeduction, models.Filler, layout.StyleBody)
		t.sheet.Merge(row, mgrColTotal, row, mgrColTotal2, layout.Number(0), layout.StyleBody)
		t.sheet.WriteNumber(row, mgrColRank, rank, layout.StyleBody)
		t.standings = append(t.standings, Standing{
			Kind: KindManager, Apartment: apt, Label: name,
			Total: 0, Rank: rank, Rows: 1, FirstRow: row, Placeholder: true,
		})
		return row + 1
	}

	first := row
	for _, r := range sortByDorm(rs) {
		t.sheet.WriteText(row, mgrColDorm, models.DormLabel(r.Dorm), layout.StyleBody)
		t.sheet.Merge(row, mgrColReason, row, mgrColReason2, layout.Text(r.Reason), layout.StyleBody)
		t.sheet.WriteNumber(row, mgrColDeduction, r.Deduction, layout.StyleBody)
		row++
	}

	total := sumDeductions(rs)
	last := row - 1
	t.sheet.Span(first, last, mgrColName, layout.Text(name), layout.StyleBody)
	t.sheet.SpanCols(first, last, mgrColTotal, mgrColTotal2, layout.Number(total), layout.StyleBody)
	t.sheet.Span(first, last, mgrColRank, layout.Number(rank), layout.StyleBody)

	t.standings = append(t.standings, Standing{
		Kind: KindManager, Apartment: apt, Label: name,
		Total: total, Rank: rank, Rows: row - first, FirstRow: first,
	})
	return row
}
