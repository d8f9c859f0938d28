package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tangxiangong/weisheng/internal/models"
)

// ErrMissingColumn CSV 缺少必需列
var ErrMissingColumn = errors.New("missing required column")

// CSV 列名（与现场填写的表格一致）
const (
	ColGrade      = "年级"
	ColClass      = "班级"
	ColApartment  = "公寓"
	ColDorm       = "宿舍"
	ColReason     = "原因"
	ColDepartment = "级部"
	ColTeacher    = "班主任"
	ColFloor      = "楼层"
	ColManager    = "宿管"
	ColLeader     = "主任"
)

// ViolationHeader 检查表表头
var ViolationHeader = []string{ColGrade, ColClass, ColApartment, ColDorm, ColReason}

type table struct {
	source  string
	columns map[string]int
	reader  *csv.Reader
	line    int
	record  []string
}

// openTable reads the header row. Unless ragged is set, every data row must have
// as many fields as the header.
func openTable(r io.Reader, source string, ragged bool) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	if ragged {
		reader.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", source)
		}
		return nil, fmt.Errorf("%s: unable to read header: %w", source, err)
	}
	columns := make(map[string]int, len(header))
	for idx, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, exists := columns[h]; !exists {
			columns[h] = idx
		}
	}
	return &table{source: source, columns: columns, reader: reader, line: 1}, nil
}

func (t *table) require(names ...string) error {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return fmt.Errorf("%s: %w %q", t.source, ErrMissingColumn, name)
		}
	}
	return nil
}

// next advances to the next row; it returns false at EOF.
func (t *table) next() (bool, error) {
	record, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("%s: unable to read CSV: %w", t.source, err)
	}
	line, _ := t.reader.FieldPos(0)
	t.line = line
	t.record = record
	return true, nil
}

func (t *table) str(name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(t.record) {
		return ""
	}
	return strings.TrimSpace(t.record[idx])
}

func (t *table) int(name string) (int, error) {
	raw := t.str(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: invalid %s %q: %w", t.source, t.line, name, raw, err)
	}
	return v, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// LoadViolations 读取检查表 CSV
func LoadViolations(path string) ([]models.ViolationRecord, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadViolations(f, path)
}

// ReadViolations parses violation rows; any malformed row aborts the load.
func ReadViolations(r io.Reader, source string) ([]models.ViolationRecord, error) {
	t, err := openTable(r, source, false)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColGrade, ColClass, ColApartment, ColDorm, ColReason); err != nil {
		return nil, err
	}

	var out []models.ViolationRecord
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		var rec models.ViolationRecord
		if rec.Grade, err = t.int(ColGrade); err != nil {
			return nil, err
		}
		if rec.Class, err = t.int(ColClass); err != nil {
			return nil, err
		}
		if rec.Apartment, err = t.int(ColApartment); err != nil {
			return nil, err
		}
		if rec.Dorm, err = t.int(ColDorm); err != nil {
			return nil, err
		}
		rec.Reason = t.str(ColReason)
		out = append(out, rec)
	}
}

// LoadClassroomRoster 读取班级花名册（nianji.csv）
func LoadClassroomRoster(path string) ([]models.ClassroomRosterEntry, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadClassroomRoster(f, path)
}

// ReadClassroomRoster parses the classroom roster. The department column may be
// absent or empty, and short rows are accepted.
func ReadClassroomRoster(r io.Reader, source string) ([]models.ClassroomRosterEntry, error) {
	t, err := openTable(r, source, true)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColGrade, ColClass, ColTeacher); err != nil {
		return nil, err
	}

	var out []models.ClassroomRosterEntry
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		var e models.ClassroomRosterEntry
		if e.Grade, err = t.int(ColGrade); err != nil {
			return nil, err
		}
		if e.Class, err = t.int(ColClass); err != nil {
			return nil, err
		}
		e.Department = t.str(ColDepartment)
		e.Teacher = t.str(ColTeacher)
		out = append(out, e)
	}
}

// LoadManagerRoster 读取宿管名册（sushe.csv）
func LoadManagerRoster(path string) ([]models.ManagerRosterEntry, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadManagerRoster(f, path)
}

func ReadManagerRoster(r io.Reader, source string) ([]models.ManagerRosterEntry, error) {
	t, err := openTable(r, source, false)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColApartment, ColFloor, ColManager); err != nil {
		return nil, err
	}

	var out []models.ManagerRosterEntry
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		var e models.ManagerRosterEntry
		if e.Apartment, err = t.int(ColApartment); err != nil {
			return nil, err
		}
		if e.Floor, err = t.int(ColFloor); err != nil {
			return nil, err
		}
		e.Manager = t.str(ColManager)
		out = append(out, e)
	}
}

// LoadDepartmentRoster 读取级部名册（jibu.csv）
func LoadDepartmentRoster(path string) ([]models.DepartmentRosterEntry, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDepartmentRoster(f, path)
}

func ReadDepartmentRoster(r io.Reader, source string) ([]models.DepartmentRosterEntry, error) {
	t, err := openTable(r, source, false)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColGrade, ColDepartment, ColLeader, ColApartment); err != nil {
		return nil, err
	}

	var out []models.DepartmentRosterEntry
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		var e models.DepartmentRosterEntry
		if e.Grade, err = t.int(ColGrade); err != nil {
			return nil, err
		}
		e.Department = t.str(ColDepartment)
		if e.Department == "" {
			return nil, fmt.Errorf("%s line %d: empty %s", source, t.line, ColDepartment)
		}
		e.Leader = t.str(ColLeader)
		if e.Apartment, err = t.int(ColApartment); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// CreateViolationTemplate writes an empty violation CSV containing only the header
// row. ".csv" is appended when name lacks it; the final path is returned.
func CreateViolationTemplate(name string) (string, error) {
	path := name
	if !strings.HasSuffix(path, ".csv") {
		path += ".csv"
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(ViolationHeader); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
