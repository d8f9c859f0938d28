package reference

import (
	"sort"

	"github.com/tangxiangong/weisheng/internal/models"
)

type classKey struct {
	grade int
	class int
}

type floorKey struct {
	apartment int
	floor     int
}

// ClassInfo 班级所属级部与班主任
type ClassInfo struct {
	Department string
	Teacher    string
}

// DepartmentInfo 级部主任与所在公寓
type DepartmentInfo struct {
	Leader    string
	Apartment int
}

// Tables holds the read-only lookups built once per report run.
// Duplicate roster keys resolve to the last row, as the rosters are edited by appending.
type Tables struct {
	classes     map[classKey]ClassInfo
	floors      map[floorKey]string
	departments map[models.DepartmentKey]DepartmentInfo
	managers    []models.ManagerRosterEntry
}

// NewTables 从三张名册构建参考表
func NewTables(
	classrooms []models.ClassroomRosterEntry,
	managers []models.ManagerRosterEntry,
	departments []models.DepartmentRosterEntry,
) *Tables {
	t := &Tables{
		classes:     make(map[classKey]ClassInfo, len(classrooms)),
		floors:      make(map[floorKey]string, len(managers)),
		departments: make(map[models.DepartmentKey]DepartmentInfo, len(departments)),
		managers:    make([]models.ManagerRosterEntry, len(managers)),
	}
	for _, c := range classrooms {
		t.classes[classKey{c.Grade, c.Class}] = ClassInfo{Department: c.Department, Teacher: c.Teacher}
	}
	for _, m := range managers {
		t.floors[floorKey{m.Apartment, m.Floor}] = m.Manager
	}
	copy(t.managers, managers)
	for _, d := range departments {
		key := models.DepartmentKey{Grade: d.Grade, Department: d.Department}
		t.departments[key] = DepartmentInfo{Leader: d.Leader, Apartment: d.Apartment}
	}
	return t
}

// Class looks up (grade, class).
func (t *Tables) Class(grade, class int) (ClassInfo, bool) {
	info, ok := t.classes[classKey{grade, class}]
	return info, ok
}

// Manager looks up the manager serving (apartment, floor).
func (t *Tables) Manager(apartment, floor int) (string, bool) {
	m, ok := t.floors[floorKey{apartment, floor}]
	return m, ok
}

// Department looks up a roster department.
func (t *Tables) Department(key models.DepartmentKey) (DepartmentInfo, bool) {
	info, ok := t.departments[key]
	return info, ok
}

// DepartmentKeys returns every roster department, ordered by grade then code.
func (t *Tables) DepartmentKeys() []models.DepartmentKey {
	keys := make([]models.DepartmentKey, 0, len(t.departments))
	for k := range t.departments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// DepartmentApartments returns the distinct home apartments of the department roster, ascending.
func (t *Tables) DepartmentApartments() []int {
	seen := make(map[int]struct{})
	for _, info := range t.departments {
		seen[info.Apartment] = struct{}{}
	}
	return sortedInts(seen)
}

// Managers returns the full manager roster in file order.
func (t *Tables) Managers() []models.ManagerRosterEntry {
	out := make([]models.ManagerRosterEntry, len(t.managers))
	copy(out, t.managers)
	return out
}

// ManagerApartments returns the distinct apartments of the manager roster, ascending.
func (t *Tables) ManagerApartments() []int {
	seen := make(map[int]struct{})
	for _, m := range t.managers {
		seen[m.Apartment] = struct{}{}
	}
	return sortedInts(seen)
}

// MinFloors 指定公寓内每个宿管负责的最低楼层
func (t *Tables) MinFloors(apartment int) map[string]int {
	floors := make(map[string]int)
	for _, m := range t.managers {
		if m.Apartment != apartment {
			continue
		}
		if f, ok := floors[m.Manager]; !ok || m.Floor < f {
			floors[m.Manager] = m.Floor
		}
	}
	return floors
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
