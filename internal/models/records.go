package models

import "fmt"

// Unknown 查表未命中时班主任/宿管的默认值（不是错误）
const Unknown = "未知"

// Deduction 每条违规记录固定扣分
const Deduction = -1

// ViolationRecord 一条宿舍卫生违规记录（来自检查表 CSV）
type ViolationRecord struct {
	Grade     int
	Class     int
	Apartment int
	Dorm      int
	Reason    string
}

// ProcessedRecord 关联参考表后的违规记录
// Department 为空表示该班级不属于任何级部，按班级号分组
type ProcessedRecord struct {
	Apartment  int
	Grade      int
	Class      int
	Department string
	Teacher    string
	Manager    string
	Dorm       int
	Reason     string
	Deduction  int
}

// Floor 宿舍所在楼层
func (r ProcessedRecord) Floor() int {
	return Floor(r.Dorm)
}

// HasDepartment 是否归属级部分组
func (r ProcessedRecord) HasDepartment() bool {
	return r.Department != ""
}

// DepartmentKey 级部分组键
func (r ProcessedRecord) DepartmentKey() DepartmentKey {
	return DepartmentKey{Grade: r.Grade, Department: r.Department}
}

// Floor derives the floor from a dorm number (101 -> 1, 1203 -> 12).
func Floor(dorm int) int {
	return dorm / 100
}

// ClassroomRosterEntry 班级花名册（年级、级部、班级、班主任）
type ClassroomRosterEntry struct {
	Grade      int
	Department string
	Class      int
	Teacher    string
}

// ManagerRosterEntry 宿管花名册（公寓、楼层、宿管）
type ManagerRosterEntry struct {
	Apartment int
	Floor     int
	Manager   string
}

// DepartmentRosterEntry 级部名册（年级、级部、主任、所在公寓）
type DepartmentRosterEntry struct {
	Grade      int
	Department string
	Leader     string
	Apartment  int
}

// DepartmentKey identifies a department group: a department code within a grade.
type DepartmentKey struct {
	Grade      int
	Department string
}

// Less orders keys by grade, then department code.
func (k DepartmentKey) Less(o DepartmentKey) bool {
	if k.Grade != o.Grade {
		return k.Grade < o.Grade
	}
	return k.Department < o.Department
}

func (k DepartmentKey) String() string {
	return fmt.Sprintf("%d%s", k.Grade, k.Department)
}
