package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloor(t *testing.T) {
	assert.Equal(t, 1, Floor(101))
	assert.Equal(t, 3, Floor(399))
	assert.Equal(t, 12, Floor(1203))
	assert.Equal(t, 0, Floor(7))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "高二", GradeName(2))
	assert.Empty(t, GradeName(4))
	assert.Equal(t, "一号公寓", ApartmentName(1))
	assert.Equal(t, "十号公寓", ApartmentName(10))
	assert.Equal(t, "12号公寓", ApartmentName(12))
	assert.Equal(t, "高二A部\n(张三)", DepartmentLabel(DepartmentKey{Grade: 2, Department: "A"}, "张三"))
	assert.Equal(t, "17班", ClassLabel(17))
	assert.Equal(t, "101宿舍", DormLabel(101))
}

func TestDepartmentKey(t *testing.T) {
	a := DepartmentKey{Grade: 1, Department: "B"}
	b := DepartmentKey{Grade: 2, Department: "A"}
	c := DepartmentKey{Grade: 2, Department: "B"}
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.Equal(t, "2A", b.String())

	r := ProcessedRecord{Grade: 2, Department: "A"}
	assert.True(t, r.HasDepartment())
	assert.Equal(t, b, r.DepartmentKey())
	assert.False(t, ProcessedRecord{Grade: 3}.HasDepartment())
}
