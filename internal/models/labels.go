package models

import (
	"fmt"
	"strconv"
)

var chineseDigits = []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

// Filler 无记录时占位单元格内容
const Filler = "/"

// GradeName 年级显示名（1 -> 高一）
func GradeName(grade int) string {
	switch grade {
	case 1:
		return "高一"
	case 2:
		return "高二"
	case 3:
		return "高三"
	}
	return ""
}

// ApartmentName 公寓显示名（1 -> 一号公寓）
func ApartmentName(apartment int) string {
	if apartment >= 0 && apartment < len(chineseDigits) {
		return chineseDigits[apartment] + "号公寓"
	}
	return strconv.Itoa(apartment) + "号公寓"
}

// DepartmentLabel 级部显示名，带主任：高二A部\n(张三)
func DepartmentLabel(key DepartmentKey, leader string) string {
	return fmt.Sprintf("%s%s部\n(%s)", GradeName(key.Grade), key.Department, leader)
}

// ClassLabel 无级部班级显示名（17 -> 17班）
func ClassLabel(class int) string {
	return strconv.Itoa(class) + "班"
}

// DormLabel 宿舍显示名（101 -> 101宿舍）
func DormLabel(dorm int) string {
	return strconv.Itoa(dorm) + "宿舍"
}
