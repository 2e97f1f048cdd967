package engine

import (
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// TruncateToDay 把时间归一化到 UTC 零点，排班只在本地日期层面上运算
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween 计算从 from 到 to 相隔的天数，to 在 from 之前时为负数
func DaysBetween(from time.Time, to time.Time) int {
	return int(TruncateToDay(to).Sub(TruncateToDay(from)) / (24 * time.Hour))
}

// CycleIndex 计算 date 落在规则周期中的第几天。
// 日期在锚点之前时 dayOffset 为负数，先取模再加周期长度再取模，
// 保证结果总是落在 [0, cycleLengthDays) 内，例如锚点前一天对应周期的最后一天。
func CycleIndex(rule *domain.RecurrenceRule, date time.Time) int {
	n := int(rule.CycleLengthDays)
	dayOffset := DaysBetween(rule.AnchorDate, date)
	return ((dayOffset % n) + n) % n
}

// ComputeBaseShift 根据循环规则计算某一天的基础班次，返回 nil 表示当天休息。
// 对任意日期都是纯函数：锚点之前、当天、之后都可以计算，模式在两个方向上都是无限的。
// 规则本身的合法性（周期长度、序列长度）在创建时校验，这里不再检查。
func ComputeBaseShift(rule *domain.RecurrenceRule, date time.Time) *int64 {
	return rule.CycleShifts[CycleIndex(rule, date)]
}
