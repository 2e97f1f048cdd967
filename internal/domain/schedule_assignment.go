package domain

import "time"

// ScheduleAssignment 将一个主体和一个循环规则绑定到生效区间 [StartDate, EndDate] 上，
// EndDate 为 nil 表示长期有效。同一个主体的分配区间不允许重叠。
// 分配通过设置 EndDate 来结束，而不是物理删除，这样才能精确重建历史排班。
type ScheduleAssignment struct {
	ID        int64      `json:"id"`
	Subject   Subject    `json:"subject"`
	RuleID    int64      `json:"ruleID"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	CreatedAt time.Time  `json:"createdAt"`
	Version   int32      `json:"-"`
}

// Covers 判断分配的生效区间是否包含指定日期（按天比较）
func (a *ScheduleAssignment) Covers(date time.Time) bool {
	if date.Before(a.StartDate) {
		return false
	}
	if a.EndDate != nil && date.After(*a.EndDate) {
		return false
	}
	return true
}
