package domain

import "time"

// RecurrenceRule 描述一个以 AnchorDate 为周期第 0 天、无限循环的基础排班模式。
// CycleShifts 中的元素是班次定义的 ID，nil 表示当天休息。
// 规则一旦被任何排班分配引用就不再修改，需要调整时创建新规则，
// 旧规则保留以保证历史排班可以被精确重建。
type RecurrenceRule struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	AnchorDate      time.Time `json:"anchorDate"`
	CycleLengthDays int32     `json:"cycleLengthDays"`
	CycleShifts     []*int64  `json:"cycleShifts"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}
