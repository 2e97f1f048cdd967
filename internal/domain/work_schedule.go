package domain

import "time"

type Provenance string

const (
	FromBase      Provenance = "FROM_BASE"
	FromException Provenance = "FROM_EXCEPTION"
)

// ResolvedShift 是某一天解析完成后的一条班次记录，带有来源信息
type ResolvedShift struct {
	ShiftID     int64      `json:"shiftID"`
	Provenance  Provenance `json:"provenance"`
	ExceptionID *int64     `json:"exceptionID,omitempty"` // 仅当来源是例外时存在
}

// ScheduleConflict 表示当天解析结果中两条班次的时间窗重叠。
// 冲突只作为标注返回给调用方，不会中断整个区间的生成。
type ScheduleConflict struct {
	FirstShiftID  int64            `json:"firstShiftID"`
	SecondShiftID int64            `json:"secondShiftID"`
	Severity      ConflictSeverity `json:"severity"`
	Message       string           `json:"message"`
}

// WorkScheduleDay 是引擎的输出：某个主体某一天的最终排班。
// 它只是一个临时的值对象，调用方可以随时丢弃并重新计算，不会被当作权威数据持久化。
type WorkScheduleDay struct {
	Date      time.Time          `json:"date"`
	Subject   Subject            `json:"subject"`
	Shifts    []ResolvedShift    `json:"shifts"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
	Error     string             `json:"error,omitempty"` // 当天数据加载失败时的降级标记
}
