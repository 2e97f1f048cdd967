package domain

import "time"

type ExceptionKind string

const (
	ExceptionKindOverride ExceptionKind = "override" // 用例外中的班次替换当天已解析的全部班次
	ExceptionKindRemove   ExceptionKind = "remove"   // 移除当天的基础班次
	ExceptionKindAdd      ExceptionKind = "add"      // 在已解析的班次之外追加一个班次
)

type ReasonCategory string

const (
	ReasonSickLeave    ReasonCategory = "sick_leave"
	ReasonPersonal     ReasonCategory = "personal_leave"
	ReasonSwap         ReasonCategory = "shift_swap"
	ReasonCompensation ReasonCategory = "compensation"
	ReasonTraining     ReasonCategory = "training"
	ReasonOther        ReasonCategory = "other"
)

type ConflictSeverity string

const (
	SeverityInfo     ConflictSeverity = "info"
	SeverityWarning  ConflictSeverity = "warning"
	SeverityCritical ConflictSeverity = "critical"
)

// ShiftException 是对某个主体某一天排班的单日修正。
// 例外从不原地修改，更正时创建新例外并把旧例外标记为已被取代，保留完整的审计链。
// ShiftID 在 kind 为 remove 时必须为空，其余时候必须存在。
type ShiftException struct {
	ID             int64            `json:"id"`
	Subject        Subject          `json:"subject"`
	Date           time.Time        `json:"date"`
	Kind           ExceptionKind    `json:"kind"`
	ShiftID        *int64           `json:"shiftID"`
	ReasonCategory ReasonCategory   `json:"reasonCategory"`
	Severity       ConflictSeverity `json:"severity"`
	Superseded     bool             `json:"superseded"`
	SupersededBy   *int64           `json:"supersededBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	Version        int32            `json:"-"`
}
