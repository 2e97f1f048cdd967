package engine

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// reasonSeverity 是例外原因到冲突严重程度的查找表。
// 严重程度在例外创建时就确定下来，解析时不做任何基于文案的推断。
var reasonSeverity = map[domain.ReasonCategory]domain.ConflictSeverity{
	domain.ReasonSickLeave:    domain.SeverityCritical,
	domain.ReasonPersonal:     domain.SeverityWarning,
	domain.ReasonSwap:         domain.SeverityWarning,
	domain.ReasonCompensation: domain.SeverityInfo,
	domain.ReasonTraining:     domain.SeverityInfo,
	domain.ReasonOther:        domain.SeverityWarning,
}

// SeverityForReason 返回某个例外原因默认的冲突严重程度
func SeverityForReason(reason domain.ReasonCategory) domain.ConflictSeverity {
	if severity, exists := reasonSeverity[reason]; exists {
		return severity
	}
	return domain.SeverityWarning
}

var severityRank = map[domain.ConflictSeverity]int{
	domain.SeverityInfo:     0,
	domain.SeverityWarning:  1,
	domain.SeverityCritical: 2,
}

func maxSeverity(a domain.ConflictSeverity, b domain.ConflictSeverity) domain.ConflictSeverity {
	if severityRank[a] >= severityRank[b] {
		return a
	}
	return b
}

// shiftWindow 返回班次在一天中的时间窗，以距离零点的分钟数表示。
// 跨午夜的班次结束时间会加上一天。
func shiftWindow(def *domain.ShiftDefinition) (int, int, error) {
	start, err := time.Parse(domain.TimeLayout, def.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("班次 %d 的开始时间格式错误", def.ID)
	}
	end, err := time.Parse(domain.TimeLayout, def.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("班次 %d 的结束时间格式错误", def.ID)
	}

	startMinute := start.Hour()*60 + start.Minute()
	endMinute := end.Hour()*60 + end.Minute()
	if def.CrossesMidnight {
		endMinute += 24 * 60
	}

	return startMinute, endMinute, nil
}

// DetectConflicts 检查当天解析结果中是否存在时间窗重叠的班次。
// 冲突的严重程度取两条班次来源例外中较高的一档，来自基础模式的班次按 warning 处理。
// 缺少班次定义的记录无法判断时间窗，直接跳过。
func DetectConflicts(shifts []domain.ResolvedShift, defs map[int64]*domain.ShiftDefinition, exceptions map[int64]*domain.ShiftException) []domain.ScheduleConflict {
	severityOf := func(shift domain.ResolvedShift) domain.ConflictSeverity {
		if shift.ExceptionID != nil {
			if exc, exists := exceptions[*shift.ExceptionID]; exists {
				return exc.Severity
			}
		}
		return domain.SeverityWarning
	}

	conflicts := make([]domain.ScheduleConflict, 0)
	for i := 0; i < len(shifts); i++ {
		iDef, exists := defs[shifts[i].ShiftID]
		if !exists {
			continue
		}
		iStart, iEnd, err := shiftWindow(iDef)
		if err != nil {
			continue
		}

		for j := i + 1; j < len(shifts); j++ {
			jDef, exists := defs[shifts[j].ShiftID]
			if !exists {
				continue
			}
			jStart, jEnd, err := shiftWindow(jDef)
			if err != nil {
				continue
			}

			if iStart < jEnd && jStart < iEnd {
				conflicts = append(conflicts, domain.ScheduleConflict{
					FirstShiftID:  shifts[i].ShiftID,
					SecondShiftID: shifts[j].ShiftID,
					Severity:      maxSeverity(severityOf(shifts[i]), severityOf(shifts[j])),
					Message:       fmt.Sprintf("班次 %s 和班次 %s 的时间重叠", iDef.Name, jDef.Name),
				})
			}
		}
	}

	return conflicts
}
