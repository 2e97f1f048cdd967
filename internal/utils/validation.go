package utils

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

func ValidateShiftDefinitionTime(def *domain.ShiftDefinition) error {
	startTime, err := time.Parse(domain.TimeLayout, def.StartTime)
	if err != nil {
		return fmt.Errorf("班次的开始时间格式错误")
	}
	endTime, err := time.Parse(domain.TimeLayout, def.EndTime)
	if err != nil {
		return fmt.Errorf("班次的结束时间格式错误")
	}

	if def.CrossesMidnight {
		// 跨午夜的班次结束时间必须早于开始时间，否则就不是跨午夜
		if !endTime.Before(startTime) {
			return fmt.Errorf("跨午夜班次的结束时间必须早于开始时间")
		}
		return nil
	}

	if !endTime.After(startTime) {
		return fmt.Errorf("班次的结束时间必须晚于开始时间")
	}

	return nil
}

// ValidateRecurrenceRule 在规则创建时校验规则的形状。
// 校验只发生在这里，引擎计算时默认规则是合法的。
func ValidateRecurrenceRule(rule *domain.RecurrenceRule) error {
	if rule.CycleLengthDays < 1 {
		return fmt.Errorf("周期长度必须大于等于 1 天")
	}
	if len(rule.CycleShifts) != int(rule.CycleLengthDays) {
		return fmt.Errorf("周期序列的长度 %d 和周期长度 %d 不一致", len(rule.CycleShifts), rule.CycleLengthDays)
	}
	return nil
}

// ValidateAssignmentInterval 校验分配本身的生效区间
func ValidateAssignmentInterval(assignment *domain.ScheduleAssignment) error {
	if assignment.EndDate != nil && assignment.EndDate.Before(assignment.StartDate) {
		return fmt.Errorf("分配的结束日期不能早于开始日期")
	}
	return nil
}

// ValidateAssignmentNonOverlap 校验新分配和同一主体已有分配的区间互不重叠。
// 两个区间重叠当且仅当各自的开始都不晚于对方的结束，开区间（EndDate 为 nil）视为无穷远。
func ValidateAssignmentNonOverlap(existing []*domain.ScheduleAssignment, next *domain.ScheduleAssignment) error {
	for _, assignment := range existing {
		if assignment.ID == next.ID {
			continue
		}

		overlapWithNext := next.EndDate == nil || !next.EndDate.Before(assignment.StartDate)
		overlapWithExisting := assignment.EndDate == nil || !assignment.EndDate.Before(next.StartDate)
		if overlapWithNext && overlapWithExisting {
			return fmt.Errorf("生效区间和已有的分配 %d 重叠", assignment.ID)
		}
	}
	return nil
}

// ValidateExceptionShape 校验例外自身字段的组合是否合法
func ValidateExceptionShape(exception *domain.ShiftException) error {
	switch exception.Kind {
	case domain.ExceptionKindRemove:
		if exception.ShiftID != nil {
			return fmt.Errorf("移除例外不能携带班次")
		}
	case domain.ExceptionKindOverride, domain.ExceptionKindAdd:
		if exception.ShiftID == nil {
			return fmt.Errorf("覆盖和新增例外必须携带班次")
		}
	default:
		return fmt.Errorf("未知的例外种类 %s", exception.Kind)
	}
	return nil
}

// ValidateExceptionAgainstExisting 校验新例外和同一主体当天已有的未被取代例外的组合。
// 重复的移除或覆盖在创建时就拒绝，而不是在解析时静默去重。
func ValidateExceptionAgainstExisting(existing []*domain.ShiftException, next *domain.ShiftException, maxAddPerDay int) error {
	addCount := 0
	for _, exception := range existing {
		if exception.Superseded {
			continue
		}

		switch exception.Kind {
		case domain.ExceptionKindRemove:
			if next.Kind == domain.ExceptionKindRemove {
				return fmt.Errorf("当天已存在移除例外")
			}
		case domain.ExceptionKindOverride:
			if next.Kind == domain.ExceptionKindOverride {
				return fmt.Errorf("当天已存在覆盖例外")
			}
		case domain.ExceptionKindAdd:
			addCount++
		}
	}

	if next.Kind == domain.ExceptionKindAdd && maxAddPerDay > 0 && addCount >= maxAddPerDay {
		return fmt.Errorf("当天的新增例外数量已达到上限 %d", maxAddPerDay)
	}

	return nil
}
