package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

func newShiftDefs() map[int64]*domain.ShiftDefinition {
	return map[int64]*domain.ShiftDefinition{
		10: {ID: 10, Name: "早班", StartTime: "08:00:00", EndTime: "12:00:00"},
		20: {ID: 20, Name: "午班", StartTime: "11:00:00", EndTime: "18:00:00"},
		30: {ID: 30, Name: "晚班", StartTime: "18:00:00", EndTime: "02:00:00", CrossesMidnight: true},
		40: {ID: 40, Name: "凌晨班", StartTime: "01:00:00", EndTime: "05:00:00"},
	}
}

func resolvedShift(id int64, excID *int64) domain.ResolvedShift {
	shift := domain.ResolvedShift{ShiftID: id, Provenance: domain.FromBase}
	if excID != nil {
		shift.Provenance = domain.FromException
		shift.ExceptionID = excID
	}
	return shift
}

func TestDetectConflictsOverlap(t *testing.T) {
	shifts := []domain.ResolvedShift{
		resolvedShift(10, nil),
		resolvedShift(20, nil),
	}

	conflicts := engine.DetectConflicts(shifts, newShiftDefs(), nil)

	require.Len(t, conflicts, 1)
	require.Equal(t, int64(10), conflicts[0].FirstShiftID)
	require.Equal(t, int64(20), conflicts[0].SecondShiftID)
	// 双方都来自基础模式时按 warning 处理
	require.Equal(t, domain.SeverityWarning, conflicts[0].Severity)
}

func TestDetectConflictsNoOverlap(t *testing.T) {
	shifts := []domain.ResolvedShift{
		resolvedShift(10, nil),
		resolvedShift(30, nil),
	}

	require.Empty(t, engine.DetectConflicts(shifts, newShiftDefs(), nil))
}

func TestDetectConflictsCrossMidnightDoesNotWrap(t *testing.T) {
	// 跨午夜的晚班结束在次日凌晨两点，和当天的凌晨班不重叠：
	// 凌晨班属于当天的 01:00-05:00，晚班的时间窗是 18:00-26:00
	shifts := []domain.ResolvedShift{
		resolvedShift(30, nil),
		resolvedShift(40, nil),
	}

	require.Empty(t, engine.DetectConflicts(shifts, newShiftDefs(), nil))
}

func TestDetectConflictsSeverityFromException(t *testing.T) {
	excID := int64(7)
	exceptions := map[int64]*domain.ShiftException{
		7: {ID: 7, Kind: domain.ExceptionKindAdd, Severity: domain.SeverityCritical},
	}

	shifts := []domain.ResolvedShift{
		resolvedShift(10, nil),
		resolvedShift(20, &excID),
	}

	conflicts := engine.DetectConflicts(shifts, newShiftDefs(), exceptions)

	// 严重程度取两条班次中较高的一档
	require.Len(t, conflicts, 1)
	require.Equal(t, domain.SeverityCritical, conflicts[0].Severity)
}

func TestDetectConflictsSkipsUnknownDefinitions(t *testing.T) {
	shifts := []domain.ResolvedShift{
		resolvedShift(10, nil),
		resolvedShift(999, nil),
	}

	// 缺少定义的班次无法判断时间窗，不产生冲突也不报错
	require.Empty(t, engine.DetectConflicts(shifts, newShiftDefs(), nil))
}

func TestSeverityForReason(t *testing.T) {
	require.Equal(t, domain.SeverityCritical, engine.SeverityForReason(domain.ReasonSickLeave))
	require.Equal(t, domain.SeverityWarning, engine.SeverityForReason(domain.ReasonSwap))
	require.Equal(t, domain.SeverityInfo, engine.SeverityForReason(domain.ReasonTraining))
	// 未知原因回落到 warning
	require.Equal(t, domain.SeverityWarning, engine.SeverityForReason(domain.ReasonCategory("unknown")))
}
