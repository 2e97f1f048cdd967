package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func shiftID(id int64) *int64 {
	return &id
}

func TestValidateShiftDefinitionTime(t *testing.T) {
	require.NoError(t, utils.ValidateShiftDefinitionTime(&domain.ShiftDefinition{
		StartTime: "08:00:00",
		EndTime:   "12:00:00",
	}))

	// 同一天内结束时间必须晚于开始时间
	require.Error(t, utils.ValidateShiftDefinitionTime(&domain.ShiftDefinition{
		StartTime: "12:00:00",
		EndTime:   "08:00:00",
	}))

	// 跨午夜的班次结束时间必须早于开始时间
	require.NoError(t, utils.ValidateShiftDefinitionTime(&domain.ShiftDefinition{
		StartTime:       "22:00:00",
		EndTime:         "06:00:00",
		CrossesMidnight: true,
	}))
	require.Error(t, utils.ValidateShiftDefinitionTime(&domain.ShiftDefinition{
		StartTime:       "08:00:00",
		EndTime:         "12:00:00",
		CrossesMidnight: true,
	}))

	require.Error(t, utils.ValidateShiftDefinitionTime(&domain.ShiftDefinition{
		StartTime: "8点",
		EndTime:   "12:00:00",
	}))
}

func TestValidateRecurrenceRule(t *testing.T) {
	require.NoError(t, utils.ValidateRecurrenceRule(&domain.RecurrenceRule{
		CycleLengthDays: 3,
		CycleShifts:     []*int64{shiftID(1), nil, shiftID(2)},
	}))

	require.Error(t, utils.ValidateRecurrenceRule(&domain.RecurrenceRule{
		CycleLengthDays: 0,
		CycleShifts:     []*int64{},
	}))

	// 序列长度和周期长度必须一致
	require.Error(t, utils.ValidateRecurrenceRule(&domain.RecurrenceRule{
		CycleLengthDays: 3,
		CycleShifts:     []*int64{shiftID(1)},
	}))
}

func TestValidateAssignmentInterval(t *testing.T) {
	endDate := day(2024, time.February, 1)
	require.NoError(t, utils.ValidateAssignmentInterval(&domain.ScheduleAssignment{
		StartDate: day(2024, time.January, 1),
		EndDate:   &endDate,
	}))

	// 没有结束日期表示长期有效
	require.NoError(t, utils.ValidateAssignmentInterval(&domain.ScheduleAssignment{
		StartDate: day(2024, time.January, 1),
	}))

	badEnd := day(2023, time.December, 1)
	require.Error(t, utils.ValidateAssignmentInterval(&domain.ScheduleAssignment{
		StartDate: day(2024, time.January, 1),
		EndDate:   &badEnd,
	}))
}

func TestValidateAssignmentNonOverlap(t *testing.T) {
	endDate := day(2024, time.January, 31)
	existing := []*domain.ScheduleAssignment{
		{ID: 1, StartDate: day(2024, time.January, 1), EndDate: &endDate},
	}

	// 紧跟在已有分配结束之后的分配合法
	require.NoError(t, utils.ValidateAssignmentNonOverlap(existing, &domain.ScheduleAssignment{
		ID:        2,
		StartDate: day(2024, time.February, 1),
	}))

	// 区间有交集就拒绝
	require.Error(t, utils.ValidateAssignmentNonOverlap(existing, &domain.ScheduleAssignment{
		ID:        2,
		StartDate: day(2024, time.January, 15),
	}))

	// 结束日期和已有分配的开始日期重合也算重叠，区间是闭区间
	overlapEnd := day(2024, time.January, 1)
	require.Error(t, utils.ValidateAssignmentNonOverlap(existing, &domain.ScheduleAssignment{
		ID:        2,
		StartDate: day(2023, time.December, 1),
		EndDate:   &overlapEnd,
	}))

	// 自身不和自身比较，更新场景下不会误报
	require.NoError(t, utils.ValidateAssignmentNonOverlap(existing, &domain.ScheduleAssignment{
		ID:        1,
		StartDate: day(2024, time.January, 1),
		EndDate:   &endDate,
	}))
}

func TestValidateExceptionShape(t *testing.T) {
	require.NoError(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind: domain.ExceptionKindRemove,
	}))
	require.NoError(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind:    domain.ExceptionKindOverride,
		ShiftID: shiftID(1),
	}))

	// 移除不能带班次，覆盖和新增必须带班次
	require.Error(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind:    domain.ExceptionKindRemove,
		ShiftID: shiftID(1),
	}))
	require.Error(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind: domain.ExceptionKindOverride,
	}))
	require.Error(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind: domain.ExceptionKindAdd,
	}))

	require.Error(t, utils.ValidateExceptionShape(&domain.ShiftException{
		Kind: domain.ExceptionKind("unknown"),
	}))
}

func TestValidateExceptionAgainstExisting(t *testing.T) {
	existing := []*domain.ShiftException{
		{ID: 1, Kind: domain.ExceptionKindRemove},
		{ID: 2, Kind: domain.ExceptionKindAdd, ShiftID: shiftID(1)},
	}

	// 当天已有移除例外时再提交移除会被拒绝
	require.Error(t, utils.ValidateExceptionAgainstExisting(existing, &domain.ShiftException{
		Kind: domain.ExceptionKindRemove,
	}, 3))

	// 新增不与移除冲突
	require.NoError(t, utils.ValidateExceptionAgainstExisting(existing, &domain.ShiftException{
		Kind:    domain.ExceptionKindAdd,
		ShiftID: shiftID(2),
	}, 3))

	// 已被取代的例外不参与校验
	superseded := []*domain.ShiftException{
		{ID: 1, Kind: domain.ExceptionKindOverride, ShiftID: shiftID(1), Superseded: true},
	}
	require.NoError(t, utils.ValidateExceptionAgainstExisting(superseded, &domain.ShiftException{
		Kind:    domain.ExceptionKindOverride,
		ShiftID: shiftID(2),
	}, 3))
}

func TestValidateExceptionAgainstExistingAddCap(t *testing.T) {
	existing := []*domain.ShiftException{
		{ID: 1, Kind: domain.ExceptionKindAdd, ShiftID: shiftID(1)},
		{ID: 2, Kind: domain.ExceptionKindAdd, ShiftID: shiftID(2)},
	}

	next := &domain.ShiftException{Kind: domain.ExceptionKindAdd, ShiftID: shiftID(3)}

	require.Error(t, utils.ValidateExceptionAgainstExisting(existing, next, 2))
	require.NoError(t, utils.ValidateExceptionAgainstExisting(existing, next, 3))
	// 上限为 0 表示不限制
	require.NoError(t, utils.ValidateExceptionAgainstExisting(existing, next, 0))
}
