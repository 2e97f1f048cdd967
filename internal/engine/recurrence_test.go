package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func shiftID(id int64) *int64 {
	return &id
}

// 早-晚-休 三天一轮的规则，周一为锚点
func newThreeDayRule() *domain.RecurrenceRule {
	return &domain.RecurrenceRule{
		ID:              1,
		Name:            "三班轮换",
		AnchorDate:      day(2024, time.January, 1),
		CycleLengthDays: 3,
		CycleShifts:     []*int64{shiftID(10), shiftID(20), nil},
	}
}

func TestCycleIndex(t *testing.T) {
	rule := newThreeDayRule()

	// 锚点当天是周期的第 0 天
	require.Equal(t, 0, engine.CycleIndex(rule, day(2024, time.January, 1)))
	require.Equal(t, 1, engine.CycleIndex(rule, day(2024, time.January, 2)))
	require.Equal(t, 2, engine.CycleIndex(rule, day(2024, time.January, 3)))
	require.Equal(t, 0, engine.CycleIndex(rule, day(2024, time.January, 4)))

	// 锚点之前的日期也能计算，锚点前一天对应周期的最后一天
	require.Equal(t, 2, engine.CycleIndex(rule, day(2023, time.December, 31)))
	require.Equal(t, 1, engine.CycleIndex(rule, day(2023, time.December, 30)))
	require.Equal(t, 0, engine.CycleIndex(rule, day(2023, time.December, 29)))
}

func TestCycleIndexIsPeriodic(t *testing.T) {
	rule := newThreeDayRule()

	// 任意一天加上整数个周期后落在相同的周期日上
	for offset := -30; offset <= 30; offset++ {
		date := rule.AnchorDate.AddDate(0, 0, offset)
		require.Equal(t,
			engine.CycleIndex(rule, date),
			engine.CycleIndex(rule, date.AddDate(0, 0, 3*int(rule.CycleLengthDays))),
		)
	}
}

func TestComputeBaseShift(t *testing.T) {
	rule := newThreeDayRule()

	base := engine.ComputeBaseShift(rule, day(2024, time.January, 1))
	require.NotNil(t, base)
	require.Equal(t, int64(10), *base)

	base = engine.ComputeBaseShift(rule, day(2024, time.January, 2))
	require.NotNil(t, base)
	require.Equal(t, int64(20), *base)

	// 第三天休息
	require.Nil(t, engine.ComputeBaseShift(rule, day(2024, time.January, 3)))
}

func TestComputeBaseShiftIsDeterministic(t *testing.T) {
	rule := newThreeDayRule()
	date := day(2024, time.March, 15)

	first := engine.ComputeBaseShift(rule, date)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, engine.ComputeBaseShift(rule, date))
	}
}

func TestTruncateToDay(t *testing.T) {
	// 不同时区的同一时刻都归一化到 UTC 零点
	loc := time.FixedZone("UTC+8", 8*3600)
	truncated := engine.TruncateToDay(time.Date(2024, time.June, 1, 23, 30, 0, 0, loc))
	require.Equal(t, day(2024, time.June, 1), truncated)
}

func TestDaysBetween(t *testing.T) {
	require.Equal(t, 0, engine.DaysBetween(day(2024, time.January, 1), day(2024, time.January, 1)))
	require.Equal(t, 31, engine.DaysBetween(day(2024, time.January, 1), day(2024, time.February, 1)))
	require.Equal(t, -1, engine.DaysBetween(day(2024, time.January, 2), day(2024, time.January, 1)))
}
