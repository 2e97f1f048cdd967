package engine_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

// fakeRepository 是引擎边界接口的内存实现，同时记录每种查询的调用次数
type fakeRepository struct {
	assignments []*domain.ScheduleAssignment
	exceptions  []*domain.ShiftException
	rules       map[int64]*domain.RecurrenceRule
	defs        map[int64]*domain.ShiftDefinition

	assignmentErr error
	exceptionErr  error
	ruleErr       map[int64]error
	defsErr       error

	assignmentCalls int
	exceptionCalls  int
	ruleCalls       int
	defsCalls       int
}

func (f *fakeRepository) GetAssignmentsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ScheduleAssignment, error) {
	f.assignmentCalls++
	if f.assignmentErr != nil {
		return nil, f.assignmentErr
	}
	return f.assignments, nil
}

func (f *fakeRepository) GetExceptionsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ShiftException, error) {
	f.exceptionCalls++
	if f.exceptionErr != nil {
		return nil, f.exceptionErr
	}
	return f.exceptions, nil
}

func (f *fakeRepository) GetRecurrenceRuleByID(ctx context.Context, id int64) (*domain.RecurrenceRule, error) {
	f.ruleCalls++
	if err, exists := f.ruleErr[id]; exists {
		return nil, err
	}
	rule, exists := f.rules[id]
	if !exists {
		return nil, sql.ErrNoRows
	}
	return rule, nil
}

func (f *fakeRepository) GetShiftDefinitionsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ShiftDefinition, error) {
	f.defsCalls++
	if f.defsErr != nil {
		return nil, f.defsErr
	}
	result := make(map[int64]*domain.ShiftDefinition)
	for _, id := range ids {
		if def, exists := f.defs[id]; exists {
			result[id] = def
		}
	}
	return result, nil
}

func newTestEngine(repo *fakeRepository) *engine.Engine {
	return engine.New(&engine.Parameters{
		MaxAddExceptionsPerDay: 3,
		MaxRangeDays:           366,
	}, repo)
}

func testSubject() domain.Subject {
	return domain.Subject{Type: domain.SubjectTypeUser, ID: 42}
}

func newTestRepository() *fakeRepository {
	rule := newThreeDayRule()
	return &fakeRepository{
		assignments: []*domain.ScheduleAssignment{
			{
				ID:        1,
				Subject:   testSubject(),
				RuleID:    rule.ID,
				StartDate: day(2024, time.January, 1),
				Version:   1,
			},
		},
		rules: map[int64]*domain.RecurrenceRule{rule.ID: rule},
		defs:  newShiftDefs(),
	}
}

func TestGenerateSchedule(t *testing.T) {
	repo := newTestRepository()
	eng := newTestEngine(repo)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 6))
	require.NoError(t, err)
	require.Len(t, days, 6)

	// 早-晚-休 的模式逐日展开
	require.Equal(t, int64(10), days[0].Shifts[0].ShiftID)
	require.Equal(t, int64(20), days[1].Shifts[0].ShiftID)
	require.Empty(t, days[2].Shifts)
	require.Equal(t, int64(10), days[3].Shifts[0].ShiftID)
	require.Equal(t, int64(20), days[4].Shifts[0].ShiftID)
	require.Empty(t, days[5].Shifts)

	for _, d := range days {
		require.Equal(t, testSubject(), d.Subject)
		require.Empty(t, d.Error)
	}
}

func TestGenerateScheduleQueryCountIsConstant(t *testing.T) {
	repo := newTestRepository()
	eng := newTestEngine(repo)

	// 30 天的区间也只发起常数次查询，而不是每天一次
	_, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 30))
	require.NoError(t, err)

	require.Equal(t, 1, repo.assignmentCalls)
	require.Equal(t, 1, repo.exceptionCalls)
	require.Equal(t, 1, repo.ruleCalls)
	require.Equal(t, 1, repo.defsCalls)
}

func TestGenerateScheduleIsIdempotent(t *testing.T) {
	repo := newTestRepository()
	repo.exceptions = []*domain.ShiftException{
		newException(1, domain.ExceptionKindOverride, shiftID(30), time.Now()),
	}
	repo.exceptions[0].Date = day(2024, time.January, 2)
	eng := newTestEngine(repo)

	first, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 10))
	require.NoError(t, err)
	second, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 10))
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestGenerateScheduleInvalidRange(t *testing.T) {
	eng := newTestEngine(newTestRepository())

	_, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 10), day(2024, time.January, 1))
	require.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestGenerateScheduleRangeTooLarge(t *testing.T) {
	repo := newTestRepository()
	eng := engine.New(&engine.Parameters{MaxAddExceptionsPerDay: 3, MaxRangeDays: 30}, repo)

	_, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.March, 1))
	require.ErrorIs(t, err, engine.ErrInvalidRange)
	// 区间校验在任何查询之前完成
	require.Zero(t, repo.assignmentCalls)
}

func TestGenerateScheduleAssignmentOverlap(t *testing.T) {
	repo := newTestRepository()
	repo.assignments = append(repo.assignments, &domain.ScheduleAssignment{
		ID:        2,
		Subject:   testSubject(),
		RuleID:    1,
		StartDate: day(2024, time.January, 15),
		Version:   1,
	})
	eng := newTestEngine(repo)

	// 两个分配都没有结束日期，区间必然重叠，必须明确报错而不是随意挑一个
	_, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 31))

	var conflictErr *engine.AssignmentConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Equal(t, int64(1), conflictErr.FirstID)
	require.Equal(t, int64(2), conflictErr.OtherID)
}

func TestGenerateScheduleRuleLoadFailure(t *testing.T) {
	repo := newTestRepository()
	endDate := day(2024, time.January, 5)
	repo.assignments[0].EndDate = &endDate
	repo.assignments = append(repo.assignments, &domain.ScheduleAssignment{
		ID:        2,
		Subject:   testSubject(),
		RuleID:    99,
		StartDate: day(2024, time.January, 6),
		Version:   1,
	})
	repo.ruleErr = map[int64]error{99: errors.New("connection refused")}
	eng := newTestEngine(repo)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 10))
	require.NoError(t, err)
	require.Len(t, days, 10)

	// 规则加载失败只影响对应分配覆盖的那些天，前五天照常生成
	for _, d := range days[:5] {
		require.Empty(t, d.Error)
	}
	for _, d := range days[5:] {
		require.NotEmpty(t, d.Error)
		require.Empty(t, d.Shifts)
	}
}

func TestGenerateScheduleDefsLoadFailureDegradesGracefully(t *testing.T) {
	repo := newTestRepository()
	repo.defsErr = errors.New("connection refused")
	repo.exceptions = []*domain.ShiftException{
		newException(1, domain.ExceptionKindAdd, shiftID(20), time.Now()),
	}
	repo.exceptions[0].Date = day(2024, time.January, 1)
	eng := newTestEngine(repo)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 1))
	require.NoError(t, err)

	// 班次定义加载失败时排班照常生成，只是没有冲突标注
	require.Len(t, days[0].Shifts, 2)
	require.Empty(t, days[0].Conflicts)
}

func TestGenerateScheduleNoAssignment(t *testing.T) {
	repo := newTestRepository()
	repo.assignments = nil
	repo.exceptions = []*domain.ShiftException{
		newException(1, domain.ExceptionKindAdd, shiftID(10), time.Now()),
	}
	repo.exceptions[0].Date = day(2024, time.January, 2)
	eng := newTestEngine(repo)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 3))
	require.NoError(t, err)

	// 没有分配不是错误，基础模式视为休息，例外仍然可以新增班次
	require.Empty(t, days[0].Shifts)
	require.Len(t, days[1].Shifts, 1)
	require.Equal(t, domain.FromException, days[1].Shifts[0].Provenance)
	require.Empty(t, days[2].Shifts)
}

func TestGenerateScheduleConflictAnnotation(t *testing.T) {
	repo := newTestRepository()
	// 1 月 1 日的基础班次是早班，再新增一个时间重叠的午班
	exc := newException(1, domain.ExceptionKindAdd, shiftID(20), time.Now())
	exc.Date = day(2024, time.January, 1)
	exc.Severity = domain.SeverityCritical
	repo.exceptions = []*domain.ShiftException{exc}
	eng := newTestEngine(repo)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 1))
	require.NoError(t, err)

	require.Len(t, days[0].Shifts, 2)
	require.Len(t, days[0].Conflicts, 1)
	require.Equal(t, domain.SeverityCritical, days[0].Conflicts[0].Severity)
}

func TestGenerateForSingleDate(t *testing.T) {
	eng := newTestEngine(newTestRepository())

	date := day(2024, time.January, 2)
	single, err := eng.GenerateForSingleDate(context.Background(), testSubject(), date)
	require.NoError(t, err)

	days, err := eng.GenerateSchedule(context.Background(), testSubject(), date, date)
	require.NoError(t, err)
	require.Equal(t, days[0], single)
}

func TestDataFingerprint(t *testing.T) {
	repo := newTestRepository()
	eng := newTestEngine(repo)

	first, err := eng.DataFingerprint(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)

	second, err := eng.DataFingerprint(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.Equal(t, first, second)

	// 底层数据变化后指纹跟着变化
	repo.assignments[0].Version = 2
	third, err := eng.DataFingerprint(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestDataFingerprintPropagatesErrors(t *testing.T) {
	repo := newTestRepository()
	repo.assignmentErr = errors.New("connection refused")
	eng := newTestEngine(repo)

	_, err := eng.DataFingerprint(context.Background(), testSubject(), day(2024, time.January, 1), day(2024, time.January, 2))
	require.Error(t, err)
}
