package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// Engine 负责为某个主体生成一段日期区间内每天的最终排班。
// 引擎本身没有任何可变状态，所有状态都在它读取的数据里，
// 因此同一个实例可以被任意数量的调用方并发使用。
type Engine struct {
	parameters *Parameters
	repository Repository
}

func New(parameters *Parameters, repository Repository) *Engine {
	return &Engine{
		parameters: parameters,
		repository: repository,
	}
}

// GenerateSchedule 生成 [startDate, endDate]（含两端）中每一天的排班。
// 输入和底层数据不变时，任意两次调用的结果完全相同。
// 整个区间只发起常数次仓储查询，而不是每天一次。
func (e *Engine) GenerateSchedule(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.WorkScheduleDay, error) {
	startDate = TruncateToDay(startDate)
	endDate = TruncateToDay(endDate)

	if startDate.After(endDate) {
		return nil, ErrInvalidRange
	}
	if e.parameters.MaxRangeDays > 0 && DaysBetween(startDate, endDate)+1 > e.parameters.MaxRangeDays {
		return nil, ErrInvalidRange
	}

	// 整个区间内的分配和例外各用一次范围查询取回
	assignments, err := e.repository.GetAssignmentsInRange(ctx, subject, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if err := checkAssignmentOverlap(subject, assignments); err != nil {
		return nil, err
	}

	exceptions, err := e.repository.GetExceptionsInRange(ctx, subject, startDate, endDate)
	if err != nil {
		return nil, err
	}

	// 取回区间内用到的所有循环规则。
	// 单条规则加载失败只会影响对应分配覆盖的那些天，不应该让整个区间都失败。
	rules := make(map[int64]*domain.RecurrenceRule)
	ruleLoadFailed := make(map[int64]bool)
	for _, assignment := range assignments {
		if _, exists := rules[assignment.RuleID]; exists {
			continue
		}
		if ruleLoadFailed[assignment.RuleID] {
			continue
		}

		rule, err := e.repository.GetRecurrenceRuleByID(ctx, assignment.RuleID)
		if err != nil {
			slog.Warn("无法加载循环规则", "ruleID", assignment.RuleID, "error", err)
			ruleLoadFailed[assignment.RuleID] = true
			continue
		}
		rules[assignment.RuleID] = rule
	}

	// 一次性取回所有涉及的班次定义，仅用于冲突检查。
	// 加载失败时照常生成排班，只是没有冲突标注。
	defs, err := e.repository.GetShiftDefinitionsByIDs(ctx, referencedShiftIDs(rules, exceptions))
	if err != nil {
		slog.Warn("无法加载班次定义，跳过冲突检查", "error", err)
		defs = map[int64]*domain.ShiftDefinition{}
	}

	// 例外按日期分组，每条例外的 ID 映射留给冲突严重程度的判断使用
	exceptionsByDate := make(map[time.Time][]*domain.ShiftException)
	exceptionByID := make(map[int64]*domain.ShiftException)
	for _, exception := range exceptions {
		date := TruncateToDay(exception.Date)
		exceptionsByDate[date] = append(exceptionsByDate[date], exception)
		exceptionByID[exception.ID] = exception
	}

	days := make([]*domain.WorkScheduleDay, 0, DaysBetween(startDate, endDate)+1)
	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		days = append(days, e.generateDay(subject, date, assignments, rules, ruleLoadFailed, exceptionsByDate[date], exceptionByID, defs))
	}

	return days, nil
}

// GenerateForSingleDate 是生成单日排班的便捷方法，等价于长度为一的区间
func (e *Engine) GenerateForSingleDate(ctx context.Context, subject domain.Subject, date time.Time) (*domain.WorkScheduleDay, error) {
	days, err := e.GenerateSchedule(ctx, subject, date, date)
	if err != nil {
		return nil, err
	}
	return days[0], nil
}

// DataFingerprint 返回区间内排班数据的指纹，供调用方拼接缓存键使用
func (e *Engine) DataFingerprint(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) (string, error) {
	startDate = TruncateToDay(startDate)
	endDate = TruncateToDay(endDate)
	if startDate.After(endDate) {
		return "", ErrInvalidRange
	}

	assignments, err := e.repository.GetAssignmentsInRange(ctx, subject, startDate, endDate)
	if err != nil {
		return "", err
	}
	exceptions, err := e.repository.GetExceptionsInRange(ctx, subject, startDate, endDate)
	if err != nil {
		return "", err
	}

	return Fingerprint(assignments, exceptions), nil
}

func (e *Engine) generateDay(
	subject domain.Subject,
	date time.Time,
	assignments []*domain.ScheduleAssignment,
	rules map[int64]*domain.RecurrenceRule,
	ruleLoadFailed map[int64]bool,
	exceptions []*domain.ShiftException,
	exceptionByID map[int64]*domain.ShiftException,
	defs map[int64]*domain.ShiftDefinition,
) *domain.WorkScheduleDay {
	day := &domain.WorkScheduleDay{
		Date:    date,
		Subject: subject,
		Shifts:  make([]domain.ResolvedShift, 0),
	}

	// 当天没有生效的分配时基础班次视为休息，这不是错误，例外仍然可以新增班次
	var baseShift *int64
	if assignment := findActiveAssignment(assignments, date); assignment != nil {
		if ruleLoadFailed[assignment.RuleID] {
			day.Error = "无法加载当天排班分配引用的循环规则"
			return day
		}
		baseShift = ComputeBaseShift(rules[assignment.RuleID], date)
	}

	resolved, conflicts := ApplyExceptions(baseShift, exceptions, e.parameters.MaxAddExceptionsPerDay)
	day.Shifts = resolved
	day.Conflicts = append(conflicts, DetectConflicts(resolved, defs, exceptionByID)...)
	if len(day.Conflicts) == 0 {
		day.Conflicts = nil
	}

	return day
}

// findActiveAssignment 在已通过非重叠校验的分配中找出覆盖指定日期的那一个。
// 区间非重叠保证了最多只有一个匹配，没有匹配时返回 nil。
func findActiveAssignment(assignments []*domain.ScheduleAssignment, date time.Time) *domain.ScheduleAssignment {
	for _, assignment := range assignments {
		if assignment.Covers(date) {
			return assignment
		}
	}
	return nil
}

// checkAssignmentOverlap 是对分配非重叠不变量的防御性检查。
// 不变量被破坏说明数据出了问题，必须明确失败而不是随意挑选一个分配。
func checkAssignmentOverlap(subject domain.Subject, assignments []*domain.ScheduleAssignment) error {
	sorted := slices.Clone(assignments)
	slices.SortFunc(sorted, func(a, b *domain.ScheduleAssignment) int {
		return a.StartDate.Compare(b.StartDate)
	})

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.EndDate == nil || !prev.EndDate.Before(sorted[i].StartDate) {
			return &AssignmentConflictError{
				Subject: subject,
				FirstID: prev.ID,
				OtherID: sorted[i].ID,
			}
		}
	}

	return nil
}

// referencedShiftIDs 收集规则和例外中引用到的所有班次定义 ID（去重）
func referencedShiftIDs(rules map[int64]*domain.RecurrenceRule, exceptions []*domain.ShiftException) []int64 {
	seen := make(map[int64]bool)
	ids := make([]int64, 0)

	for _, rule := range rules {
		for _, shiftID := range rule.CycleShifts {
			if shiftID != nil && !seen[*shiftID] {
				seen[*shiftID] = true
				ids = append(ids, *shiftID)
			}
		}
	}
	for _, exception := range exceptions {
		if exception.ShiftID != nil && !seen[*exception.ShiftID] {
			seen[*exception.ShiftID] = true
			ids = append(ids, *exception.ShiftID)
		}
	}

	slices.Sort(ids)
	return ids
}
