package engine

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// 例外的固定应用顺序：先移除，再覆盖，最后新增。
// 这样"移除基础班次 + 新增替换班次"和"覆盖基础班次"都能得到与存储顺序无关的结果。
var kindOrder = map[domain.ExceptionKind]int{
	domain.ExceptionKindRemove:   0,
	domain.ExceptionKindOverride: 1,
	domain.ExceptionKindAdd:      2,
}

// sortExceptions 对同一天的例外做确定性排序：先按种类的固定顺序，再按创建时间和 ID
func sortExceptions(exceptions []*domain.ShiftException) []*domain.ShiftException {
	sorted := slices.Clone(exceptions)
	slices.SortFunc(sorted, func(a, b *domain.ShiftException) int {
		if kindOrder[a.Kind] != kindOrder[b.Kind] {
			return kindOrder[a.Kind] - kindOrder[b.Kind]
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.Before(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return int(a.ID - b.ID)
	})
	return sorted
}

// ApplyExceptions 把某一天的例外叠加到基础班次上，得到当天最终的班次列表。
// baseShift 为 nil 表示当天的基础模式是休息。
// 入参中的例外必须是未被取代的；这里对已取代的记录只做防御性跳过。
// 同一天生效的新增例外数量超过 maxAdd 时，多出的部分会被忽略并以冲突标注的形式返回。
func ApplyExceptions(baseShift *int64, exceptions []*domain.ShiftException, maxAdd int) ([]domain.ResolvedShift, []domain.ScheduleConflict) {
	resolved := make([]domain.ResolvedShift, 0, 1)
	if baseShift != nil {
		resolved = append(resolved, domain.ResolvedShift{
			ShiftID:    *baseShift,
			Provenance: domain.FromBase,
		})
	}

	conflicts := make([]domain.ScheduleConflict, 0)
	addCount := 0

	for _, exc := range sortExceptions(exceptions) {
		if exc.Superseded {
			continue
		}

		switch exc.Kind {
		case domain.ExceptionKindRemove:
			// 只移除来自基础模式的班次，之前例外新增的班次不受影响
			kept := resolved[:0]
			for _, shift := range resolved {
				if shift.Provenance != domain.FromBase {
					kept = append(kept, shift)
				}
			}
			resolved = kept
		case domain.ExceptionKindOverride:
			if exc.ShiftID == nil {
				// 覆盖例外缺少班次属于创建时就应当拒绝的脏数据，这里直接跳过
				continue
			}
			excID := exc.ID
			resolved = []domain.ResolvedShift{{
				ShiftID:     *exc.ShiftID,
				Provenance:  domain.FromException,
				ExceptionID: &excID,
			}}
		case domain.ExceptionKindAdd:
			if exc.ShiftID == nil {
				continue
			}
			if maxAdd > 0 && addCount >= maxAdd {
				conflicts = append(conflicts, domain.ScheduleConflict{
					FirstShiftID:  *exc.ShiftID,
					SecondShiftID: *exc.ShiftID,
					Severity:      domain.SeverityWarning,
					Message:       fmt.Sprintf("当天的新增例外超过了上限 %d，例外 %d 未生效", maxAdd, exc.ID),
				})
				continue
			}
			excID := exc.ID
			resolved = append(resolved, domain.ResolvedShift{
				ShiftID:     *exc.ShiftID,
				Provenance:  domain.FromException,
				ExceptionID: &excID,
			})
			addCount++
		}
	}

	return resolved, conflicts
}
