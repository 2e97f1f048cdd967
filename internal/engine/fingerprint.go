package engine

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// Fingerprint 计算一组分配和例外的数据指纹，作为排班结果缓存键的一部分。
// 指纹覆盖每条记录的 ID 和版本号，任何一条记录变化都会得到不同的指纹，
// 因此旧缓存会自然失效，不需要额外的清理逻辑。
// 输入在哈希前先按 ID 排序，指纹与存储返回顺序无关。
func Fingerprint(assignments []*domain.ScheduleAssignment, exceptions []*domain.ShiftException) string {
	digest := xxhash.New()

	sortedAssignments := slices.Clone(assignments)
	slices.SortFunc(sortedAssignments, func(a, b *domain.ScheduleAssignment) int {
		return int(a.ID - b.ID)
	})
	for _, assignment := range sortedAssignments {
		fmt.Fprintf(digest, "a:%d:%d;", assignment.ID, assignment.Version)
	}

	sortedExceptions := slices.Clone(exceptions)
	slices.SortFunc(sortedExceptions, func(a, b *domain.ShiftException) int {
		return int(a.ID - b.ID)
	})
	for _, exception := range sortedExceptions {
		fmt.Fprintf(digest, "e:%d:%d;", exception.ID, exception.Version)
	}

	return fmt.Sprintf("%016x", digest.Sum64())
}
