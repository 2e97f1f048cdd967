package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// ErrInvalidRange 表示请求的日期区间不合法（起始日期晚于结束日期或区间过大）
var ErrInvalidRange = errors.New("日期区间不合法")

// AssignmentConflictError 表示同一个主体存在生效区间重叠的排班分配。
// 区间重叠属于数据完整性问题，引擎必须明确报错而不是随意挑选一个分配，
// 否则不同调用之间可能因为存储顺序不同而得到不同的排班结果。
type AssignmentConflictError struct {
	Subject domain.Subject
	FirstID int64
	OtherID int64
}

func (e *AssignmentConflictError) Error() string {
	return fmt.Sprintf("主体 %s/%d 的排班分配 %d 和 %d 的生效区间重叠", e.Subject.Type, e.Subject.ID, e.FirstID, e.OtherID)
}

// Repository 是引擎对外的唯一边界。
// 实现方必须保证返回的分配已通过非重叠校验、返回的例外不包含已被取代的记录。
type Repository interface {
	GetAssignmentsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ScheduleAssignment, error)
	GetExceptionsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ShiftException, error)
	GetRecurrenceRuleByID(ctx context.Context, id int64) (*domain.RecurrenceRule, error)
	GetShiftDefinitionsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ShiftDefinition, error)
}

// Parameters 是引擎的运行参数
type Parameters struct {
	MaxAddExceptionsPerDay int // 同一天最多解析多少个新增例外，超出的部分会被忽略并标注冲突
	MaxRangeDays           int // 单次请求允许的最大天数，0 表示不限制
}
