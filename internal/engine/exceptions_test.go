package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

func newException(id int64, kind domain.ExceptionKind, shift *int64, createdAt time.Time) *domain.ShiftException {
	return &domain.ShiftException{
		ID:             id,
		Kind:           kind,
		ShiftID:        shift,
		ReasonCategory: domain.ReasonOther,
		Severity:       domain.SeverityWarning,
		CreatedAt:      createdAt,
	}
}

func TestApplyExceptionsNoExceptions(t *testing.T) {
	resolved, conflicts := engine.ApplyExceptions(shiftID(10), nil, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(10), resolved[0].ShiftID)
	require.Equal(t, domain.FromBase, resolved[0].Provenance)
	require.Empty(t, conflicts)
}

func TestApplyExceptionsRemove(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindRemove, nil, now),
	}

	resolved, conflicts := engine.ApplyExceptions(shiftID(10), exceptions, 3)

	require.Empty(t, resolved)
	require.Empty(t, conflicts)
}

func TestApplyExceptionsOverride(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindOverride, shiftID(20), now),
	}

	resolved, _ := engine.ApplyExceptions(shiftID(10), exceptions, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(20), resolved[0].ShiftID)
	require.Equal(t, domain.FromException, resolved[0].Provenance)
	require.NotNil(t, resolved[0].ExceptionID)
	require.Equal(t, int64(1), *resolved[0].ExceptionID)
}

func TestApplyExceptionsRemoveThenAdd(t *testing.T) {
	now := time.Now()
	// 故意按新增在前的顺序传入，结果必须和存储顺序无关：先移除基础班次，再新增替换班次
	exceptions := []*domain.ShiftException{
		newException(2, domain.ExceptionKindAdd, shiftID(30), now),
		newException(1, domain.ExceptionKindRemove, nil, now),
	}

	resolved, _ := engine.ApplyExceptions(shiftID(10), exceptions, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(30), resolved[0].ShiftID)
	require.Equal(t, domain.FromException, resolved[0].Provenance)
}

func TestApplyExceptionsRemoveOnlyAffectsBase(t *testing.T) {
	now := time.Now()
	// 移除按固定顺序先于新增生效，所以新增的班次不会被移除
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindRemove, nil, now),
		newException(2, domain.ExceptionKindAdd, shiftID(30), now.Add(time.Minute)),
	}

	resolved, _ := engine.ApplyExceptions(shiftID(10), exceptions, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(30), resolved[0].ShiftID)
}

func TestApplyExceptionsOverrideThenAdd(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindOverride, shiftID(20), now),
		newException(2, domain.ExceptionKindAdd, shiftID(30), now.Add(time.Minute)),
	}

	resolved, _ := engine.ApplyExceptions(shiftID(10), exceptions, 3)

	// 覆盖替换了基础班次，新增在覆盖之后叠加
	require.Len(t, resolved, 2)
	require.Equal(t, int64(20), resolved[0].ShiftID)
	require.Equal(t, int64(30), resolved[1].ShiftID)
}

func TestApplyExceptionsAddOnRestDay(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindAdd, shiftID(30), now),
	}

	// 基础模式休息的日子也可以新增班次
	resolved, _ := engine.ApplyExceptions(nil, exceptions, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(30), resolved[0].ShiftID)
}

func TestApplyExceptionsAddBound(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(1, domain.ExceptionKindAdd, shiftID(30), now),
		newException(2, domain.ExceptionKindAdd, shiftID(31), now.Add(time.Minute)),
		newException(3, domain.ExceptionKindAdd, shiftID(32), now.Add(2*time.Minute)),
	}

	resolved, conflicts := engine.ApplyExceptions(nil, exceptions, 2)

	// 超出上限的新增被忽略并以冲突标注返回
	require.Len(t, resolved, 2)
	require.Equal(t, int64(30), resolved[0].ShiftID)
	require.Equal(t, int64(31), resolved[1].ShiftID)
	require.Len(t, conflicts, 1)
	require.Equal(t, domain.SeverityWarning, conflicts[0].Severity)
}

func TestApplyExceptionsSkipsSuperseded(t *testing.T) {
	now := time.Now()
	superseded := newException(1, domain.ExceptionKindOverride, shiftID(20), now)
	superseded.Superseded = true

	resolved, _ := engine.ApplyExceptions(shiftID(10), []*domain.ShiftException{superseded}, 3)

	require.Len(t, resolved, 1)
	require.Equal(t, int64(10), resolved[0].ShiftID)
	require.Equal(t, domain.FromBase, resolved[0].Provenance)
}

func TestApplyExceptionsDeterministicOrder(t *testing.T) {
	now := time.Now()
	exceptions := []*domain.ShiftException{
		newException(3, domain.ExceptionKindAdd, shiftID(32), now),
		newException(1, domain.ExceptionKindAdd, shiftID(30), now),
		newException(2, domain.ExceptionKindAdd, shiftID(31), now),
	}

	// 创建时间相同时按 ID 排序，任何输入顺序都得到同一个结果
	resolved, _ := engine.ApplyExceptions(nil, exceptions, 0)

	require.Len(t, resolved, 3)
	require.Equal(t, int64(30), resolved[0].ShiftID)
	require.Equal(t, int64(31), resolved[1].ShiftID)
	require.Equal(t, int64(32), resolved[2].ShiftID)
}
