package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

func TestFingerprintOrderIndependence(t *testing.T) {
	a1 := &domain.ScheduleAssignment{ID: 1, Version: 1}
	a2 := &domain.ScheduleAssignment{ID: 2, Version: 1}
	e1 := &domain.ShiftException{ID: 5, Version: 2}
	e2 := &domain.ShiftException{ID: 6, Version: 1}

	first := engine.Fingerprint([]*domain.ScheduleAssignment{a1, a2}, []*domain.ShiftException{e1, e2})
	second := engine.Fingerprint([]*domain.ScheduleAssignment{a2, a1}, []*domain.ShiftException{e2, e1})

	require.Equal(t, first, second)
}

func TestFingerprintVersionSensitivity(t *testing.T) {
	assignment := &domain.ScheduleAssignment{ID: 1, Version: 1}

	before := engine.Fingerprint([]*domain.ScheduleAssignment{assignment}, nil)

	// 任何一条记录的版本变化都必须得到不同的指纹，否则旧缓存不会失效
	assignment.Version = 2
	after := engine.Fingerprint([]*domain.ScheduleAssignment{assignment}, nil)

	require.NotEqual(t, before, after)
}

func TestFingerprintRecordSetSensitivity(t *testing.T) {
	assignment := &domain.ScheduleAssignment{ID: 1, Version: 1}
	exception := &domain.ShiftException{ID: 1, Version: 1}

	withAssignment := engine.Fingerprint([]*domain.ScheduleAssignment{assignment}, nil)
	withException := engine.Fingerprint(nil, []*domain.ShiftException{exception})
	empty := engine.Fingerprint(nil, nil)

	// 同样的 ID 和版本，分配和例外产生不同的指纹
	require.NotEqual(t, withAssignment, withException)
	require.NotEqual(t, empty, withAssignment)
	require.NotEqual(t, empty, withException)
}

func TestFingerprintDeterministic(t *testing.T) {
	assignments := []*domain.ScheduleAssignment{{ID: 3, Version: 7}}
	exceptions := []*domain.ShiftException{{ID: 9, Version: 1}}

	first := engine.Fingerprint(assignments, exceptions)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, engine.Fingerprint(assignments, exceptions))
	}
	require.Len(t, first, 16)
}
