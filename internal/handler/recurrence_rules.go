package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"
)

func (h *Handler) CreateRecurrenceRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string   `json:"name" validate:"required"`
		AnchorDate      string   `json:"anchorDate" validate:"required"`
		CycleLengthDays int32    `json:"cycleLengthDays" validate:"required,gte=1"`
		CycleShifts     []*int64 `json:"cycleShifts" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	anchorDate, err := time.Parse(domain.DateLayout, req.AnchorDate)
	if err != nil {
		h.badRequest(w, r, errors.New("锚点日期格式错误"))
		return
	}

	rule := &domain.RecurrenceRule{
		Name:            req.Name,
		AnchorDate:      anchorDate,
		CycleLengthDays: req.CycleLengthDays,
		CycleShifts:     req.CycleShifts,
	}

	if err := utils.ValidateRecurrenceRule(rule); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 确认周期序列引用的班次都真实存在
	shiftIDs := make([]int64, 0, len(rule.CycleShifts))
	for _, shiftID := range rule.CycleShifts {
		if shiftID != nil {
			shiftIDs = append(shiftIDs, *shiftID)
		}
	}
	if len(shiftIDs) > 0 {
		defs, err := h.repository.GetShiftDefinitionsByIDs(r.Context(), shiftIDs)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		for _, shiftID := range shiftIDs {
			if _, exists := defs[shiftID]; !exists {
				h.errorResponse(w, r, "周期序列引用了不存在的班次")
				return
			}
		}
	}

	if err := h.repository.CreateRecurrenceRule(rule); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建循环规则成功", rule)
}

func (h *Handler) GetAllRecurrenceRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repository.GetAllRecurrenceRules()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取循环规则列表成功", rules)
}

func (h *Handler) GetRecurrenceRule(w http.ResponseWriter, r *http.Request) {
	rule := r.Context().Value(RecurrenceRuleCtx).(*domain.RecurrenceRule)
	h.successResponse(w, r, "获取循环规则成功", rule)
}

func (h *Handler) DeleteRecurrenceRule(w http.ResponseWriter, r *http.Request) {
	rule := r.Context().Value(RecurrenceRuleCtx).(*domain.RecurrenceRule)

	if err := h.repository.DeleteRecurrenceRule(rule.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		// 已被分配引用的规则不允许删除，历史排班依赖它
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			h.errorResponse(w, r, "规则已被排班分配引用，无法删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除循环规则成功", nil)
}
