package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"
)

func (h *Handler) CreateShiftDefinition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name" validate:"required"`
		StartTime       string `json:"startTime" validate:"required"`
		EndTime         string `json:"endTime" validate:"required"`
		CrossesMidnight bool   `json:"crossesMidnight"`
		BreakMinutes    int32  `json:"breakMinutes" validate:"gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	def := &domain.ShiftDefinition{
		Name:            req.Name,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		CrossesMidnight: req.CrossesMidnight,
		BreakMinutes:    req.BreakMinutes,
	}

	if err := utils.ValidateShiftDefinitionTime(def); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateShiftDefinition(def); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_definitions_name_key":
			h.badRequest(w, r, errors.New("班次名称已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建班次成功", def)
}

func (h *Handler) GetAllShiftDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.repository.GetAllShiftDefinitions()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次列表成功", defs)
}

func (h *Handler) GetShiftDefinition(w http.ResponseWriter, r *http.Request) {
	def := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)
	h.successResponse(w, r, "获取班次成功", def)
}

func (h *Handler) UpdateShiftDefinition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            *string `json:"name"`
		StartTime       *string `json:"startTime"`
		EndTime         *string `json:"endTime"`
		CrossesMidnight *bool   `json:"crossesMidnight"`
		BreakMinutes    *int32  `json:"breakMinutes" validate:"omitempty,gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	def := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)

	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.StartTime != nil {
		def.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		def.EndTime = *req.EndTime
	}
	if req.CrossesMidnight != nil {
		def.CrossesMidnight = *req.CrossesMidnight
	}
	if req.BreakMinutes != nil {
		def.BreakMinutes = *req.BreakMinutes
	}

	if err := utils.ValidateShiftDefinitionTime(def); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateShiftDefinition(def); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新班次失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新班次成功", def)
}

func (h *Handler) DeleteShiftDefinition(w http.ResponseWriter, r *http.Request) {
	def := r.Context().Value(ShiftDefinitionCtx).(*domain.ShiftDefinition)

	if err := h.repository.DeleteShiftDefinition(def.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		// 已被循环规则或例外引用的班次不允许删除，否则历史排班无法重建
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			h.errorResponse(w, r, "班次已被引用，无法删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除班次成功", nil)
}
