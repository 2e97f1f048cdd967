package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"
)

type shiftExceptionRequest struct {
	SubjectType    string  `json:"subjectType" validate:"required,oneof=user team"`
	SubjectID      int64   `json:"subjectID" validate:"required"`
	Date           string  `json:"date" validate:"required"`
	Kind           string  `json:"kind" validate:"required,oneof=override remove add"`
	ShiftID        *int64  `json:"shiftID"`
	ReasonCategory string  `json:"reasonCategory" validate:"required,oneof=sick_leave personal_leave shift_swap compensation training other"`
	Severity       *string `json:"severity" validate:"omitempty,oneof=info warning critical"`
}

// buildShiftException 把请求体转换成校验完毕的例外。
// 未显式指定严重程度时按请假原因推导默认值。
func (h *Handler) buildShiftException(r *http.Request, req *shiftExceptionRequest) (*domain.ShiftException, error) {
	date, err := time.Parse(domain.DateLayout, req.Date)
	if err != nil {
		return nil, errors.New("日期格式错误")
	}

	exception := &domain.ShiftException{
		Subject:        domain.Subject{Type: domain.SubjectType(req.SubjectType), ID: req.SubjectID},
		Date:           date,
		Kind:           domain.ExceptionKind(req.Kind),
		ShiftID:        req.ShiftID,
		ReasonCategory: domain.ReasonCategory(req.ReasonCategory),
	}

	if req.Severity != nil {
		exception.Severity = domain.ConflictSeverity(*req.Severity)
	} else {
		exception.Severity = engine.SeverityForReason(exception.ReasonCategory)
	}

	if err := utils.ValidateExceptionShape(exception); err != nil {
		return nil, err
	}

	// 覆盖和新增例外引用的班次必须真实存在
	if exception.ShiftID != nil {
		if _, err := h.repository.GetShiftDefinitionByID(*exception.ShiftID); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return nil, errors.New("例外引用的班次不存在")
			default:
				return nil, err
			}
		}
	}

	return exception, nil
}

func (h *Handler) CreateShiftException(w http.ResponseWriter, r *http.Request) {
	var req shiftExceptionRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	exception, err := h.buildShiftException(r, &req)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 和当天已有的未被取代例外一起校验：重复的移除或覆盖在创建时就拒绝
	existing, err := h.repository.GetExceptionsInRange(r.Context(), exception.Subject, exception.Date, exception.Date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateExceptionAgainstExisting(existing, exception, h.config.Engine.MaxAddExceptionsPerDay); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreateShiftException(exception); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次例外成功", exception)
}

func (h *Handler) GetShiftExceptionsBySubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.parseSubjectQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	exceptions, err := h.repository.GetExceptionsBySubject(subject)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次例外列表成功", exceptions)
}

func (h *Handler) GetShiftException(w http.ResponseWriter, r *http.Request) {
	exception := r.Context().Value(ShiftExceptionCtx).(*domain.ShiftException)
	h.successResponse(w, r, "获取班次例外成功", exception)
}

// SupersedeShiftException 用一条新例外更正旧例外，旧例外保留在审计链里
func (h *Handler) SupersedeShiftException(w http.ResponseWriter, r *http.Request) {
	old := r.Context().Value(ShiftExceptionCtx).(*domain.ShiftException)

	if old.Superseded {
		h.errorResponse(w, r, "例外已被取代，请基于最新的例外更正")
		return
	}

	var req struct {
		Kind           string  `json:"kind" validate:"required,oneof=override remove add"`
		ShiftID        *int64  `json:"shiftID"`
		ReasonCategory string  `json:"reasonCategory" validate:"required,oneof=sick_leave personal_leave shift_swap compensation training other"`
		Severity       *string `json:"severity" validate:"omitempty,oneof=info warning critical"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 新例外固定作用在旧例外的主体和日期上
	full := shiftExceptionRequest{
		SubjectType:    string(old.Subject.Type),
		SubjectID:      old.Subject.ID,
		Date:           old.Date.Format(domain.DateLayout),
		Kind:           req.Kind,
		ShiftID:        req.ShiftID,
		ReasonCategory: req.ReasonCategory,
		Severity:       req.Severity,
	}

	next, err := h.buildShiftException(r, &full)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 校验时把被取代的旧例外排除在外
	existing, err := h.repository.GetExceptionsInRange(r.Context(), next.Subject, next.Date, next.Date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	remaining := make([]*domain.ShiftException, 0, len(existing))
	for _, exception := range existing {
		if exception.ID != old.ID {
			remaining = append(remaining, exception)
		}
	}
	if err := utils.ValidateExceptionAgainstExisting(remaining, next, h.config.Engine.MaxAddExceptionsPerDay); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.SupersedeShiftException(old, next); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更正例外失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更正班次例外成功", next)
}
