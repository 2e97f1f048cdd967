package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/repository"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"
)

// parseSubjectQuery 从查询参数中解析排班主体，列表类接口共用
func (h *Handler) parseSubjectQuery(r *http.Request) (domain.Subject, error) {
	subjectType := domain.SubjectType(r.URL.Query().Get("subjectType"))
	if subjectType != domain.SubjectTypeUser && subjectType != domain.SubjectTypeTeam {
		return domain.Subject{}, errors.New("无效的主体类型")
	}

	subjectID, err := strconv.ParseInt(r.URL.Query().Get("subjectID"), 10, 64)
	if err != nil {
		return domain.Subject{}, errors.New("主体ID无效")
	}

	return domain.Subject{Type: subjectType, ID: subjectID}, nil
}

func (h *Handler) CreateScheduleAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectType string  `json:"subjectType" validate:"required,oneof=user team"`
		SubjectID   int64   `json:"subjectID" validate:"required"`
		RuleID      int64   `json:"ruleID" validate:"required"`
		StartDate   string  `json:"startDate" validate:"required"`
		EndDate     *string `json:"endDate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := time.Parse(domain.DateLayout, req.StartDate)
	if err != nil {
		h.badRequest(w, r, errors.New("开始日期格式错误"))
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(domain.DateLayout, *req.EndDate)
		if err != nil {
			h.badRequest(w, r, errors.New("结束日期格式错误"))
			return
		}
		endDate = &parsed
	}

	// 确认规则真实存在
	if _, err := h.repository.GetRecurrenceRuleByID(r.Context(), req.RuleID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "循环规则不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assignment := &domain.ScheduleAssignment{
		Subject:   domain.Subject{Type: domain.SubjectType(req.SubjectType), ID: req.SubjectID},
		RuleID:    req.RuleID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	if err := utils.ValidateAssignmentInterval(assignment); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 先和该主体已有的分配做一次非重叠校验，给出指明冲突分配的错误；
	// 仓储在事务里还会再查一次，并发创建时以那次为准
	existing, err := h.repository.GetAssignmentsBySubject(assignment.Subject)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateAssignmentNonOverlap(existing, assignment); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreateScheduleAssignment(assignment); err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentOverlap):
			h.errorResponse(w, r, "生效区间和该主体已有的分配重叠")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建排班分配成功", assignment)
}

func (h *Handler) GetScheduleAssignmentsBySubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.parseSubjectQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	assignments, err := h.repository.GetAssignmentsBySubject(subject)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班分配列表成功", assignments)
}

func (h *Handler) GetScheduleAssignment(w http.ResponseWriter, r *http.Request) {
	assignment := r.Context().Value(ScheduleAssignmentCtx).(*domain.ScheduleAssignment)
	h.successResponse(w, r, "获取排班分配成功", assignment)
}

// EndScheduleAssignment 通过设置结束日期结束一个分配，分配从不被物理删除
func (h *Handler) EndScheduleAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EndDate string `json:"endDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	endDate, err := time.Parse(domain.DateLayout, req.EndDate)
	if err != nil {
		h.badRequest(w, r, errors.New("结束日期格式错误"))
		return
	}

	assignment := r.Context().Value(ScheduleAssignmentCtx).(*domain.ScheduleAssignment)

	if endDate.Before(assignment.StartDate) {
		h.badRequest(w, r, errors.New("结束日期不能早于分配的开始日期"))
		return
	}
	if assignment.EndDate != nil && !assignment.EndDate.After(endDate) {
		h.errorResponse(w, r, "分配已经结束")
		return
	}

	if err := h.repository.EndScheduleAssignment(assignment, endDate); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "结束分配失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "结束排班分配成功", assignment)
}
