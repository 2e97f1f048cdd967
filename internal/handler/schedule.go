package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
)

// parseDateRangeQuery 解析 startDate 和 endDate 查询参数
func (h *Handler) parseDateRangeQuery(r *http.Request) (time.Time, time.Time, error) {
	startDate, err := time.Parse(domain.DateLayout, r.URL.Query().Get("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("开始日期格式错误")
	}

	endDate, err := time.Parse(domain.DateLayout, r.URL.Query().Get("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("结束日期格式错误")
	}

	return startDate, endDate, nil
}

// respondWithSchedule 生成主体在区间内的排班并返回，结果经过 redis 缓存。
// 缓存键里带上底层数据的指纹，分配或例外一旦变化键就会变化，
// 过期的缓存项不会再被任何请求命中，只等 TTL 自然淘汰。
func (h *Handler) respondWithSchedule(w http.ResponseWriter, r *http.Request, subject domain.Subject) {
	startDate, endDate, err := h.parseDateRangeQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	fingerprint, err := h.engine.DataFingerprint(r.Context(), subject, startDate, endDate)
	if err != nil {
		h.scheduleErrorResponse(w, r, err)
		return
	}

	cacheKey := fmt.Sprintf(
		"schedule_%s_%d_%s_%s_%s",
		subject.Type,
		subject.ID,
		startDate.Format(domain.DateLayout),
		endDate.Format(domain.DateLayout),
		fingerprint,
	)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	// 缓存未命中之外的 redis 错误只会让请求退化成直接计算
	cached, err := h.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		h.successResponse(w, r, "获取排班表成功", json.RawMessage(cached))
		return
	}
	if !errors.Is(err, redis.Nil) {
		h.logServerError(r, err)
	}

	days, err := h.engine.GenerateSchedule(r.Context(), subject, startDate, endDate)
	if err != nil {
		h.scheduleErrorResponse(w, r, err)
		return
	}

	payload, err := json.Marshal(days)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.redisClient.Set(ctx, cacheKey, payload, time.Duration(h.config.Engine.CacheExpiration)*time.Second).Err(); err != nil {
		h.logServerError(r, err)
	}

	h.successResponse(w, r, "获取排班表成功", json.RawMessage(payload))
}

// scheduleErrorResponse 把引擎返回的错误翻译成业务响应
func (h *Handler) scheduleErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *engine.AssignmentConflictError
	switch {
	case errors.Is(err, engine.ErrInvalidRange):
		h.badRequest(w, r, errors.New("日期区间无效"))
	case errors.As(err, &conflictErr):
		h.errorResponse(w, r, fmt.Sprintf("排班分配 %d 和 %d 的生效区间重叠，请先修正分配", conflictErr.FirstID, conflictErr.OtherID))
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	subject := r.Context().Value(SubjectCtx).(domain.Subject)
	h.respondWithSchedule(w, r, subject)
}

// GenerateScheduleForSingleDate 查询单天的排班，单天查询不经过缓存
func (h *Handler) GenerateScheduleForSingleDate(w http.ResponseWriter, r *http.Request) {
	subject := r.Context().Value(SubjectCtx).(domain.Subject)

	date, err := time.Parse(domain.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		h.badRequest(w, r, errors.New("日期格式错误"))
		return
	}

	day, err := h.engine.GenerateForSingleDate(r.Context(), subject, date)
	if err != nil {
		h.scheduleErrorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "获取单日排班成功", day)
}
