package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/config"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/engine"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	engine      *engine.Engine
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 引擎显式接收它的依赖，本身无状态，一个实例全局共用
	eng := engine.New(&engine.Parameters{
		MaxAddExceptionsPerDay: cfg.Engine.MaxAddExceptionsPerDay,
		MaxRangeDays:           cfg.Engine.MaxRangeDays,
	}, repo)

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		engine:      eng,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Get("/schedule", h.GetMySchedule)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有成员都可以查看其他人的基本信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateTeam)
			r.Get("/", h.GetAllTeams)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.team)
				r.Get("/", h.GetTeam)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateTeam)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteTeam)
			})
		})

		r.Route("/shift-definitions", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})).Post("/", h.CreateShiftDefinition)
			r.Get("/", h.GetAllShiftDefinitions)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftDefinition)
				r.Get("/", h.GetShiftDefinition)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})).Patch("/", h.UpdateShiftDefinition)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})).Delete("/", h.DeleteShiftDefinition)
			})
		})

		r.Route("/recurrence-rules", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})).Post("/", h.CreateRecurrenceRule)
			r.Get("/", h.GetAllRecurrenceRules)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.recurrenceRule)
				r.Get("/", h.GetRecurrenceRule)
				// 规则不可变，没有更新端点，调整排班模式时创建新规则
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})).Delete("/", h.DeleteRecurrenceRule)
			})
		})

		r.Route("/schedule-assignments", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler}))
			r.Post("/", h.CreateScheduleAssignment)
			r.Get("/", h.GetScheduleAssignmentsBySubject)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleAssignment)
				r.Get("/", h.GetScheduleAssignment)
				r.Post("/end", h.EndScheduleAssignment)
			})
		})

		r.Route("/shift-exceptions", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler}))
			r.Post("/", h.CreateShiftException)
			r.Get("/", h.GetShiftExceptionsBySubject)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftException)
				r.Get("/", h.GetShiftException)
				r.Post("/supersede", h.SupersedeShiftException)
			})
		})

		r.Route("/subjects/{subjectType}/{subjectID}/schedule", func(r chi.Router) {
			r.Use(h.subject)
			r.Get("/", h.GenerateSchedule)
			r.Get("/{date}", h.GenerateScheduleForSingleDate)
		})
	})
}
