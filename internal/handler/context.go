package handler

type ContextKey string

var (
	RoleCtxKey            ContextKey = "role"
	SubCtxKey             ContextKey = "sub"
	MyInfoCtx             ContextKey = "myInfo"
	UserInfoCtx           ContextKey = "userInfo"
	TeamCtx               ContextKey = "team"
	ShiftDefinitionCtx    ContextKey = "shiftDefinition"
	RecurrenceRuleCtx     ContextKey = "recurrenceRule"
	ScheduleAssignmentCtx ContextKey = "scheduleAssignment"
	ShiftExceptionCtx     ContextKey = "shiftException"
	SubjectCtx            ContextKey = "subject"
)
