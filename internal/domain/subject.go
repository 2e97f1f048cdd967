package domain

type SubjectType string

const (
	SubjectTypeUser SubjectType = "user"
	SubjectTypeTeam SubjectType = "team"
)

// Subject 表示排班的主体，可以是单个用户，也可以是一个团队
type Subject struct {
	Type SubjectType `json:"type"`
	ID   int64       `json:"id"`
}
