package domain

import "time"

// TimeLayout 是班次起止时间的格式
const TimeLayout = "15:04:05"

// DateLayout 是所有日期字段的格式，排班只在本地日期层面上进行运算
const DateLayout = "2006-01-02"

type ShiftDefinition struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	CrossesMidnight bool      `json:"crossesMidnight"` // 为 true 时表示结束时间在第二天
	BreakMinutes    int32     `json:"breakMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}
