package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/repository"
)

// 值班点的固定班次，和前台实际的值班时段一一对应
var shiftDefinitions = []domain.ShiftDefinition{
	{
		Name:         "早班",
		StartTime:    "08:00:00",
		EndTime:      "12:00:00",
		BreakMinutes: 0,
	},
	{
		Name:         "午班",
		StartTime:    "12:00:00",
		EndTime:      "18:00:00",
		BreakMinutes: 30,
	},
	{
		Name:            "晚班",
		StartTime:       "18:00:00",
		EndTime:         "00:00:00",
		CrossesMidnight: true,
		BreakMinutes:    0,
	},
}

func SeedRealData(r *repository.Repository) {
	file, err := os.Open("./internal/seed/data/roster.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	// 插入固定班次
	shiftIDs := make([]*int64, 0, len(shiftDefinitions))
	for i := range shiftDefinitions {
		def := shiftDefinitions[i]
		if err := r.CreateShiftDefinition(&def); err != nil {
			slog.Error("插入班次失败", "error", err)
			return
		}
		shiftIDs = append(shiftIDs, &def.ID)
	}

	// 插入循环规则：早-午-晚-休 四天一轮
	rule := &domain.RecurrenceRule{
		Name:            "2025春季前台四班轮换",
		AnchorDate:      time.Date(2025, time.February, 24, 0, 0, 0, 0, time.UTC),
		CycleLengthDays: 4,
		CycleShifts:     []*int64{shiftIDs[0], shiftIDs[1], shiftIDs[2], nil},
	}
	if err := r.CreateRecurrenceRule(rule); err != nil {
		slog.Error("插入循环规则失败", "error", err)
		return
	}

	// 插入值班团队
	team := &domain.Team{
		Name:        "前台值班组",
		Description: "负责前台接待和报修受理的值班团队",
	}
	if err := r.CreateTeam(team); err != nil {
		slog.Error("插入团队失败", "error", err)
		return
	}

	// 团队整体也绑定到同一条规则上，方便查询团队的整体日历
	teamAssignment := &domain.ScheduleAssignment{
		Subject:   domain.Subject{Type: domain.SubjectTypeTeam, ID: team.ID},
		RuleID:    rule.ID,
		StartDate: rule.AnchorDate,
	}
	if err := r.CreateScheduleAssignment(teamAssignment); err != nil {
		slog.Error("插入团队分配失败", "error", err)
		return
	}

	// 插入名单上的成员及其排班分配
	for _, record := range records {
		netID := record["NetID"]
		if netID == "" {
			slog.Error("没有找到NetID", "record", record)
			continue
		}

		user, err := r.GetUserByUsername(netID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// 表示该成员不在数据库中，需要新建并插入
				user = &domain.User{
					Username:     netID,
					PasswordHash: "$2a$10$aUTaWl3vmXuQFocBkb9Qx.YJPAzNoaAcj2VC5tI45l1Roh24meCgO", // ecnc@test8403
					FullName:     record["姓名"],
					Email:        record["邮箱"],
					Role:         domain.Role(record["角色"]),
				}

				if err := r.CreateUser(user); err != nil {
					slog.Error("插入成员失败", "error", err)
					continue
				}
			default:
				slog.Error("获取成员失败", "error", err)
				continue
			}
		}

		assignment := &domain.ScheduleAssignment{
			Subject:   domain.Subject{Type: domain.SubjectTypeUser, ID: user.ID},
			RuleID:    rule.ID,
			StartDate: rule.AnchorDate,
		}
		if err := r.CreateScheduleAssignment(assignment); err != nil {
			slog.Error("插入排班分配失败", "error", err)
			continue
		}
	}

	slog.Info("插入数据完成")
}
