package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/config"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/repository"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/seed"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var subjectID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机班次, 3: 插入随机循环规则, 4: 为用户插入随机分配和例外, 5: 插入真实数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&subjectID, "subject-id", 0, "随机插入分配和例外的用户 ID，为 0 时覆盖所有用户")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的班次数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				def := utils.GenerateRandomShiftDefinition()
				if err := repo.CreateShiftDefinition(def); err != nil {
					slog.Error("无法插入班次", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入班次成功", slog.Int("count", n-cnt))
		}
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的循环规则数量")
		} else {
			// 先获取所有班次，规则的周期日从这些班次中随机引用
			defs, err := repo.GetAllShiftDefinitions()
			if err != nil {
				slog.Error("无法获取所有班次", slog.String("error", err.Error()))
				return
			}

			shiftIDs := make([]int64, 0, len(defs))
			for _, def := range defs {
				shiftIDs = append(shiftIDs, def.ID)
			}

			cnt := n
			for i := 0; i < n; i++ {
				rule := utils.GenerateRandomRecurrenceRule(shiftIDs)
				if err := repo.CreateRecurrenceRule(rule); err != nil {
					slog.Error("无法插入循环规则", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入循环规则成功", slog.Int("count", n-cnt))
		}
	case 4:
		// 获取规则和班次，没有规则就没法生成分配
		rules, err := repo.GetAllRecurrenceRules()
		if err != nil {
			slog.Error("无法获取所有循环规则", slog.String("error", err.Error()))
			return
		}
		if len(rules) == 0 {
			slog.Error("数据库中没有循环规则，请先执行操作 3")
			return
		}

		defs, err := repo.GetAllShiftDefinitions()
		if err != nil {
			slog.Error("无法获取所有班次", slog.String("error", err.Error()))
			return
		}
		shiftIDs := make([]int64, 0, len(defs))
		for _, def := range defs {
			shiftIDs = append(shiftIDs, def.ID)
		}

		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取所有用户", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, user := range users {
			if subjectID > 0 && user.ID != subjectID {
				continue
			}

			subject := domain.Subject{Type: domain.SubjectTypeUser, ID: user.ID}

			rule := rules[rand.Intn(len(rules))]
			assignment := utils.GenerateRandomAssignment(subject, rule.ID)
			if err := repo.CreateScheduleAssignment(assignment); err != nil {
				slog.Error("无法插入排班分配", slog.String("error", err.Error()))
				continue
			}

			// 在分配生效期内随机挑一天插入例外
			date := assignment.StartDate.AddDate(0, 0, rand.Intn(14))
			exception := utils.GenerateRandomException(subject, date, shiftIDs)
			if err := repo.CreateShiftException(exception); err != nil {
				slog.Error("无法插入班次例外", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入分配和例外成功", slog.Int("count", cnt))
	case 5:
		seed.SeedRealData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
