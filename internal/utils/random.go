package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleMember,
	domain.RoleScheduler,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// 常见的三班倒班次，跨午夜的夜班放在最后
var shiftPresets = []domain.ShiftDefinition{
	{Name: "早班", StartTime: "08:00:00", EndTime: "16:00:00", CrossesMidnight: false, BreakMinutes: 60},
	{Name: "中班", StartTime: "16:00:00", EndTime: "23:59:00", CrossesMidnight: false, BreakMinutes: 30},
	{Name: "晚班", StartTime: "22:00:00", EndTime: "06:00:00", CrossesMidnight: true, BreakMinutes: 45},
	{Name: "白班", StartTime: "09:00:00", EndTime: "18:00:00", CrossesMidnight: false, BreakMinutes: 90},
}

func GenerateRandomShiftDefinition() *domain.ShiftDefinition {
	preset := shiftPresets[rand.Intn(len(shiftPresets))]
	def := preset
	def.Name = preset.Name + GenerateRandomID(2, 2)
	return &def
}

// GenerateRandomRecurrenceRule 随机生成一个循环规则，周期 2~14 天，
// 每个周期日随机引用一个传入的班次或者休息
func GenerateRandomRecurrenceRule(shiftIDs []int64) *domain.RecurrenceRule {
	cycleLength := rand.Intn(13) + 2

	cycleShifts := make([]*int64, cycleLength)
	for i := range cycleShifts {
		// 大约三分之一的周期日休息
		if rand.Intn(3) == 0 || len(shiftIDs) == 0 {
			continue
		}
		shiftID := shiftIDs[rand.Intn(len(shiftIDs))]
		cycleShifts[i] = &shiftID
	}

	return &domain.RecurrenceRule{
		Name:            "循环规则" + GenerateRandomID(3, 3),
		AnchorDate:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rand.Intn(365)),
		CycleLengthDays: int32(cycleLength),
		CycleShifts:     cycleShifts,
	}
}

// GenerateRandomAssignment 为主体生成一个从今天附近开始的随机分配，约一半是长期有效的
func GenerateRandomAssignment(subject domain.Subject, ruleID int64) *domain.ScheduleAssignment {
	startDate := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -rand.Intn(30))

	assignment := &domain.ScheduleAssignment{
		Subject:   subject,
		RuleID:    ruleID,
		StartDate: startDate,
	}

	if rand.Intn(2) == 0 {
		endDate := startDate.AddDate(0, rand.Intn(6)+1, 0)
		assignment.EndDate = &endDate
	}

	return assignment
}

var reasonCategories = []domain.ReasonCategory{
	domain.ReasonSickLeave,
	domain.ReasonPersonal,
	domain.ReasonSwap,
	domain.ReasonCompensation,
	domain.ReasonTraining,
}

// GenerateRandomException 在指定日期附近生成一个随机例外
func GenerateRandomException(subject domain.Subject, date time.Time, shiftIDs []int64) *domain.ShiftException {
	exception := &domain.ShiftException{
		Subject:        subject,
		Date:           date,
		ReasonCategory: reasonCategories[rand.Intn(len(reasonCategories))],
	}

	if len(shiftIDs) == 0 {
		// 没有可引用的班次时只能生成移除例外
		exception.Kind = domain.ExceptionKindRemove
		exception.Severity = domain.SeverityWarning
		return exception
	}

	switch rand.Intn(3) {
	case 0:
		exception.Kind = domain.ExceptionKindRemove
	case 1:
		exception.Kind = domain.ExceptionKindOverride
	case 2:
		exception.Kind = domain.ExceptionKindAdd
	}

	if exception.Kind != domain.ExceptionKindRemove {
		shiftID := shiftIDs[rand.Intn(len(shiftIDs))]
		exception.ShiftID = &shiftID
	}
	exception.Severity = domain.SeverityWarning

	return exception
}
