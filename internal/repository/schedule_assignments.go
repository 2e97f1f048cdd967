package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// ErrAssignmentOverlap 表示新分配的生效区间和同一主体已有的分配重叠
var ErrAssignmentOverlap = errors.New("分配的生效区间和已有分配重叠")

// CreateScheduleAssignment 在一个事务里校验非重叠不变量并插入分配。
// 数据库侧还有排他约束兜底，这里的检查负责把冲突转换成友好的错误。
func (r *Repository) CreateScheduleAssignment(assignment *domain.ScheduleAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_assignments
			WHERE subject_type = $1
				AND subject_id = $2
				AND start_date <= COALESCE($4, 'infinity'::date)
				AND COALESCE(end_date, 'infinity'::date) >= $3
		)
	`

	overlapExists := false
	args := []any{assignment.Subject.Type, assignment.Subject.ID, assignment.StartDate, assignment.EndDate}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&overlapExists); err != nil {
		return err
	}
	if overlapExists {
		return ErrAssignmentOverlap
	}

	query = `
		INSERT INTO schedule_assignments (subject_type, subject_id, rule_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args = []any{assignment.Subject.Type, assignment.Subject.ID, assignment.RuleID, assignment.StartDate, assignment.EndDate}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&assignment.ID, &assignment.CreatedAt, &assignment.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetScheduleAssignmentByID(id int64) (*domain.ScheduleAssignment, error) {
	query := `
		SELECT subject_type, subject_id, rule_id, start_date, end_date, created_at, version
		FROM schedule_assignments WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	assignment := &domain.ScheduleAssignment{
		ID: id,
	}

	dst := []any{
		&assignment.Subject.Type,
		&assignment.Subject.ID,
		&assignment.RuleID,
		&assignment.StartDate,
		&assignment.EndDate,
		&assignment.CreatedAt,
		&assignment.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return assignment, nil
}

// GetAssignmentsInRange 返回主体所有和 [startDate, endDate] 相交的分配。
// 这是引擎边界接口的一部分，因此带上调用方的 context。
func (r *Repository) GetAssignmentsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ScheduleAssignment, error) {
	query := `
		SELECT id, subject_type, subject_id, rule_id, start_date, end_date, created_at, version
		FROM schedule_assignments
		WHERE subject_type = $1
			AND subject_id = $2
			AND start_date <= $4
			AND COALESCE(end_date, 'infinity'::date) >= $3
		ORDER BY start_date
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, subject.Type, subject.ID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.ScheduleAssignment, 0)
	for rows.Next() {
		assignment := &domain.ScheduleAssignment{}
		dst := []any{
			&assignment.ID,
			&assignment.Subject.Type,
			&assignment.Subject.ID,
			&assignment.RuleID,
			&assignment.StartDate,
			&assignment.EndDate,
			&assignment.CreatedAt,
			&assignment.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetAssignmentsBySubject(subject domain.Subject) ([]*domain.ScheduleAssignment, error) {
	query := `
		SELECT id, subject_type, subject_id, rule_id, start_date, end_date, created_at, version
		FROM schedule_assignments
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY start_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, subject.Type, subject.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.ScheduleAssignment, 0)
	for rows.Next() {
		assignment := &domain.ScheduleAssignment{}
		dst := []any{
			&assignment.ID,
			&assignment.Subject.Type,
			&assignment.Subject.ID,
			&assignment.RuleID,
			&assignment.StartDate,
			&assignment.EndDate,
			&assignment.CreatedAt,
			&assignment.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// EndScheduleAssignment 通过设置结束日期来结束一个分配。
// 分配从不物理删除，结束后保留，用于精确重建历史排班。
func (r *Repository) EndScheduleAssignment(assignment *domain.ScheduleAssignment, endDate time.Time) error {
	query := `
		UPDATE schedule_assignments
		SET
			end_date = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, endDate, assignment.ID, assignment.Version).Scan(&assignment.Version); err != nil {
		return err
	}

	assignment.EndDate = &endDate
	return nil
}
