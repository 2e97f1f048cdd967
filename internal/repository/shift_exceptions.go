package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

func (r *Repository) CreateShiftException(exception *domain.ShiftException) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO shift_exceptions (subject_type, subject_id, date, kind, shift_id, reason_category, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	args := []any{
		exception.Subject.Type,
		exception.Subject.ID,
		exception.Date,
		exception.Kind,
		exception.ShiftID,
		exception.ReasonCategory,
		exception.Severity,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&exception.ID, &exception.CreatedAt, &exception.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftExceptionByID(id int64) (*domain.ShiftException, error) {
	query := `
		SELECT subject_type, subject_id, date, kind, shift_id, reason_category, severity, superseded, superseded_by, created_at, version
		FROM shift_exceptions WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exception := &domain.ShiftException{
		ID: id,
	}

	dst := []any{
		&exception.Subject.Type,
		&exception.Subject.ID,
		&exception.Date,
		&exception.Kind,
		&exception.ShiftID,
		&exception.ReasonCategory,
		&exception.Severity,
		&exception.Superseded,
		&exception.SupersededBy,
		&exception.CreatedAt,
		&exception.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return exception, nil
}

// GetExceptionsInRange 返回主体在 [startDate, endDate] 内所有未被取代的例外。
// 这是引擎边界接口的一部分，因此带上调用方的 context。
func (r *Repository) GetExceptionsInRange(ctx context.Context, subject domain.Subject, startDate time.Time, endDate time.Time) ([]*domain.ShiftException, error) {
	query := `
		SELECT id, subject_type, subject_id, date, kind, shift_id, reason_category, severity, superseded, superseded_by, created_at, version
		FROM shift_exceptions
		WHERE subject_type = $1
			AND subject_id = $2
			AND date BETWEEN $3 AND $4
			AND superseded = FALSE
		ORDER BY date, created_at, id
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, subject.Type, subject.ID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exceptions := make([]*domain.ShiftException, 0)
	for rows.Next() {
		exception := &domain.ShiftException{}
		dst := []any{
			&exception.ID,
			&exception.Subject.Type,
			&exception.Subject.ID,
			&exception.Date,
			&exception.Kind,
			&exception.ShiftID,
			&exception.ReasonCategory,
			&exception.Severity,
			&exception.Superseded,
			&exception.SupersededBy,
			&exception.CreatedAt,
			&exception.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exception)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exceptions, nil
}

// GetExceptionsBySubject 返回主体的全部例外，包括已被取代的，用于审计展示。
func (r *Repository) GetExceptionsBySubject(subject domain.Subject) ([]*domain.ShiftException, error) {
	query := `
		SELECT id, subject_type, subject_id, date, kind, shift_id, reason_category, severity, superseded, superseded_by, created_at, version
		FROM shift_exceptions
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY date, created_at, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, subject.Type, subject.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exceptions := make([]*domain.ShiftException, 0)
	for rows.Next() {
		exception := &domain.ShiftException{}
		dst := []any{
			&exception.ID,
			&exception.Subject.Type,
			&exception.Subject.ID,
			&exception.Date,
			&exception.Kind,
			&exception.ShiftID,
			&exception.ReasonCategory,
			&exception.Severity,
			&exception.Superseded,
			&exception.SupersededBy,
			&exception.CreatedAt,
			&exception.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exception)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exceptions, nil
}

// SupersedeShiftException 用一条新例外取代旧例外。
// 两个操作在同一个事务里完成：插入新例外、把旧例外标记为已被取代。
// 旧例外从不物理删除，审计链必须保持完整。
func (r *Repository) SupersedeShiftException(old *domain.ShiftException, next *domain.ShiftException) error {
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
		INSERT INTO shift_exceptions (subject_type, subject_id, date, kind, shift_id, reason_category, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	args := []any{
		next.Subject.Type,
		next.Subject.ID,
		next.Date,
		next.Kind,
		next.ShiftID,
		next.ReasonCategory,
		next.Severity,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&next.ID, &next.CreatedAt, &next.Version); err != nil {
		return err
	}

	query = `
		UPDATE shift_exceptions
		SET
			superseded = TRUE,
			superseded_by = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	if err := tx.QueryRowContext(ctx, query, next.ID, old.ID, old.Version).Scan(&old.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	old.Superseded = true
	old.SupersededBy = &next.ID
	return nil
}
