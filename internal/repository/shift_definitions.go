package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

func (r *Repository) CreateShiftDefinition(def *domain.ShiftDefinition) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO shift_definitions (name, start_time, end_time, crosses_midnight, break_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args := []any{def.Name, def.StartTime, def.EndTime, def.CrossesMidnight, def.BreakMinutes}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&def.ID, &def.CreatedAt, &def.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftDefinitionByID(id int64) (*domain.ShiftDefinition, error) {
	query := `
		SELECT name, start_time, end_time, crosses_midnight, break_minutes, created_at, version
		FROM shift_definitions WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	def := &domain.ShiftDefinition{
		ID: id,
	}

	dst := []any{&def.Name, &def.StartTime, &def.EndTime, &def.CrossesMidnight, &def.BreakMinutes, &def.CreatedAt, &def.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return def, nil
}

func (r *Repository) GetAllShiftDefinitions() ([]*domain.ShiftDefinition, error) {
	query := `
		SELECT id, name, start_time, end_time, crosses_midnight, break_minutes, created_at, version
		FROM shift_definitions
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]*domain.ShiftDefinition, 0)
	for rows.Next() {
		def := &domain.ShiftDefinition{}
		dst := []any{&def.ID, &def.Name, &def.StartTime, &def.EndTime, &def.CrossesMidnight, &def.BreakMinutes, &def.CreatedAt, &def.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return defs, nil
}

// GetShiftDefinitionsByIDs 按 ID 批量获取班次定义，供引擎做冲突检查。
// 这是引擎边界接口的一部分，因此带上调用方的 context。
func (r *Repository) GetShiftDefinitionsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.ShiftDefinition, error) {
	defs := make(map[int64]*domain.ShiftDefinition, len(ids))
	if len(ids) == 0 {
		return defs, nil
	}

	query := `
		SELECT id, name, start_time, end_time, crosses_midnight, break_minutes, created_at, version
		FROM shift_definitions
		WHERE id = ANY($1)
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		def := &domain.ShiftDefinition{}
		dst := []any{&def.ID, &def.Name, &def.StartTime, &def.EndTime, &def.CrossesMidnight, &def.BreakMinutes, &def.CreatedAt, &def.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		defs[def.ID] = def
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return defs, nil
}

func (r *Repository) UpdateShiftDefinition(def *domain.ShiftDefinition) error {
	query := `
		UPDATE shift_definitions
		SET
			name = $1,
			start_time = $2,
			end_time = $3,
			crosses_midnight = $4,
			break_minutes = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{def.Name, def.StartTime, def.EndTime, def.CrossesMidnight, def.BreakMinutes, def.ID, def.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&def.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShiftDefinition(id int64) error {
	query := `
		DELETE FROM shift_definitions WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
