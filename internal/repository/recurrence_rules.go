package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/work-calendar/backend/internal/domain"
)

// CreateRecurrenceRule 在一个事务里插入规则和它的周期序列。
// 规则创建后不再修改，调整排班模式时创建新规则并重新分配。
func (r *Repository) CreateRecurrenceRule(rule *domain.RecurrenceRule) error {
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
		INSERT INTO recurrence_rules (name, anchor_date, cycle_length_days)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, rule.Name, rule.AnchorDate, rule.CycleLengthDays).Scan(&rule.ID, &rule.CreatedAt, &rule.Version); err != nil {
		return err
	}

	for i, shiftID := range rule.CycleShifts {
		query = `
			INSERT INTO recurrence_rule_days (rule_id, cycle_index, shift_id)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, rule.ID, i, shiftID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetRecurrenceRuleByID 是引擎边界接口的一部分，因此带上调用方的 context
func (r *Repository) GetRecurrenceRuleByID(ctx context.Context, id int64) (*domain.RecurrenceRule, error) {
	query := `
		SELECT
			rr.name,
			rr.anchor_date,
			rr.cycle_length_days,
			rr.created_at,
			rr.version,
			rrd.cycle_index,
			rrd.shift_id
		FROM recurrence_rules rr
		LEFT JOIN recurrence_rule_days rrd ON rr.id = rrd.rule_id
		WHERE rr.id = $1
		ORDER BY rrd.cycle_index
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rule := &domain.RecurrenceRule{
		ID: id,
	}
	found := false

	for rows.Next() {
		var row struct {
			Name            string
			AnchorDate      time.Time
			CycleLengthDays int32
			CreatedAt       time.Time
			Version         int32

			CycleIndex sql.NullInt32
			ShiftID    sql.NullInt64
		}

		dst := []any{
			&row.Name,
			&row.AnchorDate,
			&row.CycleLengthDays,
			&row.CreatedAt,
			&row.Version,
			&row.CycleIndex,
			&row.ShiftID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			// 说明此时是第一次查到这个规则，需要初始化这个规则
			rule.Name = row.Name
			rule.AnchorDate = row.AnchorDate
			rule.CycleLengthDays = row.CycleLengthDays
			rule.CreatedAt = row.CreatedAt
			rule.Version = row.Version
			rule.CycleShifts = make([]*int64, row.CycleLengthDays)
			found = true
		}

		if !row.CycleIndex.Valid {
			// 说明该规则不存在周期序列，数据不完整但不在这里报错
			continue
		}

		if int(row.CycleIndex.Int32) < len(rule.CycleShifts) && row.ShiftID.Valid {
			shiftID := row.ShiftID.Int64
			rule.CycleShifts[row.CycleIndex.Int32] = &shiftID
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	return rule, nil
}

func (r *Repository) GetAllRecurrenceRules() ([]*domain.RecurrenceRule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			rr.id,
			rr.name,
			rr.anchor_date,
			rr.cycle_length_days,
			rr.created_at,
			rr.version,
			rrd.cycle_index,
			rrd.shift_id
		FROM recurrence_rules rr
		LEFT JOIN recurrence_rule_days rrd ON rr.id = rrd.rule_id
		ORDER BY rr.id, rrd.cycle_index
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rulesMap := make(map[int64]*domain.RecurrenceRule)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			ID              int64
			Name            string
			AnchorDate      time.Time
			CycleLengthDays int32
			CreatedAt       time.Time
			Version         int32

			CycleIndex sql.NullInt32
			ShiftID    sql.NullInt64
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.AnchorDate,
			&row.CycleLengthDays,
			&row.CreatedAt,
			&row.Version,
			&row.CycleIndex,
			&row.ShiftID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		rule, exists := rulesMap[row.ID]
		if !exists {
			// 说明此时是第一次查到这个规则，需要在 map 中初始化这个规则
			rule = &domain.RecurrenceRule{
				ID:              row.ID,
				Name:            row.Name,
				AnchorDate:      row.AnchorDate,
				CycleLengthDays: row.CycleLengthDays,
				CreatedAt:       row.CreatedAt,
				Version:         row.Version,
				CycleShifts:     make([]*int64, row.CycleLengthDays),
			}
			rulesMap[row.ID] = rule
			order = append(order, row.ID)
		}

		if !row.CycleIndex.Valid {
			continue
		}

		if int(row.CycleIndex.Int32) < len(rule.CycleShifts) && row.ShiftID.Valid {
			shiftID := row.ShiftID.Int64
			rule.CycleShifts[row.CycleIndex.Int32] = &shiftID
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	rules := make([]*domain.RecurrenceRule, 0, len(rulesMap))
	for _, id := range order {
		rules = append(rules, rulesMap[id])
	}

	return rules, nil
}

// DeleteRecurrenceRule 只允许删除未被任何分配引用的规则，外键约束会拒绝其他情况
func (r *Repository) DeleteRecurrenceRule(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM recurrence_rules WHERE id = $1
	`

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
