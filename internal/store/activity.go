package store

import (
	"database/sql"
	"fmt"

	"meritboard/internal/model"
	"meritboard/internal/regiontime"
)

// ActivityStore records and queries the audit trail. Every mutating handler
// writes exactly one row here per applied change.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

const activityCols = `a.id, a.action_type, a.target_type, a.target_id, a.details, a.created_by, COALESCE(u.username, ''), a.created_at`

const activityFrom = ` FROM activity_logs a LEFT JOIN users u ON a.created_by = u.id`

func scanActivity(scanner interface{ Scan(...any) error }) (*model.ActivityLog, error) {
	var a model.ActivityLog
	var targetID, createdBy sql.NullInt64
	err := scanner.Scan(&a.ID, &a.ActionType, &a.TargetType, &targetID, &a.Details, &createdBy, &a.CreatorName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if targetID.Valid {
		a.TargetID = &targetID.Int64
	}
	if createdBy.Valid {
		a.CreatedBy = &createdBy.Int64
	}
	return &a, nil
}

func (s *ActivityStore) Record(actionType, targetType string, targetID *int64, details string, createdBy *int64) error {
	_, err := s.db.Exec(
		`INSERT INTO activity_logs (action_type, target_type, target_id, details, created_by) VALUES (?, ?, ?, ?, ?)`,
		actionType, targetType, targetID, details, createdBy,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ActivityFilter narrows List. Zero values mean "no restriction".
type ActivityFilter struct {
	ActionType string
	TargetType string
	Window     *regiontime.Window
	Page       int
	PerPage    int
}

// List returns a page of log entries, newest first.
func (s *ActivityStore) List(f ActivityFilter) ([]model.ActivityLog, model.Pagination, error) {
	where := `WHERE 1 = 1`
	var args []any
	if f.ActionType != "" {
		where += ` AND a.action_type = ?`
		args = append(args, f.ActionType)
	}
	if f.TargetType != "" {
		where += ` AND a.target_type = ?`
		args = append(args, f.TargetType)
	}
	if f.Window != nil {
		where += ` AND a.created_at >= ? AND a.created_at <= ?`
		args = append(args, sqlTime(f.Window.Start), sqlTime(f.Window.End))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM activity_logs a `+where, args...).Scan(&total); err != nil {
		return nil, model.Pagination{}, fmt.Errorf("count activity logs: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage, 50)
	query := `SELECT ` + activityCols + activityFrom + ` ` + where + ` ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, model.Pagination{}, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Pagination{}, err
	}
	return logs, model.NewPagination(page, perPage, total), nil
}
