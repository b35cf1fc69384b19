package store

import (
	"database/sql"
	"fmt"
	"strings"

	"meritboard/internal/model"
	"meritboard/internal/regiontime"
)

type PointStore struct {
	db *sql.DB
}

func NewPointStore(db *sql.DB) *PointStore {
	return &PointStore{db: db}
}

const pointCols = `p.id, p.member_id, m.name, p.point_type, p.category, p.description, p.created_by, COALESCE(u.username, ''), p.created_at`

const pointFrom = ` FROM points p
	JOIN members m ON p.member_id = m.id
	LEFT JOIN users u ON p.created_by = u.id`

func scanPoint(scanner interface{ Scan(...any) error }) (*model.Point, error) {
	var p model.Point
	err := scanner.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.PointType, &p.Category, &p.Description, &p.CreatedBy, &p.CreatorName, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PointStore) Create(memberID int64, pointType, category, description string, createdBy int64) (*model.Point, error) {
	result, err := s.db.Exec(
		`INSERT INTO points (member_id, point_type, category, description, created_by) VALUES (?, ?, ?, ?, ?)`,
		memberID, pointType, category, description, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert point: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns an active point with member and creator names resolved.
func (s *PointStore) GetByID(id int64) (*model.Point, error) {
	row := s.db.QueryRow(`SELECT `+pointCols+pointFrom+` WHERE p.id = ? AND p.is_active = 1`, id)
	p, err := scanPoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point: %w", err)
	}
	return p, nil
}

// Filter narrows List. Zero values mean "no restriction".
type PointFilter struct {
	MemberID  int64
	PointType string
	Page      int
	PerPage   int
}

// List returns a page of active points, newest first.
func (s *PointStore) List(f PointFilter) ([]model.Point, model.Pagination, error) {
	where := `WHERE p.is_active = 1`
	var args []any
	if f.MemberID > 0 {
		where += ` AND p.member_id = ?`
		args = append(args, f.MemberID)
	}
	if f.PointType != "" {
		where += ` AND p.point_type = ?`
		args = append(args, f.PointType)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM points p `+where, args...).Scan(&total); err != nil {
		return nil, model.Pagination{}, fmt.Errorf("count points: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage, 20)
	query := `SELECT ` + pointCols + pointFrom + ` ` + where + ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []model.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, model.Pagination{}, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Pagination{}, err
	}
	return points, model.NewPagination(page, perPage, total), nil
}

// ListForMember returns a member's active points of one type inside a window,
// newest first. Used by the member-detail notes panel.
func (s *PointStore) ListForMember(memberID int64, pointType string, w *regiontime.Window) ([]model.Point, error) {
	query := `SELECT ` + pointCols + pointFrom + ` WHERE p.member_id = ? AND p.point_type = ? AND p.is_active = 1`
	args := []any{memberID, pointType}
	if w != nil {
		query += ` AND p.created_at >= ? AND p.created_at <= ?`
		args = append(args, sqlTime(w.Start), sqlTime(w.End))
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query member points: %w", err)
	}
	defer rows.Close()

	var points []model.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, *p)
	}
	return points, rows.Err()
}

func (s *PointStore) Update(id int64, category, description string) (*model.Point, error) {
	_, err := s.db.Exec(`UPDATE points SET category = ?, description = ? WHERE id = ?`, category, description, id)
	if err != nil {
		return nil, fmt.Errorf("update point: %w", err)
	}
	return s.GetByID(id)
}

func (s *PointStore) SoftDelete(id int64) error {
	_, err := s.db.Exec(`UPDATE points SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// BulkSoftDelete deactivates the given points and returns the ones that were
// still active, so callers can log each removal.
func (s *PointStore) BulkSoftDelete(ids []int64) ([]model.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(`SELECT `+pointCols+pointFrom+` WHERE p.id IN (`+placeholders+`) AND p.is_active = 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("query points for bulk delete: %w", err)
	}
	var points []model.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	if _, err := s.db.Exec(`UPDATE points SET is_active = 0 WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, fmt.Errorf("bulk delete points: %w", err)
	}
	return points, nil
}

func normalizePage(page, perPage, defaultPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
