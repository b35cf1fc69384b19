package store

import (
	"database/sql"
	"fmt"

	"meritboard/internal/model"
	"meritboard/internal/regiontime"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, name, is_active, created_by, created_at`

func (s *MemberStore) Create(name string, createdBy int64) (*model.Member, error) {
	result, err := s.db.Exec(`INSERT INTO members (name, created_by) VALUES (?, ?)`, name, createdBy)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetActive returns the member only if it has not been soft-deleted.
func (s *MemberStore) GetActive(id int64) (*model.Member, error) {
	m, err := s.GetByID(id)
	if err != nil || m == nil {
		return m, err
	}
	if !m.IsActive {
		return nil, nil
	}
	return m, nil
}

func (s *MemberStore) NameExists(name string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE name = ? AND is_active = 1 AND id != ?`, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check member name: %w", err)
	}
	return n > 0, nil
}

// ListSummaries returns active members with point counts aggregated over the
// given window (nil = all time), ordered by total points descending.
func (s *MemberStore) ListSummaries(w *regiontime.Window) ([]model.MemberSummary, error) {
	query := `
		SELECT m.id, m.name, m.created_at,
			COALESCE(SUM(CASE WHEN p.point_type = 'positive' THEN 1 ELSE 0 END), 0) AS positive_count,
			COALESCE(SUM(CASE WHEN p.point_type = 'negative' THEN 1 ELSE 0 END), 0) AS negative_count
		FROM members m
		LEFT JOIN points p ON p.member_id = m.id AND p.is_active = 1`
	var args []any
	if w != nil {
		query += ` AND p.created_at >= ? AND p.created_at <= ?`
		args = append(args, sqlTime(w.Start), sqlTime(w.End))
	}
	query += `
		WHERE m.is_active = 1
		GROUP BY m.id, m.name, m.created_at
		ORDER BY (positive_count - negative_count) DESC, m.name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query member summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.MemberSummary
	for rows.Next() {
		var ms model.MemberSummary
		if err := rows.Scan(&ms.ID, &ms.Name, &ms.CreatedAt, &ms.PositiveCount, &ms.NegativeCount); err != nil {
			return nil, fmt.Errorf("scan member summary: %w", err)
		}
		ms.TotalPoints = ms.PositiveCount - ms.NegativeCount
		summaries = append(summaries, ms)
	}
	return summaries, rows.Err()
}

func (s *MemberStore) UpdateName(id int64, name string) (*model.Member, error) {
	_, err := s.db.Exec(`UPDATE members SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// SoftDelete deactivates the member and all their points in one transaction.
func (s *MemberStore) SoftDelete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE members SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	if _, err := tx.Exec(`UPDATE points SET is_active = 0 WHERE member_id = ?`, id); err != nil {
		return fmt.Errorf("deactivate member points: %w", err)
	}
	return tx.Commit()
}

// Stats assembles the member-detail statistics. The chat-activity counter is
// restricted to the supplied window; week-over-week numbers use fixed 7-day
// windows ending now.
func (s *MemberStore) Stats(id int64, w *regiontime.Window) (*model.MemberStats, error) {
	var stats model.MemberStats
	var err error

	if stats.TotalPositive, err = s.countPoints(id, model.PointPositive, "", nil); err != nil {
		return nil, err
	}
	if stats.TotalNegative, err = s.countPoints(id, model.PointNegative, "", nil); err != nil {
		return nil, err
	}

	currentWeek := regiontime.Range("week", "", "")
	previousWeek := &regiontime.Window{
		Start: currentWeek.Start.AddDate(0, 0, -7),
		End:   currentWeek.Start,
	}

	if stats.CurrentWeekPositive, err = s.countPoints(id, model.PointPositive, "", currentWeek); err != nil {
		return nil, err
	}
	if stats.CurrentWeekNegative, err = s.countPoints(id, model.PointNegative, "", currentWeek); err != nil {
		return nil, err
	}
	if stats.PreviousWeekPositive, err = s.countPoints(id, model.PointPositive, "", previousWeek); err != nil {
		return nil, err
	}
	if stats.PreviousWeekNegative, err = s.countPoints(id, model.PointNegative, "", previousWeek); err != nil {
		return nil, err
	}

	chatWindow := w
	if chatWindow == nil {
		chatWindow = currentWeek
	}
	if stats.FilteredChatActivity, err = s.countPoints(id, model.PointPositive, model.CategoryChatActivity, chatWindow); err != nil {
		return nil, err
	}

	stats.Performance = model.ClassifyPerformance(
		stats.CurrentWeekPositive-stats.CurrentWeekNegative,
		stats.PreviousWeekPositive-stats.PreviousWeekNegative,
	)
	return &stats, nil
}

func (s *MemberStore) countPoints(memberID int64, pointType, category string, w *regiontime.Window) (int, error) {
	query := `SELECT COUNT(*) FROM points WHERE member_id = ? AND point_type = ? AND is_active = 1`
	args := []any{memberID, pointType}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if w != nil {
		query += ` AND created_at >= ? AND created_at <= ?`
		args = append(args, sqlTime(w.Start), sqlTime(w.End))
	}
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}
