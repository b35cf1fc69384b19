package store

import (
	"database/sql"
	"fmt"

	"meritboard/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `u.id, u.username, u.role, u.first_login, u.is_active, u.created_by, u.created_at, COALESCE(c.username, '')`

const userFrom = ` FROM users u LEFT JOIN users c ON u.created_by = c.id`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var createdBy sql.NullInt64
	err := scanner.Scan(&u.ID, &u.Username, &u.Role, &u.FirstLogin, &u.IsActive, &createdBy, &u.CreatedAt, &u.CreatorName)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		u.CreatedBy = &createdBy.Int64
	}
	return &u, nil
}

// Create inserts a user with the given bcrypt hash. createdBy is nil only for
// the bootstrap root leader.
func (s *UserStore) Create(username, passwordHash, role string, createdBy *int64) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, password_hash, role, created_by) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+userFrom+` WHERE u.id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByUsername returns the user regardless of active state, so callers can
// distinguish "taken" from "taken by an inactive account".
func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+userFrom+` WHERE u.username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// List returns active users, newest first, with creator names resolved.
func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + userFrom + ` WHERE u.is_active = 1 ORDER BY u.created_at DESC, u.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Update(id int64, username, role string) (*model.User, error) {
	_, err := s.db.Exec(`UPDATE users SET username = ?, role = ? WHERE id = ?`, username, role, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// PasswordHash returns the stored bcrypt hash for login checks.
func (s *UserStore) PasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

// SetPassword replaces the hash and sets the first_login flag, which forces a
// password change on the next login when true.
func (s *UserStore) SetPassword(id int64, passwordHash string, firstLogin bool) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ?, first_login = ? WHERE id = ?`, passwordHash, firstLogin, id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *UserStore) Deactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

func (s *UserStore) Reactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE users SET is_active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("reactivate user: %w", err)
	}
	return nil
}

func (s *UserStore) UsernameExists(username string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ? AND id != ?`, username, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// HardDeleteWithCreations permanently removes a user together with every row
// they created. Only the force-create flow calls this; everything else uses
// soft deactivation.
func (s *UserStore) HardDeleteWithCreations(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM activity_logs WHERE created_by = ?`,
		`DELETE FROM points WHERE created_by = ?`,
		`DELETE FROM members WHERE created_by = ?`,
		`DELETE FROM sessions WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("hard delete user: %w", err)
		}
	}
	return tx.Commit()
}

// EnsureRootLeader creates the bootstrap leader account if no root account
// exists yet. Returns the root user and whether it was created by this call.
func (s *UserStore) EnsureRootLeader(username, passwordHash string) (*model.User, bool, error) {
	row := s.db.QueryRow(`SELECT ` + userCols + userFrom + ` WHERE u.created_by IS NULL ORDER BY u.id LIMIT 1`)
	existing, err := scanUser(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("find root leader: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	u, err := s.Create(username, passwordHash, model.RoleLeader, nil)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
