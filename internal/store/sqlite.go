package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hackfund/server/internal/domain"
	"github.com/hackfund/server/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hackathons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		budget INTEGER NOT NULL,
		max_members_per_team INTEGER NOT NULL,
		sponsors_json TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		created_by TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hackathon_code TEXT NOT NULL,
		budget INTEGER NOT NULL,
		spent INTEGER NOT NULL DEFAULT 0,
		final_rank TEXT NOT NULL,
		achievements_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_teams_created ON teams(created_at);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		PRIMARY KEY (team_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL,
		catalog_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_team ON transactions(team_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user profile by user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, email, full_name, role, last_seen_at, created_at, updated_at
		FROM user_profiles WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.UserProfile
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Email, &user.FullName, &user.Role,
		&lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user profile.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.UserProfile) error {
	query := `
	INSERT INTO user_profiles (user_id, email, full_name, role, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		email = excluded.email,
		full_name = excluded.full_name,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Email, user.FullName, user.Role,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateUserRole sets the role for a user profile.
func (s *SQLiteStore) UpdateUserRole(ctx context.Context, userID, role string) error {
	query := `UPDATE user_profiles SET role = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, role, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE user_profiles SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// userSortColumns is the allowlist for ListUsers ordering.
var userSortColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"last_seen_at": true,
	"email":        true,
	"full_name":    true,
	"role":         true,
}

// ListUsers returns all user profiles ordered by the given column.
func (s *SQLiteStore) ListUsers(ctx context.Context, sortBy, sortOrder string) ([]*domain.UserProfile, error) {
	if !userSortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT user_id, email, full_name, role, last_seen_at, created_at, updated_at
		FROM user_profiles ORDER BY %s %s`, sortBy, order)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeRows(rows, "users")

	var users []*domain.UserProfile
	for rows.Next() {
		var user domain.UserProfile
		var lastSeen, createdAt, updatedAt int64
		if err := rows.Scan(&user.UserID, &user.Email, &user.FullName, &user.Role,
			&lastSeen, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		user.LastSeenAt = time.Unix(lastSeen, 0)
		user.CreatedAt = time.Unix(createdAt, 0)
		user.UpdatedAt = time.Unix(updatedAt, 0)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CreateHackathon persists a new hackathon.
func (s *SQLiteStore) CreateHackathon(ctx context.Context, h *domain.Hackathon) error {
	sponsors, err := json.Marshal(h.Sponsors)
	if err != nil {
		return fmt.Errorf("marshal sponsors: %w", err)
	}

	query := `
	INSERT INTO hackathons (id, name, code, budget, max_members_per_team, sponsors_json, status, created_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var createdBy interface{}
	if h.CreatedBy != "" {
		createdBy = h.CreatedBy
	}

	_, err = s.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Code, int64(h.Budget), h.MaxMembersPerTeam,
		string(sponsors), h.Status, createdBy, h.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert hackathon: %w", err)
	}
	return nil
}

// GetHackathonByCode retrieves a hackathon by its join code.
func (s *SQLiteStore) GetHackathonByCode(ctx context.Context, code string) (*domain.Hackathon, error) {
	query := `
		SELECT id, name, code, budget, max_members_per_team, sponsors_json, status, created_by, created_at
		FROM hackathons WHERE code = ?`

	row := s.db.QueryRowContext(ctx, query, code)

	h, err := scanHackathon(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan hackathon row: %w", err)
	}
	return h, nil
}

func scanHackathon(scan func(dest ...interface{}) error) (*domain.Hackathon, error) {
	var h domain.Hackathon
	var budget, createdAt int64
	var sponsorsJSON string
	var createdBy sql.NullString

	err := scan(&h.ID, &h.Name, &h.Code, &budget, &h.MaxMembersPerTeam,
		&sponsorsJSON, &h.Status, &createdBy, &createdAt)
	if err != nil {
		return nil, err
	}

	h.Budget = domain.Cents(budget)
	h.CreatedBy = createdBy.String
	h.CreatedAt = time.Unix(createdAt, 0)
	if err := json.Unmarshal([]byte(sponsorsJSON), &h.Sponsors); err != nil {
		return nil, fmt.Errorf("unmarshal sponsors: %w", err)
	}
	return &h, nil
}

// ListHackathonStats returns hackathons newest-first with aggregate counts.
func (s *SQLiteStore) ListHackathonStats(ctx context.Context) ([]*domain.HackathonStats, error) {
	query := `
		SELECT h.id, h.name, h.code, h.budget, h.max_members_per_team,
		       h.sponsors_json, h.status, h.created_by, h.created_at,
		       COUNT(DISTINCT t.id) AS teams_count,
		       COUNT(tm.user_id) AS total_members
		FROM hackathons h
		LEFT JOIN teams t ON t.hackathon_code = h.code
		LEFT JOIN team_members tm ON tm.team_id = t.id
		GROUP BY h.id
		ORDER BY h.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query hackathon stats: %w", err)
	}
	defer closeRows(rows, "hackathon stats")

	var stats []*domain.HackathonStats
	for rows.Next() {
		var st domain.HackathonStats
		var budget, createdAt int64
		var sponsorsJSON string
		var createdBy sql.NullString

		if err := rows.Scan(&st.ID, &st.Name, &st.Code, &budget, &st.MaxMembersPerTeam,
			&sponsorsJSON, &st.Status, &createdBy, &createdAt,
			&st.TeamsCount, &st.TotalMembers); err != nil {
			return nil, fmt.Errorf("scan hackathon stats row: %w", err)
		}

		st.Budget = domain.Cents(budget)
		st.CreatedBy = createdBy.String
		st.CreatedAt = time.Unix(createdAt, 0)
		if err := json.Unmarshal([]byte(sponsorsJSON), &st.Sponsors); err != nil {
			return nil, fmt.Errorf("unmarshal sponsors: %w", err)
		}
		stats = append(stats, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hackathon stats: %w", err)
	}
	return stats, nil
}

// CreateTeam persists a team and its member rows atomically.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team *domain.Team, members []domain.TeamMember) error {
	achievements, err := json.Marshal(team.Achievements)
	if err != nil {
		return fmt.Errorf("marshal achievements: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to rollback create team", "error", rbErr)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO teams (id, name, hackathon_code, budget, spent, final_rank, achievements_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		team.ID, team.Name, team.HackathonCode, int64(team.Budget), int64(team.Spent),
		team.FinalRank, string(achievements), team.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	for _, m := range members {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id, role, joined_at)
			VALUES (?, ?, ?, ?)`,
			team.ID, m.UserID, m.Role, m.JoinedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert team member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create team: %w", err)
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (s *SQLiteStore) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `
		SELECT id, name, hackathon_code, budget, spent, final_rank, achievements_json, created_at
		FROM teams WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, teamID)

	team, err := scanTeam(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan team row: %w", err)
	}
	return team, nil
}

func scanTeam(scan func(dest ...interface{}) error) (*domain.Team, error) {
	var team domain.Team
	var budget, spent, createdAt int64
	var achievementsJSON string

	err := scan(&team.ID, &team.Name, &team.HackathonCode, &budget, &spent,
		&team.FinalRank, &achievementsJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	team.Budget = domain.Cents(budget)
	team.Spent = domain.Cents(spent)
	team.CreatedAt = time.Unix(createdAt, 0)
	if err := json.Unmarshal([]byte(achievementsJSON), &team.Achievements); err != nil {
		return nil, fmt.Errorf("unmarshal achievements: %w", err)
	}
	return &team, nil
}

// ListTeams returns all teams newest-first.
func (s *SQLiteStore) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	query := `
		SELECT id, name, hackathon_code, budget, spent, final_rank, achievements_json, created_at
		FROM teams ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer closeRows(rows, "teams")

	var teams []*domain.Team
	for rows.Next() {
		team, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

// ListTeamMembers returns member rows for the given team IDs.
func (s *SQLiteStore) ListTeamMembers(ctx context.Context, teamIDs []string) ([]domain.TeamMember, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(teamIDs)), ",")
	query := fmt.Sprintf(`
		SELECT team_id, user_id, role, joined_at
		FROM team_members WHERE team_id IN (%s)`, placeholders)

	args := make([]interface{}, len(teamIDs))
	for i, id := range teamIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer closeRows(rows, "team members")

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		var joinedAt int64
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan team member row: %w", err)
		}
		m.JoinedAt = time.Unix(joinedAt, 0)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return members, nil
}

// AddTeamSpend increments a team's persisted spent column. Retries with
// exponential backoff on SQLITE_BUSY since purchases contend with listing
// queries.
func (s *SQLiteStore) AddTeamSpend(ctx context.Context, teamID string, amount domain.Cents) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.addTeamSpendOnce(ctx, teamID, amount)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("AddTeamSpend hit SQLITE_BUSY, retrying",
				"team_id", teamID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return fmt.Errorf("add team spend for %s: %w", teamID, err)
	}

	return nil
}

func (s *SQLiteStore) addTeamSpendOnce(ctx context.Context, teamID string, amount domain.Cents) error {
	query := `UPDATE teams SET spent = spent + ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, int64(amount), teamID)
	if err != nil {
		return fmt.Errorf("update team spent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("team not found")
	}
	return nil
}

// InsertTransaction records a committed purchase.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
	INSERT INTO transactions (id, team_id, catalog_id, description, amount, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID, txn.TeamID, txn.CatalogID, txn.Description,
		int64(txn.Amount), txn.Status, txn.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns a team's transactions newest-first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, teamID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, team_id, catalog_id, description, amount, status, created_at
		FROM transactions WHERE team_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer closeRows(rows, "transactions")

	var txns []*domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var amount, createdAt int64
		if err := rows.Scan(&txn.ID, &txn.TeamID, &txn.CatalogID, &txn.Description,
			&amount, &txn.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txn.Amount = domain.Cents(amount)
		txn.CreatedAt = time.Unix(createdAt, 0)
		txns = append(txns, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "what", what, "error", err)
	}
}
