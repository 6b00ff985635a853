/*
Package sqlite provides the SQLite-backed store for the agency office.

PURPOSE:
  Implements all persistence the HTTP layer and the production
  calculator need. In production the same patterns apply to PostgreSQL,
  only minor SQL dialect differences.

KEY TABLES:
  users:           Identity records linking a login to an agent + role
  agents:          Producer roster with upline links and onboarding status
  carriers:        Insurance carriers
  deals:           Policy sale records
  status_mappings: (carrier, raw status) -> business impact
  threads:         SMS conversations per agent
  messages:        Individual SMS bodies per thread

READ PATHS FOR THE SCOREBOARD (hot path):
  - AgentsByAgency:       roster for admin scoping
  - DealsForProduction:   deals whose schedule can intersect the window
                          (effective within [start - 11 years, end])
  - StatusMappings:       mapping rows for the carriers involved

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/office.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - api/handlers.go: The only consumer of this package
  - production/: Computes scoreboards from rows read here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/keystone/agency-office/agency"
)

const dateLayout = "2006-01-02"

// Store implements all storage for the agency office using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Identity records: a login maps to an agent and a role
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		agency_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'agent',
		created_at TEXT NOT NULL
	);

	-- Producer roster
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		agency_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		upline_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pre_invite',
		last_reminded_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_agency
		ON agents(agency_id);
	CREATE INDEX IF NOT EXISTS idx_agents_upline
		ON agents(upline_id) WHERE upline_id != '';
	CREATE INDEX IF NOT EXISTS idx_agents_status
		ON agents(status);

	-- Carriers
	CREATE TABLE IF NOT EXISTS carriers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Policy sale records
	CREATE TABLE IF NOT EXISTS deals (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		carrier_id TEXT NOT NULL DEFAULT '',
		policy_number TEXT,
		product TEXT,
		client_name TEXT,
		annual_premium TEXT NOT NULL DEFAULT '0',
		billing_cycle TEXT NOT NULL DEFAULT 'monthly',
		effective_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: scoreboard deal fetch by agent and effective date
	CREATE INDEX IF NOT EXISTS idx_deals_agent_effective
		ON deals(agent_id, effective_date);
	CREATE INDEX IF NOT EXISTS idx_deals_status
		ON deals(status);

	-- Carrier status translation
	CREATE TABLE IF NOT EXISTS status_mappings (
		carrier_id TEXT NOT NULL,
		raw_status TEXT NOT NULL,
		impact TEXT NOT NULL,
		PRIMARY KEY (carrier_id, raw_status)
	);

	-- SMS conversations
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		client_name TEXT,
		client_phone TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(agent_id, client_phone)
	);

	CREATE INDEX IF NOT EXISTS idx_threads_agent
		ON threads(agent_id);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_thread_sent
		ON messages(thread_id, sent_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// placeholders builds "?,?,?" for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// =============================================================================
// USERS
// =============================================================================

// User links an authenticated identity to an agent record and a role.
type User struct {
	ID        string
	AgentID   string
	AgencyID  string
	Role      string
	CreatedAt time.Time
}

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// SaveUser inserts or replaces a user record.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, agent_id, agency_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.AgentID, u.AgencyID, u.Role, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser returns a user by id, or nil if not found.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, agency_id, role, created_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.AgentID, &u.AgencyID, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// =============================================================================
// AGENTS
// =============================================================================

// SaveAgent inserts or replaces an agent record.
func (s *Store) SaveAgent(ctx context.Context, a agency.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	var reminded any
	if a.LastRemindedAt != nil {
		reminded = a.LastRemindedAt.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO agents
			(id, agency_id, first_name, last_name, email, phone,
			 upline_id, status, last_reminded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AgencyID, a.FirstName, a.LastName, a.Email, a.Phone,
		a.UplineID, string(a.Status), reminded, a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func scanAgent(row interface{ Scan(...any) error }) (*agency.Agent, error) {
	var a agency.Agent
	var status, createdAt string
	var reminded sql.NullString
	err := row.Scan(&a.ID, &a.AgencyID, &a.FirstName, &a.LastName,
		&a.Email, &a.Phone, &a.UplineID, &status, &reminded, &createdAt)
	if err != nil {
		return nil, err
	}
	a.Status = agency.OnboardingStatus(status)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if reminded.Valid {
		t, perr := time.Parse(time.RFC3339, reminded.String)
		if perr == nil {
			a.LastRemindedAt = &t
		}
	}
	return &a, nil
}

const agentColumns = `id, agency_id, first_name, last_name, email, phone,
	upline_id, status, last_reminded_at, created_at`

// GetAgent returns a single agent, or nil if not found.
func (s *Store) GetAgent(ctx context.Context, id string) (*agency.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanAgent(s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

// AgentsByAgency returns the full roster of an agency in creation
// order. Roster order is the scoreboard tiebreak, so it must be
// deterministic.
func (s *Store) AgentsByAgency(ctx context.Context, agencyID string) ([]agency.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE agency_id = ? ORDER BY created_at, id`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []agency.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// UpdateAgentStatus persists an onboarding transition.
func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agency.OnboardingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InvitedBefore returns agents sitting in "invited" whose last
// reminder (or creation, if never reminded) predates cutoff. Feeds the
// reminder scheduler.
func (s *Store) InvitedBefore(ctx context.Context, cutoff time.Time) ([]agency.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE status = ?
		   AND COALESCE(last_reminded_at, created_at) < ?
		 ORDER BY created_at, id`,
		string(agency.StatusInvited), cutoff.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to list invited agents: %w", err)
	}
	defer rows.Close()

	var agents []agency.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// TouchReminder stamps an agent's last reminder time.
func (s *Store) TouchReminder(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET last_reminded_at = ? WHERE id = ?`,
		at.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to touch reminder: %w", err)
	}
	return nil
}

// =============================================================================
// CARRIERS AND STATUS MAPPINGS
// =============================================================================

// SaveCarrier inserts or replaces a carrier.
func (s *Store) SaveCarrier(ctx context.Context, c agency.Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO carriers (id, name, created_at)
		VALUES (?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save carrier: %w", err)
	}
	return nil
}

// SaveStatusMapping inserts or replaces a status mapping row.
func (s *Store) SaveStatusMapping(ctx context.Context, m agency.StatusMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO status_mappings (carrier_id, raw_status, impact)
		VALUES (?, ?, ?)`,
		m.CarrierID, m.RawStatus, string(m.Impact))
	if err != nil {
		return fmt.Errorf("failed to save status mapping: %w", err)
	}
	return nil
}

// StatusMappings returns all mapping rows for the given carriers.
func (s *Store) StatusMappings(ctx context.Context, carrierIDs []string) ([]agency.StatusMapping, error) {
	if len(carrierIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, len(carrierIDs))
	for i, id := range carrierIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT carrier_id, raw_status, impact FROM status_mappings
		 WHERE carrier_id IN (`+placeholders(len(carrierIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list status mappings: %w", err)
	}
	defer rows.Close()

	var mappings []agency.StatusMapping
	for rows.Next() {
		var m agency.StatusMapping
		var impact string
		if err := rows.Scan(&m.CarrierID, &m.RawStatus, &impact); err != nil {
			return nil, fmt.Errorf("failed to scan status mapping: %w", err)
		}
		m.Impact = agency.Impact(impact)
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// =============================================================================
// DEALS
// =============================================================================

// SaveDeal inserts or replaces a deal record.
func (s *Store) SaveDeal(ctx context.Context, d agency.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO deals
			(id, agent_id, carrier_id, policy_number, product, client_name,
			 annual_premium, billing_cycle, effective_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AgentID, d.CarrierID, d.PolicyNumber, d.Product, d.ClientName,
		d.AnnualPremium.String(), d.BillingCycle,
		d.EffectiveDate.Format(dateLayout), d.Status,
		d.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	return nil
}

const dealColumns = `id, agent_id, carrier_id, policy_number, product, client_name,
	annual_premium, billing_cycle, effective_date, status, created_at`

func scanDeal(rows *sql.Rows) (*agency.Deal, error) {
	var d agency.Deal
	var premium, effective, createdAt string
	err := rows.Scan(&d.ID, &d.AgentID, &d.CarrierID, &d.PolicyNumber,
		&d.Product, &d.ClientName, &premium, &d.BillingCycle,
		&effective, &d.Status, &createdAt)
	if err != nil {
		return nil, err
	}
	// An unparseable premium becomes zero and is skipped downstream.
	d.AnnualPremium, _ = decimal.NewFromString(premium)
	d.EffectiveDate, _ = time.Parse(dateLayout, effective)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// DealFilter narrows ListDeals. Zero values mean "no constraint";
// Limit 0 means no paging.
type DealFilter struct {
	AgentIDs []string
	Status   string
	Limit    int
	Offset   int
}

// ListDeals returns deals matching the filter, newest first.
func (s *Store) ListDeals(ctx context.Context, f DealFilter) ([]agency.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + dealColumns + ` FROM deals WHERE 1=1`
	var args []any
	if len(f.AgentIDs) > 0 {
		query += ` AND agent_id IN (` + placeholders(len(f.AgentIDs)) + `)`
		for _, id := range f.AgentIDs {
			args = append(args, id)
		}
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var deals []agency.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

// DealsForProduction returns the deals whose payment schedule can
// intersect [start, end]. Schedules are bounded to 12 payments at up
// to 12-month spacing, so the last candidate lands 11 years after the
// effective date at most; only deals effective within
// [start - 11 years, end] can contribute.
func (s *Store) DealsForProduction(ctx context.Context, agentIDs []string, start, end time.Time) ([]agency.Deal, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	earliest := start.AddDate(-11, 0, 0)
	args := make([]any, 0, len(agentIDs)+2)
	for _, id := range agentIDs {
		args = append(args, id)
	}
	args = append(args, earliest.Format(dateLayout), end.Format(dateLayout))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dealColumns+` FROM deals
		 WHERE agent_id IN (`+placeholders(len(agentIDs))+`)
		   AND effective_date >= ? AND effective_date <= ?
		 ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list production deals: %w", err)
	}
	defer rows.Close()

	var deals []agency.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

// =============================================================================
// THREADS AND MESSAGES
// =============================================================================

// SaveThread inserts or replaces an SMS thread.
func (s *Store) SaveThread(ctx context.Context, t agency.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO threads (id, agent_id, client_name, client_phone, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.AgentID, t.ClientName, t.ClientPhone, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}
	return nil
}

// GetThread returns a thread by id, or nil if not found.
func (s *Store) GetThread(ctx context.Context, id string) (*agency.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t agency.Thread
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, client_name, client_phone, created_at
		FROM threads WHERE id = ?`, id).
		Scan(&t.ID, &t.AgentID, &t.ClientName, &t.ClientPhone, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

// ThreadsByAgent returns an agent's conversations, newest first.
func (s *Store) ThreadsByAgent(ctx context.Context, agentID string) ([]agency.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, client_name, client_phone, created_at
		FROM threads WHERE agent_id = ?
		ORDER BY created_at DESC, id`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []agency.Thread
	for rows.Next() {
		var t agency.Thread
		var createdAt string
		if err := rows.Scan(&t.ID, &t.AgentID, &t.ClientName, &t.ClientPhone, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// SaveMessage appends a message to a thread.
func (s *Store) SaveMessage(ctx context.Context, m agency.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages (id, thread_id, direction, body, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, string(m.Direction), m.Body, m.SentAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// MessagesByThread returns a thread's messages in send order.
func (s *Store) MessagesByThread(ctx context.Context, threadID string) ([]agency.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, direction, body, sent_at
		FROM messages WHERE thread_id = ?
		ORDER BY sent_at, id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []agency.Message
	for rows.Next() {
		var m agency.Message
		var direction, sentAt string
		if err := rows.Scan(&m.ID, &m.ThreadID, &direction, &m.Body, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Direction = agency.Direction(direction)
		m.SentAt, _ = time.Parse(time.RFC3339, sentAt)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
