package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/voyagent/voyagent/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	memory := strings.Contains(dsn, ":memory:")
	if !memory {
		// WAL lets readers proceed alongside the writer, and the busy
		// timeout makes a second writer wait instead of failing with
		// SQLITE_BUSY, so appends to different sessions don't serialize
		// behind a single pooled connection. Transactions take the write
		// lock up front: a deferred transaction that upgrades mid-way gets
		// SQLITE_BUSY_SNAPSHOT, which the busy handler does not retry.
		// DSN parameters apply to every connection the pool opens.
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// Each pooled connection to :memory: is its own database, so the
		// pool must stay at one; pragmas stick to that one connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn_id TEXT,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_call_id TEXT,
			tool_calls TEXT,
			tool_error INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq)`,
		`CREATE TABLE IF NOT EXISTS turns (
			turn_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			error TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			turn_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (turn_id) REFERENCES turns(turn_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendMessage durably persists one message at the tail of its session.
// The session row is created on first append; the insert and the sequence
// assignment happen in one transaction so a crash cannot leave a gap or a
// half-written tail.
func (s *SQLiteStore) AppendMessage(ctx context.Context, message *domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, created_at) VALUES (?, ?)`,
		message.SessionID, time.Now()); err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`,
		message.SessionID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to assign sequence: %w", err)
	}
	message.Seq = seq

	var toolCalls sql.NullString
	if len(message.ToolCalls) > 0 {
		data, err := json.Marshal(message.ToolCalls)
		if err != nil {
			return fmt.Errorf("failed to marshal tool calls: %w", err)
		}
		toolCalls = sql.NullString{String: string(data), Valid: true}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, turn_id, seq, role, content, tool_call_id, tool_calls, tool_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.TurnID, seq, message.Role,
		message.Content, message.ToolCallID, toolCalls, message.ToolError, message.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return tx.Commit()
}

// Load returns the ordered message history for a session. An unknown
// session id is not an error: it loads as an empty history.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, turn_id, seq, role, content, tool_call_id, tool_calls, tool_error, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var turnID, toolCallID, toolCalls sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &turnID, &msg.Seq, &msg.Role,
			&msg.Content, &toolCallID, &toolCalls, &msg.ToolError, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if turnID.Valid {
			msg.TurnID = turnID.String
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls for %s: %w", msg.MessageID, err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListSessions lists all known session ids, oldest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM sessions ORDER BY created_at, session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateTurn creates a new turn record.
func (s *SQLiteStore) CreateTurn(ctx context.Context, turn *domain.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, session_id, status, started_at) VALUES (?, ?, ?, ?)`,
		turn.TurnID, turn.SessionID, turn.Status, turn.StartedAt)
	return err
}

// GetTurn retrieves a turn by ID.
func (s *SQLiteStore) GetTurn(ctx context.Context, turnID string) (*domain.Turn, error) {
	var turn domain.Turn
	var endedAt sql.NullTime
	var errData sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT turn_id, session_id, status, started_at, ended_at, error FROM turns WHERE turn_id = ?`,
		turnID).Scan(&turn.TurnID, &turn.SessionID, &turn.Status, &turn.StartedAt, &endedAt, &errData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		turn.EndedAt = &endedAt.Time
	}
	if errData.Valid {
		turn.Error = json.RawMessage(errData.String)
	}
	return &turn, nil
}

// CompleteTurn moves a turn to a terminal state.
func (s *SQLiteStore) CompleteTurn(ctx context.Context, turnID string, status domain.TurnStatus, errData []byte) error {
	now := time.Now()
	var errStr sql.NullString
	if errData != nil {
		errStr = sql.NullString{String: string(errData), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE turns SET status = ?, ended_at = ?, error = ? WHERE turn_id = ?`,
		status, now, errStr, turnID)
	return err
}

// AppendEvent records a turn trace event.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *domain.Event) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, turn_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.TurnID, event.Ts, event.Type, payload)
	return err
}

// GetTurnEvents retrieves the ordered trace for a turn.
func (s *SQLiteStore) GetTurnEvents(ctx context.Context, turnID string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, turn_id, ts, type, payload FROM events WHERE turn_id = ? ORDER BY ts ASC, event_id ASC`,
		turnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.TurnID, &event.Ts, &event.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
