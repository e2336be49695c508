package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys so run deletion cascades to steps
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
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
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			system_prompt TEXT NOT NULL,
			kb_enabled INTEGER NOT NULL DEFAULT 0,
			tools TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_user ON agents(user_id)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			conversation_id TEXT,
			status TEXT NOT NULL,
			input_text TEXT NOT NULL,
			output_text TEXT,
			error_message TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at DATETIME,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_user ON runs(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS run_steps (
			step_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			step_order INTEGER NOT NULL,
			step_type TEXT NOT NULL,
			input_data TEXT,
			output_data TEXT,
			tool_name TEXT,
			error_message TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			duration_ms INTEGER,
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
			UNIQUE (run_id, step_order)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_steps_run ON run_steps(run_id, step_order)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			message_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON conversation_messages(conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_size INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id)`,
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

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// CreateAgent inserts a new agent configuration.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *domain.AgentConfig) error {
	tools, _ := json.Marshal(agent.Tools)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, user_id, name, description, system_prompt, kb_enabled, tools, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.AgentID, agent.UserID, agent.Name, agent.Description, agent.SystemPrompt,
		agent.KBEnabled, string(tools), agent.CreatedAt)
	return err
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, agentID string) (*domain.AgentConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT agent_id, user_id, name, description, system_prompt, kb_enabled, tools, created_at
		 FROM agents WHERE agent_id = ?`, agentID)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// ListAgents lists all agents for a user.
func (s *SQLiteStore) ListAgents(ctx context.Context, userID string) ([]domain.AgentConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, user_id, name, description, system_prompt, kb_enabled, tools, created_at
		 FROM agents WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.AgentConfig
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// DeleteAgent deletes an agent owned by the user.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, agentID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM agents WHERE agent_id = ? AND user_id = ?`, agentID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*domain.AgentConfig, error) {
	var agent domain.AgentConfig
	var description, tools sql.NullString
	err := row.Scan(&agent.AgentID, &agent.UserID, &agent.Name, &description,
		&agent.SystemPrompt, &agent.KBEnabled, &tools, &agent.CreatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		agent.Description = description.String
	}
	if tools.Valid && tools.String != "" {
		if err := json.Unmarshal([]byte(tools.String), &agent.Tools); err != nil {
			return nil, fmt.Errorf("corrupt tools column for agent %s: %w", agent.AgentID, err)
		}
	}
	return &agent, nil
}

// CreateRun inserts a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	var conversationID sql.NullString
	if run.ConversationID != "" {
		conversationID = sql.NullString{String: run.ConversationID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, user_id, agent_id, conversation_id, status, input_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.UserID, run.AgentID, conversationID, run.Status, run.InputText, run.CreatedAt)
	return err
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, user_id, agent_id, conversation_id, status, input_text, output_text,
		        error_message, created_at, started_at, completed_at
		 FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns retrieves runs for a user, newest first, optionally filtered by agent.
func (s *SQLiteStore) ListRuns(ctx context.Context, userID, agentID string, limit int) ([]domain.Run, error) {
	query := `SELECT run_id, user_id, agent_id, conversation_id, status, input_text, output_text,
	                 error_message, created_at, started_at, completed_at
	          FROM runs WHERE user_id = ?`
	args := []any{userID}
	if agentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a run owned by the user; steps cascade.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE run_id = ? AND user_id = ?`, runID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var conversationID, outputText, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&run.RunID, &run.UserID, &run.AgentID, &conversationID, &run.Status,
		&run.InputText, &outputText, &errorMessage, &run.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if conversationID.Valid {
		run.ConversationID = conversationID.String
	}
	if outputText.Valid {
		run.OutputText = outputText.String
	}
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// ClaimRun conditionally transitions pending -> running.
func (s *SQLiteStore) ClaimRun(ctx context.Context, runID string, startedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, started_at = ? WHERE run_id = ? AND status = ?`,
		domain.RunStatusRunning, startedAt, runID, domain.RunStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateRunCompleted commits the terminal completed state with the output.
func (s *SQLiteStore) UpdateRunCompleted(ctx context.Context, runID, outputText string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, output_text = ?, completed_at = ? WHERE run_id = ? AND status = ?`,
		domain.RunStatusCompleted, outputText, completedAt, runID, domain.RunStatusRunning)
	return err
}

// UpdateRunFailed commits the terminal failed state. Pending runs can fail too
// (fatal setup errors before the claim).
func (s *SQLiteStore) UpdateRunFailed(ctx context.Context, runID, errorMessage string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, completed_at = ?
		 WHERE run_id = ? AND status IN (?, ?)`,
		domain.RunStatusFailed, errorMessage, completedAt, runID,
		domain.RunStatusPending, domain.RunStatusRunning)
	return err
}

// CreateRunStep appends a step. Steps are immutable after creation.
func (s *SQLiteStore) CreateRunStep(ctx context.Context, step *domain.RunStep) error {
	var inputData, outputData, toolName, errorMessage sql.NullString
	if len(step.InputData) > 0 {
		inputData = sql.NullString{String: string(step.InputData), Valid: true}
	}
	if len(step.OutputData) > 0 {
		outputData = sql.NullString{String: string(step.OutputData), Valid: true}
	}
	if step.ToolName != "" {
		toolName = sql.NullString{String: step.ToolName, Valid: true}
	}
	if step.ErrorMessage != "" {
		errorMessage = sql.NullString{String: step.ErrorMessage, Valid: true}
	}
	var durationMs sql.NullInt64
	if step.DurationMs != nil {
		durationMs = sql.NullInt64{Int64: *step.DurationMs, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_steps (step_id, run_id, step_order, step_type, input_data, output_data,
		                        tool_name, error_message, created_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.StepID, step.RunID, step.StepOrder, step.StepType, inputData, outputData,
		toolName, errorMessage, step.CreatedAt, durationMs)
	return err
}

// GetRunSteps retrieves all steps for a run in order.
func (s *SQLiteStore) GetRunSteps(ctx context.Context, runID string) ([]domain.RunStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_id, run_id, step_order, step_type, input_data, output_data,
		        tool_name, error_message, created_at, duration_ms
		 FROM run_steps WHERE run_id = ? ORDER BY step_order ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.RunStep
	for rows.Next() {
		var step domain.RunStep
		var inputData, outputData, toolName, errorMessage sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&step.StepID, &step.RunID, &step.StepOrder, &step.StepType,
			&inputData, &outputData, &toolName, &errorMessage, &step.CreatedAt, &durationMs); err != nil {
			return nil, err
		}
		if inputData.Valid {
			step.InputData = json.RawMessage(inputData.String)
		}
		if outputData.Valid {
			step.OutputData = json.RawMessage(outputData.String)
		}
		if toolName.Valid {
			step.ToolName = toolName.String
		}
		if errorMessage.Valid {
			step.ErrorMessage = errorMessage.String
		}
		if durationMs.Valid {
			step.DurationMs = &durationMs.Int64
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// CreateConversation inserts a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		conv.ConversationID, conv.UserID, conv.Title, conv.CreatedAt)
	return err
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var title sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, user_id, title, created_at FROM conversations WHERE conversation_id = ?`,
		conversationID).Scan(&conv.ConversationID, &conv.UserID, &title, &conv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		conv.Title = title.String
	}
	return &conv, nil
}

// CreateMessage appends a message to a conversation.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (message_id, conversation_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// GetRecentMessages retrieves the most recent messages in chronological order.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, conversation_id, role, content, created_at
	          FROM conversation_messages WHERE conversation_id = ?
	          ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse into oldest-first order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CreateDocument inserts document metadata.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (doc_id, user_id, filename, file_path, file_size, processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.DocID, doc.UserID, doc.Filename, doc.FilePath, doc.FileSize, doc.Processed, doc.CreatedAt)
	return err
}

// GetDocument retrieves a document owned by the user. A document owned by
// someone else is reported as absent, not as a permission error.
func (s *SQLiteStore) GetDocument(ctx context.Context, docID, userID string) (*domain.Document, error) {
	var doc domain.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_id, user_id, filename, file_path, file_size, processed, created_at
		 FROM documents WHERE doc_id = ? AND user_id = ?`,
		docID, userID).Scan(&doc.DocID, &doc.UserID, &doc.Filename, &doc.FilePath,
		&doc.FileSize, &doc.Processed, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
