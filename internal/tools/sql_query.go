package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/agentforge/agentforge/internal/domain"
)

// SQLQueryTool executes read-only SELECT queries against the service
// database.
//
// The guard is intentionally conservative: the query must begin with "select"
// and the forbidden keywords are matched as substrings, so an identifier like
// "created_at" is rejected too. Known limitation, kept on purpose.
type SQLQueryTool struct {
	db *sql.DB
}

var forbiddenSQLKeywords = []string{"insert", "update", "delete", "drop", "alter", "create", "truncate"}

// NewSQLQueryTool creates the sql_query tool over the given handle.
func NewSQLQueryTool(db *sql.DB) *SQLQueryTool {
	return &SQLQueryTool{db: db}
}

func (t *SQLQueryTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "sql_query",
		Description: "Execute a read-only SQL query on the database. Only SELECT statements are allowed. Use this to retrieve structured data.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The SQL SELECT query to execute"
				}
			},
			"required": ["query"]
		}`),
	}
}

type sqlQueryArgs struct {
	Query string `json:"query"`
}

func (t *SQLQueryTool) Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result {
	var a sqlQueryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Errorf("sql query failed: %v", err)
	}

	queryLower := strings.ToLower(strings.TrimSpace(a.Query))
	if !strings.HasPrefix(queryLower, "select") {
		return Errorf("only SELECT queries are allowed")
	}
	for _, kw := range forbiddenSQLKeywords {
		if strings.Contains(queryLower, kw) {
			return Errorf("query contains forbidden keyword: %s", kw)
		}
	}

	rows, err := t.db.QueryContext(ctx, a.Query)
	if err != nil {
		return Errorf("sql query failed: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Errorf("sql query failed: %v", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Errorf("sql query failed: %v", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = vals[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return Errorf("sql query failed: %v", err)
	}

	return Result{Data: map[string]any{
		"rows":  results,
		"count": len(results),
	}}
}
