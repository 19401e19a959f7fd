package nlq

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var allowedTables = map[string]bool{
	"person":   true,
	"category": true,
	"lab_test": true,
	"result":   true,
}

var forbiddenKeywords = regexp.MustCompile(
	`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke)\b`)

var tableRefs = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)

// ValidateQuery fences generated SQL before execution: a single SELECT
// statement touching only the known analytics tables.
func ValidateQuery(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return fmt.Errorf("empty query")
	}
	if strings.Contains(q, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	if !strings.HasPrefix(strings.ToUpper(q), "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed")
	}
	if m := forbiddenKeywords.FindString(q); m != "" {
		return fmt.Errorf("forbidden keyword: %s", strings.ToLower(m))
	}
	for _, ref := range tableRefs.FindAllStringSubmatch(q, -1) {
		table := strings.ToLower(ref[1])
		if !allowedTables[table] {
			return fmt.Errorf("unknown table: %s", table)
		}
	}
	return nil
}

// Executor runs validated queries inside a read-only transaction.
type Executor struct {
	pool *pgxpool.Pool
}

func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

// Execute validates and runs the query, returning one map per row keyed
// by column name.
func (e *Executor) Execute(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
