package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	oasis "github.com/orglang/orgruntime"
)

var _ oasis.MemoryStore = (*Store)(nil)

// tokenPattern matches FTS5 query tokens: runs of word characters.
var tokenPattern = regexp.MustCompile(`\w+`)

// Add records a new fact in long-term memory (§6 MemoryStore.Add).
func (s *Store) Add(ctx context.Context, text string) error {
	start := time.Now()
	s.logger.Debug("sqlite: memory add", "len", len(text))

	id := oasis.NewID()
	now := oasis.NowUnix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO facts (id, text, created_at) VALUES (?, ?, ?)`, id, text, now,
	); err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO facts_fts (fact_id, text) VALUES (?, ?)`, id, text,
	); err != nil {
		return fmt.Errorf("insert fact fts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Debug("sqlite: memory add ok", "id", id, "duration", time.Since(start))
	return nil
}

// GetRelevant returns the k facts whose text best overlaps query's
// keywords, most relevant first (§6 MemoryStore.GetRelevant). Relevance
// is plain FTS5 keyword matching — there is no embedding provider in
// scope here, so this is not semantic search.
func (s *Store) GetRelevant(ctx context.Context, query string, k int) ([]string, error) {
	start := time.Now()
	s.logger.Debug("sqlite: memory get relevant", "query", query, "k", k)

	matchExpr := ftsMatchExpr(query)
	if matchExpr == "" || k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.text FROM facts_fts ft
		 JOIN facts f ON f.id = ft.fact_id
		 WHERE facts_fts MATCH ?
		 ORDER BY ft.rank
		 LIMIT ?`,
		matchExpr, k,
	)
	if err != nil {
		s.logger.Error("sqlite: memory get relevant failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("search facts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}

	s.logger.Debug("sqlite: memory get relevant ok", "returned", len(out), "duration", time.Since(start))
	return out, nil
}

// ftsMatchExpr turns free text into an FTS5 MATCH expression that hits a
// row containing any of the query's keywords; GetRelevant orders the hits
// by FTS5's built-in bm25 rank.
func ftsMatchExpr(query string) string {
	tokens := tokenPattern.FindAllString(query, -1)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// DB returns the underlying *sql.DB, exposed for callers that want to
// share a connection across a Store and tests that inspect raw rows.
func (s *Store) DB() *sql.DB {
	return s.db
}
