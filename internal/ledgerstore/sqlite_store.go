package ledgerstore

import (
	"context"
	"fmt"
	"sync"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// SQLiteStore is an implementation of Store that keeps one row per bucket.
type SQLiteStore struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Initialize initializes the store with the given database path.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTable(); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// createTable creates the usage_buckets table if it doesn't exist.
func (s *SQLiteStore) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS usage_buckets (
		scope TEXT NOT NULL,
		bucket TEXT NOT NULL,
		github_api_calls INTEGER NOT NULL DEFAULT 0,
		ai_api_calls INTEGER NOT NULL DEFAULT 0,
		ai_tokens_used INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (scope, bucket)
	);`

	stmt, err := s.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Load reads every bucket.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := NewSnapshot()
	if s.conn == nil {
		return snapshot, fmt.Errorf("sqlite store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return snapshot, err
	}

	selectSQL := `
	SELECT scope, bucket, github_api_calls, ai_api_calls, ai_tokens_used, total_cost
	FROM usage_buckets;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return snapshot, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return snapshot, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		scope := stmt.ColumnText(0)
		bucket := stmt.ColumnText(1)
		totals := Totals{
			GitHubAPICalls: stmt.ColumnInt64(2),
			AIAPICalls:     stmt.ColumnInt64(3),
			AITokensUsed:   stmt.ColumnInt64(4),
			TotalCost:      stmt.ColumnFloat(5),
		}

		switch scope {
		case ScopeDaily:
			snapshot.Daily[bucket] = totals
		case ScopeMonthly:
			snapshot.Monthly[bucket] = totals
		case ScopeTotal:
			snapshot.Total = totals
		}
	}

	return snapshot, nil
}

// Save rewrites every bucket inside one savepoint.
func (s *SQLiteStore) Save(ctx context.Context, snapshot Snapshot) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer sqlitex.Save(s.conn)(&err)

	if err := sqlitex.Exec(s.conn, `DELETE FROM usage_buckets;`, nil); err != nil {
		return fmt.Errorf("failed to clear usage buckets: %w", err)
	}

	for _, day := range snapshot.DailyKeys() {
		if err := s.insert(ScopeDaily, day, snapshot.Daily[day]); err != nil {
			return err
		}
	}
	for month, totals := range snapshot.Monthly {
		if err := s.insert(ScopeMonthly, month, totals); err != nil {
			return err
		}
	}
	return s.insert(ScopeTotal, TotalBucket, snapshot.Total)
}

func (s *SQLiteStore) insert(scope, bucket string, totals Totals) error {
	insertSQL := `
	INSERT INTO usage_buckets (scope, bucket, github_api_calls, ai_api_calls, ai_tokens_used, total_cost)
	VALUES (?, ?, ?, ?, ?, ?);`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// Bind parameters - indices in sqlite are 1-based
	stmt.BindText(1, scope)
	stmt.BindText(2, bucket)
	stmt.BindInt64(3, totals.GitHubAPICalls)
	stmt.BindInt64(4, totals.AIAPICalls)
	stmt.BindInt64(5, totals.AITokensUsed)
	stmt.BindFloat(6, totals.TotalCost)

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to insert %s bucket %s: %w", scope, bucket, err)
	}

	return nil
}
