// Package store is the execution/health audit log: a thin sqlite-backed
// durability layer the execution coordinator writes its state
// transitions to and the health monitor appends samples to. Nothing in
// the gateway resumes from it — it exists so an operator can inspect a
// swap after the fact.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/swaprouter/gateway/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store wraps the sqlite connection and goose-managed schema.
type Store struct {
	conn *sql.DB
}

// Open creates or upgrades the sqlite database at path and returns a
// ready Store.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ExecutionRecord is one row of the execution audit log.
type ExecutionRecord struct {
	ID             int64
	RequestHash    string
	ChainID        int64
	SellToken      string
	BuyToken       string
	Provider       string
	Status         domain.ExecutionStatus
	QuoteAmount    string
	ActualAmount   string
	TxHash         string
	ApprovalTxHash string
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateExecutionRecord inserts a new PENDING row and returns its ID.
func (s *Store) CreateExecutionRecord(ctx context.Context, requestHash string, chainID int64, sellToken, buyToken string) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO execution_records (request_hash, chain_id, sell_token, buy_token, status) VALUES (?, ?, ?, ?, ?)`,
		requestHash, chainID, sellToken, buyToken, domain.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("store: creating execution record: %w", err)
	}
	return res.LastInsertId()
}

// UpdateExecutionStatus advances a record's status and optional
// diagnostic fields. Empty strings leave the corresponding column
// untouched.
func (s *Store) UpdateExecutionStatus(ctx context.Context, id int64, status domain.ExecutionStatus, provider, quoteAmount, actualAmount, txHash, approvalTxHash, execErr string) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE execution_records SET
			status = ?,
			provider = CASE WHEN ? != '' THEN ? ELSE provider END,
			quote_amount = CASE WHEN ? != '' THEN ? ELSE quote_amount END,
			actual_amount = CASE WHEN ? != '' THEN ? ELSE actual_amount END,
			tx_hash = CASE WHEN ? != '' THEN ? ELSE tx_hash END,
			approval_tx_hash = CASE WHEN ? != '' THEN ? ELSE approval_tx_hash END,
			error = CASE WHEN ? != '' THEN ? ELSE error END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		status,
		provider, provider,
		quoteAmount, quoteAmount,
		actualAmount, actualAmount,
		txHash, txHash,
		approvalTxHash, approvalTxHash,
		execErr, execErr,
		id,
	)
	if err != nil {
		return fmt.Errorf("store: updating execution record %d: %w", id, err)
	}
	return nil
}

// GetExecutionRecord fetches one record by ID, for /universal-swap/status.
func (s *Store) GetExecutionRecord(ctx context.Context, id int64) (ExecutionRecord, error) {
	var r ExecutionRecord
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, request_hash, chain_id, sell_token, buy_token, provider, status,
		       quote_amount, actual_amount, tx_hash, approval_tx_hash, error, created_at, updated_at
		FROM execution_records WHERE id = ?`, id,
	).Scan(&r.ID, &r.RequestHash, &r.ChainID, &r.SellToken, &r.BuyToken, &r.Provider, &r.Status,
		&r.QuoteAmount, &r.ActualAmount, &r.TxHash, &r.ApprovalTxHash, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return ExecutionRecord{}, fmt.Errorf("store: fetching execution record %d: %w", id, err)
	}
	return r, nil
}

// RecordHealthSample implements health.Recorder.
func (s *Store) RecordHealthSample(name string, snap domain.ProviderHealth) {
	_, err := s.conn.Exec(
		`INSERT INTO health_samples (provider, status, latency_ms, error_rate) VALUES (?, ?, ?, ?)`,
		name, snap.Status, snap.LatencyMs, snap.ErrorRate,
	)
	if err != nil {
		// Diagnostics logging must never take down a health refresh;
		// log and move on.
		log.Printf("store: recording health sample for %s: %v", name, err)
	}
}
