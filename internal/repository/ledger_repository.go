package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/vastralabs/photoshoot/internal/models"
)

const mysqlDuplicateEntry = 1062

// LedgerRepository owns credit balances and the append-only transaction
// log. Every balance mutation goes through Debit or Credit so the log
// always sums to the cached balance.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Debit atomically checks the balance and appends a negative transaction.
// The conditional UPDATE on the user row is the per-user write lock:
// concurrent debits for the same user serialize on it, so two debits can
// never both pass a balance that covers only one.
func (r *LedgerRepository) Debit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin debit tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET credits = credits - ?, updated_at = NOW() WHERE id = ? AND credits >= ?`,
		amount, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("debit balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return 0, models.ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_transactions (user_id, delta, reason, correlation_id) VALUES (?, ?, ?, NULLIF(?, ''))`,
		userID, -amount, reason, correlationID); err != nil {
		return 0, fmt.Errorf("append debit transaction: %w", err)
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance after debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit debit: %w", err)
	}
	return balance, nil
}

// Credit appends a positive transaction. A purchase-credit with a
// correlation id that already appears on the ledger fails with
// ErrDuplicateCredit; the unique key on the generated dedupe_key column
// (populated only for purchase-credit rows) enforces the same guard
// structurally even under concurrent callbacks. Other reasons may repeat
// correlation ids freely, so debits and manual adjustments never collide.
func (r *LedgerRepository) Credit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin credit tx: %w", err)
	}
	defer tx.Rollback()

	if reason == models.ReasonPurchaseCredit && correlationID != "" {
		var existing int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM ledger_transactions WHERE reason = ? AND correlation_id = ?`,
			reason, correlationID).Scan(&existing)
		if err != nil {
			return 0, fmt.Errorf("check duplicate credit: %w", err)
		}
		if existing > 0 {
			return 0, models.ErrDuplicateCredit
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_transactions (user_id, delta, reason, correlation_id) VALUES (?, ?, ?, NULLIF(?, ''))`,
		userID, amount, reason, correlationID); err != nil {
		if isDuplicateEntry(err) {
			return 0, models.ErrDuplicateCredit
		}
		return 0, fmt.Errorf("append credit transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = NOW() WHERE id = ?`,
		amount, userID); err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance after credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit credit: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) History(ctx context.Context, userID string, limit int) ([]models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, delta, reason, COALESCE(correlation_id, ''), created_at
FROM ledger_transactions WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger history: %w", err)
	}
	defer rows.Close()

	var txs []models.LedgerTransaction
	for rows.Next() {
		var t models.LedgerTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Delta, &t.Reason, &t.CorrelationID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
