package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/sethvargo/go-retry"
)

// ErrNotFound means the target record vanished or was already resolved.
// Always a benign race outcome, never data corruption.
var ErrNotFound = errors.New("not found")

// ErrInsufficientBalance is the business rejection for a redemption the
// participant cannot afford. Checked at commit time inside the debit
// transaction, not at read time.
var ErrInsufficientBalance = errors.New("insufficient balance")

// LedgerStore owns the invariant-bearing state: balances, the approval queue,
// inventory counts and the append-only history. Every mutating operation is a
// single all-or-nothing transaction; no partial application of a multi-row
// change is ever observable.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// WithTx runs fn inside a transaction, retrying the whole unit a bounded
// number of times when SQLite reports the database busy or locked. Business
// errors pass through untouched and are never retried.
func (s *LedgerStore) WithTx(fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(10*time.Millisecond))
	return retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		tx, err := s.db.Begin()
		if err != nil {
			return markRetryable(fmt.Errorf("begin tx: %w", err))
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return markRetryable(err)
		}
		if err := tx.Commit(); err != nil {
			return markRetryable(fmt.Errorf("commit tx: %w", err))
		}
		return nil
	})
}

func markRetryable(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return retry.RetryableError(err)
	}
	return err
}

// CreditApprovedChore increments the participant's balance and appends one
// CHORE_CREDIT history row.
func (s *LedgerStore) CreditApprovedChore(participantID int64, snap model.ChoreSnapshot) (*model.HistoryEntry, error) {
	var entry *model.HistoryEntry
	err := s.WithTx(func(tx *sql.Tx) error {
		var txErr error
		entry, txErr = s.CreditApprovedChoreTx(tx, participantID, snap)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditApprovedChoreTx is the credit operation running inside the caller's
// transaction, so the approval engine can pair it with the pending-action
// deletion as one atomic unit.
func (s *LedgerStore) CreditApprovedChoreTx(tx *sql.Tx, participantID int64, snap model.ChoreSnapshot) (*model.HistoryEntry, error) {
	result, err := tx.Exec(
		`UPDATE participants SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		snap.Points, participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return insertHistoryTx(tx, participantID, model.HistoryChoreCredit, snap.Name, snap.Points, snap.Icon)
}

// DeletePendingTx removes a pending action inside the caller's transaction.
// Zero affected rows means a concurrent approve or reject already resolved
// it; the caller must treat that as ErrNotFound and apply no side effects.
func (s *LedgerStore) DeletePendingTx(tx *sql.Tx, pendingID int64) error {
	result, err := tx.Exec(`DELETE FROM pending_actions WHERE id = ?`, pendingID)
	if err != nil {
		return fmt.Errorf("delete pending action: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitForRedemption decrements the balance by the reward's cost, upserts the
// inventory row and appends one REWARD_DEBIT history row, all in one
// transaction. The sufficiency check is the conditional UPDATE itself, so two
// concurrent redemptions can never both pass on a stale read.
func (s *LedgerStore) DebitForRedemption(participantID int64, snap model.RewardSnapshot) (*model.InventoryItem, *model.HistoryEntry, error) {
	var item *model.InventoryItem
	var entry *model.HistoryEntry

	err := s.WithTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE participants SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND balance >= ?`,
			snap.Cost, participantID, snap.Cost,
		)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			var exists int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM participants WHERE id = ?`, participantID).Scan(&exists); err != nil {
				return fmt.Errorf("check participant: %w", err)
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrInsufficientBalance
		}

		if _, err := tx.Exec(
			`INSERT INTO inventory_items (participant_id, reward_name, icon, count) VALUES (?, ?, ?, 1)
			 ON CONFLICT (participant_id, reward_name, icon) DO UPDATE SET count = count + 1`,
			participantID, snap.Name, snap.Icon,
		); err != nil {
			return fmt.Errorf("upsert inventory item: %w", err)
		}

		row := tx.QueryRow(
			`SELECT `+inventoryCols+` FROM inventory_items WHERE participant_id = ? AND reward_name = ? AND icon = ?`,
			participantID, snap.Name, snap.Icon,
		)
		item, err = scanInventoryItem(row)
		if err != nil {
			return fmt.Errorf("read inventory item: %w", err)
		}

		entry, err = insertHistoryTx(tx, participantID, model.HistoryRewardDebit, snap.Name, snap.Cost, snap.Icon)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, entry, nil
}

// ConsumeInventoryItem decrements the item's count, deleting the row when it
// would reach zero, and appends a REWARD_CONSUMED history row with amount 0.
func (s *LedgerStore) ConsumeInventoryItem(itemID int64) (*model.HistoryEntry, error) {
	var entry *model.HistoryEntry

	err := s.WithTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+inventoryCols+` FROM inventory_items WHERE id = ?`, itemID)
		item, err := scanInventoryItem(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get inventory item: %w", err)
		}

		if item.Count > 1 {
			if _, err := tx.Exec(`UPDATE inventory_items SET count = count - 1 WHERE id = ?`, itemID); err != nil {
				return fmt.Errorf("decrement inventory item: %w", err)
			}
		} else {
			if _, err := tx.Exec(`DELETE FROM inventory_items WHERE id = ?`, itemID); err != nil {
				return fmt.Errorf("delete inventory item: %w", err)
			}
		}

		entry, err = insertHistoryTx(tx, item.ParticipantID, model.HistoryRewardConsumed, item.RewardName, 0, item.Icon)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ResetBalance zeroes the balance and nothing else. Purging the audit trail
// is a separate operation so callers can reset points while keeping history.
func (s *LedgerStore) ResetBalance(participantID int64) error {
	return s.WithTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE participants SET balance = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			participantID,
		)
		if err != nil {
			return fmt.Errorf("reset balance: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// PurgeHistory deletes the participant's history rows. Irreversible;
// a destructive administrative action, not a ledger correction.
func (s *LedgerStore) PurgeHistory(participantID int64) error {
	_, err := s.db.Exec(`DELETE FROM history WHERE participant_id = ?`, participantID)
	if err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}

// --- Reads ---

func scanInventoryItem(scanner interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	var i model.InventoryItem
	err := scanner.Scan(&i.ID, &i.ParticipantID, &i.RewardName, &i.Icon, &i.Count)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const inventoryCols = `id, participant_id, reward_name, icon, count`

func (s *LedgerStore) GetInventoryItem(id int64) (*model.InventoryItem, error) {
	row := s.db.QueryRow(`SELECT `+inventoryCols+` FROM inventory_items WHERE id = ?`, id)
	i, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return i, nil
}

func (s *LedgerStore) ListInventory(participantID int64) ([]model.InventoryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+inventoryCols+` FROM inventory_items WHERE participant_id = ? ORDER BY reward_name ASC`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		i, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

func scanHistoryEntry(scanner interface{ Scan(...any) error }) (*model.HistoryEntry, error) {
	var h model.HistoryEntry
	err := scanner.Scan(&h.ID, &h.ParticipantID, &h.Kind, &h.Name, &h.Amount, &h.Icon, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const historyCols = `id, participant_id, kind, name, amount, icon, created_at`

// ListHistory returns the participant's most recent entries, newest first.
func (s *LedgerStore) ListHistory(participantID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+historyCols+` FROM history WHERE participant_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		participantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		h, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

func insertHistoryTx(tx *sql.Tx, participantID int64, kind, name string, amount int, icon string) (*model.HistoryEntry, error) {
	result, err := tx.Exec(
		`INSERT INTO history (participant_id, kind, name, amount, icon) VALUES (?, ?, ?, ?, ?)`,
		participantID, kind, name, amount, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := tx.QueryRow(`SELECT `+historyCols+` FROM history WHERE id = ?`, id)
	entry, err := scanHistoryEntry(row)
	if err != nil {
		return nil, fmt.Errorf("read history entry: %w", err)
	}
	return entry, nil
}
