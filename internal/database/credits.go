package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

// addCredits credits amount to userID and records the transaction.
func addCredits(q querier, userID, amount int, kind string, refID *int) error {
	if _, err := q.Exec("UPDATE users SET credits = credits + ? WHERE id = ?", amount, userID); err != nil {
		return fmt.Errorf("database: failed to add credits: %w", err)
	}
	return recordTransaction(q, userID, amount, kind, refID)
}

// debitCredits removes amount from userID's balance, failing with
// ErrInsufficientCredits rather than going negative.
func debitCredits(q querier, userID, amount int, kind string, refID *int) error {
	res, err := q.Exec("UPDATE users SET credits = credits - ? WHERE id = ? AND credits >= ?", amount, userID, amount)
	if err != nil {
		return fmt.Errorf("database: failed to debit credits: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientCredits
	}
	return recordTransaction(q, userID, -amount, kind, refID)
}

func recordTransaction(q querier, userID, amount int, kind string, refID *int) error {
	_, err := q.Exec("INSERT INTO credit_transactions (user_id, amount, kind, ref_id, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, amount, kind, refID, now())
	if err != nil {
		return fmt.Errorf("database: failed to record credit transaction: %w", err)
	}
	return nil
}

// GetCreditSummary returns the balance of userID and its latest transactions.
func GetCreditSummary(userID, limit int) (*models.CreditSummary, error) {
	summary := &models.CreditSummary{Transactions: []models.CreditTransaction{}}
	if err := DB.QueryRow("SELECT credits FROM users WHERE id = ?", userID).Scan(&summary.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database: failed to query balance: %w", err)
	}

	rows, err := DB.Query(`SELECT id, user_id, amount, kind, ref_id, created_at FROM credit_transactions
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list credit transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.CreditTransaction
		var ref sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Kind, &ref, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan credit transaction: %w", err)
		}
		t.RefID = nullIntPtr(ref)
		summary.Transactions = append(summary.Transactions, t)
	}
	return summary, rows.Err()
}

// PurchaseCredits adds a credit package to userID's balance. Payment happens elsewhere.
func PurchaseCredits(userID int, packageID string) (int, error) {
	pkg, ok := models.FindCreditPackage(packageID)
	if !ok {
		return 0, fmt.Errorf("%w: unknown credit package %q", ErrInvalidInput, packageID)
	}
	var balance int
	err := withTx(func(tx *sql.Tx) error {
		if err := addCredits(tx, userID, pkg.Credits, models.CreditPurchase, nil); err != nil {
			return err
		}
		return tx.QueryRow("SELECT credits FROM users WHERE id = ?", userID).Scan(&balance)
	})
	return balance, err
}
