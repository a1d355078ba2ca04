package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrReceiptItemNotFound = errors.New("receipt item not found")
)

// CreateReceipt inserts a pending receipt and its parsed items
func (db *DB) CreateReceipt(ctx context.Context, userID int, storageKey string, ocrText string, parsed *models.ParsedReceipt, matches []*models.ReceiptItem, retention time.Duration) (*models.Receipt, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	receipt := &models.Receipt{}
	err = tx.QueryRow(ctx, `
		INSERT INTO receipts (user_id, storage_key, status, ocr_text, total, expires_at)
		VALUES ($1, $2, 'pending', $3, $4, NOW() + make_interval(secs => $5))
		RETURNING id, user_id, storage_key, status, ocr_text, total, expires_at, created_at, confirmed_at
	`, userID, storageKey, ocrText, parsed.Total, retention.Seconds()).Scan(
		&receipt.ID, &receipt.UserID, &receipt.StorageKey, &receipt.Status,
		&receipt.OCRText, &receipt.Total, &receipt.ExpiresAt, &receipt.CreatedAt, &receipt.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, item := range matches {
		_, err = tx.Exec(ctx, `
			INSERT INTO receipt_items (receipt_id, raw_text, parsed_name, price, quantity, matched_ingredient_id, match_score, included)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, receipt.ID, item.RawText, item.ParsedName, item.Price, item.Quantity,
			item.MatchedIngredientID, item.MatchScore, item.Included)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceiptByID retrieves a receipt with its items
func (db *DB) GetReceiptByID(ctx context.Context, id, userID int) (*models.ReceiptWithItems, error) {
	receipt := &models.ReceiptWithItems{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, storage_key, status, ocr_text, total, expires_at, created_at, confirmed_at
		FROM receipts
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&receipt.ID, &receipt.UserID, &receipt.StorageKey, &receipt.Status,
		&receipt.OCRText, &receipt.Total, &receipt.ExpiresAt, &receipt.CreatedAt, &receipt.ConfirmedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := db.GetReceiptItems(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt.Items = items
	return receipt, nil
}

// GetReceiptItems retrieves all items for a receipt
func (db *DB) GetReceiptItems(ctx context.Context, receiptID int) ([]*models.ReceiptItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ri.id, ri.receipt_id, ri.raw_text, ri.parsed_name, ri.price, ri.quantity,
		       ri.matched_ingredient_id, i.name, ri.match_score, ri.included
		FROM receipt_items ri
		LEFT JOIN ingredients i ON i.id = ri.matched_ingredient_id
		WHERE ri.receipt_id = $1
		ORDER BY ri.id ASC
	`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.ReceiptItem
	for rows.Next() {
		item := &models.ReceiptItem{}
		err := rows.Scan(
			&item.ID, &item.ReceiptID, &item.RawText, &item.ParsedName, &item.Price, &item.Quantity,
			&item.MatchedIngredientID, &item.MatchedIngredientName, &item.MatchScore, &item.Included,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if items == nil {
		items = []*models.ReceiptItem{}
	}
	return items, nil
}

// ListReceipts returns the user's receipts, newest first
func (db *DB) ListReceipts(ctx context.Context, userID, limit, offset int) ([]*models.Receipt, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM receipts WHERE user_id = $1", userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, storage_key, status, ocr_text, total, expires_at, created_at, confirmed_at
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		r := &models.Receipt{}
		err := rows.Scan(&r.ID, &r.UserID, &r.StorageKey, &r.Status,
			&r.OCRText, &r.Total, &r.ExpiresAt, &r.CreatedAt, &r.ConfirmedAt)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, r)
	}
	return receipts, total, nil
}

// UpdateReceiptItem corrects one parsed line before confirmation
func (db *DB) UpdateReceiptItem(ctx context.Context, itemID, receiptID int, req *models.UpdateReceiptItemRequest) (*models.ReceiptItem, error) {
	item := &models.ReceiptItem{}
	err := db.Pool.QueryRow(ctx, `
		UPDATE receipt_items
		SET parsed_name = COALESCE($3, parsed_name),
		    price = COALESCE($4, price),
		    matched_ingredient_id = COALESCE($5, matched_ingredient_id),
		    included = COALESCE($6, included)
		WHERE id = $1 AND receipt_id = $2
		RETURNING id, receipt_id, raw_text, parsed_name, price, quantity, matched_ingredient_id, match_score, included
	`, itemID, receiptID, req.ParsedName, req.Price, req.MatchedIngredientID, req.Included).Scan(
		&item.ID, &item.ReceiptID, &item.RawText, &item.ParsedName, &item.Price, &item.Quantity,
		&item.MatchedIngredientID, &item.MatchScore, &item.Included,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReceiptItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ConfirmReceipt marks a receipt confirmed and turns every included,
// matched item into a price override for the user
func (db *DB) ConfirmReceipt(ctx context.Context, id, userID int) (*models.ReceiptWithItems, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE receipts
		SET status = 'confirmed', confirmed_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`, id, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrReceiptNotFound
	}

	// Per-unit price from the line total: quantity 0 rows are skipped by
	// the price > 0 guard after division
	_, err = tx.Exec(ctx, `
		INSERT INTO price_overrides (user_id, ingredient_id, price_per_unit)
		SELECT $2, ri.matched_ingredient_id, ri.price / GREATEST(ri.quantity, 1)
		FROM receipt_items ri
		WHERE ri.receipt_id = $1
		  AND ri.included
		  AND ri.matched_ingredient_id IS NOT NULL
		  AND ri.price > 0
		ON CONFLICT (user_id, ingredient_id)
		DO UPDATE SET price_per_unit = EXCLUDED.price_per_unit, updated_at = NOW()
	`, id, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return db.GetReceiptByID(ctx, id, userID)
}

// DeleteReceipt removes a receipt and returns its storage key so the
// caller can delete the stored image
func (db *DB) DeleteReceipt(ctx context.Context, id, userID int) (string, error) {
	var storageKey string
	err := db.Pool.QueryRow(ctx,
		"DELETE FROM receipts WHERE id = $1 AND user_id = $2 RETURNING storage_key",
		id, userID).Scan(&storageKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrReceiptNotFound
	}
	if err != nil {
		return "", err
	}
	return storageKey, nil
}

// CleanupExpiredReceipts removes unconfirmed receipts past their retention
// window, returning the storage keys of the deleted rows
func (db *DB) CleanupExpiredReceipts(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		DELETE FROM receipts
		WHERE status = 'pending' AND expires_at < NOW()
		RETURNING storage_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
