package models

import (
	"time"
)

// Receipt statuses
const (
	ReceiptStatusPending   = "pending"
	ReceiptStatusConfirmed = "confirmed"
)

// Receipt represents an uploaded grocery receipt. Confirmed receipt items
// become the user's price overrides.
type Receipt struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	StorageKey string     `json:"-"`
	Status     string     `json:"status"`
	OCRText    *string    `json:"ocr_text,omitempty"`
	Total      *float64   `json:"total,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// ReceiptItem is one parsed and (possibly) matched line of a receipt
type ReceiptItem struct {
	ID                   int      `json:"id"`
	ReceiptID            int      `json:"receipt_id"`
	RawText              string   `json:"raw_text"`
	ParsedName           string   `json:"parsed_name"`
	Price                float64  `json:"price"`
	Quantity             float64  `json:"quantity"`
	MatchedIngredientID  *int     `json:"matched_ingredient_id,omitempty"`
	MatchedIngredientName *string `json:"matched_ingredient_name,omitempty"`
	MatchScore           *float64 `json:"match_score,omitempty"`
	Included             bool     `json:"included"`
}

// ReceiptWithItems bundles a receipt with its items
type ReceiptWithItems struct {
	Receipt
	Items []*ReceiptItem `json:"items"`
}

// ParsedReceipt is the output of the OCR text parser
type ParsedReceipt struct {
	Items []ParsedItem `json:"items"`
	Total *float64     `json:"total,omitempty"`
	Date  *time.Time   `json:"date,omitempty"`
}

// ParsedItem is one item line extracted from OCR text
type ParsedItem struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	RawText    string  `json:"raw_text"`
	LineNumber int     `json:"line_number"`
}

// UpdateReceiptItemRequest is the request body for correcting a receipt item
type UpdateReceiptItemRequest struct {
	ParsedName          *string  `json:"parsed_name,omitempty"`
	Price               *float64 `json:"price,omitempty"`
	MatchedIngredientID *int     `json:"matched_ingredient_id,omitempty"`
	Included            *bool    `json:"included,omitempty"`
}
