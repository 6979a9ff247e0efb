package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single financial transaction from any source.
type Transaction struct {
	Date         time.Time
	ID           string
	Description  string // Raw transaction description from the bank
	MerchantName string // Cleaned merchant name
	AccountID    string
	Hash         string
	Type         string // Transaction type (e.g., DEBIT, CHECK, PAYMENT, ATM)
	CheckNumber  string // Check number if applicable
	Amount       float64
}

// GenerateHash creates a unique hash for import deduplication.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.MerchantName,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
