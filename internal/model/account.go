package model

import "time"

// AccountType distinguishes payment account kinds.
type AccountType string

const (
	// AccountTypeChecking represents checking accounts.
	AccountTypeChecking AccountType = "checking"
	// AccountTypeSavings represents savings accounts.
	AccountTypeSavings AccountType = "savings"
	// AccountTypeCreditCard represents credit card accounts.
	AccountTypeCreditCard AccountType = "credit_card"
)

// Account represents a payment account that plans and transactions attach to.
type Account struct {
	CreatedAt   time.Time
	ID          string
	Name        string
	Institution string
	Type        AccountType
}
