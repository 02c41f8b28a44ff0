package domain

import "github.com/shopspring/decimal"

// Account is a bank account tracked by a crawler access.
type Account struct {
	ID                       string
	CustomerID               string
	FinancialEntityAccountID string
	Balance                  decimal.Decimal
	AccessID                 string
	AccessURL                string
}
