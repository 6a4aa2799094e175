package models

import "github.com/shopspring/decimal"

type SummaryStats struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Users    int64           `json:"users"`
	Products int64           `json:"products"`
	Orders   int64           `json:"orders"`
}

// CategoryTotal is an unrounded per-category aggregate as produced by a store.
type CategoryTotal struct {
	Category  string
	ItemCount int64
	Total     decimal.Decimal
}

// CategoryStat is the rounded row returned to callers.
type CategoryStat struct {
	Category  string          `json:"category"`
	ItemCount int64           `json:"itemCount"`
	Price     decimal.Decimal `json:"price"`
}
