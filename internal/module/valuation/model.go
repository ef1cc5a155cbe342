package valuation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is one ticker aggregated across the accounts in scope: summed
// quantity, blended average cost and the derived valuation figures.
type Holding struct {
	AssetID       uuid.UUID       `json:"asset_id"`
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	Allocation    decimal.Decimal `json:"allocation"`
}

// ConnectedAccount is a portfolio member account with its computed balance
type ConnectedAccount struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// PortfolioSummary is the aggregated view of one portfolio
type PortfolioSummary struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	TotalValue         decimal.Decimal    `json:"total_value"`
	TotalProfit        decimal.Decimal    `json:"total_profit"`
	TotalProfitPercent decimal.Decimal    `json:"total_profit_percent"`
	DailyChange        decimal.Decimal    `json:"daily_change"`
	DailyChangePercent decimal.Decimal    `json:"daily_change_percent"`
	Holdings           []Holding          `json:"holdings"`
	Accounts           []ConnectedAccount `json:"accounts"`
}

// AllocationItem is one slice of the dashboard allocation breakdown, grouped
// by asset type
type AllocationItem struct {
	Label      string          `json:"label"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DashboardStats is the system-wide overview
type DashboardStats struct {
	NetWorth             decimal.Decimal  `json:"net_worth"`
	NetWorthChange24h    decimal.Decimal  `json:"net_worth_change_24h"`
	TotalProfit          decimal.Decimal  `json:"total_profit"`
	TotalProfitChange24h decimal.Decimal  `json:"total_profit_change_24h"`
	TopPerformerName     *string          `json:"top_performer_name"`
	TopPerformerChange   *decimal.Decimal `json:"top_performer_change"`
	Allocation           []AllocationItem `json:"allocation"`
}
