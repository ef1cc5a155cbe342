package valuation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/platform/asset"
)

var hundred = decimal.NewFromInt(100)

// Service derives balances, portfolio summaries and dashboard statistics from
// materialized positions and current asset prices.
//
// Cash needs no special path anywhere here: an account's cash balance is an
// ordinary position against a fiat asset, so summing quantity * current_price
// over all positions already includes it.
type Service struct {
	accounts   AccountSource
	assets     AssetSource
	positions  PositionSource
	portfolios PortfolioSource
}

// NewService creates a new valuation service
func NewService(accounts AccountSource, assets AssetSource, positions PositionSource, portfolios PortfolioSource) *Service {
	return &Service{
		accounts:   accounts,
		assets:     assets,
		positions:  positions,
		portfolios: portfolios,
	}
}

// assetLookup memoizes asset reads within one aggregation call
type assetLookup struct {
	assets AssetSource
	cache  map[uuid.UUID]*asset.Asset
}

func newAssetLookup(assets AssetSource) *assetLookup {
	return &assetLookup{assets: assets, cache: make(map[uuid.UUID]*asset.Asset)}
}

func (l *assetLookup) get(ctx context.Context, id uuid.UUID) (*asset.Asset, error) {
	if a, ok := l.cache[id]; ok {
		return a, nil
	}
	a, err := l.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cache[id] = a
	return a, nil
}

// AccountBalance returns the total value of an account: the sum of
// quantity * current_price over all its positions, cash included.
func (s *Service) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	lookup := newAssetLookup(s.assets)
	return s.accountBalance(ctx, accountID, lookup)
}

func (s *Service) accountBalance(ctx context.Context, accountID uuid.UUID, lookup *assetLookup) (decimal.Decimal, error) {
	positions, err := s.positions.ListPositionsByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list positions: %w", err)
	}

	total := decimal.Zero
	for _, pos := range positions {
		a, err := lookup.get(ctx, pos.AssetID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to resolve asset %s: %w", pos.AssetID, err)
		}
		total = total.Add(pos.MarketValue(a.CurrentPrice))
	}

	return total, nil
}

// holdingAccum accumulates one ticker across accounts
type holdingAccum struct {
	asset       *asset.Asset
	quantity    decimal.Decimal
	costBasis   decimal.Decimal
	marketValue decimal.Decimal
}

// PortfolioSummary aggregates the holdings of a portfolio's member accounts
// by ticker and derives the portfolio-level valuation figures.
func (s *Service) PortfolioSummary(ctx context.Context, portfolioID uuid.UUID) (*PortfolioSummary, error) {
	p, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	lookup := newAssetLookup(s.assets)

	summary := &PortfolioSummary{
		ID:       p.ID,
		Name:     p.Name,
		Holdings: []Holding{},
		Accounts: []ConnectedAccount{},
	}

	holdings := make(map[string]*holdingAccum)
	totalValue := decimal.Zero

	for _, accountID := range p.AccountIDs {
		acc, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve member account %s: %w", accountID, err)
		}

		balance, err := s.accountBalance(ctx, accountID, lookup)
		if err != nil {
			return nil, err
		}
		totalValue = totalValue.Add(balance)

		summary.Accounts = append(summary.Accounts, ConnectedAccount{
			ID:       acc.ID,
			Name:     acc.Name,
			Currency: acc.Currency,
			Balance:  balance,
		})

		positions, err := s.positions.ListPositionsByAccount(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list positions: %w", err)
		}

		for _, pos := range positions {
			a, err := lookup.get(ctx, pos.AssetID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve asset %s: %w", pos.AssetID, err)
			}
			if a.IsCash() {
				// Cash counts toward total value via the account balance but
				// is not a holding; it has no meaningful profit.
				continue
			}

			h, ok := holdings[a.Ticker]
			if !ok {
				h = &holdingAccum{asset: a}
				holdings[a.Ticker] = h
			}
			h.quantity = h.quantity.Add(pos.TotalQuantity)
			h.costBasis = h.costBasis.Add(pos.CostBasis())
			h.marketValue = h.marketValue.Add(pos.MarketValue(a.CurrentPrice))
		}
	}

	tickers := make([]string, 0, len(holdings))
	for ticker := range holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	totalProfit := decimal.Zero
	totalCostBasis := decimal.Zero

	for _, ticker := range tickers {
		h := holdings[ticker]

		blendedCost := decimal.Zero
		if h.quantity.IsPositive() {
			blendedCost = h.costBasis.Div(h.quantity)
		}

		profit := h.marketValue.Sub(h.costBasis)
		totalProfit = totalProfit.Add(profit)
		totalCostBasis = totalCostBasis.Add(h.costBasis)

		summary.Holdings = append(summary.Holdings, Holding{
			AssetID:       h.asset.ID,
			Ticker:        h.asset.Ticker,
			Name:          h.asset.Name,
			Quantity:      h.quantity,
			AverageCost:   blendedCost,
			CurrentPrice:  h.asset.CurrentPrice,
			MarketValue:   h.marketValue,
			CostBasis:     h.costBasis,
			Profit:        profit,
			ProfitPercent: percentOf(profit, h.costBasis),
			Allocation:    percentOf(h.marketValue, totalValue),
		})
	}

	summary.TotalValue = totalValue
	summary.TotalProfit = totalProfit
	summary.TotalProfitPercent = percentOf(totalProfit, totalCostBasis)

	return summary, nil
}

// DashboardStats computes the system-wide overview across all accounts.
//
// The 24-hour change fields are fixed at zero: no price history is retained,
// so there is nothing to diff against.
func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	lookup := newAssetLookup(s.assets)

	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	netWorth := decimal.Zero
	for _, acc := range accounts {
		balance, err := s.accountBalance(ctx, acc.ID, lookup)
		if err != nil {
			return nil, err
		}
		netWorth = netWorth.Add(balance)
	}

	positions, err := s.positions.ListAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	allocationByType := make(map[asset.AssetType]decimal.Decimal)

	// Ticker aggregation for profit and top performer. Positions arrive
	// ordered by asset ID ascending; ties on profit percent resolve to the
	// first ticker encountered in that order.
	type tickerAccum struct {
		name        string
		costBasis   decimal.Decimal
		marketValue decimal.Decimal
	}
	tickerTotals := make(map[string]*tickerAccum)
	tickerOrder := []string{}

	for _, pos := range positions {
		a, err := lookup.get(ctx, pos.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve asset %s: %w", pos.AssetID, err)
		}

		marketValue := pos.MarketValue(a.CurrentPrice)
		allocationByType[a.Type] = allocationByType[a.Type].Add(marketValue)

		if a.IsCash() {
			// Cash contributes to net worth and allocation but has no
			// profit to track.
			continue
		}

		acc, ok := tickerTotals[a.Ticker]
		if !ok {
			acc = &tickerAccum{name: a.Name}
			tickerTotals[a.Ticker] = acc
			tickerOrder = append(tickerOrder, a.Ticker)
		}
		acc.costBasis = acc.costBasis.Add(pos.CostBasis())
		acc.marketValue = acc.marketValue.Add(marketValue)
	}

	totalProfit := decimal.Zero
	var topName *string
	var topChange *decimal.Decimal

	for _, ticker := range tickerOrder {
		acc := tickerTotals[ticker]
		profit := acc.marketValue.Sub(acc.costBasis)
		totalProfit = totalProfit.Add(profit)

		if !acc.costBasis.IsPositive() {
			continue
		}
		change := percentOf(profit, acc.costBasis)
		if topChange == nil || change.GreaterThan(*topChange) {
			name := acc.name
			topName = &name
			c := change
			topChange = &c
		}
	}

	stats := &DashboardStats{
		NetWorth:    netWorth,
		TotalProfit: totalProfit,

		TopPerformerName:   topName,
		TopPerformerChange: topChange,
		Allocation:         []AllocationItem{},
	}

	types := make([]string, 0, len(allocationByType))
	for t := range allocationByType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	for _, t := range types {
		value := allocationByType[asset.AssetType(t)]
		stats.Allocation = append(stats.Allocation, AllocationItem{
			Label:      t,
			Value:      value,
			Percentage: percentOf(value, netWorth),
		})
	}

	return stats, nil
}

// percentOf returns part/whole*100, or 0 when the denominator is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
