package ledger

import "github.com/shopspring/decimal"

// positionFold replays transactions for one (account, asset) pair and returns
// the resulting total quantity and average cost. The input must be ordered by
// transaction_time ascending.
//
// Buys and deposits add quantity*price+fee to the cost basis. Sells and
// withdrawals remove cost proportionally at the running average, leaving the
// average cost of the remainder unchanged. A dividend with a positive quantity
// is a stock dividend and behaves like a buy; a pure cash dividend does not
// touch the position.
//
// Quantity is reduced unconditionally on sells, so over-selling drives it
// negative. The ledger does not reject that; callers that care must enforce
// quantity limits before recording.
func positionFold(txns []*Transaction) (totalQuantity, averageCost decimal.Decimal) {
	totalQty := decimal.Zero
	totalCost := decimal.Zero

	for _, txn := range txns {
		qty := txn.Quantity
		fee := txn.Fee

		switch txn.Type {
		case TransactionTypeBuy, TransactionTypeDeposit:
			totalCost = totalCost.Add(txn.GrossAmount()).Add(fee)
			totalQty = totalQty.Add(qty)

		case TransactionTypeSell, TransactionTypeWithdraw:
			if totalQty.IsPositive() {
				avg := totalCost.Div(totalQty)
				totalCost = totalCost.Sub(avg.Mul(qty))
			}
			totalQty = totalQty.Sub(qty)

		case TransactionTypeDividend:
			if qty.IsPositive() {
				totalCost = totalCost.Add(txn.GrossAmount()).Add(fee)
				totalQty = totalQty.Add(qty)
			}
		}
	}

	averageCost = decimal.Zero
	if totalQty.IsPositive() {
		averageCost = totalCost.Div(totalQty)
	}

	return totalQty, averageCost
}

// cashFold accumulates the cash delta an account's entire transaction history
// produces, regardless of which asset each transaction references. Deposits
// add cash, withdrawals remove it, buys spend cash including the fee, sells
// and dividends return cash net of the fee.
func cashFold(txns []*Transaction) decimal.Decimal {
	cash := decimal.Zero

	for _, txn := range txns {
		amount := txn.GrossAmount()
		fee := txn.Fee

		switch txn.Type {
		case TransactionTypeDeposit:
			cash = cash.Add(amount)
		case TransactionTypeWithdraw:
			cash = cash.Sub(amount)
		case TransactionTypeBuy:
			cash = cash.Sub(amount.Add(fee))
		case TransactionTypeSell:
			cash = cash.Add(amount.Sub(fee))
		case TransactionTypeDividend:
			cash = cash.Add(amount.Sub(fee))
		}
	}

	return cash
}
