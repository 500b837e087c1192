// Package execution converts notional trade intent into lot-aligned
// quantities and computes transaction costs. All arithmetic goes through
// the money package so fee accounting is exact.
package execution

import (
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
)

// LotCalculation describes how a notional amount was converted into a
// board-lot-aligned quantity.
type LotCalculation struct {
	RequestedShares     int64        `json:"requested_shares"`
	LotSize             int64        `json:"lot_size"`
	ActualLots          int64        `json:"actual_lots"`
	ActualQuantity      int64        `json:"actual_quantity"`
	RoundingLoss        money.Amount `json:"rounding_loss"`
	RoundingLossPercent money.Amount `json:"rounding_loss_percent"`
}

// SizeLots converts a notional amount at a given price into whole lots:
// requestedShares = floor(amount/price), actualLots =
// floor(requestedShares/lotSize), actualQuantity = actualLots*lotSize.
// RoundingLoss is the part of the amount that could not be deployed.
func SizeLots(amount, price money.Amount, lotSize int64) (LotCalculation, error) {
	if amount.IsNegative() {
		return LotCalculation{}, core.WrapErrorf(core.ErrInvalidInput, "negative amount %s", amount)
	}
	if !price.IsPositive() {
		return LotCalculation{}, core.WrapErrorf(core.ErrInvalidInput, "price must be positive, got %s", price)
	}
	if lotSize < 1 {
		return LotCalculation{}, core.WrapErrorf(core.ErrInvalidInput, "lot size must be positive, got %d", lotSize)
	}

	shares, err := amount.Div(price)
	if err != nil {
		return LotCalculation{}, err
	}
	requested := shares.FloorInt()

	lots := requested / lotSize
	quantity := lots * lotSize

	loss := amount.Sub(price.MulInt(quantity))
	lossPercent := loss.SafeDiv(amount, money.Zero())

	return LotCalculation{
		RequestedShares:     requested,
		LotSize:             lotSize,
		ActualLots:          lots,
		ActualQuantity:      quantity,
		RoundingLoss:        loss.Currency(),
		RoundingLossPercent: lossPercent.Percent(),
	}, nil
}
