package execution

import (
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
)

// CostParams holds the fee schedule of the simulated market.
type CostParams struct {
	CommissionRate  float64 `mapstructure:"commission_rate" json:"commission_rate"`
	MinCommission   float64 `mapstructure:"min_commission" json:"min_commission"`
	StampDutyRate   float64 `mapstructure:"stamp_duty_rate" json:"stamp_duty_rate"`
	TransferFeeRate float64 `mapstructure:"transfer_fee_rate" json:"transfer_fee_rate"`
}

// DefaultCostParams returns the A-share fee schedule: 0.03% commission
// with a 5 CNY floor, 0.1% stamp duty on sells, 0.001% transfer fee.
func DefaultCostParams() CostParams {
	return CostParams{
		CommissionRate:  0.0003,
		MinCommission:   5,
		StampDutyRate:   0.001,
		TransferFeeRate: 0.00001,
	}
}

// Validate rejects fee schedules no market would quote.
func (p CostParams) Validate() error {
	for _, f := range []struct {
		name string
		rate float64
	}{
		{"commission_rate", p.CommissionRate},
		{"stamp_duty_rate", p.StampDutyRate},
		{"transfer_fee_rate", p.TransferFeeRate},
	} {
		if f.rate < 0 || f.rate >= 0.1 {
			return core.WrapErrorf(core.ErrInvalidInput, "%s must be in [0, 0.1), got %f", f.name, f.rate)
		}
	}
	if p.MinCommission < 0 {
		return core.WrapErrorf(core.ErrInvalidInput, "min_commission cannot be negative, got %f", p.MinCommission)
	}
	return nil
}

// CostBreakdown itemizes the transaction costs of one fill. Components
// are rounded to currency precision and Total is their exact sum, so the
// breakdown always reconciles.
type CostBreakdown struct {
	Commission   money.Amount `json:"commission"`
	StampDuty    money.Amount `json:"stamp_duty"`
	TransferFee  money.Amount `json:"transfer_fee"`
	Total        money.Amount `json:"total"`
	TotalPercent money.Amount `json:"total_percent"`
}

// Cost computes the fees for filling the given notional amount.
// Commission is amount*rate with a floor of MinCommission; stamp duty
// applies only to sells; the transfer fee applies to both sides.
func Cost(amount money.Amount, isSell bool, p CostParams) CostBreakdown {
	commission := money.Max(
		amount.Mul(money.FromFloat(p.CommissionRate)),
		money.FromFloat(p.MinCommission),
	).Currency()

	stampDuty := money.Zero()
	if isSell {
		stampDuty = amount.Mul(money.FromFloat(p.StampDutyRate)).Currency()
	}

	transferFee := amount.Mul(money.FromFloat(p.TransferFeeRate)).Currency()

	total := commission.Add(stampDuty).Add(transferFee)
	totalPercent := total.SafeDiv(amount, money.Zero()).Percent()

	return CostBreakdown{
		Commission:   commission,
		StampDuty:    stampDuty,
		TransferFee:  transferFee,
		Total:        total,
		TotalPercent: totalPercent,
	}
}

// RoundTripCost sums the buy-side and sell-side costs of the same
// notional amount.
func RoundTripCost(amount money.Amount, p CostParams) money.Amount {
	buy := Cost(amount, false, p)
	sell := Cost(amount, true, p)
	return buy.Total.Add(sell.Total)
}

// ApplySlippage models the gap between a signal price and the assumed
// fill: buys pay price*(1+rate), sells receive price*(1-rate). The
// result snaps to the 0.01 price tick.
func ApplySlippage(price money.Amount, side core.Action, rate float64) money.Amount {
	r := money.FromFloat(rate)
	switch side {
	case core.ActionBuy:
		return price.Mul(money.FromInt(1).Add(r)).Currency()
	case core.ActionSell:
		return price.Mul(money.FromInt(1).Sub(r)).Currency()
	default:
		return price.Currency()
	}
}
