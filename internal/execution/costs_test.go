package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
)

func TestCost_SellSide(t *testing.T) {
	p := CostParams{CommissionRate: 0.0003, MinCommission: 5, StampDutyRate: 0.001}

	cb := Cost(money.FromInt(100000), true, p)

	// commission = max(100000*0.0003, 5) = 30, stamp = 100, transfer = 0
	assert.Equal(t, "30", cb.Commission.String())
	assert.Equal(t, "100", cb.StampDuty.String())
	assert.True(t, cb.TransferFee.IsZero())
	assert.Equal(t, "130", cb.Total.String())
	assert.Equal(t, "0.0013", cb.TotalPercent.String())
}

func TestCost_BuyHasNoStampDuty(t *testing.T) {
	p := DefaultCostParams()

	cb := Cost(money.FromInt(100000), false, p)

	assert.True(t, cb.StampDuty.IsZero(), "stamp duty applies only to sells")
	assert.Equal(t, "30", cb.Commission.String())
	assert.Equal(t, "1", cb.TransferFee.String())
	assert.Equal(t, "31", cb.Total.String())
}

func TestCost_CommissionFloor(t *testing.T) {
	p := DefaultCostParams()

	// 1000 * 0.0003 = 0.3, below the 5 CNY floor
	cb := Cost(money.FromInt(1000), false, p)
	assert.Equal(t, "5", cb.Commission.String())

	// Right at the floor boundary: 16666.67 * 0.0003 = 5.000001 -> 5
	cb = Cost(money.FromFloat(16666.67), false, p)
	assert.Equal(t, "5", cb.Commission.String())
}

func TestCost_TotalReconciles(t *testing.T) {
	p := DefaultCostParams()

	for _, amount := range []float64{1, 999.5, 10150, 123456.78, 1000000} {
		for _, isSell := range []bool{true, false} {
			cb := Cost(money.FromFloat(amount), isSell, p)
			sum := cb.Commission.Add(cb.StampDuty).Add(cb.TransferFee)
			assert.Truef(t, cb.Total.Equal(sum),
				"total %s != sum of parts %s for amount %f", cb.Total, sum, amount)
		}
	}
}

func TestCost_MonotonicInRates(t *testing.T) {
	amount := money.FromInt(50000)
	base := CostParams{CommissionRate: 0.0003, MinCommission: 5, StampDutyRate: 0.001, TransferFeeRate: 0.00001}

	prev := Cost(amount, true, base).Total
	for _, bump := range []float64{0.0005, 0.001, 0.002} {
		p := base
		p.CommissionRate = bump
		got := Cost(amount, true, p).Total
		assert.True(t, got.Cmp(prev) >= 0, "total must not decrease as commission rate rises")
		prev = got
	}

	prev = Cost(amount, true, base).Total
	for _, bump := range []float64{0.002, 0.003, 0.005} {
		p := base
		p.StampDutyRate = bump
		got := Cost(amount, true, p).Total
		assert.True(t, got.Cmp(prev) >= 0, "total must not decrease as stamp duty rate rises")
		prev = got
	}

	prev = Cost(amount, true, base).Total
	for _, bump := range []float64{0.0001, 0.0005, 0.001} {
		p := base
		p.TransferFeeRate = bump
		got := Cost(amount, true, p).Total
		assert.True(t, got.Cmp(prev) >= 0, "total must not decrease as transfer fee rate rises")
		prev = got
	}
}

func TestRoundTripCost(t *testing.T) {
	p := DefaultCostParams()
	amount := money.FromInt(100000)

	buy := Cost(amount, false, p)
	sell := Cost(amount, true, p)

	rt := RoundTripCost(amount, p)
	assert.True(t, rt.Equal(buy.Total.Add(sell.Total)))

	// 31 buy side + 131 sell side
	assert.Equal(t, "162", rt.String())
}

func TestApplySlippage(t *testing.T) {
	price := money.FromFloat(10.50)

	buy := ApplySlippage(price, core.ActionBuy, 0.001)
	assert.Equal(t, "10.51", buy.String(), "buys pay up")

	sell := ApplySlippage(price, core.ActionSell, 0.001)
	assert.Equal(t, "10.49", sell.String(), "sells receive less")

	hold := ApplySlippage(price, core.ActionHold, 0.001)
	assert.Equal(t, "10.5", hold.String())

	zero := ApplySlippage(price, core.ActionBuy, 0)
	assert.Equal(t, "10.5", zero.String())
}

func TestApplySlippage_MonotonicInRate(t *testing.T) {
	price := money.FromInt(100)

	prevBuy := ApplySlippage(price, core.ActionBuy, 0)
	prevSell := ApplySlippage(price, core.ActionSell, 0)
	for _, rate := range []float64{0.0005, 0.001, 0.005, 0.01} {
		buy := ApplySlippage(price, core.ActionBuy, rate)
		sell := ApplySlippage(price, core.ActionSell, rate)

		assert.True(t, buy.Cmp(prevBuy) >= 0, "buy fill must not improve as slippage rises")
		assert.True(t, sell.Cmp(prevSell) <= 0, "sell fill must not improve as slippage rises")
		prevBuy, prevSell = buy, sell
	}
}

func TestCostParams_Validate(t *testing.T) {
	require.NoError(t, DefaultCostParams().Validate())

	bad := DefaultCostParams()
	bad.CommissionRate = -0.01
	assert.ErrorIs(t, bad.Validate(), core.ErrInvalidInput)

	bad = DefaultCostParams()
	bad.StampDutyRate = 0.5
	assert.ErrorIs(t, bad.Validate(), core.ErrInvalidInput)

	bad = DefaultCostParams()
	bad.MinCommission = -1
	assert.ErrorIs(t, bad.Validate(), core.ErrInvalidInput)
}
